package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mailgatehq/mailgate/internal/version"
)

// PingHandler serves unauthenticated liveness endpoints.
type PingHandler struct {
	logger *slog.Logger
}

func NewPingHandler(log *slog.Logger) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PingHandler{
		logger: log.With(slog.String("handler", "ping")),
	}
}

func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.PingHead)
}

// Ping godoc
// @Summary Liveness probe
// @Description Report service liveness and build version
// @Tags system
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetInfo(),
	})
}

// PingHead godoc
// @Summary Liveness probe (HEAD)
// @Tags system
// @Success 200 "OK"
// @Router /health [head]
func (h *PingHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}
