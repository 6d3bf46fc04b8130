package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mailgatehq/mailgate/internal/deliveries"
)

// DeliveriesHandler exposes the audit trail of processed inbound emails.
type DeliveriesHandler struct {
	service *deliveries.Service
	logger  *slog.Logger
}

func NewDeliveriesHandler(log *slog.Logger, service *deliveries.Service) *DeliveriesHandler {
	if log == nil {
		log = slog.Default()
	}
	return &DeliveriesHandler{
		service: service,
		logger:  log.With(slog.String("handler", "deliveries")),
	}
}

func (h *DeliveriesHandler) Register(e *echo.Echo) {
	g := e.Group("/deliveries")
	g.GET("", h.ListDeliveries)
	g.GET("/:id", h.GetDelivery)
}

type listDeliveriesResponse struct {
	Items []deliveries.Delivery `json:"items"`
}

// ListDeliveries godoc
// @Summary List deliveries
// @Description List processed inbound emails, newest first
// @Tags deliveries
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listDeliveriesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /deliveries [get]
func (h *DeliveriesHandler) ListDeliveries(c echo.Context) error {
	limit, err := queryInt(c, "limit")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "offset must be an integer")
	}
	items, err := h.service.List(c.Request().Context(), limit, offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listDeliveriesResponse{Items: items})
}

// GetDelivery godoc
// @Summary Get delivery by ID
// @Tags deliveries
// @Param id path string true "Delivery ID"
// @Success 200 {object} deliveries.Delivery
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /deliveries/{id} [get]
func (h *DeliveriesHandler) GetDelivery(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "delivery id is required")
	}
	delivery, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, deliveries.ErrDeliveryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "delivery not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, delivery)
}

func queryInt(c echo.Context, name string) (int64, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
