package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mailgatehq/mailgate/internal/mailroom"
	"github.com/mailgatehq/mailgate/internal/notifications"
	"github.com/mailgatehq/mailgate/internal/validate"
)

// NotificationsHandler mints reply keys for outbound notification emails. The
// platform calls it right before sending a notification so the reply address
// it embeds routes back to the discussion.
type NotificationsHandler struct {
	service *notifications.Service
	scheme  *mailroom.KeyScheme
	logger  *slog.Logger
}

func NewNotificationsHandler(log *slog.Logger, service *notifications.Service, scheme *mailroom.KeyScheme) *NotificationsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationsHandler{
		service: service,
		scheme:  scheme,
		logger:  log.With(slog.String("handler", "notifications")),
	}
}

func (h *NotificationsHandler) Register(e *echo.Echo) {
	e.POST("/notifications", h.RecordNotification)
}

type recordNotificationRequest struct {
	notifications.RecordParams
	// TTLSeconds bounds how long the key stays routable; zero means no expiry.
	TTLSeconds int64 `json:"ttl_seconds,omitempty"`
}

type recordNotificationResponse struct {
	notifications.SentNotification
	// ReplyAddress is the full incoming address rendered for the minted key.
	ReplyAddress string `json:"reply_address"`
}

// RecordNotification godoc
// @Summary Record sent notification
// @Description Mint a reply key for an outbound notification email
// @Tags notifications
// @Param payload body recordNotificationRequest true "Notification payload"
// @Success 201 {object} recordNotificationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /notifications [post]
func (h *NotificationsHandler) RecordNotification(c echo.Context) error {
	var req recordNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req.RecordParams); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(validate.Messages(err), "; "))
	}
	if req.TTLSeconds < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "ttl_seconds must not be negative")
	}
	params := req.RecordParams
	params.TTL = time.Duration(req.TTLSeconds) * time.Second
	notification, err := h.service.Record(c.Request().Context(), params)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, recordNotificationResponse{
		SentNotification: notification,
		ReplyAddress:     h.scheme.FormatAddress(notification.ReplyKey),
	})
}
