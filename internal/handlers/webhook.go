package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mailgatehq/mailgate/internal/inbound"
	"github.com/mailgatehq/mailgate/internal/mailroom"
)

// WebhookHandler receives raw inbound email posted by a Mailgun route.
type WebhookHandler struct {
	webhook   *inbound.MailgunWebhook
	processor inbound.Handler
	logger    *slog.Logger
}

func NewWebhookHandler(log *slog.Logger, webhook *inbound.MailgunWebhook, processor inbound.Handler) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		webhook:   webhook,
		processor: processor,
		logger:    log.With(slog.String("handler", "webhook")),
	}
}

func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/email/mailgun/webhook", h.Receive)
}

type webhookResponse struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Route   string `json:"route,omitempty"`
	NoteID  string `json:"note_id,omitempty"`
	IssueID string `json:"issue_id,omitempty"`
}

// Receive godoc
// @Summary Receive inbound email
// @Description Accept a raw MIME message forwarded by a Mailgun route
// @Tags email
// @Accept x-www-form-urlencoded
// @Success 200 {object} webhookResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /email/mailgun/webhook [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	raw, err := h.webhook.Parse(c.Request())
	if err != nil {
		switch {
		case errors.Is(err, inbound.ErrIntakeDisabled):
			return echo.NewHTTPError(http.StatusNotFound, "mailgun intake is disabled")
		case errors.Is(err, inbound.ErrBadSignature):
			h.logger.Warn("webhook signature rejected", slog.String("remote_ip", c.RealIP()))
			return echo.NewHTTPError(http.StatusForbidden, "signature verification failed")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}

	receipt, err := h.processor.Handle(c.Request().Context(), raw)
	if err != nil {
		// A rejection is a final verdict, already audited and bounced. Answer
		// 200 so Mailgun does not redeliver the message.
		if rej, ok := mailroom.AsRejection(err); ok {
			return c.JSON(http.StatusOK, webhookResponse{
				Status: "rejected",
				Kind:   mailroom.Kind(rej),
				Route:  string(receipt.Route),
			})
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "email processing failed")
	}

	return c.JSON(http.StatusOK, webhookResponse{
		Status:  "ok",
		Route:   string(receipt.Route),
		NoteID:  receipt.NoteID,
		IssueID: receipt.IssueID,
	})
}
