// Package inbound connects mail sources to the routing engine. Every raw
// message is processed exactly once, recorded in the delivery audit trail,
// and bounced back to the sender when policy allows.
package inbound

import (
	"context"
	"log/slog"

	"github.com/mailgatehq/mailgate/internal/deliveries"
	"github.com/mailgatehq/mailgate/internal/mailroom"
)

// Engine is the routing pipeline a processor drives.
type Engine interface {
	Process(ctx context.Context, raw []byte) (*mailroom.Receipt, error)
}

// Auditor records one row per processed message.
type Auditor interface {
	Record(ctx context.Context, params deliveries.RecordParams) (deliveries.Delivery, error)
}

// Bouncer mails a rejection notice back to the sender.
type Bouncer interface {
	Notify(ctx context.Context, receipt *mailroom.Receipt, rej *mailroom.Rejection) error
}

// Handler is what mail sources call with each raw message.
type Handler interface {
	Handle(ctx context.Context, raw []byte) (*mailroom.Receipt, error)
}

// neverBounce lists rejection kinds that must not produce a notice: blank or
// unparsable input has no trustworthy sender address, and answering
// auto-generated mail risks a loop.
var neverBounce = map[string]bool{
	"empty_input":      true,
	"email_unparsable": true,
	"auto_generated":   true,
}

// Processor runs one message through the engine, then audits and bounces.
// Audit and bounce failures are logged, never returned: by the time they run
// the message has already been acted on, and failing here would make webhook
// sources redeliver it.
type Processor struct {
	logger  *slog.Logger
	engine  Engine
	audit   Auditor
	bouncer Bouncer
}

func NewProcessor(log *slog.Logger, engine Engine, audit Auditor, bouncer Bouncer) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		logger:  log.With(slog.String("component", "inbound")),
		engine:  engine,
		audit:   audit,
		bouncer: bouncer,
	}
}

func (p *Processor) Handle(ctx context.Context, raw []byte) (*mailroom.Receipt, error) {
	receipt, err := p.engine.Process(ctx, raw)

	params := deliveries.RecordParams{
		MessageID: receipt.MessageID,
		Route:     string(receipt.Route),
		Status:    deliveries.StatusCreated,
		NoteID:    receipt.NoteID,
		IssueID:   receipt.IssueID,
	}

	rej, isRejection := mailroom.AsRejection(err)
	switch {
	case err == nil:
	case isRejection:
		params.Status = deliveries.StatusRejected
		params.ErrorKind = mailroom.Kind(rej)
		params.ErrorDetail = rej.Error()
		p.logger.Info("email rejected",
			slog.String("kind", params.ErrorKind),
			slog.String("message_id", receipt.MessageID))
	default:
		params.Status = deliveries.StatusErrored
		params.ErrorDetail = err.Error()
		p.logger.Error("email processing failed",
			slog.Any("error", err),
			slog.String("message_id", receipt.MessageID))
	}

	if _, auditErr := p.audit.Record(ctx, params); auditErr != nil {
		p.logger.Error("record delivery",
			slog.Any("error", auditErr),
			slog.String("message_id", receipt.MessageID))
	}

	if isRejection && !neverBounce[params.ErrorKind] {
		if bounceErr := p.bouncer.Notify(ctx, receipt, rej); bounceErr != nil {
			p.logger.Error("send rejection notice",
				slog.Any("error", bounceErr),
				slog.String("message_id", receipt.MessageID))
		}
	}

	return receipt, err
}

var _ Handler = (*Processor)(nil)
