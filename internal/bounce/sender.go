package bounce

import (
	"context"
	"fmt"
	"log/slog"

	mg "github.com/mailgun/mailgun-go/v5"
	mail "github.com/wneessen/go-mail"

	"github.com/mailgatehq/mailgate/internal/config"
)

// Notice is one rendered rejection notice. InReplyTo carries the message id
// of the inbound email the notice answers and may be empty.
type Notice struct {
	To        string
	Subject   string
	Body      string
	InReplyTo string
}

// Sender delivers one plain-text notice to a single recipient.
type Sender interface {
	Send(ctx context.Context, notice Notice) error
}

// NewSender builds the transport named by the outgoing config.
func NewSender(log *slog.Logger, cfg config.OutgoingConfig) (Sender, error) {
	switch cfg.Transport {
	case "smtp":
		return NewSMTPSender(log, cfg), nil
	case "mailgun":
		return NewMailgunSender(log, cfg), nil
	case "none", "":
		return NewNopSender(log), nil
	default:
		return nil, fmt.Errorf("unknown outgoing transport %q", cfg.Transport)
	}
}

// SMTPSender sends notices through a plain SMTP account.
type SMTPSender struct {
	logger *slog.Logger
	cfg    config.OutgoingConfig
}

func NewSMTPSender(log *slog.Logger, cfg config.OutgoingConfig) *SMTPSender {
	if log == nil {
		log = slog.Default()
	}
	return &SMTPSender{logger: log.With(slog.String("sender", "smtp")), cfg: cfg}
}

func (s *SMTPSender) Send(ctx context.Context, notice Notice) error {
	m := mail.NewMsg()
	if s.cfg.FromName != "" {
		if err := m.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
			return fmt.Errorf("set from: %w", err)
		}
	} else if err := m.From(s.cfg.FromAddress); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := m.To(notice.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	m.Subject(notice.Subject)
	m.SetBodyString(mail.TypeTextPlain, notice.Body)
	m.SetMessageID()
	if notice.InReplyTo != "" {
		m.SetGenHeader(mail.HeaderInReplyTo, notice.InReplyTo)
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.SMTP.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.SMTP.Username),
		mail.WithPassword(s.cfg.SMTP.Password),
	}
	switch s.cfg.SMTP.Security {
	case "tls":
		opts = append(opts, mail.WithSSLPort(false), mail.WithTLSPolicy(mail.TLSMandatory))
	case "starttls":
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(s.cfg.SMTP.Host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	s.logger.Debug("notice sent", slog.String("message_id", m.GetMessageID()))
	return nil
}

// MailgunSender sends notices through the Mailgun messages API.
type MailgunSender struct {
	logger *slog.Logger
	client *mg.Client
	domain string
	from   string
}

func NewMailgunSender(log *slog.Logger, cfg config.OutgoingConfig) *MailgunSender {
	if log == nil {
		log = slog.Default()
	}
	client := mg.NewMailgun(cfg.Mailgun.APIKey)
	if cfg.Mailgun.Region == "eu" {
		client.SetAPIBase(mg.APIBaseEU)
	}
	from := cfg.FromAddress
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}
	return &MailgunSender{
		logger: log.With(slog.String("sender", "mailgun")),
		client: client,
		domain: cfg.Mailgun.Domain,
		from:   from,
	}
}

func (s *MailgunSender) Send(ctx context.Context, notice Notice) error {
	m := mg.NewMessage(s.domain, s.from, notice.Subject, notice.Body, notice.To)
	if notice.InReplyTo != "" {
		m.AddHeader("In-Reply-To", notice.InReplyTo)
	}
	resp, err := s.client.Send(ctx, m)
	if err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	s.logger.Debug("notice sent", slog.String("message_id", resp.ID))
	return nil
}

// NopSender drops notices. Used when no outgoing transport is configured.
type NopSender struct {
	logger *slog.Logger
}

func NewNopSender(log *slog.Logger) *NopSender {
	if log == nil {
		log = slog.Default()
	}
	return &NopSender{logger: log}
}

func (s *NopSender) Send(_ context.Context, notice Notice) error {
	s.logger.Debug("outgoing transport disabled, dropping notice",
		slog.String("to", notice.To), slog.String("subject", notice.Subject))
	return nil
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*MailgunSender)(nil)
	_ Sender = (*NopSender)(nil)
)
