package inbound

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/mailgatehq/mailgate/internal/config"
	"github.com/mailgatehq/mailgate/internal/mailroom"
)

// IMAPSource watches one mailbox and feeds every new message to the handler.
// It prefers IDLE and falls back to polling when the server lacks it.
type IMAPSource struct {
	logger  *slog.Logger
	cfg     config.IMAPConfig
	handler Handler
	cancel  context.CancelFunc
	once    sync.Once
	lastUID imap.UID
}

func NewIMAPSource(log *slog.Logger, cfg config.IMAPConfig, handler Handler) *IMAPSource {
	if log == nil {
		log = slog.Default()
	}
	return &IMAPSource{
		logger:  log.With(slog.String("source", "imap")),
		cfg:     cfg,
		handler: handler,
	}
}

// Start spawns the receive loop; Stop cancels it.
func (s *IMAPSource) Start(ctx context.Context) {
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(rctx)
}

func (s *IMAPSource) Stop(_ context.Context) error {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
	return nil
}

func (s *IMAPSource) run(ctx context.Context) {
	for ctx.Err() == nil {
		if err := s.connectAndReceive(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error("imap connection error, retrying in 30s", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(30 * time.Second):
			}
		}
	}
}

func (s *IMAPSource) connectAndReceive(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	// Channel to receive "new mail" signals from IMAP unilateral notifications
	newMailCh := make(chan struct{}, 1)
	notifyNewMail := func() {
		select {
		case newMailCh <- struct{}{}:
		default:
		}
	}

	opts := &imapclient.Options{
		TLSConfig: &tls.Config{ServerName: s.cfg.Host},
		UnilateralDataHandler: &imapclient.UnilateralDataHandler{
			Mailbox: func(data *imapclient.UnilateralDataMailbox) {
				if data.NumMessages != nil {
					notifyNewMail()
				}
			},
		},
	}
	var client *imapclient.Client
	var err error
	switch s.cfg.Security {
	case "starttls":
		client, err = imapclient.DialStartTLS(addr, opts)
	case "none":
		client, err = imapclient.DialInsecure(addr, opts)
	default:
		client, err = imapclient.DialTLS(addr, opts)
	}
	if err != nil {
		return fmt.Errorf("dial imap (%s): %w", s.cfg.Security, err)
	}
	defer client.Close()

	if err := client.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		return fmt.Errorf("imap login: %w", err)
	}
	defer client.Logout()

	if _, err := client.Select(s.cfg.Mailbox, nil).Wait(); err != nil {
		return fmt.Errorf("select %s: %w", s.cfg.Mailbox, err)
	}

	s.logger.Info("imap connected",
		slog.String("host", s.cfg.Host),
		slog.String("mailbox", s.cfg.Mailbox))
	s.fetchNewMessages(ctx, client)

	idleCmd, idleErr := client.Idle()
	if idleErr != nil {
		s.logger.Warn("IDLE not supported, falling back to polling", slog.Any("error", idleErr))
		return s.pollLoop(ctx, client)
	}
	s.logger.Info("IDLE mode active")

	// Even with IDLE, periodically check for new mail as a safety net
	// (some servers accept IDLE but don't push EXISTS notifications)
	checkInterval := s.pollInterval()
	if checkInterval > 2*time.Minute {
		checkInterval = 2 * time.Minute
	}

	for {
		select {
		case <-ctx.Done():
			_ = idleCmd.Close()
			return nil
		case <-newMailCh:
			_ = idleCmd.Close()
			s.fetchNewMessages(ctx, client)
			idleCmd, idleErr = client.Idle()
			if idleErr != nil {
				return s.pollLoop(ctx, client)
			}
		case <-time.After(checkInterval):
			_ = idleCmd.Close()
			s.fetchNewMessages(ctx, client)
			idleCmd, idleErr = client.Idle()
			if idleErr != nil {
				return s.pollLoop(ctx, client)
			}
		}
	}
}

func (s *IMAPSource) pollInterval() time.Duration {
	if s.cfg.PollIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.cfg.PollIntervalSeconds) * time.Second
}

func (s *IMAPSource) pollLoop(ctx context.Context, client *imapclient.Client) error {
	for {
		s.fetchNewMessages(ctx, client)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.pollInterval()):
		}
	}
}

func (s *IMAPSource) fetchNewMessages(ctx context.Context, client *imapclient.Client) {
	// Use UID range to find messages newer than the last processed one.
	// This works regardless of \Seen flag, so other clients reading mail
	// won't interfere.
	var uidSet imap.UIDSet
	if s.lastUID > 0 {
		uidSet.AddRange(s.lastUID+1, 0)
	} else {
		uidSet.AddRange(1, 0)
	}

	fetchOpts := &imap.FetchOptions{
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{{}},
	}
	fetchCmd := client.Fetch(uidSet, fetchOpts)

	isFirstRun := s.lastUID == 0
	processed := 0
	var done []imap.UID

	for {
		msgData := fetchCmd.Next()
		if msgData == nil {
			break
		}

		buf, err := msgData.Collect()
		if err != nil {
			continue
		}
		if buf.UID > s.lastUID {
			s.lastUID = buf.UID
		}

		// On first run, just record the highest UID without processing old messages
		if isFirstRun {
			continue
		}
		if len(buf.BodySection) == 0 || len(buf.BodySection[0].Bytes) == 0 {
			continue
		}
		processed++

		// Verdicts and failures are logged and audited by the handler. A
		// rejection is final, so the message can be removed; an
		// infrastructure error leaves it in the mailbox.
		_, err = s.handler.Handle(ctx, buf.BodySection[0].Bytes)
		if _, rejected := mailroom.AsRejection(err); err == nil || rejected {
			done = append(done, buf.UID)
		}
	}
	_ = fetchCmd.Close()

	if processed > 0 {
		s.logger.Info("imap fetch completed",
			slog.Int("processed", processed),
			slog.Uint64("last_uid", uint64(s.lastUID)))
	}

	if s.cfg.DeleteAfterRead && len(done) > 0 {
		s.deleteMessages(client, done)
	}
}

// deleteMessages flags handled messages and expunges them so the mailbox does
// not accumulate processed mail.
func (s *IMAPSource) deleteMessages(client *imapclient.Client, uids []imap.UID) {
	var uidSet imap.UIDSet
	uidSet.AddNum(uids...)

	storeCmd := client.Store(uidSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		s.logger.Error("flag deleted messages", slog.Any("error", err))
		return
	}
	if err := client.Expunge().Close(); err != nil {
		s.logger.Error("expunge mailbox", slog.Any("error", err))
	}
}
