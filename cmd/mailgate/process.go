package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mailgatehq/mailgate/internal/attachments"
	"github.com/mailgatehq/mailgate/internal/bounce"
	"github.com/mailgatehq/mailgate/internal/config"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
	"github.com/mailgatehq/mailgate/internal/deliveries"
	"github.com/mailgatehq/mailgate/internal/inbound"
	"github.com/mailgatehq/mailgate/internal/issues"
	"github.com/mailgatehq/mailgate/internal/logger"
	"github.com/mailgatehq/mailgate/internal/mailparse"
	"github.com/mailgatehq/mailgate/internal/mailroom"
	"github.com/mailgatehq/mailgate/internal/notes"
	"github.com/mailgatehq/mailgate/internal/notifications"
	"github.com/mailgatehq/mailgate/internal/projects"
	"github.com/mailgatehq/mailgate/internal/reply"
	"github.com/mailgatehq/mailgate/internal/users"
)

// processVerdict is the one-line JSON the process command prints. It matches
// the webhook response shape so scripts can share parsing.
type processVerdict struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Route   string `json:"route,omitempty"`
	NoteID  string `json:"note_id,omitempty"`
	IssueID string `json:"issue_id,omitempty"`
}

func newProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process [file]",
		Short: "Route one raw email from a file or stdin and print the verdict",
		Long: "Runs a single raw RFC 5322 message through the full routing pipeline,\n" +
			"including the delivery audit row and any rejection notice, exactly as the\n" +
			"webhook and IMAP intakes would.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readRawMessage(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			log := logger.L

			ctx := cmd.Context()
			pool, queries, err := openQueries(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			processor, err := buildProcessor(log, cfg, queries)
			if err != nil {
				return err
			}

			receipt, err := processor.Handle(ctx, raw)
			verdict := processVerdict{
				Status:  "ok",
				Route:   string(receipt.Route),
				NoteID:  receipt.NoteID,
				IssueID: receipt.IssueID,
			}
			if err != nil {
				rej, ok := mailroom.AsRejection(err)
				if !ok {
					return err
				}
				// A rejection is a verdict, not a failure: the audit row and any
				// notice were already written, so report it and exit zero.
				verdict.Status = "rejected"
				verdict.Kind = mailroom.Kind(rej)
				verdict.NoteID = ""
				verdict.IssueID = ""
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(verdict)
		},
	}
}

func readRawMessage(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("read message: %w", err)
		}
		return raw, nil
	}
	raw, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read message from stdin: %w", err)
	}
	return raw, nil
}

// buildProcessor assembles the routing pipeline the way serve does, without
// the fx graph.
func buildProcessor(log *slog.Logger, cfg config.Config, queries *sqlc.Queries) (*inbound.Processor, error) {
	scheme, err := mailroom.NewKeyScheme(cfg.Incoming.Address, cfg.Incoming.ReplyHost)
	if err != nil {
		return nil, err
	}
	sender, err := bounce.NewSender(log, cfg.Outgoing)
	if err != nil {
		return nil, err
	}
	notifier, err := bounce.NewNotifier(log, sender, cfg.Outgoing.TemplateDir)
	if err != nil {
		return nil, err
	}

	userService := users.NewService(log, queries)
	receiver := mailroom.NewReceiver(log, scheme, mailparse.NewParser(log), reply.NewStripper(), mailroom.Collaborators{
		Users:    userService,
		Projects: projects.NewService(log, queries),
		Contexts: notifications.NewService(log, queries),
		Policy:   userService,
		Uploads:  attachments.NewStore(log, queries, cfg.Storage),
		Notes:    notes.NewService(log, queries),
		Issues:   issues.NewService(log, queries),
	})
	return inbound.NewProcessor(log, receiver, deliveries.NewService(log, queries), notifier), nil
}
