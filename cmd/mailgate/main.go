package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/mailgatehq/mailgate/internal/auth"
	"github.com/mailgatehq/mailgate/internal/config"
	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
	"github.com/mailgatehq/mailgate/internal/deliveries"
	"github.com/mailgatehq/mailgate/internal/logger"
	"github.com/mailgatehq/mailgate/internal/notifications"
	"github.com/mailgatehq/mailgate/internal/prune"
	"github.com/mailgatehq/mailgate/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mailgate",
		Short:   "Email gateway that turns inbound mail into notes and issues",
		Version: version.GetInfo(),
	}
	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newProcessCmd(), newTokenCmd(), newPruneCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, Mailgun webhook, and IMAP intake",
		Run:   func(*cobra.Command, []string) { runServe() },
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger.Init(cfg.Log.Level, cfg.Log.Format)
			if err := db.Migrate(cfg.Postgres); err != nil {
				return err
			}
			logger.L.Info("migrations applied", slog.String("database", cfg.Postgres.Database))
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var userID string
	var expiresIn time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
				return fmt.Errorf("auth jwt_secret is not set in config.toml")
			}
			token, expiresAt, err := auth.GenerateToken(userID, cfg.Auth.JWTSecret, expiresIn)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "user id the token acts as")
	cmd.Flags().DurationVar(&expiresIn, "expires-in", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Run one retention pass over expired reply keys and old deliveries",
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			svc := prune.NewService(log,
				notifications.NewService(log, queries),
				deliveries.NewService(log, queries),
				cfg.Retention.Schedule,
				deliveryMaxAge(cfg))
			return svc.Run(ctx)
		},
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openQueries connects to Postgres for a one-shot command. The caller closes
// the pool.
func openQueries(ctx context.Context, cfg config.Config) (*pgxpool.Pool, *sqlc.Queries, error) {
	pool, err := db.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	return pool, sqlc.New(pool), nil
}

func deliveryMaxAge(cfg config.Config) time.Duration {
	return time.Duration(cfg.Retention.DeliveryMaxAgeDays) * 24 * time.Hour
}
