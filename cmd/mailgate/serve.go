package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/mailgatehq/mailgate/internal/attachments"
	"github.com/mailgatehq/mailgate/internal/bounce"
	"github.com/mailgatehq/mailgate/internal/config"
	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
	"github.com/mailgatehq/mailgate/internal/deliveries"
	"github.com/mailgatehq/mailgate/internal/handlers"
	"github.com/mailgatehq/mailgate/internal/inbound"
	"github.com/mailgatehq/mailgate/internal/issues"
	"github.com/mailgatehq/mailgate/internal/logger"
	"github.com/mailgatehq/mailgate/internal/mailparse"
	"github.com/mailgatehq/mailgate/internal/mailroom"
	"github.com/mailgatehq/mailgate/internal/notes"
	"github.com/mailgatehq/mailgate/internal/notifications"
	"github.com/mailgatehq/mailgate/internal/projects"
	"github.com/mailgatehq/mailgate/internal/prune"
	"github.com/mailgatehq/mailgate/internal/reply"
	"github.com/mailgatehq/mailgate/internal/server"
	"github.com/mailgatehq/mailgate/internal/users"
	"github.com/mailgatehq/mailgate/internal/version"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideDBQueries,
			users.NewService,
			projects.NewService,
			notifications.NewService,
			notes.NewService,
			issues.NewService,
			deliveries.NewService,
			mailparse.NewParser,
			reply.NewStripper,
			provideAttachmentStore,
			provideKeyScheme,
			provideReceiver,
			provideBounceSender,
			provideBounceNotifier,
			provideProcessor,
			provideMailgunWebhook,
			providePruneService,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(handlers.NewUsersHandler),
			provideServerHandler(handlers.NewProjectsHandler),
			provideServerHandler(handlers.NewNotificationsHandler),
			provideServerHandler(handlers.NewDeliveriesHandler),
			provideServer,
		),
		fx.Invoke(
			startServer,
			startIMAPSource,
			startRetention,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	return loadConfig()
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideDBQueries(conn *pgxpool.Pool) *sqlc.Queries { return sqlc.New(conn) }

func provideAttachmentStore(log *slog.Logger, queries *sqlc.Queries, cfg config.Config) *attachments.Store {
	return attachments.NewStore(log, queries, cfg.Storage)
}

func provideKeyScheme(cfg config.Config) (*mailroom.KeyScheme, error) {
	return mailroom.NewKeyScheme(cfg.Incoming.Address, cfg.Incoming.ReplyHost)
}

func provideReceiver(log *slog.Logger, scheme *mailroom.KeyScheme, parser *mailparse.Parser, stripper *reply.Stripper, userService *users.Service, projectService *projects.Service, notificationService *notifications.Service, attachmentStore *attachments.Store, noteService *notes.Service, issueService *issues.Service) *mailroom.Receiver {
	return mailroom.NewReceiver(log, scheme, parser, stripper, mailroom.Collaborators{
		Users:    userService,
		Projects: projectService,
		Contexts: notificationService,
		Policy:   userService,
		Uploads:  attachmentStore,
		Notes:    noteService,
		Issues:   issueService,
	})
}

func provideBounceSender(log *slog.Logger, cfg config.Config) (bounce.Sender, error) {
	return bounce.NewSender(log, cfg.Outgoing)
}

func provideBounceNotifier(log *slog.Logger, sender bounce.Sender, cfg config.Config) (*bounce.Notifier, error) {
	return bounce.NewNotifier(log, sender, cfg.Outgoing.TemplateDir)
}

func provideProcessor(log *slog.Logger, receiver *mailroom.Receiver, deliveryService *deliveries.Service, notifier *bounce.Notifier) *inbound.Processor {
	return inbound.NewProcessor(log, receiver, deliveryService, notifier)
}

func provideMailgunWebhook(cfg config.Config) *inbound.MailgunWebhook {
	return inbound.NewMailgunWebhook(cfg.Incoming.Mailgun)
}

func providePruneService(log *slog.Logger, notificationService *notifications.Service, deliveryService *deliveries.Service, cfg config.Config) *prune.Service {
	return prune.NewService(log, notificationService, deliveryService, cfg.Retention.Schedule, deliveryMaxAge(cfg))
}

func provideAuthHandler(log *slog.Logger, userService *users.Service, cfg config.Config) (*handlers.AuthHandler, error) {
	expiresIn, err := jwtExpiry(cfg)
	if err != nil {
		return nil, err
	}
	return handlers.NewAuthHandler(log, userService, cfg.Auth.JWTSecret, expiresIn), nil
}

func provideWebhookHandler(log *slog.Logger, webhook *inbound.MailgunWebhook, processor *inbound.Processor) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, webhook, processor)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config, userService *users.Service) {
	fmt.Printf("Starting Mailgate %s\n", version.GetInfo())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ensureAdminUser(ctx, log, userService, cfg); err != nil {
				return err
			}
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func startIMAPSource(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, processor *inbound.Processor) {
	if !cfg.Incoming.IMAP.Enabled {
		return
	}
	source := inbound.NewIMAPSource(log, cfg.Incoming.IMAP, processor)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error { source.Start(ctx); return nil },
		OnStop:  func(stopCtx context.Context) error { cancel(); return source.Stop(stopCtx) },
	})
}

func startRetention(lc fx.Lifecycle, svc *prune.Service) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error { return svc.Start() },
		OnStop:  func(_ context.Context) error { svc.Stop(); return nil },
	})
}

func ensureAdminUser(ctx context.Context, log *slog.Logger, userService *users.Service, cfg config.Config) error {
	username := strings.TrimSpace(cfg.Admin.Username)
	password := strings.TrimSpace(cfg.Admin.Password)
	email := strings.TrimSpace(cfg.Admin.Email)
	if username == "" || password == "" {
		return fmt.Errorf("admin username/password required in config.toml")
	}
	if password == "change-your-password-here" {
		log.Warn("admin password uses default placeholder; please update config.toml")
	}
	return userService.EnsureAdmin(ctx, username, email, password)
}

func jwtExpiry(cfg config.Config) (time.Duration, error) {
	raw := strings.TrimSpace(cfg.Auth.JWTExpiresIn)
	if raw == "" {
		raw = config.DefaultJWTExpiresIn
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse auth jwt_expires_in %q: %w", raw, err)
	}
	return d, nil
}
