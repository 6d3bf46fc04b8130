package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultConfigPath   = "config.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultJWTExpiresIn = "24h"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "mailgate"
	DefaultPGSSLMode    = "disable"

	// DefaultReplyAddress is the incoming address template; %{key} marks where
	// the routing key is embedded.
	DefaultReplyAddress  = "reply+%{key}@mail.example.com"
	DefaultIMAPPort      = 993
	DefaultIMAPSecurity  = "tls"
	DefaultIMAPMailbox   = "INBOX"
	DefaultPollInterval  = 60
	DefaultSMTPPort      = 587
	DefaultSMTPSecurity  = "starttls"
	DefaultStorageRoot   = "uploads"
	DefaultPruneSchedule = "17 3 * * *"

	// DefaultDeliveryMaxAgeDays is how long processed-message audit rows are
	// retained before the prune job removes them.
	DefaultDeliveryMaxAgeDays = 90
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Admin     AdminConfig     `toml:"admin"`
	Auth      AuthConfig      `toml:"auth"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Incoming  IncomingConfig  `toml:"incoming_email"`
	Outgoing  OutgoingConfig  `toml:"outgoing_email"`
	Storage   StorageConfig   `toml:"storage"`
	Retention RetentionConfig `toml:"retention"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Email    string `toml:"email"`
}

type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// IncomingConfig describes where inbound mail comes from and how routing keys
// are embedded in reply addresses.
type IncomingConfig struct {
	// Address is the reply address template containing a %{key} placeholder.
	Address string `toml:"address"`
	// ReplyHost is the host part of fallback reply message-ids
	// (<reply-KEY@ReplyHost>). Defaults to the Address domain.
	ReplyHost string         `toml:"reply_host"`
	IMAP      IMAPConfig     `toml:"imap"`
	Mailgun   MailgunInbound `toml:"mailgun"`
}

type IMAPConfig struct {
	Enabled             bool   `toml:"enabled"`
	Host                string `toml:"host"`
	Port                int    `toml:"port"`
	Security            string `toml:"security"`
	Username            string `toml:"username"`
	Password            string `toml:"password"`
	Mailbox             string `toml:"mailbox"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	// DeleteAfterRead expunges processed messages instead of marking them seen.
	DeleteAfterRead bool `toml:"delete_after_read"`
}

type MailgunInbound struct {
	Enabled    bool   `toml:"enabled"`
	SigningKey string `toml:"signing_key"`
}

// OutgoingConfig configures the transport used for rejection notices.
type OutgoingConfig struct {
	// Transport is one of "smtp", "mailgun", or "none".
	Transport   string          `toml:"transport"`
	FromAddress string          `toml:"from_address"`
	FromName    string          `toml:"from_name"`
	SMTP        SMTPConfig      `toml:"smtp"`
	Mailgun     MailgunOutbound `toml:"mailgun"`
	// TemplateDir optionally overrides the built-in rejection templates.
	TemplateDir string `toml:"template_dir"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Security string `toml:"security"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type MailgunOutbound struct {
	Domain string `toml:"domain"`
	APIKey string `toml:"api_key"`
	// Region selects the API endpoint, "us" (default) or "eu".
	Region string `toml:"region"`
}

type StorageConfig struct {
	// Root is the directory attachment uploads are written under.
	Root string `toml:"root"`
	// BaseURL is prepended to upload paths when rendering markdown links.
	BaseURL string `toml:"base_url"`
}

type RetentionConfig struct {
	// Schedule is a cron expression for the prune job.
	Schedule string `toml:"schedule"`
	// DeliveryMaxAgeDays bounds how long delivery audit rows are kept.
	DeliveryMaxAgeDays int `toml:"delivery_max_age_days"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "change-your-password-here",
			Email:    "you@example.com",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Incoming: IncomingConfig{
			Address: DefaultReplyAddress,
			IMAP: IMAPConfig{
				Port:                DefaultIMAPPort,
				Security:            DefaultIMAPSecurity,
				Mailbox:             DefaultIMAPMailbox,
				PollIntervalSeconds: DefaultPollInterval,
			},
		},
		Outgoing: OutgoingConfig{
			Transport: "none",
			SMTP: SMTPConfig{
				Port:     DefaultSMTPPort,
				Security: DefaultSMTPSecurity,
			},
		},
		Storage: StorageConfig{
			Root: DefaultStorageRoot,
		},
		Retention: RetentionConfig{
			Schedule:           DefaultPruneSchedule,
			DeliveryMaxAgeDays: DefaultDeliveryMaxAgeDays,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
