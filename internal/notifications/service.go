// Package notifications records the reply keys handed out in outbound
// notification emails so inbound replies can be tied back to a discussion.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
)

var ErrNotificationNotFound = errors.New("sent notification not found")

// SentNotification links one reply key to the discussion it was minted for.
// Entries are read-only once recorded; an expired entry behaves exactly like
// a missing one.
type SentNotification struct {
	ID           string    `json:"id"`
	ReplyKey     string    `json:"reply_key"`
	RecipientID  string    `json:"recipient_id"`
	ProjectID    string    `json:"project_id"`
	NoteableType string    `json:"noteable_type"`
	NoteableID   string    `json:"noteable_id,omitempty"`
	CommitID     string    `json:"commit_id,omitempty"`
	LineCode     string    `json:"line_code,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RecordParams struct {
	RecipientID  string `json:"recipient_id" validate:"required,uuid"`
	ProjectID    string `json:"project_id" validate:"required,uuid"`
	NoteableType string `json:"noteable_type" validate:"required,oneof=Issue Commit"`
	NoteableID   string `json:"noteable_id,omitempty"`
	CommitID     string `json:"commit_id,omitempty"`
	LineCode     string `json:"line_code,omitempty"`

	// TTL bounds how long the key stays routable; zero means no expiry.
	TTL time.Duration `json:"-"`
}

type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "notifications")),
		now:     time.Now,
	}
}

// FindByReplyKey returns the conversation context for a routing key. Expired
// entries are reported as not found.
func (s *Service) FindByReplyKey(ctx context.Context, key string) (*SentNotification, error) {
	row, err := s.queries.GetSentNotificationByReplyKey(ctx, strings.TrimSpace(key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("get sent notification: %w", err)
	}
	if row.ExpiresAt.Valid && !row.ExpiresAt.Time.After(s.now()) {
		return nil, ErrNotificationNotFound
	}
	n := toSentNotification(row)
	return &n, nil
}

// Record mints a fresh reply key for an outbound notification and stores the
// discussion it belongs to.
func (s *Service) Record(ctx context.Context, params RecordParams) (SentNotification, error) {
	recipientID, err := db.ParseUUID(params.RecipientID)
	if err != nil {
		return SentNotification{}, err
	}
	projectID, err := db.ParseUUID(params.ProjectID)
	if err != nil {
		return SentNotification{}, err
	}
	var noteableID pgtype.UUID
	if params.NoteableID != "" {
		noteableID, err = db.ParseUUID(params.NoteableID)
		if err != nil {
			return SentNotification{}, err
		}
	}
	var expiresAt pgtype.Timestamptz
	if params.TTL > 0 {
		expiresAt = pgtype.Timestamptz{Time: s.now().Add(params.TTL), Valid: true}
	}
	row, err := s.queries.CreateSentNotification(ctx, sqlc.CreateSentNotificationParams{
		ReplyKey:     NewReplyKey(),
		RecipientID:  recipientID,
		ProjectID:    projectID,
		NoteableType: params.NoteableType,
		NoteableID:   noteableID,
		CommitID:     pgtype.Text{String: params.CommitID, Valid: params.CommitID != ""},
		LineCode:     pgtype.Text{String: params.LineCode, Valid: params.LineCode != ""},
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return SentNotification{}, fmt.Errorf("create sent notification: %w", err)
	}
	s.logger.Info("recorded sent notification",
		slog.String("reply_key", row.ReplyKey),
		slog.String("noteable_type", row.NoteableType))
	return toSentNotification(row), nil
}

// PruneExpired removes entries whose expiry has passed and returns how many
// were dropped.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	n, err := s.queries.DeleteExpiredSentNotifications(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sent notifications: %w", err)
	}
	return n, nil
}

// NewReplyKey returns a fresh opaque 32-character hex token.
func NewReplyKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func toSentNotification(row sqlc.SentNotification) SentNotification {
	n := SentNotification{
		ID:           row.ID.String(),
		ReplyKey:     row.ReplyKey,
		RecipientID:  row.RecipientID.String(),
		ProjectID:    row.ProjectID.String(),
		NoteableType: row.NoteableType,
		NoteableID:   row.NoteableID.String(),
		CommitID:     row.CommitID.String,
		LineCode:     row.LineCode.String,
		CreatedAt:    row.CreatedAt.Time,
	}
	if row.ExpiresAt.Valid {
		n.ExpiresAt = row.ExpiresAt.Time
	}
	return n
}
