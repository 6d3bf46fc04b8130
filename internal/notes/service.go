// Package notes persists discussion comments created from inbound replies.
package notes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
	"github.com/mailgatehq/mailgate/internal/validate"
)

// Noteable types a reply key can point at.
const (
	NoteableTypeIssue  = "Issue"
	NoteableTypeCommit = "Commit"
)

type CreateParams struct {
	ProjectID    string `json:"project_id" validate:"required,uuid"`
	AuthorID     string `json:"author_id" validate:"required,uuid"`
	NoteableType string `json:"noteable_type" validate:"required,oneof=Issue Commit"`
	NoteableID   string `json:"noteable_id,omitempty"`
	CommitID     string `json:"commit_id,omitempty"`
	LineCode     string `json:"line_code,omitempty"`
	Body         string `json:"body" validate:"required,max=1000000"`
}

// Result reports the outcome of a creation attempt. Validation failures are
// not errors; they come back as messages with Persisted false.
type Result struct {
	ID        string   `json:"id,omitempty"`
	Persisted bool     `json:"persisted"`
	Errors    []string `json:"errors,omitempty"`
}

type Service struct {
	queries *sqlc.Queries
	logger  *slog.Logger
}

func NewService(log *slog.Logger, queries *sqlc.Queries) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		queries: queries,
		logger:  log.With(slog.String("service", "notes")),
	}
}

// NoteableExists reports whether a discussion target is still addressable.
// Commits are not stored locally, so any commit reference counts as present.
func (s *Service) NoteableExists(ctx context.Context, noteableType, noteableID, commitID string) (bool, error) {
	switch noteableType {
	case NoteableTypeCommit:
		return commitID != "", nil
	case NoteableTypeIssue:
		if noteableID == "" {
			return false, nil
		}
		id, err := db.ParseUUID(noteableID)
		if err != nil {
			return false, nil
		}
		if _, err := s.queries.GetIssueByID(ctx, id); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return false, nil
			}
			return false, fmt.Errorf("get issue: %w", err)
		}
		return true, nil
	default:
		return false, nil
	}
}

// CreateNote validates and persists one note.
func (s *Service) CreateNote(ctx context.Context, params CreateParams) (Result, error) {
	if err := validate.Struct(params); err != nil {
		return Result{Errors: validate.Messages(err)}, nil
	}
	projectID, err := db.ParseUUID(params.ProjectID)
	if err != nil {
		return Result{}, err
	}
	authorID, err := db.ParseUUID(params.AuthorID)
	if err != nil {
		return Result{}, err
	}
	var noteableID pgtype.UUID
	if params.NoteableID != "" {
		noteableID, err = db.ParseUUID(params.NoteableID)
		if err != nil {
			return Result{}, err
		}
	}
	row, err := s.queries.CreateNote(ctx, sqlc.CreateNoteParams{
		ProjectID:    projectID,
		AuthorID:     authorID,
		NoteableType: params.NoteableType,
		NoteableID:   noteableID,
		CommitID:     pgtype.Text{String: params.CommitID, Valid: params.CommitID != ""},
		LineCode:     pgtype.Text{String: params.LineCode, Valid: params.LineCode != ""},
		Body:         params.Body,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create note: %w", err)
	}
	s.logger.Info("created note",
		slog.String("note_id", row.ID.String()),
		slog.String("noteable_type", row.NoteableType))
	return Result{ID: row.ID.String(), Persisted: true}, nil
}
