// Package issues persists work items opened from new-item emails.
package issues

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
	"github.com/mailgatehq/mailgate/internal/validate"
)

type CreateParams struct {
	ProjectID   string `json:"project_id" validate:"required,uuid"`
	AuthorID    string `json:"author_id" validate:"required,uuid"`
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000000"`
}

// Result reports the outcome of a creation attempt. Validation failures are
// not errors; they come back as messages with Persisted false.
type Result struct {
	ID        string   `json:"id,omitempty"`
	IID       int64    `json:"iid,omitempty"`
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
		logger:  log.With(slog.String("service", "issues")),
	}
}

// CreateIssue validates and persists one issue, assigning the next iid in
// the project's sequence.
func (s *Service) CreateIssue(ctx context.Context, params CreateParams) (Result, error) {
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
	iid, err := s.queries.NextIssueIID(ctx, projectID)
	if err != nil {
		return Result{}, fmt.Errorf("next issue iid: %w", err)
	}
	row, err := s.queries.CreateIssue(ctx, sqlc.CreateIssueParams{
		ProjectID:   projectID,
		AuthorID:    authorID,
		Iid:         iid,
		Title:       params.Title,
		Description: params.Description,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create issue: %w", err)
	}
	s.logger.Info("created issue",
		slog.String("issue_id", row.ID.String()),
		slog.Int64("iid", row.Iid),
		slog.String("project_id", params.ProjectID))
	return Result{ID: row.ID.String(), IID: row.Iid, Persisted: true}, nil
}
