// Package projects stores the projects inbound mail can target and the
// reply-slug addressing that resolves them.
package projects

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
)

var ErrProjectNotFound = errors.New("project not found")

type Project struct {
	ID        string    `json:"id"`
	Namespace string    `json:"namespace"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	FullPath  string    `json:"full_path"`
	ReplySlug string    `json:"reply_slug"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateParams struct {
	Namespace string `json:"namespace" validate:"required,max=255"`
	Path      string `json:"path" validate:"required,max=255"`
	Name      string `json:"name" validate:"required,max=255"`
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
		logger:  log.With(slog.String("service", "projects")),
	}
}

// FindByReplyKey resolves a project from a routing key interpreted as its
// reply slug, the full path with slashes flattened to dashes.
func (s *Service) FindByReplyKey(ctx context.Context, key string) (*Project, error) {
	slug := strings.ToLower(strings.TrimSpace(key))
	if slug == "" {
		return nil, ErrProjectNotFound
	}
	row, err := s.queries.GetProjectByReplySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project by reply slug: %w", err)
	}
	p := toProject(row)
	return &p, nil
}

// FindByID resolves a project by id.
func (s *Service) FindByID(ctx context.Context, id string) (*Project, error) {
	projectID, err := db.ParseUUID(id)
	if err != nil {
		return nil, err
	}
	row, err := s.queries.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	p := toProject(row)
	return &p, nil
}

// FindByFullPath resolves a project by its namespace/path form.
func (s *Service) FindByFullPath(ctx context.Context, fullPath string) (*Project, error) {
	row, err := s.queries.GetProjectByFullPath(ctx, strings.TrimSpace(fullPath))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("get project by full path: %w", err)
	}
	p := toProject(row)
	return &p, nil
}

// Create registers a project. The reply slug is derived from the full path so
// it can survive inside an email local part.
func (s *Service) Create(ctx context.Context, params CreateParams) (Project, error) {
	namespace := strings.ToLower(strings.TrimSpace(params.Namespace))
	path := strings.ToLower(strings.TrimSpace(params.Path))
	fullPath := namespace + "/" + path
	row, err := s.queries.CreateProject(ctx, sqlc.CreateProjectParams{
		Namespace: namespace,
		Path:      path,
		Name:      strings.TrimSpace(params.Name),
		FullPath:  fullPath,
		ReplySlug: ReplySlug(fullPath),
	})
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("created project", slog.String("full_path", row.FullPath))
	return toProject(row), nil
}

// AddMember grants or updates a user's access level on a project.
func (s *Service) AddMember(ctx context.Context, projectID, userID string, accessLevel int32) error {
	pID, err := db.ParseUUID(projectID)
	if err != nil {
		return err
	}
	uID, err := db.ParseUUID(userID)
	if err != nil {
		return err
	}
	if _, err := s.queries.UpsertProjectMember(ctx, sqlc.UpsertProjectMemberParams{
		ProjectID:   pID,
		UserID:      uID,
		AccessLevel: accessLevel,
	}); err != nil {
		return fmt.Errorf("upsert project member: %w", err)
	}
	return nil
}

// List returns all projects, newest first.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	rows, err := s.queries.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	items := make([]Project, 0, len(rows))
	for _, row := range rows {
		items = append(items, toProject(row))
	}
	return items, nil
}

// ReplySlug flattens a full path into the token embedded in reply addresses.
func ReplySlug(fullPath string) string {
	return strings.ReplaceAll(strings.ToLower(fullPath), "/", "-")
}

func toProject(row sqlc.Project) Project {
	return Project{
		ID:        row.ID.String(),
		Namespace: row.Namespace,
		Path:      row.Path,
		Name:      row.Name,
		FullPath:  row.FullPath,
		ReplySlug: row.ReplySlug,
		CreatedAt: row.CreatedAt.Time,
	}
}
