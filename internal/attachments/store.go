// Package attachments writes email attachments to local storage and renders
// the markdown references appended to note and issue bodies.
package attachments

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mailgatehq/mailgate/internal/config"
	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
	"github.com/mailgatehq/mailgate/internal/mailparse"
)

type Store struct {
	queries *sqlc.Queries
	logger  *slog.Logger
	root    string
	baseURL string
}

func NewStore(log *slog.Logger, queries *sqlc.Queries, cfg config.StorageConfig) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		queries: queries,
		logger:  log.With(slog.String("service", "attachments")),
		root:    cfg.Root,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// Process stores every attachment and returns one display reference per
// file, in input order. A failure mid-way leaves earlier files on disk; the
// upload rows keep them accounted for.
func (s *Store) Process(ctx context.Context, projectID string, attachments []mailparse.Attachment) ([]string, error) {
	refs := make([]string, 0, len(attachments))
	for _, att := range attachments {
		ref, err := s.storeOne(ctx, projectID, att)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func (s *Store) storeOne(ctx context.Context, projectID string, att mailparse.Attachment) (string, error) {
	pID, err := db.ParseUUID(projectID)
	if err != nil {
		return "", err
	}
	name := sanitizeFilename(att.Filename)
	relative := projectID + "/" + uuid.NewString() + "/" + name

	diskPath := filepath.Join(s.root, filepath.FromSlash(relative))
	if err := os.MkdirAll(filepath.Dir(diskPath), 0o755); err != nil {
		return "", fmt.Errorf("create attachment dir: %w", err)
	}
	if err := os.WriteFile(diskPath, att.Content, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}

	if _, err := s.queries.CreateUpload(ctx, sqlc.CreateUploadParams{
		ProjectID:   pID,
		FileName:    name,
		ContentType: att.ContentType,
		ByteSize:    int64(len(att.Content)),
		StoragePath: relative,
	}); err != nil {
		return "", fmt.Errorf("record upload: %w", err)
	}
	s.logger.Info("stored attachment",
		slog.String("file_name", name),
		slog.String("project_id", projectID),
		slog.Int("byte_size", len(att.Content)))
	return DisplayReference(name, att.ContentType, s.baseURL+"/uploads/"+relative), nil
}

// DisplayReference renders a markdown link, image-style for image content.
func DisplayReference(name, contentType, url string) string {
	ref := fmt.Sprintf("[%s](%s)", name, url)
	if strings.HasPrefix(contentType, "image/") {
		return "!" + ref
	}
	return ref
}

func sanitizeFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == "/" {
		return "attachment"
	}
	return name
}
