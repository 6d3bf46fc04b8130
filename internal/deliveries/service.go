// Package deliveries keeps the audit trail of processed inbound emails, one
// row per message regardless of outcome.
package deliveries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
)

var ErrDeliveryNotFound = errors.New("delivery not found")

// Outcome of one processed message.
const (
	StatusCreated  = "created"
	StatusRejected = "rejected"
	StatusErrored  = "errored"
)

type Delivery struct {
	ID          string    `json:"id"`
	MessageID   string    `json:"message_id"`
	Route       string    `json:"route"`
	Status      string    `json:"status"`
	ErrorKind   string    `json:"error_kind,omitempty"`
	ErrorDetail string    `json:"error_detail,omitempty"`
	NoteID      string    `json:"note_id,omitempty"`
	IssueID     string    `json:"issue_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type RecordParams struct {
	MessageID   string
	Route       string
	Status      string
	ErrorKind   string
	ErrorDetail string
	NoteID      string
	IssueID     string
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
		logger:  log.With(slog.String("service", "deliveries")),
	}
}

// Record appends one audit row. Empty NoteID and IssueID are stored as NULL.
func (s *Service) Record(ctx context.Context, params RecordParams) (Delivery, error) {
	var noteID, issueID pgtype.UUID
	if params.NoteID != "" {
		id, err := db.ParseUUID(params.NoteID)
		if err != nil {
			return Delivery{}, err
		}
		noteID = id
	}
	if params.IssueID != "" {
		id, err := db.ParseUUID(params.IssueID)
		if err != nil {
			return Delivery{}, err
		}
		issueID = id
	}

	row, err := s.queries.CreateDelivery(ctx, sqlc.CreateDeliveryParams{
		MessageID:   params.MessageID,
		Route:       params.Route,
		Status:      params.Status,
		ErrorKind:   pgtype.Text{String: params.ErrorKind, Valid: params.ErrorKind != ""},
		ErrorDetail: pgtype.Text{String: params.ErrorDetail, Valid: params.ErrorDetail != ""},
		NoteID:      noteID,
		IssueID:     issueID,
	})
	if err != nil {
		return Delivery{}, fmt.Errorf("record delivery: %w", err)
	}
	return toDelivery(row), nil
}

func (s *Service) Get(ctx context.Context, id string) (Delivery, error) {
	uid, err := db.ParseUUID(id)
	if err != nil {
		return Delivery{}, ErrDeliveryNotFound
	}
	row, err := s.queries.GetDeliveryByID(ctx, uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return Delivery{}, ErrDeliveryNotFound
	}
	if err != nil {
		return Delivery{}, fmt.Errorf("get delivery: %w", err)
	}
	return toDelivery(row), nil
}

func (s *Service) List(ctx context.Context, limit, offset int64) ([]Delivery, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.queries.ListDeliveries(ctx, sqlc.ListDeliveriesParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	out := make([]Delivery, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDelivery(row))
	}
	return out, nil
}

// PruneBefore deletes audit rows older than cutoff and reports how many went.
func (s *Service) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.queries.DeleteDeliveriesBefore(ctx, pgtype.Timestamptz{Time: cutoff, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("prune deliveries: %w", err)
	}
	return n, nil
}

func toDelivery(row sqlc.Delivery) Delivery {
	return Delivery{
		ID:          row.ID.String(),
		MessageID:   row.MessageID,
		Route:       row.Route,
		Status:      row.Status,
		ErrorKind:   row.ErrorKind.String,
		ErrorDetail: row.ErrorDetail.String,
		NoteID:      row.NoteID.String(),
		IssueID:     row.IssueID.String(),
		CreatedAt:   row.CreatedAt.Time,
	}
}
