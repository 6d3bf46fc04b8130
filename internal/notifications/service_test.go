package notifications

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mailgatehq/mailgate/internal/db/sqlc"
)

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r *fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

type fakeDBTX struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
}

func (d *fakeDBTX) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d *fakeDBTX) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, nil
}

func (d *fakeDBTX) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if d.queryRowFunc != nil {
		return d.queryRowFunc(ctx, sql, args...)
	}
	return makeNoRow()
}

func makeNoRow() *fakeRow {
	return &fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func makeNotificationRow(key string, expiresAt pgtype.Timestamptz) *fakeRow {
	return &fakeRow{
		scanFunc: func(dest ...any) error {
			if len(dest) < 10 {
				return pgx.ErrNoRows
			}
			*dest[0].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-00000000000a")
			*dest[1].(*string) = key
			*dest[2].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000001")
			*dest[3].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000002")
			*dest[4].(*string) = "Issue"
			*dest[5].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000003")
			*dest[6].(*pgtype.Text) = pgtype.Text{}
			*dest[7].(*pgtype.Text) = pgtype.Text{}
			*dest[8].(*pgtype.Timestamptz) = expiresAt
			*dest[9].(*pgtype.Timestamptz) = pgtype.Timestamptz{Time: time.Now(), Valid: true}
			return nil
		},
	}
}

func mustParseUUID(s string) pgtype.UUID {
	var u pgtype.UUID
	_ = u.Scan(s)
	return u
}

func newTestService(dbtx sqlc.DBTX, now time.Time) *Service {
	svc := NewService(nil, sqlc.New(dbtx))
	svc.now = func() time.Time { return now }
	return svc
}

func TestFindByReplyKey(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	const key = "0123456789abcdef0123456789abcdef"

	tests := []struct {
		name      string
		expiresAt pgtype.Timestamptz
		wantFound bool
	}{
		{"no expiry", pgtype.Timestamptz{}, true},
		{"future expiry", pgtype.Timestamptz{Time: now.Add(time.Hour), Valid: true}, true},
		{"past expiry", pgtype.Timestamptz{Time: now.Add(-time.Hour), Valid: true}, false},
		{"expiry exactly now", pgtype.Timestamptz{Time: now, Valid: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbtx := &fakeDBTX{
				queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
					if len(args) == 1 && args[0] == key {
						return makeNotificationRow(key, tt.expiresAt)
					}
					return makeNoRow()
				},
			}
			svc := newTestService(dbtx, now)

			n, err := svc.FindByReplyKey(context.Background(), key)
			if tt.wantFound {
				if err != nil {
					t.Fatalf("FindByReplyKey() error = %v", err)
				}
				if n.ReplyKey != key || n.NoteableType != "Issue" {
					t.Fatalf("FindByReplyKey() = %+v", n)
				}
				return
			}
			if !errors.Is(err, ErrNotificationNotFound) {
				t.Fatalf("expected ErrNotificationNotFound, got %v", err)
			}
		})
	}
}

func TestFindByReplyKeyMissing(t *testing.T) {
	svc := newTestService(&fakeDBTX{}, time.Now())
	if _, err := svc.FindByReplyKey(context.Background(), "nope"); !errors.Is(err, ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestNewReplyKey(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-f]{32}$`)
	seen := map[string]bool{}
	for i := 0; i < 64; i++ {
		key := NewReplyKey()
		if !pattern.MatchString(key) {
			t.Fatalf("NewReplyKey() = %q, not 32 hex chars", key)
		}
		if seen[key] {
			t.Fatalf("NewReplyKey() repeated %q", key)
		}
		seen[key] = true
	}
}
