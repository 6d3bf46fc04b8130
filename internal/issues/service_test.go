package issues

import (
	"context"
	"strings"
	"testing"

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
	return &fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func mustParseUUID(s string) pgtype.UUID {
	var u pgtype.UUID
	_ = u.Scan(s)
	return u
}

func TestCreateIssue(t *testing.T) {
	issueUUID := mustParseUUID("00000000-0000-0000-0000-00000000000b")
	var insertedIID int64
	dbtx := &fakeDBTX{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			switch {
			case strings.Contains(sql, "COALESCE(MAX(iid)"):
				return &fakeRow{scanFunc: func(dest ...any) error {
					*dest[0].(*int64) = 42
					return nil
				}}
			case strings.Contains(sql, "INSERT INTO issues"):
				insertedIID = args[2].(int64)
				return &fakeRow{scanFunc: func(dest ...any) error {
					*dest[0].(*pgtype.UUID) = issueUUID
					*dest[1].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000001")
					*dest[2].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000002")
					*dest[3].(*int64) = insertedIID
					*dest[4].(*string) = args[3].(string)
					*dest[5].(*string) = args[4].(string)
					*dest[6].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
					*dest[7].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
					return nil
				}}
			}
			return &fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	svc := NewService(nil, sqlc.New(dbtx))

	result, err := svc.CreateIssue(context.Background(), CreateParams{
		ProjectID:   "00000000-0000-0000-0000-000000000001",
		AuthorID:    "00000000-0000-0000-0000-000000000002",
		Title:       "Widget broken on save",
		Description: "Steps to reproduce",
	})
	if err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}
	if !result.Persisted || result.ID != issueUUID.String() {
		t.Fatalf("CreateIssue() = %+v", result)
	}
	if result.IID != 42 || insertedIID != 42 {
		t.Fatalf("iid = %d (inserted %d), want 42", result.IID, insertedIID)
	}
}

func TestCreateIssueValidation(t *testing.T) {
	svc := NewService(nil, sqlc.New(&fakeDBTX{}))

	result, err := svc.CreateIssue(context.Background(), CreateParams{
		ProjectID: "00000000-0000-0000-0000-000000000001",
		AuthorID:  "00000000-0000-0000-0000-000000000002",
		Title:     "",
	})
	if err != nil {
		t.Fatalf("CreateIssue() error = %v", err)
	}
	if result.Persisted {
		t.Fatal("expected unpersisted result")
	}
	found := false
	for _, msg := range result.Errors {
		if msg == "Title can't be blank" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected title message in %v", result.Errors)
	}
}
