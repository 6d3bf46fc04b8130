package notes

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
	return makeNoRow()
}

func makeNoRow() *fakeRow {
	return &fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func makeNoteRow(id pgtype.UUID, body string) *fakeRow {
	return &fakeRow{
		scanFunc: func(dest ...any) error {
			if len(dest) < 10 {
				return pgx.ErrNoRows
			}
			*dest[0].(*pgtype.UUID) = id
			*dest[1].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000001")
			*dest[2].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000002")
			*dest[3].(*string) = NoteableTypeIssue
			*dest[4].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000003")
			*dest[5].(*pgtype.Text) = pgtype.Text{}
			*dest[6].(*pgtype.Text) = pgtype.Text{}
			*dest[7].(*string) = body
			*dest[8].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			*dest[9].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			return nil
		},
	}
}

func makeIssueRow(id pgtype.UUID) *fakeRow {
	return &fakeRow{
		scanFunc: func(dest ...any) error {
			if len(dest) < 8 {
				return pgx.ErrNoRows
			}
			*dest[0].(*pgtype.UUID) = id
			*dest[1].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000001")
			*dest[2].(*pgtype.UUID) = mustParseUUID("00000000-0000-0000-0000-000000000002")
			*dest[3].(*int64) = 1
			*dest[4].(*string) = "title"
			*dest[5].(*string) = ""
			*dest[6].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			*dest[7].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			return nil
		},
	}
}

func mustParseUUID(s string) pgtype.UUID {
	var u pgtype.UUID
	_ = u.Scan(s)
	return u
}

func validParams() CreateParams {
	return CreateParams{
		ProjectID:    "00000000-0000-0000-0000-000000000001",
		AuthorID:     "00000000-0000-0000-0000-000000000002",
		NoteableType: NoteableTypeIssue,
		NoteableID:   "00000000-0000-0000-0000-000000000003",
		Body:         "Reply text",
	}
}

func TestCreateNote(t *testing.T) {
	noteUUID := mustParseUUID("00000000-0000-0000-0000-00000000000e")
	dbtx := &fakeDBTX{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			if strings.Contains(sql, "INSERT INTO notes") {
				return makeNoteRow(noteUUID, args[6].(string))
			}
			return makeNoRow()
		},
	}
	svc := NewService(nil, sqlc.New(dbtx))

	result, err := svc.CreateNote(context.Background(), validParams())
	if err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if !result.Persisted || result.ID != noteUUID.String() {
		t.Fatalf("CreateNote() = %+v", result)
	}
}

func TestCreateNoteValidation(t *testing.T) {
	svc := NewService(nil, sqlc.New(&fakeDBTX{}))

	tests := []struct {
		name    string
		mutate  func(*CreateParams)
		wantMsg string
	}{
		{"blank body", func(p *CreateParams) { p.Body = "" }, "Body can't be blank"},
		{"bad noteable type", func(p *CreateParams) { p.NoteableType = "Wiki" }, "NoteableType must be one of: Issue Commit"},
		{"bad project id", func(p *CreateParams) { p.ProjectID = "not-a-uuid" }, "ProjectID is not a valid id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)

			result, err := svc.CreateNote(context.Background(), params)
			if err != nil {
				t.Fatalf("CreateNote() error = %v", err)
			}
			if result.Persisted {
				t.Fatal("expected unpersisted result")
			}
			found := false
			for _, msg := range result.Errors {
				if msg == tt.wantMsg {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected %q in %v", tt.wantMsg, result.Errors)
			}
		})
	}
}

func TestNoteableExists(t *testing.T) {
	issueUUID := mustParseUUID("00000000-0000-0000-0000-000000000003")
	dbtx := &fakeDBTX{
		queryRowFunc: func(_ context.Context, sql string, args ...any) pgx.Row {
			if strings.Contains(sql, "FROM issues") && len(args) == 1 && args[0] == issueUUID {
				return makeIssueRow(issueUUID)
			}
			return makeNoRow()
		},
	}
	svc := NewService(nil, sqlc.New(dbtx))

	tests := []struct {
		name         string
		noteableType string
		noteableID   string
		commitID     string
		want         bool
	}{
		{"existing issue", NoteableTypeIssue, issueUUID.String(), "", true},
		{"deleted issue", NoteableTypeIssue, "00000000-0000-0000-0000-0000000000ff", "", false},
		{"issue without id", NoteableTypeIssue, "", "", false},
		{"malformed issue id", NoteableTypeIssue, "garbage", "", false},
		{"commit", NoteableTypeCommit, "", "deadbeef", true},
		{"commit without id", NoteableTypeCommit, "", "", false},
		{"unknown type", "Wiki", issueUUID.String(), "", false},
		{"blank type", "", issueUUID.String(), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.NoteableExists(context.Background(), tt.noteableType, tt.noteableID, tt.commitID)
			if err != nil {
				t.Fatalf("NoteableExists() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("NoteableExists() = %v, want %v", got, tt.want)
			}
		})
	}
}
