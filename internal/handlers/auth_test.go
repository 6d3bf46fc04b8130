package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailgatehq/mailgate/internal/db/sqlc"
	"github.com/mailgatehq/mailgate/internal/users"
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
	return &fakeRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
}

const testUserID = "00000000-0000-0000-0000-000000000009"

func userRowWithDigest(digest, state string) *fakeRow {
	var id pgtype.UUID
	_ = id.Scan(testUserID)
	return &fakeRow{
		scanFunc: func(dest ...any) error {
			if len(dest) < 9 {
				return pgx.ErrNoRows
			}
			*dest[0].(*pgtype.UUID) = id
			*dest[1].(*string) = "dana"
			*dest[2].(*string) = "dana@example.com"
			*dest[3].(*string) = "Dana Reyes"
			*dest[4].(*string) = digest
			*dest[5].(*string) = state
			*dest[6].(*bool) = true
			*dest[7].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			*dest[8].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			return nil
		},
	}
}

func newTestAuthHandler(t *testing.T, password, state string) *AuthHandler {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	dbtx := &fakeDBTX{
		queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
			if len(args) == 1 && args[0] == "dana" {
				return userRowWithDigest(string(digest), state)
			}
			return &fakeRow{scanFunc: func(...any) error { return pgx.ErrNoRows }}
		},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandler(log, users.NewService(nil, sqlc.New(dbtx)), "test-secret", time.Hour)
}

func postLogin(h *AuthHandler, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.Register(e)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoginIssuesToken(t *testing.T) {
	h := newTestAuthHandler(t, "correct horse", users.StateActive)
	rec := postLogin(h, `{"username":"dana","password":"correct horse"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}
	if resp.UserID != testUserID {
		t.Fatalf("user_id = %q, want %q", resp.UserID, testUserID)
	}
	if resp.ExpiresAt.Before(time.Now().Add(50 * time.Minute)) {
		t.Fatalf("expires_at = %s, want about an hour out", resp.ExpiresAt)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newTestAuthHandler(t, "correct horse", users.StateActive)
	rec := postLogin(h, `{"username":"dana","password":"wrong"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLoginUnknownUser(t *testing.T) {
	h := newTestAuthHandler(t, "correct horse", users.StateActive)
	rec := postLogin(h, `{"username":"ghost","password":"whatever"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLoginBlockedUser(t *testing.T) {
	h := newTestAuthHandler(t, "correct horse", users.StateBlocked)
	rec := postLogin(h, `{"username":"dana","password":"correct horse"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "blocked") {
		t.Fatalf("body %q does not name the blocked state", rec.Body.String())
	}
}

func TestLoginMalformedPayload(t *testing.T) {
	h := newTestAuthHandler(t, "correct horse", users.StateActive)
	rec := postLogin(h, `{"username":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}
