package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailgatehq/mailgate/internal/db/sqlc"
)

// fakeRow implements pgx.Row with a custom scan function.
type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r *fakeRow) Scan(dest ...any) error {
	return r.scanFunc(dest...)
}

// fakeDBTX implements sqlc.DBTX for unit testing.
type fakeDBTX struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	execCount    int
}

func (d *fakeDBTX) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	d.execCount++
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

func makeUserRow(id pgtype.UUID, username, digest, state string, admin bool) *fakeRow {
	return &fakeRow{
		scanFunc: func(dest ...any) error {
			if len(dest) < 9 {
				return pgx.ErrNoRows
			}
			*dest[0].(*pgtype.UUID) = id
			*dest[1].(*string) = username
			*dest[2].(*string) = username + "@example.com"
			*dest[3].(*string) = "Dana Reyes"
			*dest[4].(*string) = digest
			*dest[5].(*string) = state
			*dest[6].(*bool) = admin
			*dest[7].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			*dest[8].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			return nil
		},
	}
}

func makeMemberRow(projectID, userID pgtype.UUID, accessLevel int32) *fakeRow {
	return &fakeRow{
		scanFunc: func(dest ...any) error {
			if len(dest) < 5 {
				return pgx.ErrNoRows
			}
			*dest[0].(*pgtype.UUID) = pgtype.UUID{}
			*dest[1].(*pgtype.UUID) = projectID
			*dest[2].(*pgtype.UUID) = userID
			*dest[3].(*int32) = accessLevel
			*dest[4].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
			return nil
		},
	}
}

func makeNoRow() *fakeRow {
	return &fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func mustParseUUID(s string) pgtype.UUID {
	var u pgtype.UUID
	_ = u.Scan(s)
	return u
}

func TestFindByAnyEmail(t *testing.T) {
	userUUID := mustParseUUID("00000000-0000-0000-0000-000000000001")
	dbtx := &fakeDBTX{
		queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
			if len(args) == 1 && args[0] == "dana@example.com" {
				return makeUserRow(userUUID, "dana", "", StateActive, false)
			}
			return makeNoRow()
		},
	}
	svc := NewService(nil, sqlc.New(dbtx))

	u, err := svc.FindByAnyEmail(context.Background(), "  Dana@Example.COM ")
	if err != nil {
		t.Fatalf("FindByAnyEmail() error = %v", err)
	}
	if u.Username != "dana" || u.ID != userUUID.String() {
		t.Fatalf("FindByAnyEmail() = %+v", u)
	}

	if _, err := svc.FindByAnyEmail(context.Background(), "ghost@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.FindByAnyEmail(context.Background(), "   "); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for blank email, got %v", err)
	}
}

func TestHasCapability(t *testing.T) {
	projectUUID := mustParseUUID("00000000-0000-0000-0000-000000000002")
	userUUID := mustParseUUID("00000000-0000-0000-0000-000000000003")
	projectID := projectUUID.String()
	userID := userUUID.String()

	tests := []struct {
		name        string
		admin       bool
		memberLevel int32
		hasRow      bool
		capability  Capability
		want        bool
	}{
		{"admin needs no membership", true, 0, false, CapabilityCreateIssue, true},
		{"guest can note", false, GuestAccess, true, CapabilityCreateNote, true},
		{"guest cannot open issues", false, GuestAccess, true, CapabilityCreateIssue, false},
		{"reporter can open issues", false, ReporterAccess, true, CapabilityCreateIssue, true},
		{"maintainer can note", false, MaintainerAccess, true, CapabilityCreateNote, true},
		{"no membership", false, 0, false, CapabilityCreateNote, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbtx := &fakeDBTX{
				queryRowFunc: func(_ context.Context, sql string, _ ...any) pgx.Row {
					if strings.Contains(sql, "project_members") && tt.hasRow {
						return makeMemberRow(projectUUID, userUUID, tt.memberLevel)
					}
					return makeNoRow()
				},
			}
			svc := NewService(nil, sqlc.New(dbtx))
			user := &User{ID: userID, State: StateActive, Admin: tt.admin}

			got, err := svc.HasCapability(context.Background(), user, projectID, tt.capability)
			if err != nil {
				t.Fatalf("HasCapability() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("HasCapability() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasCapabilityUnknown(t *testing.T) {
	svc := NewService(nil, sqlc.New(&fakeDBTX{}))
	if _, err := svc.HasCapability(context.Background(), &User{Admin: true}, "p", Capability("delete_everything")); err == nil {
		t.Fatal("expected error for unknown capability")
	}
}

func TestAuthenticate(t *testing.T) {
	digest, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	userUUID := mustParseUUID("00000000-0000-0000-0000-000000000004")
	dbtx := &fakeDBTX{
		queryRowFunc: func(_ context.Context, _ string, args ...any) pgx.Row {
			if len(args) == 1 && args[0] == "dana" {
				return makeUserRow(userUUID, "dana", string(digest), StateActive, true)
			}
			return makeNoRow()
		},
	}
	svc := NewService(nil, sqlc.New(dbtx))

	u, err := svc.Authenticate(context.Background(), "dana", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if !u.Admin {
		t.Fatal("expected admin user")
	}

	if _, err := svc.Authenticate(context.Background(), "dana", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "ghost", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}

func TestBlocked(t *testing.T) {
	if (&User{State: StateActive}).Blocked() {
		t.Fatal("active user reported blocked")
	}
	if !(&User{State: StateBlocked}).Blocked() {
		t.Fatal("blocked user not reported blocked")
	}
}
