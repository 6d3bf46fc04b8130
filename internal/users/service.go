// Package users stores platform users and answers capability checks against
// project membership.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mailgatehq/mailgate/internal/db"
	"github.com/mailgatehq/mailgate/internal/db/sqlc"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User states.
const (
	StateActive  = "active"
	StateBlocked = "blocked"
)

// Membership access levels, lowest to highest.
const (
	GuestAccess      int32 = 10
	ReporterAccess   int32 = 20
	DeveloperAccess  int32 = 30
	MaintainerAccess int32 = 40
	OwnerAccess      int32 = 50
)

// Capability names an action gated by project membership.
type Capability string

const (
	CapabilityCreateNote  Capability = "create_note"
	CapabilityCreateIssue Capability = "create_issue"
)

var requiredAccess = map[Capability]int32{
	CapabilityCreateNote:  GuestAccess,
	CapabilityCreateIssue: ReporterAccess,
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	Admin     bool      `json:"admin"`
	CreatedAt time.Time `json:"created_at"`
}

// Blocked reports whether the user may not act at all.
func (u *User) Blocked() bool { return u.State == StateBlocked }

type CreateParams struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=8"`
	Admin    bool   `json:"admin"`
}

// Service provides user lookup, account management, and the membership-based
// authorization policy.
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
		logger:  log.With(slog.String("service", "users")),
	}
}

// FindByAnyEmail resolves a user by primary or any confirmed secondary email.
func (s *Service) FindByAnyEmail(ctx context.Context, email string) (*User, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil, ErrUserNotFound
	}
	row, err := s.queries.GetUserByAnyEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	u := toUser(row)
	return &u, nil
}

// FindByID resolves a user by id.
func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	userID, err := db.ParseUUID(id)
	if err != nil {
		return nil, err
	}
	row, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := toUser(row)
	return &u, nil
}

// HasCapability reports whether user may perform capability on the project.
// Admins always may; everyone else needs a membership at or above the level
// the capability requires.
func (s *Service) HasCapability(ctx context.Context, user *User, projectID string, capability Capability) (bool, error) {
	required, known := requiredAccess[capability]
	if !known {
		return false, fmt.Errorf("unknown capability %q", capability)
	}
	if user.Admin {
		return true, nil
	}
	projectUUID, err := db.ParseUUID(projectID)
	if err != nil {
		return false, err
	}
	userUUID, err := db.ParseUUID(user.ID)
	if err != nil {
		return false, err
	}
	member, err := s.queries.GetProjectMember(ctx, sqlc.GetProjectMemberParams{
		ProjectID: projectUUID,
		UserID:    userUUID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("get project member: %w", err)
	}
	return member.AccessLevel >= required, nil
}

// Create registers a user with a bcrypt password digest.
func (s *Service) Create(ctx context.Context, params CreateParams) (User, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	row, err := s.queries.CreateUser(ctx, sqlc.CreateUserParams{
		Username:       strings.TrimSpace(params.Username),
		Email:          strings.ToLower(strings.TrimSpace(params.Email)),
		Name:           strings.TrimSpace(params.Name),
		PasswordDigest: string(digest),
		State:          StateActive,
		Admin:          params.Admin,
	})
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("created user", slog.String("username", row.Username))
	return toUser(row), nil
}

// AddEmail attaches a secondary address the user can send from.
func (s *Service) AddEmail(ctx context.Context, userID, email string) error {
	id, err := db.ParseUUID(userID)
	if err != nil {
		return err
	}
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := s.queries.AddUserEmail(ctx, sqlc.AddUserEmailParams{
		UserID: id,
		Email:  normalized,
	}); err != nil {
		return fmt.Errorf("add user email: %w", err)
	}
	return nil
}

// SetState moves a user between active and blocked.
func (s *Service) SetState(ctx context.Context, userID, state string) error {
	if state != StateActive && state != StateBlocked {
		return fmt.Errorf("unknown user state %q", state)
	}
	id, err := db.ParseUUID(userID)
	if err != nil {
		return err
	}
	if err := s.queries.UpdateUserState(ctx, sqlc.UpdateUserStateParams{
		ID:    id,
		State: state,
	}); err != nil {
		return fmt.Errorf("update user state: %w", err)
	}
	s.logger.Info("updated user state", slog.String("user_id", userID), slog.String("state", state))
	return nil
}

// List returns all users, newest first.
func (s *Service) List(ctx context.Context) ([]User, error) {
	rows, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	items := make([]User, 0, len(rows))
	for _, row := range rows {
		items = append(items, toUser(row))
	}
	return items, nil
}

// Authenticate verifies a username/password pair for the admin API.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	row, err := s.queries.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordDigest), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	u := toUser(row)
	return &u, nil
}

// EnsureAdmin creates the named admin account when it does not exist yet.
func (s *Service) EnsureAdmin(ctx context.Context, username, email, password string) error {
	_, err := s.queries.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("get user by username: %w", err)
	}
	if _, err := s.Create(ctx, CreateParams{
		Username: username,
		Email:    email,
		Name:     "Administrator",
		Password: password,
		Admin:    true,
	}); err != nil {
		return err
	}
	s.logger.Info("seeded admin user", slog.String("username", username))
	return nil
}

func toUser(row sqlc.User) User {
	return User{
		ID:        row.ID.String(),
		Username:  row.Username,
		Email:     row.Email,
		Name:      row.Name,
		State:     row.State,
		Admin:     row.Admin,
		CreatedAt: row.CreatedAt.Time,
	}
}
