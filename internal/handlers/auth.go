package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mailgatehq/mailgate/internal/auth"
	"github.com/mailgatehq/mailgate/internal/users"
)

// AuthHandler issues and refreshes the bearer tokens guarding the admin API.
type AuthHandler struct {
	users     *users.Service
	jwtSecret string
	expiresIn time.Duration
	logger    *slog.Logger
}

func NewAuthHandler(log *slog.Logger, userService *users.Service, jwtSecret string, expiresIn time.Duration) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{
		users:     userService,
		jwtSecret: jwtSecret,
		expiresIn: expiresIn,
		logger:    log.With(slog.String("handler", "auth")),
	}
}

func (h *AuthHandler) Register(e *echo.Echo) {
	e.POST("/auth/login", h.Login)
	e.POST("/auth/refresh", h.Refresh)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
}

// Login godoc
// @Summary Log in
// @Description Exchange username and password for a bearer token
// @Tags auth
// @Param payload body loginRequest true "Credentials"
// @Success 200 {object} tokenResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, err := h.users.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if user.Blocked() {
		return echo.NewHTTPError(http.StatusUnauthorized, "account is blocked")
	}
	token, expiresAt, err := auth.GenerateToken(user.ID, h.jwtSecret, h.expiresIn)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.logger.Info("user logged in", slog.String("username", user.Username))
	return c.JSON(http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
	})
}

// Refresh godoc
// @Summary Refresh token
// @Description Issue a fresh token carrying the lifespan of the presented one
// @Tags auth
// @Success 200 {object} tokenResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token, expiresAt, err := auth.RefreshTokenFromContext(c, h.jwtSecret, h.expiresIn)
	if err != nil {
		return err
	}
	userID, err := auth.UserIDFromContext(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    userID,
	})
}
