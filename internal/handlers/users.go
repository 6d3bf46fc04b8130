package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mailgatehq/mailgate/internal/users"
	"github.com/mailgatehq/mailgate/internal/validate"
)

// UsersHandler manages user accounts and the addresses they may send from.
type UsersHandler struct {
	service *users.Service
	logger  *slog.Logger
}

func NewUsersHandler(log *slog.Logger, service *users.Service) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{
		service: service,
		logger:  log.With(slog.String("handler", "users")),
	}
}

func (h *UsersHandler) Register(e *echo.Echo) {
	g := e.Group("/users")
	g.POST("", h.CreateUser)
	g.GET("", h.ListUsers)
	g.GET("/:id", h.GetUser)
	g.POST("/:id/emails", h.AddEmail)
	g.PUT("/:id/state", h.UpdateState)
}

type listUsersResponse struct {
	Items []users.User `json:"items"`
}

type addEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type updateStateRequest struct {
	State string `json:"state" validate:"required,oneof=active blocked"`
}

// CreateUser godoc
// @Summary Create user
// @Description Register a user account
// @Tags users
// @Param payload body users.CreateParams true "User payload"
// @Success 201 {object} users.User
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users [post]
func (h *UsersHandler) CreateUser(c echo.Context) error {
	var req users.CreateParams
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(validate.Messages(err), "; "))
	}
	user, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, user)
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Success 200 {object} listUsersResponse
// @Failure 500 {object} ErrorResponse
// @Router /users [get]
func (h *UsersHandler) ListUsers(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listUsersResponse{Items: items})
}

// GetUser godoc
// @Summary Get user by ID
// @Tags users
// @Param id path string true "User ID"
// @Success 200 {object} users.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UsersHandler) GetUser(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}
	user, err := h.service.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// AddEmail godoc
// @Summary Add user email
// @Description Attach a secondary address the user can send from
// @Tags users
// @Param id path string true "User ID"
// @Param payload body addEmailRequest true "Email payload"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{id}/emails [post]
func (h *UsersHandler) AddEmail(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}
	var req addEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(validate.Messages(err), "; "))
	}
	if _, err := h.service.FindByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.service.AddEmail(c.Request().Context(), id, req.Email); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateState godoc
// @Summary Update user state
// @Description Move a user between active and blocked
// @Tags users
// @Param id path string true "User ID"
// @Param payload body updateStateRequest true "State payload"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /users/{id}/state [put]
func (h *UsersHandler) UpdateState(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user id is required")
	}
	var req updateStateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(validate.Messages(err), "; "))
	}
	if _, err := h.service.FindByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.service.SetState(c.Request().Context(), id, req.State); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
