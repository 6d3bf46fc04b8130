package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mailgatehq/mailgate/internal/projects"
	"github.com/mailgatehq/mailgate/internal/users"
	"github.com/mailgatehq/mailgate/internal/validate"
)

// ProjectsHandler manages the projects inbound mail can target and who may
// post to them.
type ProjectsHandler struct {
	service *projects.Service
	users   *users.Service
	logger  *slog.Logger
}

func NewProjectsHandler(log *slog.Logger, service *projects.Service, userService *users.Service) *ProjectsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ProjectsHandler{
		service: service,
		users:   userService,
		logger:  log.With(slog.String("handler", "projects")),
	}
}

func (h *ProjectsHandler) Register(e *echo.Echo) {
	g := e.Group("/projects")
	g.POST("", h.CreateProject)
	g.GET("", h.ListProjects)
	g.GET("/:id", h.GetProject)
	g.PUT("/:id/members", h.UpsertMember)
}

type listProjectsResponse struct {
	Items []projects.Project `json:"items"`
}

type upsertMemberRequest struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	AccessLevel int32  `json:"access_level" validate:"required,oneof=10 20 30 40 50"`
}

// CreateProject godoc
// @Summary Create project
// @Description Register a project; the reply slug is derived from its full path
// @Tags projects
// @Param payload body projects.CreateParams true "Project payload"
// @Success 201 {object} projects.Project
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projects [post]
func (h *ProjectsHandler) CreateProject(c echo.Context) error {
	var req projects.CreateParams
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(validate.Messages(err), "; "))
	}
	project, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, project)
}

// ListProjects godoc
// @Summary List projects
// @Tags projects
// @Success 200 {object} listProjectsResponse
// @Failure 500 {object} ErrorResponse
// @Router /projects [get]
func (h *ProjectsHandler) ListProjects(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, listProjectsResponse{Items: items})
}

// GetProject godoc
// @Summary Get project by ID
// @Tags projects
// @Param id path string true "Project ID"
// @Success 200 {object} projects.Project
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projects/{id} [get]
func (h *ProjectsHandler) GetProject(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project id is required")
	}
	project, err := h.service.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, projects.ErrProjectNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, project)
}

// UpsertMember godoc
// @Summary Grant project membership
// @Description Add a user to a project or change their access level
// @Tags projects
// @Param id path string true "Project ID"
// @Param payload body upsertMemberRequest true "Member payload"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /projects/{id}/members [put]
func (h *ProjectsHandler) UpsertMember(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "project id is required")
	}
	var req upsertMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, strings.Join(validate.Messages(err), "; "))
	}
	if _, err := h.service.FindByID(c.Request().Context(), id); err != nil {
		if errors.Is(err, projects.ErrProjectNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "project not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if _, err := h.users.FindByID(c.Request().Context(), req.UserID); err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if err := h.service.AddMember(c.Request().Context(), id, req.UserID, req.AccessLevel); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
