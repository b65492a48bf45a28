package post

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"modlog/internal/domain/project"
	"modlog/internal/pkg/response"
	"modlog/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/projects/:id/updates
func (h *Handler) List(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	posts, err := h.service.List(c.Request.Context(), access)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, posts)
}

// Create handles POST /api/v1/projects/:id/updates
func (h *Handler) Create(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	var req PostRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.service.Create(c.Request.Context(), access, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

// Edit handles PUT /api/v1/projects/:id/updates/:update_id
func (h *Handler) Edit(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	var req PostRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.service.Edit(c.Request.Context(), access, c.Param("update_id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/projects/:id/updates/:update_id
func (h *Handler) Delete(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), access, c.Param("update_id")); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "update deleted"})
}

func RegisterRoutes(public, protected *gin.RouterGroup, h *Handler, access gin.HandlerFunc) {
	public.GET("/projects/:id/updates", access, h.List)

	updates := protected.Group("/projects/:id/updates", access)
	{
		updates.POST("", h.Create)
		updates.PUT("/:update_id", h.Edit)
		updates.DELETE("/:update_id", h.Delete)
	}
}

func bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	if errs := validator.Validate(req); errs != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid request", errs)
		return false
	}
	return true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, project.ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only the project owner can manage updates")
	case errors.Is(err, ErrPostNotFound):
		response.Error(c, http.StatusNotFound, "UPDATE_NOT_FOUND", "Update not found")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

func mustAccess(c *gin.Context) (*project.Access, bool) {
	access, ok := project.AccessFrom(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Project access was not resolved")
	}
	return access, ok
}
