package comment

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

// List handles GET /api/v1/projects/:id/comments
func (h *Handler) List(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	threads, err := h.service.List(c.Request.Context(), access)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, threads)
}

// Create handles POST /api/v1/projects/:id/comments
func (h *Handler) Create(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	var req CreateRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.service.Create(c.Request.Context(), access, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, comment)
}

// Edit handles PUT /api/v1/projects/:id/comments/:comment_id
func (h *Handler) Edit(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	var req EditRequest
	if !bind(c, &req) {
		return
	}
	comment, err := h.service.Edit(c.Request.Context(), access, c.Param("comment_id"), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comment)
}

// Delete handles DELETE /api/v1/projects/:id/comments/:comment_id
func (h *Handler) Delete(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	deleted, err := h.service.Delete(c.Request.Context(), access, c.Param("comment_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}

func RegisterRoutes(public, protected *gin.RouterGroup, h *Handler, access gin.HandlerFunc) {
	public.GET("/projects/:id/comments", access, h.List)

	comments := protected.Group("/projects/:id/comments", access)
	{
		comments.POST("", h.Create)
		comments.PUT("/:comment_id", h.Edit)
		comments.DELETE("/:comment_id", h.Delete)
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
	case errors.Is(err, ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	case errors.Is(err, ErrCommentNotFound):
		response.Error(c, http.StatusNotFound, "COMMENT_NOT_FOUND", "Comment not found")
	case errors.Is(err, ErrParentNotFound):
		response.Error(c, http.StatusUnprocessableEntity, "PARENT_NOT_FOUND", "Parent comment not found")
	case errors.Is(err, ErrNotAuthor), errors.Is(err, ErrCannotDelete):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", err.Error())
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
