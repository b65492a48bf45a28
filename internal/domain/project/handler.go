package project

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"modlog/internal/pkg/response"
	"modlog/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/v1/projects
func (h *Handler) Create(c *gin.Context) {
	userID := mustUserID(c)
	if userID == "" {
		return
	}
	var req ProjectRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.service.Create(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, NewProjectResponse(p, userID))
}

// Get handles GET /api/v1/projects/:id
func (h *Handler) Get(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	resp := NewProjectResponse(access.Project, access.PrincipalID)

	following, err := h.service.IsFollowing(ctx, access)
	if err != nil {
		writeError(c, err)
		return
	}
	followers, err := h.service.FollowerIDs(ctx, access.Project.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.Following = following
	resp.Followers = len(followers)
	response.Success(c, http.StatusOK, resp)
}

// Update handles PUT /api/v1/projects/:id
func (h *Handler) Update(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	var req ProjectRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.service.Update(c.Request.Context(), access, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewProjectResponse(p, access.PrincipalID))
}

// Delete handles DELETE /api/v1/projects/:id
func (h *Handler) Delete(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), access); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "project deleted"})
}

// AddMod handles POST /api/v1/projects/:id/mods
func (h *Handler) AddMod(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	var req AddModRequest
	if !bind(c, &req) {
		return
	}
	p, err := h.service.AddMod(c.Request.Context(), access, req.Mod)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mods": p.Mods})
}

// DeleteMod handles DELETE /api/v1/projects/:id/mods/:index
func (h *Handler) DeleteMod(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_INDEX", "Mod index must be a number")
		return
	}
	p, err := h.service.DeleteMod(c.Request.Context(), access, index)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mods": p.Mods})
}

// Follow handles POST /api/v1/projects/:id/follow
func (h *Handler) Follow(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	if err := h.service.Follow(c.Request.Context(), access); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "now following " + access.Project.Name})
}

// Unfollow handles DELETE /api/v1/projects/:id/follow
func (h *Handler) Unfollow(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	if err := h.service.Unfollow(c.Request.Context(), access); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "no longer following " + access.Project.Name})
}

// Followers handles GET /api/v1/projects/:id/followers
func (h *Handler) Followers(c *gin.Context) {
	access, ok := mustAccess(c)
	if !ok {
		return
	}
	ids, err := h.service.FollowerIDs(c.Request.Context(), access.Project.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	items := lo.Map(ids, func(id string, _ int) FollowerResponse { return FollowerResponse{UserID: id} })
	response.Success(c, http.StatusOK, items)
}

// Following handles GET /api/v1/users/me/following
func (h *Handler) Following(c *gin.Context) {
	userID := mustUserID(c)
	if userID == "" {
		return
	}
	projects, err := h.service.Following(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	items := lo.Map(projects, func(p *Project, _ int) ProjectResponse { return NewProjectResponse(p, userID) })
	response.Success(c, http.StatusOK, items)
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
	case errors.Is(err, ErrProjectNotFound):
		response.Error(c, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "You don't have access to this project")
	case errors.Is(err, ErrModNotFound):
		response.Error(c, http.StatusNotFound, "MOD_NOT_FOUND", "Mod not found")
	case errors.Is(err, ErrNotFollowing):
		response.Error(c, http.StatusNotFound, "NOT_FOLLOWING", err.Error())
	case errors.Is(err, ErrAlreadyFollowing):
		response.Error(c, http.StatusConflict, "ALREADY_FOLLOWING", err.Error())
	case errors.Is(err, ErrCannotFollowOwn):
		response.Error(c, http.StatusBadRequest, "CANNOT_FOLLOW_OWN", err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

// WriteAccessError maps a Guard.Resolve error onto a response. Shared with
// the access middleware.
func WriteAccessError(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}

func mustAccess(c *gin.Context) (*Access, bool) {
	access, ok := AccessFrom(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Project access was not resolved")
		return nil, false
	}
	return access, true
}

func mustUserID(c *gin.Context) string {
	id := c.GetString("user_id")
	if id == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return id
}
