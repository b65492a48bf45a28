package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"modlog/internal/pkg/response"
	"modlog/internal/pkg/validator"
)

// Handler manages all HTTP interactions for accounts
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Signup handles POST /api/v1/auth/signup
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bind(c, &req) {
		return
	}
	u, token, err := h.service.Signup(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, AuthResponse{User: u, Token: token})
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	u, token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, AuthResponse{User: u, Token: token})
}

// GetMe handles GET /api/v1/users/me
func (h *Handler) GetMe(c *gin.Context) {
	userID := mustUserID(c)
	if userID == "" {
		return
	}
	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

// UpdateMe handles PUT /api/v1/users/me
func (h *Handler) UpdateMe(c *gin.Context) {
	userID := mustUserID(c)
	if userID == "" {
		return
	}
	var req UpdateRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.service.Update(c.Request.Context(), userID, &req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, u)
}

// DeleteMe handles DELETE /api/v1/users/me
func (h *Handler) DeleteMe(c *gin.Context) {
	userID := mustUserID(c)
	if userID == "" {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "account deleted"})
}

// Profile handles GET /api/v1/users/:username
func (h *Handler) Profile(c *gin.Context) {
	viewerID := c.GetString("user_id")
	u, projects, err := h.service.Profile(c.Request.Context(), c.Param("username"), viewerID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, ProfileResponse{
		User:     toPublicUser(u),
		Projects: projectResponses(projects, viewerID),
	})
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
	case errors.Is(err, ErrInvalidCredentials):
		response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
	case errors.Is(err, ErrUsernameTaken):
		response.Error(c, http.StatusConflict, "USERNAME_TAKEN", "Username already registered")
	case errors.Is(err, ErrEmailAlreadyExists):
		response.Error(c, http.StatusConflict, "EMAIL_EXISTS", "Email already registered")
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, ErrProfilePrivate):
		response.Error(c, http.StatusForbidden, "PROFILE_PRIVATE", "This profile is private")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Something went wrong")
	}
}

func mustUserID(c *gin.Context) string {
	id := c.GetString("user_id")
	if id == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	}
	return id
}
