package image

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"modlog/internal/domain/project"
	"modlog/internal/pkg/idgen"
	"modlog/internal/pkg/response"
)

const maxDescriptionLength = 120

type Handler struct {
	service  *Service
	profiles *ProfilePictures
}

func NewHandler(service *Service, profiles *ProfilePictures) *Handler {
	return &Handler{service: service, profiles: profiles}
}

// AddProjectPicture handles POST /api/v1/projects/:id/pictures
func (h *Handler) AddProjectPicture(c *gin.Context) {
	access, ok := project.AccessFrom(c)
	if !ok || access.RequireOwner() != nil {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only the project owner can add pictures")
		return
	}

	description := c.PostForm("description")
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		response.Error(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Description is limited to 120 characters")
		return
	}

	in, ok := h.readUpload(c)
	if !ok {
		return
	}
	in.Owner = ProjectOwner(access.Project.ID)
	in.Description = description

	img, err := h.service.Add(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, h.service.toResponse(img))
}

// ListProjectPictures handles GET /api/v1/projects/:id/pictures
func (h *Handler) ListProjectPictures(c *gin.Context) {
	access, ok := project.AccessFrom(c)
	if !ok {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Project access was not resolved")
		return
	}
	images, err := h.service.ListByOwner(c.Request.Context(), ProjectOwner(access.Project.ID))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, lo.Map(images, func(img *Image, _ int) Response {
		return h.service.toResponse(img)
	}))
}

// DeleteProjectPicture handles DELETE /api/v1/projects/:id/pictures/:picture_id
func (h *Handler) DeleteProjectPicture(c *gin.Context) {
	access, ok := project.AccessFrom(c)
	if !ok || access.RequireOwner() != nil {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only the project owner can remove pictures")
		return
	}

	ctx := c.Request.Context()
	id := c.Param("picture_id")
	if !idgen.Valid(id) {
		writeError(c, ErrImageNotFound)
		return
	}
	img, err := h.service.Get(ctx, id)
	switch {
	case errors.Is(err, ErrImageNotFound):
		// already removed
		response.Success(c, http.StatusOK, RemoveResponse{ID: id})
		return
	case err != nil:
		writeError(c, err)
		return
	case img.Owner() != ProjectOwner(access.Project.ID):
		writeError(c, ErrImageNotFound)
		return
	}

	res, err := h.service.Remove(ctx, img.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, RemoveResponse{ID: img.ID, Removed: res.Removed, PartialCleanup: res.PartialCleanup})
}

// SetProfilePicture handles POST /api/v1/users/me/picture
func (h *Handler) SetProfilePicture(c *gin.Context) {
	userID := mustUserID(c)
	if userID == "" {
		return
	}
	in, ok := h.readUpload(c)
	if !ok {
		return
	}
	img, err := h.profiles.Replace(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, h.service.toResponse(img))
}

// DeleteProfilePicture handles DELETE /api/v1/users/me/picture
func (h *Handler) DeleteProfilePicture(c *gin.Context) {
	userID := mustUserID(c)
	if userID == "" {
		return
	}
	res, err := h.profiles.Clear(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, RemoveResponse{Removed: res.Removed, PartialCleanup: res.PartialCleanup})
}

// readUpload reads the multipart "file" field, capped at the configured size.
func (h *Handler) readUpload(c *gin.Context) (AddInput, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "No file provided")
		return AddInput{}, false
	}
	if h.service.cfg.MaxBytes > 0 && fileHeader.Size > h.service.cfg.MaxBytes {
		writeError(c, ErrFileTooLarge)
		return AddInput{}, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FILE", "Uploaded file could not be read")
		return AddInput{}, false
	}
	defer file.Close()

	limit := h.service.cfg.MaxBytes
	if limit <= 0 {
		limit = fileHeader.Size
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_FILE", fmt.Sprintf("Uploaded file could not be read: %v", err))
		return AddInput{}, false
	}

	return AddInput{
		Data:     data,
		Filename: fileHeader.Filename,
		UploadIP: c.ClientIP(),
	}, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUnsupportedFileType):
		response.Error(c, http.StatusBadRequest, "UNSUPPORTED_FILE_TYPE", "File type is not allowed")
	case errors.Is(err, ErrInvalidImageData):
		response.Error(c, http.StatusBadRequest, "INVALID_IMAGE", "File is not a valid image")
	case errors.Is(err, ErrEmptyFile):
		response.Error(c, http.StatusBadRequest, "EMPTY_FILE", "File is empty")
	case errors.Is(err, ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds maximum allowed size")
	case errors.Is(err, ErrImageNotFound):
		response.Error(c, http.StatusNotFound, "IMAGE_NOT_FOUND", "Image not found")
	case errors.Is(err, ErrRecordCreationFailed):
		response.Error(c, http.StatusInternalServerError, "RECORD_CREATION_FAILED", "Image could not be saved, please retry")
	case errors.Is(err, ErrIngestionFailed):
		response.Error(c, http.StatusInternalServerError, "INGESTION_FAILED", "Image could not be stored")
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
