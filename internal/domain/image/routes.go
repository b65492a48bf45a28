package image

import (
	"github.com/gin-gonic/gin"

	"modlog/internal/domain/project"
)

// RegisterRoutes mounts picture routes. access resolves the :id project.
func RegisterRoutes(public, protected *gin.RouterGroup, h *Handler, access gin.HandlerFunc) {
	public.GET("/projects/:id/pictures", access, h.ListProjectPictures)

	pictures := protected.Group("/projects/:id/pictures", access)
	{
		pictures.POST("", h.AddProjectPicture)
		pictures.DELETE("/:picture_id", h.DeleteProjectPicture)
	}

	protected.POST("/users/me/picture", h.SetProfilePicture)
	protected.DELETE("/users/me/picture", h.DeleteProfilePicture)
}

// RegisterStatic serves stored originals and thumbnails under urlBase.
// auth should identify the caller without requiring a token.
func RegisterStatic(r gin.IRoutes, urlBase string, h *Handler, guard *project.Guard, auth gin.HandlerFunc) {
	r.GET(urlBase+"/:category/*file", auth, h.ServeFile(guard))
}
