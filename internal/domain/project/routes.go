package project

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts project routes. public accepts anonymous visitors,
// protected requires a token, access resolves the :id project.
func RegisterRoutes(public, protected *gin.RouterGroup, h *Handler, access gin.HandlerFunc) {
	public.GET("/projects/:id", access, h.Get)
	public.GET("/projects/:id/followers", access, h.Followers)

	protected.POST("/projects", h.Create)
	protected.GET("/users/me/following", h.Following)

	p := protected.Group("/projects/:id", access)
	{
		p.PUT("", h.Update)
		p.DELETE("", h.Delete)
		p.POST("/mods", h.AddMod)
		p.DELETE("/mods/:index", h.DeleteMod)
		p.POST("/follow", h.Follow)
		p.DELETE("/follow", h.Unfollow)
	}
}
