package middleware

import (
	"github.com/gin-gonic/gin"

	"modlog/internal/domain/project"
)

// ProjectAccess resolves the project in URL param "id" for the current
// principal and stores the resulting *project.Access. Private projects stop
// here for anyone but their owner.
func ProjectAccess(guard *project.Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, err := guard.Resolve(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
		if err != nil {
			project.WriteAccessError(c, err)
			return
		}
		c.Set(project.ContextKey, access)
		c.Next()
	}
}
