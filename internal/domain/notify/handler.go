package notify

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"modlog/internal/pkg/jwt"
	"modlog/internal/pkg/response"
)

type Handler struct {
	hub     *Hub
	jwt     *jwt.Service
	upgrade websocket.Upgrader
}

// NewHandler accepts browser connections from allowedOrigins only. Clients
// that send no Origin header (CLI tools, tests) are always accepted.
func NewHandler(hub *Hub, jwtService *jwt.Service, allowedOrigins []string) *Handler {
	return &Handler{
		hub: hub,
		jwt: jwtService,
		upgrade: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || lo.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Serve handles GET /ws/notifications?token=JWT
//
// Browsers cannot set headers on websocket requests, so the token travels
// in the query string.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Token is required. Use ?token=YOUR_JWT_TOKEN")
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := h.upgrade.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.ServeWS(conn, claims.UserID)
}

func RegisterRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/ws/notifications", h.Serve)
}
