package notify

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
	sendBuffer = 64
)

const (
	EventProjectUpdate  = "project_update"
	EventProjectComment = "project_comment"
)

// Event is pushed to followers of a project.
type Event struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	Payload   any    `json:"payload,omitempty"`
}

// connection is one websocket client. A user may hold several.
type connection struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub manages all active websocket connections.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]map[*connection]struct{} // userID -> connections
	log         *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		connections: make(map[string]map[*connection]struct{}),
		log:         log.Named("notify"),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.connections[c.userID]
	if !ok {
		conns = make(map[*connection]struct{})
		h.connections[c.userID] = conns
	}
	conns[c] = struct{}{}
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.connections[c.userID]
	if !ok {
		return
	}
	if _, ok := conns[c]; ok {
		delete(conns, c)
		close(c.send)
	}
	if len(conns) == 0 {
		delete(h.connections, c.userID)
	}
}

// Online reports whether userID has at least one open connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID]) > 0
}

// SendToUsers delivers event to every connection of the given users and
// returns how many users received it. Slow clients are skipped.
func (h *Hub) SendToUsers(userIDs []string, event *Event) int {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("event not encodable", zap.String("type", event.Type), zap.Error(err))
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, id := range userIDs {
		sent := false
		for c := range h.connections[id] {
			select {
			case c.send <- data:
				sent = true
			default:
				h.log.Warn("dropping event for slow client", zap.String("user_id", id))
			}
		}
		if sent {
			delivered++
		}
	}
	return delivered
}

// ServeWS registers conn for userID and blocks until the client goes away.
func (h *Hub) ServeWS(conn *websocket.Conn, userID string) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(c)
	h.log.Debug("client connected", zap.String("user_id", userID))

	go h.writePump(c)
	h.readPump(c)
}

// readPump only drains control frames; clients do not send events.
func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
		h.log.Debug("client disconnected", zap.String("user_id", c.userID))
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
