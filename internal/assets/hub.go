package assets

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/naflume/internal/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks the websocket connections of open application tabs.
type Hub struct {
	log *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newHub(log *logger.Logger) *Hub {
	return &Hub{log: log, clients: make(map[*websocket.Conn]struct{})}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// Len returns the number of connected tabs.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends v to every connected tab. Writes hold the hub lock, so
// a connection never has two concurrent writers.
func (h *Hub) Broadcast(v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(v); err != nil {
			h.log.Debug("broadcast failed", "remote", conn.RemoteAddr().String(), "error", err)
		}
	}
}

func (h *Hub) send(conn *websocket.Conn, v any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := conn.WriteJSON(v); err != nil {
		h.log.Debug("websocket write failed", "error", err)
	}
}

// Close disconnects every tab.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}

// handleEvents upgrades a tab's connection, receives update broadcasts and
// answers messages sent over it.
func (c *Controller) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	c.hub.add(conn)
	defer c.hub.remove(conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read failed", "error", err)
			}
			return
		}

		var m Message
		if err := json.Unmarshal(data, &m); err != nil {
			c.hub.send(conn, map[string]string{"type": "ERROR", "error": "invalid message format"})
			continue
		}
		// Tab connections outlive request timeouts, so messages run on the
		// controller's own context.
		reply, err := c.HandleMessage(c.bg, m)
		if err != nil {
			c.hub.send(conn, map[string]string{"type": "ERROR", "error": err.Error()})
			continue
		}
		if reply != nil {
			c.hub.send(conn, reply)
		}
	}
}
