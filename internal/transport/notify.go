package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The daemon binds loopback only; its own windows are the clients.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is the change-notification payload pushed to observers.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// EventDataChanged tells a surface to re-fetch and recompute.
const EventDataChanged = "data-changed"

type notifyClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks the connected UI surfaces and broadcasts change events to
// everyone except the surface that caused the change.
type Hub struct {
	mu      sync.RWMutex
	clients map[*notifyClient]bool
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		clients: map[*notifyClient]bool{},
		logger:  logger,
	}
}

// ServeHTTP upgrades GET /events connections. Surfaces identify
// themselves with ?client_id= so their own mutations don't bounce back.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &notifyClient{
		id:   r.URL.Query().Get("client_id"),
		conn: conn,
		send: make(chan []byte, 8),
	}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
	h.logger.Debug("surface connected", "clientId", c.id)

	go h.writePump(c)
	go h.readPump(c)
}

// Broadcast pushes an event to every connected surface except the
// originator.
func (h *Hub) Broadcast(eventType, originClientID string) {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if originClientID != "" && c.id == originClientID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// Slow consumer; it will re-fetch on its next event anyway.
		}
	}
}

// ClientCount reports the number of connected surfaces.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writePump(c *notifyClient) {
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (h *Hub) readPump(c *notifyClient) {
	defer h.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) drop(c *notifyClient) {
	h.mu.Lock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
	h.logger.Debug("surface disconnected", "clientId", c.id)
}
