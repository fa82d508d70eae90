package server

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matzehuels/codemap/pkg/engine"
	"github.com/matzehuels/codemap/pkg/observability"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10

	// clientBuffer is how many messages a client may fall behind before it
	// is dropped.
	clientBuffer = 64
)

type client struct {
	id   string
	send chan []byte
}

// Hub fans engine messages out to websocket clients. Publish never blocks:
// a client whose buffer is full is disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  *log.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Hub{clients: map[*client]struct{}{}, logger: logger}
}

// Publish encodes m once and queues it for every client.
func (h *Hub) Publish(m engine.Message) {
	data, err := json.Marshal(m)
	if err != nil {
		h.logger.Error("encode message", "type", m.Type, "err", err)
		return
	}
	h.broadcast(m.Type, data)
}

func (h *Hub) broadcast(msgType string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			delete(h.clients, c)
			close(c.send)
			observability.Push().OnDrop(context.Background(), c.id, msgType)
			h.logger.Warn("dropped slow client", "client", c.id, "type", msgType)
		}
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// queue sends data to one client if it is still registered and has room.
func (h *Hub) queue(c *client, data []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) register() *client {
	c := &client{id: uuid.NewString(), send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	observability.Push().OnClientConnect(context.Background(), c.id)
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	observability.Push().OnClientDisconnect(context.Background(), c.id)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// writePump sends queued messages and keepalive pings until the client's
// queue closes or a write fails.
func writePump(ctx context.Context, conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "too slow"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var _ engine.Publisher = (*Hub)(nil)
