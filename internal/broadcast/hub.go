package broadcast

import (
	"sync"

	"go.uber.org/zap"

	"tictacmatch/internal/models"
)

// Client is the outbound side of one connection: a buffered queue of encoded
// frames drained by the transport's writer.
type Client struct {
	ID        string
	send      chan []byte
	closeOnce sync.Once
}

// NewClient creates a client with room for buffer pending frames.
func NewClient(id string, buffer int) *Client {
	return &Client{
		ID:   id,
		send: make(chan []byte, buffer),
	}
}

// Messages returns the frames queued for this client. It is closed when the
// client is unregistered.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub routes outbound events to connected clients. Delivery never blocks: a
// client whose buffer is full loses the frame and the others are unaffected.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewHub creates a new broadcast hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
	}
}

// Register adds a client, replacing any previous client with the same id.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.clients[c.ID]; ok && old != c {
		old.close()
	}
	h.clients[c.ID] = c
}

// Unregister removes a client and closes its queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.ID]; ok && cur == c {
		delete(h.clients, c.ID)
	}
	c.close()
}

// Send delivers an event to one connection.
func (h *Hub) Send(connID string, ev models.Event) {
	msg, err := models.Encode(ev)
	if err != nil {
		h.logger.Error("encoding event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		h.logger.Debug("dropping event for unknown connection",
			zap.String("conn_id", connID),
			zap.String("event", ev.EventType()),
		)
		return
	}
	h.deliver(c, ev.EventType(), msg)
}

// Broadcast delivers an event to every connection.
func (h *Hub) Broadcast(ev models.Event) {
	msg, err := models.Encode(ev)
	if err != nil {
		h.logger.Error("encoding event", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.deliver(c, ev.EventType(), msg)
	}
}

// Count returns the number of registered clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close unregisters every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
}

func (h *Hub) deliver(c *Client, event string, msg []byte) {
	select {
	case c.send <- msg:
	default:
		h.logger.Warn("client send buffer full, dropping event",
			zap.String("conn_id", c.ID),
			zap.String("event", event),
		)
	}
}
