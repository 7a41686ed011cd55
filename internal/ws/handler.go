package ws

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tictacmatch/internal/broadcast"
	"tictacmatch/internal/config"
)

// Dispatcher consumes connection lifecycle events and inbound frames.
type Dispatcher interface {
	Connect(connID string)
	Disconnect(connID string)
	Handle(connID string, frame []byte) error
}

// Handler handles WebSocket connections. Each connection gets a fresh id, one
// reader (this request's goroutine) and one writer draining its hub client.
type Handler struct {
	hub        *broadcast.Hub
	dispatcher Dispatcher
	cfg        config.WebSocketConfig
	logger     *zap.Logger
	upgrader   websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *broadcast.Hub, dispatcher Dispatcher, cfg config.WebSocketConfig, logger *zap.Logger) *Handler {
	return &Handler{
		hub:        hub,
		dispatcher: dispatcher,
		cfg:        cfg,
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes sets up the WebSocket routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	log := h.logger.With(zap.String("conn_id", connID))
	log.Info("client connected", zap.String("remote_addr", r.RemoteAddr))

	client := broadcast.NewClient(connID, h.cfg.SendBuffer)
	h.hub.Register(client)
	h.dispatcher.Connect(connID)

	written := make(chan struct{})
	go func() {
		defer close(written)
		h.writePump(conn, client, log)
	}()

	h.readPump(conn, connID, log)

	h.hub.Unregister(client)
	h.dispatcher.Disconnect(connID)
	<-written
	log.Info("client disconnected")
}

// readPump feeds inbound frames to the dispatcher until the peer goes away or
// stops answering pings.
func (h *Handler) readPump(conn *websocket.Conn, connID string, log *zap.Logger) {
	conn.SetReadLimit(h.cfg.MaxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait)); err != nil {
		log.Error("setting read deadline", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})

	for {
		messageType, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if err := h.dispatcher.Handle(connID, frame); err != nil {
			log.Debug("frame rejected", zap.Error(err))
		}
	}
}

// writePump drains the client's queue onto the socket and pings the peer.
// It returns when the queue is closed or a write fails.
func (h *Handler) writePump(conn *websocket.Conn, client *broadcast.Client, log *zap.Logger) {
	ticker := time.NewTicker(h.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.Messages():
			if err := conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait)); err != nil {
				return
			}
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
