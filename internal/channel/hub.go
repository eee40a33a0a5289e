// Package channel maps WebSocket connections to addressable channels and
// carries JSON event envelopes in both directions.
package channel

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
)

// Envelope is the wire form of every event
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Handler receives inbound events and disconnect notifications
type Handler interface {
	HandleEvent(ctx context.Context, channelID, event string, data json.RawMessage)
	HandleDisconnect(channelID string)
}

// Conn is one connected channel
type Conn struct {
	ID     string
	ws     *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

// Done returns a channel that is closed when the write pump exits
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub owns every connected channel
type Hub struct {
	upgrader     websocket.Upgrader
	handler      Handler
	sendBuffer   int
	writeTimeout time.Duration
	logger       *slog.Logger

	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewHub creates a hub. Inbound events are dropped until a handler is set.
func NewHub(cfg config.ServerConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	sendBuffer := cfg.SendBuffer
	if sendBuffer <= 0 {
		sendBuffer = config.DefaultSendBuffer
	}

	h := &Hub{
		sendBuffer:   sendBuffer,
		writeTimeout: config.DefaultWriteTimeout,
		logger:       logger,
		conns:        make(map[string]*Conn),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return h
}

// SetHandler sets the receiver of inbound events. Must be called before serving.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 || slices.Contains(allowed, "*") {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the peer goes away
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	conn := &Conn{
		ID:     uuid.NewString(),
		ws:     ws,
		sendCh: make(chan []byte, h.sendBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.conns[conn.ID] = conn
	total := len(h.conns)
	h.mu.Unlock()

	h.logger.Info("Client connected", "channel_id", conn.ID, "remote_addr", r.RemoteAddr, "total_channels", total)

	go h.writePump(conn)
	h.readLoop(r.Context(), conn)

	h.mu.Lock()
	delete(h.conns, conn.ID)
	h.mu.Unlock()
	conn.stop()

	h.logger.Info("Client disconnected", "channel_id", conn.ID)
	if h.handler != nil {
		h.handler.HandleDisconnect(conn.ID)
	}
}

func (h *Hub) readLoop(ctx context.Context, conn *Conn) {
	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("WebSocket read failed", "channel_id", conn.ID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			h.Emit(conn.ID, config.EventError, map[string]string{"message": config.MsgMalformedEvent})
			continue
		}

		if h.handler != nil {
			h.handler.HandleEvent(ctx, conn.ID, env.Event, env.Data)
		}
	}
}

// writePump serializes writes to the connection. A nil frame requests a
// graceful close after everything queued before it has been written.
func (h *Hub) writePump(conn *Conn) {
	defer func() {
		conn.stop()
		_ = conn.ws.Close()
	}()

	for {
		select {
		case data := <-conn.sendCh:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if data == nil {
				_ = conn.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Error("WebSocket write failed", "channel_id", conn.ID, "error", err)
				return
			}
		case <-conn.done:
			return
		}
	}
}

// Emit sends an event to one channel. It never blocks: events for unknown
// channels are ignored and events for a saturated channel are dropped.
func (h *Hub) Emit(channelID, event string, payload any) {
	h.mu.RLock()
	conn, ok := h.conns[channelID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(outbound{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("Failed to encode event", "channel_id", channelID, "event", event, "error", err)
		return
	}

	select {
	case conn.sendCh <- data:
	case <-conn.done:
	default:
		h.logger.Warn("Channel send buffer full, dropping event", "channel_id", channelID, "event", event)
	}
}

// Disconnect closes a channel after flushing the events already queued for it
func (h *Hub) Disconnect(channelID string) {
	h.mu.RLock()
	conn, ok := h.conns[channelID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case conn.sendCh <- nil:
	case <-conn.done:
	default:
		conn.stop()
	}
}

// Count returns the number of connected channels
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Close disconnects every channel
func (h *Hub) Close() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.conns))
	for id := range h.conns {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Disconnect(id)
	}
}
