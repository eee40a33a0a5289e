// Package gateway translates channel events into queue operations
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
	"github.com/AltairaLabs/codegen-suggest/internal/queue"
	"github.com/AltairaLabs/codegen-suggest/internal/session"
)

// Queue is the subset of the admission queue used by the gateway
type Queue interface {
	Enqueue(userID, channelID, payload string, submittedAt time.Time) queue.EnqueueResult
	DequeueByChannel(channelID string) bool
	StatusFor(channelID string) queue.Status
}

// Sessions is the subset of the session store used by the gateway
type Sessions interface {
	Validate(token, channelID string) (*session.Session, error)
	Touch(token string) bool
	Remove(token string) bool
}

// Channels delivers events to, and closes, channels
type Channels interface {
	Emit(channelID, event string, payload any)
	Disconnect(channelID string)
}

// AuthenticatedEvent confirms a successful authenticate
type AuthenticatedEvent struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId"`
}

// CancelledEvent confirms a successful cancel-request
type CancelledEvent struct {
	Success bool `json:"success"`
}

type authenticateRequest struct {
	Token string `json:"token"`
}

type submitRequest struct {
	Code string `json:"code"`
}

// binding records which session authenticated a channel
type binding struct {
	userID string
	token  string
}

// Gateway handles inbound channel events
type Gateway struct {
	queue    Queue
	sessions Sessions
	channels Channels
	logger   *slog.Logger

	mu       sync.Mutex
	bindings map[string]binding
}

// New creates a gateway
func New(q Queue, sessions Sessions, channels Channels, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		queue:    q,
		sessions: sessions,
		channels: channels,
		logger:   logger,
		bindings: make(map[string]binding),
	}
}

// HandleEvent dispatches one inbound event
func (g *Gateway) HandleEvent(ctx context.Context, channelID, event string, data json.RawMessage) {
	switch event {
	case config.EventAuthenticate:
		g.authenticate(ctx, channelID, data)
	case config.EventSubmitRequest, config.EventGetSuggestion:
		g.submit(ctx, channelID, data)
	case config.EventCancelRequest:
		g.cancel(ctx, channelID)
	case config.EventQueueStatus:
		g.status(channelID)
	default:
		g.logger.DebugContext(ctx, "Unknown event", "channel_id", channelID, "event", event)
		g.emitError(channelID, fmt.Sprintf(config.MsgUnknownEvent, event))
	}
}

// HandleDisconnect withdraws the channel's request and ends its session
func (g *Gateway) HandleDisconnect(channelID string) {
	removed := g.queue.DequeueByChannel(channelID)

	g.mu.Lock()
	b, ok := g.bindings[channelID]
	delete(g.bindings, channelID)
	g.mu.Unlock()

	if ok {
		g.sessions.Remove(b.token)
	}

	g.logger.Info("Channel closed",
		"channel_id", channelID,
		"user_id", b.userID,
		"request_removed", removed,
	)
}

func (g *Gateway) authenticate(ctx context.Context, channelID string, data json.RawMessage) {
	var req authenticateRequest
	decode(data, &req)

	sess, err := g.sessions.Validate(req.Token, channelID)
	if err != nil {
		g.logger.InfoContext(ctx, "Authentication failed", "channel_id", channelID, "error", err)
		g.emitError(channelID, config.MsgInvalidToken)
		g.channels.Disconnect(channelID)
		return
	}

	g.mu.Lock()
	g.bindings[channelID] = binding{userID: sess.UserID, token: req.Token}
	g.mu.Unlock()

	g.logger.InfoContext(ctx, "Channel authenticated", "channel_id", channelID, "user_id", sess.UserID)
	g.channels.Emit(channelID, config.EventAuthenticated, AuthenticatedEvent{Success: true, UserID: sess.UserID})
}

func (g *Gateway) submit(ctx context.Context, channelID string, data json.RawMessage) {
	b, ok := g.binding(channelID)
	if !ok {
		g.emitError(channelID, config.MsgUnauthorized)
		return
	}

	var req submitRequest
	decode(data, &req)
	if req.Code == "" {
		g.emitError(channelID, config.MsgCodeRequired)
		return
	}

	g.sessions.Touch(b.token)
	res := g.queue.Enqueue(b.userID, channelID, req.Code, time.Now())

	g.logger.DebugContext(ctx, "Submission handled",
		"channel_id", channelID,
		"request_id", res.ID,
		"duplicate", res.Duplicate,
	)
	g.channels.Emit(channelID, config.EventQueued, queue.QueuedEvent{
		ID:          res.ID,
		Position:    res.Position,
		QueueLength: res.QueueLength,
		Message:     res.Message,
	})
}

func (g *Gateway) cancel(ctx context.Context, channelID string) {
	if _, ok := g.binding(channelID); !ok {
		g.emitError(channelID, config.MsgUnauthorized)
		return
	}

	if !g.queue.DequeueByChannel(channelID) {
		g.emitError(channelID, config.MsgNoRequestFound)
		return
	}

	g.logger.InfoContext(ctx, "Request cancelled", "channel_id", channelID)
	g.channels.Emit(channelID, config.EventRequestCancelled, CancelledEvent{Success: true})
}

func (g *Gateway) status(channelID string) {
	if _, ok := g.binding(channelID); !ok {
		g.emitError(channelID, config.MsgUnauthorized)
		return
	}
	g.channels.Emit(channelID, config.EventQueueStatus, g.queue.StatusFor(channelID))
}

func (g *Gateway) binding(channelID string) (binding, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	b, ok := g.bindings[channelID]
	return b, ok
}

func (g *Gateway) emitError(channelID, message string) {
	g.channels.Emit(channelID, config.EventError, queue.ErrorEvent{Message: message})
}

// decode leaves v zero-valued when data is absent or malformed
func decode(data json.RawMessage, v any) {
	if len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, v)
}
