package queue

import (
	"context"
	"time"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
	"github.com/AltairaLabs/codegen-suggest/internal/suggest"
)

// Config is an alias to the config package type
type Config = config.QueueConfig

// DefaultConfig returns default configuration for the queue
func DefaultConfig() Config {
	return config.DefaultQueueConfig()
}

// ItemStatus represents the lifecycle state of a queue item
type ItemStatus string

const (
	// ItemStatusQueued indicates the item is waiting for dispatch
	ItemStatusQueued ItemStatus = "queued"
	// ItemStatusProcessing indicates the item is being handled by the dispatch loop
	ItemStatusProcessing ItemStatus = "processing"
)

// Item is one admitted suggestion request
type Item struct {
	ID         int64
	UserID     string
	ChannelID  string
	Payload    string
	EnqueuedAt time.Time
	Status     ItemStatus

	// cancelled is set when the owning channel cancels while the item is in flight
	cancelled bool
}

// Notifier delivers an event to one channel. Implementations must not block.
type Notifier interface {
	Emit(channelID, event string, payload any)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(channelID, event string, payload any)

// Emit calls f
func (f NotifierFunc) Emit(channelID, event string, payload any) {
	f(channelID, event, payload)
}

type noopNotifier struct{}

func (noopNotifier) Emit(string, string, any) {}

// Suggester produces a suggestion for one payload
type Suggester interface {
	GetSuggestion(ctx context.Context, code string) (*suggest.Suggestion, error)
}

// EnqueueResult describes the outcome of an admission attempt
type EnqueueResult struct {
	ID          int64
	Position    int
	QueueLength int
	Duplicate   bool
	Message     string
}

// Status is the queue view for one channel
type Status struct {
	InQueue           bool  `json:"inQueue"`
	Position          int   `json:"position"`
	QueueLength       int   `json:"queueLength"`
	EstimatedWaitTime int   `json:"estimatedWaitTime"`
	RequestID         int64 `json:"requestId,omitempty"`
}

// ItemSnapshot is the read-only view of an item reported by Stats
type ItemSnapshot struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"userId"`
	ChannelID  string     `json:"channelId"`
	Status     ItemStatus `json:"status"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
}

// Stats is the administrative view of the queue
type Stats struct {
	QueueLength   int            `json:"queueLength"`
	IsProcessing  bool           `json:"isProcessing"`
	TotalAdmitted int64          `json:"totalAdmitted"`
	Items         []ItemSnapshot `json:"items"`
}

func snapshot(item *Item) ItemSnapshot {
	return ItemSnapshot{
		ID:         item.ID,
		UserID:     item.UserID,
		ChannelID:  item.ChannelID,
		Status:     item.Status,
		EnqueuedAt: item.EnqueuedAt,
	}
}
