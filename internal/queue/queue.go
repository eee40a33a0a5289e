package queue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
)

// Queue is the in-memory FIFO admission queue and its single-flight
// dispatch loop. All state is guarded by mu; the suggestion call never
// runs while mu is held.
type Queue struct {
	suggester Suggester
	notifier  Notifier
	logger    *slog.Logger
	cfg       Config

	mu            sync.Mutex
	items         []*Item
	current       *Item
	processing    bool
	nextID        int64
	totalAdmitted int64

	// wake signals the dispatch loop that work may be available
	wake chan struct{}

	// Background worker control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a queue that dispatches to suggester and reports to notifier
func New(suggester Suggester, notifier Notifier, logger *slog.Logger, cfg Config) *Queue {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	q := &Queue{
		suggester: suggester,
		notifier:  notifier,
		logger:    logger,
		cfg:       cfg,
		wake:      make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
	registerQueueGauges(q)
	return q
}

// Start begins the background dispatch loop
func (q *Queue) Start() {
	q.logger.Info("Starting dispatch loop")

	q.wg.Add(1)
	go q.dispatchLoop()

	q.signal()
}

// Stop cancels any in-flight suggestion and waits for the dispatch loop to exit
func (q *Queue) Stop() {
	q.logger.Info("Stopping dispatch loop")
	q.cancel()
	q.wg.Wait()
	q.logger.Info("Dispatch loop stopped")
}

// Enqueue admits a request for channelID. A channel with a waiting request
// gets that request's ID and position back and the queue is left unchanged.
func (q *Queue) Enqueue(userID, channelID, payload string, submittedAt time.Time) EnqueueResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	if idx := q.indexOf(channelID); idx >= 0 {
		existing := q.items[idx]
		recordDuplicate()
		q.logger.Info("Duplicate request rejected",
			"request_id", existing.ID,
			"user_id", userID,
			"channel_id", channelID,
		)
		return EnqueueResult{
			ID:          existing.ID,
			Position:    idx + 1,
			QueueLength: len(q.items),
			Duplicate:   true,
			Message:     config.MsgDuplicateRequest,
		}
	}

	if submittedAt.IsZero() {
		submittedAt = time.Now()
	}

	q.nextID++
	q.totalAdmitted++
	item := &Item{
		ID:         q.nextID,
		UserID:     userID,
		ChannelID:  channelID,
		Payload:    payload,
		EnqueuedAt: submittedAt,
		Status:     ItemStatusQueued,
	}
	q.items = append(q.items, item)
	position := len(q.items)

	recordAdmitted()
	q.logger.Info("Request enqueued",
		"request_id", item.ID,
		"user_id", userID,
		"channel_id", channelID,
		"position", position,
	)

	q.broadcastPositions()
	q.signal()

	return EnqueueResult{
		ID:          item.ID,
		Position:    position,
		QueueLength: len(q.items),
	}
}

// DequeueByChannel removes the waiting request of channelID. If the channel's
// request is already in flight it is marked cancelled and its result is
// dropped on completion. Returns false when the channel has no request.
func (q *Queue) DequeueByChannel(channelID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if idx := q.indexOf(channelID); idx >= 0 {
		removed := q.items[idx]
		q.items = append(q.items[:idx], q.items[idx+1:]...)
		recordCancelled(ItemStatusQueued)
		q.logger.Info("Request removed from queue",
			"request_id", removed.ID,
			"user_id", removed.UserID,
			"channel_id", channelID,
		)
		q.broadcastPositions()
		return true
	}

	if q.current != nil && q.current.ChannelID == channelID && !q.current.cancelled {
		q.current.cancelled = true
		recordCancelled(ItemStatusProcessing)
		q.logger.Info("In-flight request cancelled",
			"request_id", q.current.ID,
			"channel_id", channelID,
		)
		return true
	}

	return false
}

// StatusFor reports the waiting position of channelID's request
func (q *Queue) StatusFor(channelID string) Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	idx := q.indexOf(channelID)
	if idx < 0 {
		return Status{QueueLength: len(q.items)}
	}

	position := idx + 1
	return Status{
		InQueue:           true,
		Position:          position,
		QueueLength:       len(q.items),
		EstimatedWaitTime: q.estimate(position),
		RequestID:         q.items[idx].ID,
	}
}

// Stats returns a snapshot of the queue. The in-flight item, if any, is
// listed first and is not counted in QueueLength.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := make([]ItemSnapshot, 0, len(q.items)+1)
	if q.current != nil {
		items = append(items, snapshot(q.current))
	}
	for _, item := range q.items {
		items = append(items, snapshot(item))
	}

	return Stats{
		QueueLength:   len(q.items),
		IsProcessing:  q.processing,
		TotalAdmitted: q.totalAdmitted,
		Items:         items,
	}
}

// Clear discards every waiting request and resets the processing flag.
// Removed channels are not notified. An in-flight request still completes
// and reports to its channel.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cleared := len(q.items)
	q.items = nil
	q.current = nil
	q.processing = false

	q.logger.Warn("Queue cleared", "cleared", cleared)
	return cleared
}

// Len returns the number of waiting requests
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsProcessing reports whether a request is in flight
func (q *Queue) IsProcessing() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.processing
}

// indexOf must be called with mu held
func (q *Queue) indexOf(channelID string) int {
	for i, item := range q.items {
		if item.ChannelID == channelID {
			return i
		}
	}
	return -1
}

func (q *Queue) estimate(position int) int {
	return position * q.cfg.SecondsPerItem
}

// broadcastPositions must be called with mu held
func (q *Queue) broadcastPositions() {
	for i, item := range q.items {
		position := i + 1
		q.notifier.Emit(item.ChannelID, config.EventQueuePositionUpdate, PositionUpdateEvent{
			Position:          position,
			QueueLength:       len(q.items),
			EstimatedWaitTime: q.estimate(position),
			RequestID:         item.ID,
		})
	}
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
