package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
	"github.com/AltairaLabs/codegen-suggest/internal/suggest"
)

// next pops the head of the queue and marks it in flight. It returns nil
// when the queue is empty or another item is already in flight.
func (q *Queue) next() *Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.processing || len(q.items) == 0 {
		return nil
	}

	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	item.Status = ItemStatusProcessing
	q.current = item
	q.processing = true

	q.logger.Info("Processing request",
		"request_id", item.ID,
		"user_id", item.UserID,
		"channel_id", item.ChannelID,
	)

	q.notifier.Emit(item.ChannelID, config.EventProcessingStarted, ProcessingStartedEvent{
		RequestID: item.ID,
		Message:   config.MsgProcessingStarted,
	})
	q.broadcastPositions()

	return item
}

// processItem runs the suggestion call for item and reports the outcome to
// the channel captured on the item
func (q *Queue) processItem(item *Item) {
	ctx := q.ctx
	start := time.Now()

	result, err := q.invoke(ctx, item)
	elapsed := time.Since(start)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == item {
		q.current = nil
		q.processing = false
	}

	if item.cancelled {
		recordCompletion("cancelled", elapsed)
		q.logger.Info("Dropping result for cancelled request",
			"request_id", item.ID,
			"channel_id", item.ChannelID,
			"duration", elapsed,
		)
		return
	}

	if err != nil {
		recordCompletion("error", elapsed)
		q.logger.ErrorContext(ctx, "Request failed",
			"request_id", item.ID,
			"channel_id", item.ChannelID,
			"duration", elapsed,
			"error", err,
		)
		q.notifier.Emit(item.ChannelID, config.EventError, ErrorEvent{
			Message:   config.MsgSuggestionFailed,
			Error:     err.Error(),
			RequestID: item.ID,
		})
		return
	}

	recordCompletion("success", elapsed)
	q.logger.InfoContext(ctx, "Request completed",
		"request_id", item.ID,
		"channel_id", item.ChannelID,
		"duration", elapsed,
		"attempts", result.Attempts,
	)
	q.notifier.Emit(item.ChannelID, config.EventSuggestionResponse, SuggestionResponseEvent{
		Success:        true,
		RequestID:      item.ID,
		Suggestion:     result.Text,
		ProcessingTime: elapsed.Milliseconds(),
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// invoke calls the suggester, converting a panic into an error
func (q *Queue) invoke(ctx context.Context, item *Item) (result *suggest.Suggestion, err error) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.ErrorContext(ctx, "Suggestion call panicked",
				"request_id", item.ID,
				"panic", r,
			)
			result, err = nil, fmt.Errorf("internal error: %v", r)
		}
	}()

	result, err = q.suggester.GetSuggestion(ctx, item.Payload)
	if err == nil && result == nil {
		err = fmt.Errorf("no suggestion returned")
	}
	return result, err
}
