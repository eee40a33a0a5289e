package queue

// QueuedEvent acknowledges an admission
type QueuedEvent struct {
	ID          int64  `json:"id"`
	Position    int    `json:"position"`
	QueueLength int    `json:"queueLength"`
	Message     string `json:"message,omitempty"`
}

// ProcessingStartedEvent is sent when the dispatch loop picks up an item
type ProcessingStartedEvent struct {
	RequestID int64  `json:"requestId"`
	Message   string `json:"message"`
}

// PositionUpdateEvent is broadcast to every queued channel after the queue changes
type PositionUpdateEvent struct {
	Position          int   `json:"position"`
	QueueLength       int   `json:"queueLength"`
	EstimatedWaitTime int   `json:"estimatedWaitTime"`
	RequestID         int64 `json:"requestId"`
}

// SuggestionResponseEvent delivers a successful suggestion.
// ProcessingTime is in milliseconds.
type SuggestionResponseEvent struct {
	Success        bool   `json:"success"`
	RequestID      int64  `json:"requestId"`
	Suggestion     string `json:"suggestion"`
	ProcessingTime int64  `json:"processingTime"`
	Timestamp      string `json:"timestamp"`
}

// ErrorEvent reports a failure to a channel
type ErrorEvent struct {
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	RequestID int64  `json:"requestId,omitempty"`
}
