package config

// Inbound event names
const (
	// EventAuthenticate binds a channel to a session token
	EventAuthenticate = "authenticate"
	// EventSubmitRequest submits code for a suggestion
	EventSubmitRequest = "submit-request"
	// EventGetSuggestion is the legacy name for EventSubmitRequest
	EventGetSuggestion = "get-suggestion"
	// EventCancelRequest removes the channel's pending request
	EventCancelRequest = "cancel-request"
	// EventQueueStatus asks for the channel's queue position
	EventQueueStatus = "queue-status"
)

// Outbound event names
const (
	EventAuthenticated       = "authenticated"
	EventQueued              = "queued"
	EventRequestCancelled    = "request-cancelled"
	EventProcessingStarted   = "processing-started"
	EventQueuePositionUpdate = "queue-position-update"
	EventSuggestionResponse  = "suggestion-response"
	EventError               = "error"
)

// InboundEvents returns every event name a client may send
func InboundEvents() []string {
	return []string{
		EventAuthenticate,
		EventSubmitRequest,
		EventGetSuggestion,
		EventCancelRequest,
		EventQueueStatus,
	}
}
