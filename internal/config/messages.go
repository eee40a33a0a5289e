package config

// Messages delivered to clients
const (
	// MsgDuplicateRequest is returned when a channel already has a queued request
	MsgDuplicateRequest = "You already have a pending request in queue"
	// MsgProcessingStarted accompanies the processing-started event
	MsgProcessingStarted = "Your request is being processed"
	// MsgSuggestionFailed is the error event message for failed dispatches
	MsgSuggestionFailed = "Failed to get suggestion"
	// MsgNoRequestFound is returned when cancel finds nothing to cancel
	MsgNoRequestFound = "No request found"
	// MsgUnauthorized is returned for events sent before authentication
	MsgUnauthorized = "Unauthorized"
	// MsgInvalidToken is returned when authentication fails
	MsgInvalidToken = "Invalid token"
	// MsgCodeRequired is returned when a submission has no code
	MsgCodeRequired = "Code required"
	// MsgUnknownEvent is returned for unrecognised inbound events
	MsgUnknownEvent = "Unknown event: %s"
	// MsgMalformedEvent is returned when an event payload cannot be decoded
	MsgMalformedEvent = "Malformed event payload"
)
