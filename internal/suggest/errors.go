package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a suggestion failure
type Kind string

const (
	// KindValidation covers empty, oversized, or service-rejected input
	KindValidation Kind = "validation"
	// KindConfiguration covers missing or rejected credentials
	KindConfiguration Kind = "configuration"
	// KindQuota covers quota exhaustion and rate limiting
	KindQuota Kind = "quota"
	// KindTimeout covers attempts that lost the race against the request timeout
	KindTimeout Kind = "timeout"
	// KindTransient covers any other service error that may succeed on retry
	KindTransient Kind = "transient"
	// KindTerminal is a service failure after the retry budget is spent
	KindTerminal Kind = "terminal"
)

var (
	errAttemptTimeout = errors.New("request timeout")
	errEmptyResponse  = errors.New("empty response from suggestion service")
)

// Failure is the typed error returned by the suggestion client
type Failure struct {
	Kind     Kind
	Message  string
	Attempts int
	Err      error
}

// Error returns the client-facing failure message
func (f *Failure) Error() string {
	return f.Message
}

// Unwrap exposes the underlying service error
func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable reports whether the failure class is eligible for another attempt
func (f *Failure) Retryable() bool {
	return f.Kind == KindTimeout || f.Kind == KindTransient
}

// IsKind reports whether err is a suggestion failure of the given kind
func IsKind(err error, kind Kind) bool {
	var f *Failure
	if !errors.As(err, &f) {
		return false
	}
	return f.Kind == kind
}

// ServiceStatusError is implemented by generator errors that carry a
// structured status from the external service
type ServiceStatusError interface {
	error
	ServiceStatus() string
	HTTPStatus() int
}

// classify maps one attempt error to a failure. Checks run in order and the
// first match wins.
func classify(err error, attempts int) *Failure {
	status, code := serviceStatus(err)
	msg := err.Error()

	switch {
	case isCredentialError(status, code, msg):
		text := "API key configuration error. Please check your API key."
		if status == "PERMISSION_DENIED" || strings.Contains(msg, "PERMISSION_DENIED") {
			text = "Permission denied. Please check your API key permissions."
		}
		return &Failure{Kind: KindConfiguration, Message: text, Attempts: attempts, Err: err}
	case isRateLimitError(msg):
		return &Failure{
			Kind:     KindQuota,
			Message:  "Suggestion service rate limit exceeded. Please wait a moment and try again.",
			Attempts: attempts,
			Err:      err,
		}
	case isQuotaError(status, code, msg):
		return &Failure{
			Kind:     KindQuota,
			Message:  "Suggestion service quota exceeded. Please try again later.",
			Attempts: attempts,
			Err:      err,
		}
	case isTimeoutError(err, msg):
		return &Failure{Kind: KindTimeout, Message: msg, Attempts: attempts, Err: err}
	case isInvalidArgumentError(status, code, msg):
		return &Failure{
			Kind:     KindValidation,
			Message:  "Invalid input provided to suggestion service.",
			Attempts: attempts,
			Err:      err,
		}
	default:
		return &Failure{Kind: KindTransient, Message: msg, Attempts: attempts, Err: err}
	}
}

// exhausted converts a retryable failure into the terminal failure surfaced
// once no budget remains
func exhausted(f *Failure) *Failure {
	if f.Kind == KindTimeout {
		return &Failure{
			Kind:     KindTimeout,
			Message:  fmt.Sprintf("Request timed out after %d attempts. Please try again.", f.Attempts),
			Attempts: f.Attempts,
			Err:      f.Err,
		}
	}
	return &Failure{
		Kind:     KindTerminal,
		Message:  fmt.Sprintf("Failed to get suggestion: %s", f.Err.Error()),
		Attempts: f.Attempts,
		Err:      f.Err,
	}
}

func serviceStatus(err error) (string, int) {
	var se ServiceStatusError
	if errors.As(err, &se) {
		return se.ServiceStatus(), se.HTTPStatus()
	}
	return "", 0
}

func isCredentialError(status string, code int, msg string) bool {
	if status == "PERMISSION_DENIED" || status == "UNAUTHENTICATED" || code == 401 || code == 403 {
		return true
	}
	return strings.Contains(msg, "API_KEY") ||
		strings.Contains(msg, "API key") ||
		strings.Contains(msg, "PERMISSION_DENIED")
}

func isQuotaError(status string, code int, msg string) bool {
	if status == "RESOURCE_EXHAUSTED" || code == 429 {
		return true
	}
	return strings.Contains(strings.ToLower(msg), "quota") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func isRateLimitError(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "rate limit") ||
		strings.Contains(msg, "RATE_LIMIT_EXCEEDED")
}

func isTimeoutError(err error, msg string) bool {
	if errors.Is(err, errAttemptTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out")
}

func isInvalidArgumentError(status string, code int, msg string) bool {
	return status == "INVALID_ARGUMENT" || code == 400 || strings.Contains(msg, "INVALID_ARGUMENT")
}
