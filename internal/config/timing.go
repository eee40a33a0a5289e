package config

import "time"

// Default timing and sizing used throughout the service
const (
	// DefaultMaxRetries is how many times a failed suggestion call is retried
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the fixed pause between suggestion attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultRequestTimeout bounds a single suggestion attempt
	DefaultRequestTimeout = 30 * time.Second

	// DefaultMaxInputLength is the largest code payload accepted, in characters
	DefaultMaxInputLength = 10000

	// DefaultModel is the external model used for suggestions
	DefaultModel = "gemini-2.0-flash-001"

	// DefaultSecondsPerItem is the fixed per-item wait estimate
	DefaultSecondsPerItem = 3

	// DefaultRedispatchDelay is how long the dispatch loop yields between items
	DefaultRedispatchDelay = 100 * time.Millisecond

	// DefaultSessionMaxInactive is how long an idle session stays valid
	DefaultSessionMaxInactive = 60 * time.Minute

	// DefaultSendBuffer is the per-channel outbound event buffer
	DefaultSendBuffer = 64

	// DefaultWriteTimeout bounds a single websocket write
	DefaultWriteTimeout = 10 * time.Second

	// DefaultShutdownTimeout bounds graceful shutdown of servers
	DefaultShutdownTimeout = 2 * time.Second
)

// Default listen addresses
const (
	DefaultHTTPAddr      = ":3000"
	DefaultAdminGRPCAddr = ":50051"
	DefaultAdminMCPAddr  = ":8081"
	DefaultUsersFile     = "db.json"
)
