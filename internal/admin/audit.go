// Package admin exposes queue administration over gRPC and MCP
package admin

import (
	"context"
	"log/slog"
	"time"
)

// AuditEntry records one administrative operation
type AuditEntry struct {
	Timestamp time.Time
	Surface   string
	Operation string
	Cleared   int
	ErrorMsg  string
}

// AuditLogger writes administrative operations to the log
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger: logger,
	}
}

// LogCall logs an administrative invocation
func (al *AuditLogger) LogCall(ctx context.Context, entry *AuditEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	al.logger.InfoContext(ctx, "admin_call",
		"surface", entry.Surface,
		"operation", entry.Operation,
		"timestamp", entry.Timestamp,
	)
}

// LogResult logs the outcome of an administrative invocation
func (al *AuditLogger) LogResult(ctx context.Context, entry *AuditEntry) {
	if entry.ErrorMsg != "" {
		al.logger.ErrorContext(ctx, "admin_error",
			"surface", entry.Surface,
			"operation", entry.Operation,
			"error", entry.ErrorMsg,
		)
		return
	}
	al.logger.InfoContext(ctx, "admin_result",
		"surface", entry.Surface,
		"operation", entry.Operation,
		"cleared", entry.Cleared,
	)
}
