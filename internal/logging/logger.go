// Package logging is the structured logger handed to the batikhub services
// and HTTP middleware. The server writes JSON lines at the configured
// log_level; tests use NewDiscardLogger.
package logging

import "context"

// Logger takes a message plus alternating key/value args:
//
//	log.Info(ctx, "stored batik", "id", id, "path", path)
type Logger interface {
	// Debug logs verbose diagnostics.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a logger that adds args to every record, e.g. a request id.
	With(args ...any) Logger
}
