// Package notify turns a batch of change items into region-grouped
// messages and delivers them across the configured channels with
// per-channel circuit breaking.
package notify

import "context"

// Channel is one notification delivery target. Implementations handle
// their own rate limiting and retries; Send must be safe for concurrent
// use and must respect context cancellation.
type Channel interface {
	// Name returns the channel identifier used in logs and metrics.
	Name() string

	// IsEnabled reports whether the channel is configured for delivery.
	// Disabled channels are skipped during dispatch.
	IsEnabled() bool

	// Send delivers one pre-rendered message. The text is HTML-formatted
	// for channels that support it. Returns a non-nil error only after
	// the channel's own retry policy is exhausted.
	Send(ctx context.Context, message string) error
}

// ErrorReporter is implemented by channels that have a separate
// operator-facing destination for failure reports.
type ErrorReporter interface {
	ReportError(ctx context.Context, message string) error
}
