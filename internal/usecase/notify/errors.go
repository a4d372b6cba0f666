package notify

import "errors"

// Sentinel errors for notification dispatch.
var (
	// ErrNotificationDropped indicates that a delivery was dropped
	// because no worker slot became available in time.
	ErrNotificationDropped = errors.New("notification dropped due to pool saturation")

	// ErrCircuitBreakerOpen indicates that the channel's circuit breaker
	// is open and deliveries are being rejected until it recovers.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
