package notifier

import "context"

// NoOpChannel discards every message. It stands in when delivery is
// disabled so the pipeline never needs nil checks.
type NoOpChannel struct{}

// NewNoOpChannel creates a NoOpChannel.
func NewNoOpChannel() *NoOpChannel {
	return &NoOpChannel{}
}

func (n *NoOpChannel) Name() string { return "noop" }

func (n *NoOpChannel) IsEnabled() bool { return true }

// Send does nothing and returns nil immediately.
func (n *NoOpChannel) Send(ctx context.Context, message string) error {
	return nil
}
