package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"server error retryable", &ServerError{StatusCode: 502, Message: "bad gateway"}, true},
		{"client error not retryable", &ClientError{StatusCode: 400, Message: "bad request"}, false},
		{"rate limit handled separately", &RateLimitError{RetryAfter: time.Second}, false},
		{"network error retryable", errors.New("connection reset"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, isRetryableError(tt.err))
		})
	}
}

func TestIs429Error(t *testing.T) {
	rl := &RateLimitError{RetryAfter: 7 * time.Second}
	got, ok := is429Error(rl)
	assert.True(t, ok)
	assert.Equal(t, 7*time.Second, got.RetryAfter)

	_, ok = is429Error(errors.New("other"))
	assert.False(t, ok)
}

func TestNoOpChannel(t *testing.T) {
	ch := NewNoOpChannel()
	assert.Equal(t, "noop", ch.Name())
	assert.True(t, ch.IsEnabled())
	assert.NoError(t, ch.Send(context.Background(), "anything"))
}
