package summarizer

import (
	"context"

	"rules-radar/internal/utils/text"
)

// NoOp returns the input truncated instead of calling any API. Used in
// tests and when summarization is disabled.
type NoOp struct{}

// NewNoOp creates a NoOp summarizer.
func NewNoOp() *NoOp {
	return &NoOp{}
}

// Summarize returns the original text cut to the default character limit.
func (n *NoOp) Summarize(_ context.Context, input string) (string, error) {
	return text.TruncateRunes(input, defaultCharLimit, "..."), nil
}
