// Package summarizer produces condensed Russian summaries of changed page
// content through LLM APIs, with circuit breaker and retry protection.
package summarizer

import (
	"context"
	"fmt"
)

// Summarizer condenses changed page text into a short Russian summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// SummarizerConfig is the shared configuration surface of the LLM-backed
// implementations.
type SummarizerConfig interface {
	// GetCharacterLimit returns the target maximum summary length in runes.
	GetCharacterLimit() int

	// Validate checks all configuration fields.
	Validate() error
}

const (
	minCharLimit = 100
	maxCharLimit = 5000

	// defaultCharLimit keeps one summary comfortably inside a single
	// notification message.
	defaultCharLimit = 1400

	// maxInputChars caps summarizer input; policy pages can run very long
	// and everything past this adds cost without changing the summary.
	maxInputChars = 10000

	truncationMarker = "...\n(текст сокращён из-за длины)"
)

// ValidateCharacterLimit checks the limit against the supported range.
func ValidateCharacterLimit(limit int) error {
	if limit < minCharLimit {
		return fmt.Errorf("character limit %d is below minimum %d", limit, minCharLimit)
	}
	if limit > maxCharLimit {
		return fmt.Errorf("character limit %d exceeds maximum %d", limit, maxCharLimit)
	}
	return nil
}

// buildPrompt asks for a compact Russian summary within the limit. The
// model treats the limit as a soft target; compliance is tracked in
// metrics, not enforced by rejection.
func buildPrompt(charLimit int, text string) string {
	return fmt.Sprintf(
		"Кратко перескажи по-русски суть следующего текста и главные изменения правил, не более %d символов:\n%s",
		charLimit, text)
}
