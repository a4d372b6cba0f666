package summarizer

import (
	"fmt"
	"os"
)

// NewFromEnv builds the summarizer selected by SUMMARIZER_TYPE:
// "openrouter" (default), "claude", or "noop". The API key for the chosen
// backend must be present.
func NewFromEnv() (Summarizer, error) {
	switch kind := os.Getenv("SUMMARIZER_TYPE"); kind {
	case "", "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY is required for the openrouter summarizer")
		}
		cfg, err := LoadOpenRouterConfig()
		if err != nil {
			return nil, err
		}
		return NewOpenRouter(apiKey, cfg), nil

	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the claude summarizer")
		}
		cfg, err := LoadClaudeConfig()
		if err != nil {
			return nil, err
		}
		return NewClaude(apiKey, cfg), nil

	case "noop":
		return NewNoOp(), nil

	default:
		return nil, fmt.Errorf("unknown SUMMARIZER_TYPE '%s' (expected openrouter, claude or noop)", kind)
	}
}
