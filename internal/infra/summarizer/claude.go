package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"rules-radar/internal/resilience/circuitbreaker"
	"rules-radar/internal/resilience/retry"
	"rules-radar/internal/utils/text"
)

// ClaudeConfig holds settings for the Anthropic-backed summarizer.
type ClaudeConfig struct {
	CharacterLimit int
	Model          string
	MaxTokens      int
	Timeout        time.Duration
}

// GetCharacterLimit implements SummarizerConfig.
func (c *ClaudeConfig) GetCharacterLimit() int {
	return c.CharacterLimit
}

// Validate implements SummarizerConfig.
func (c *ClaudeConfig) Validate() error {
	if err := ValidateCharacterLimit(c.CharacterLimit); err != nil {
		return fmt.Errorf("invalid character limit: %w", err)
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// LoadClaudeConfig builds the Claude configuration, sharing the character
// limit resolution with the OpenRouter loader.
func LoadClaudeConfig() (*ClaudeConfig, error) {
	base, err := LoadOpenRouterConfig()
	if err != nil {
		return nil, err
	}
	cfg := &ClaudeConfig{
		CharacterLimit: base.CharacterLimit,
		Model:          string(anthropic.ModelClaudeSonnet4_5_20250929),
		MaxTokens:      1024,
		Timeout:        60 * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Claude configuration: %w", err)
	}
	return cfg, nil
}

// Claude implements Summarizer using Anthropic's Messages API.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          *ClaudeConfig
	metricsRecorder SummaryMetricsRecorder
}

// NewClaude creates a Claude summarizer with circuit breaker, retry and
// metrics wired in.
func NewClaude(apiKey string, config *ClaudeConfig) *Claude {
	slog.Info("initialized claude summarizer",
		slog.Int("character_limit", config.CharacterLimit),
		slog.String("model", config.Model))

	return &Claude{
		client:          anthropic.NewClient(option.WithAPIKey(apiKey)),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.LLMAPIConfig()),
		retryConfig:     retry.LLMAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusSummaryMetrics(),
	}
}

// Summarize generates a Russian summary of the given text.
func (c *Claude) Summarize(ctx context.Context, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doSummarize(ctx, input)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude circuit breaker open, request rejected",
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("claude summarize failed after retries: %w", retryErr)
	}
	return result, nil
}

func (c *Claude) doSummarize(ctx context.Context, input string) (string, error) {
	requestID := uuid.New().String()

	truncated := input
	if len(input) > maxInputChars {
		truncated = input[:maxInputChars] + truncationMarker
		slog.Warn("input truncated for claude api",
			slog.String("request_id", requestID),
			slog.Int("original_length", len(input)),
			slog.Int("truncated_length", len(truncated)))
	}

	prompt := buildPrompt(c.config.CharacterLimit, truncated)

	slog.InfoContext(ctx, "starting summarization",
		slog.String("request_id", requestID),
		slog.Int("input_length", text.CountRunes(truncated)),
		slog.Int("character_limit", c.config.CharacterLimit))

	start := time.Now()
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: int64(c.config.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "summarization failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}
	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}
	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected response type")
	}

	summary := textBlock.Text
	summaryLength := text.CountRunes(summary)
	withinLimit := summaryLength <= c.config.CharacterLimit

	slog.InfoContext(ctx, "summarization completed",
		slog.String("request_id", requestID),
		slog.Int("summary_length", summaryLength),
		slog.Bool("within_limit", withinLimit),
		slog.Duration("duration", duration))

	c.metricsRecorder.RecordLength(summaryLength)
	c.metricsRecorder.RecordDuration(duration)
	c.metricsRecorder.RecordCompliance(withinLimit)
	if !withinLimit {
		c.metricsRecorder.RecordLimitExceeded()
	}

	return summary, nil
}
