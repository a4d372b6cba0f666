package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"rules-radar/internal/resilience/circuitbreaker"
	"rules-radar/internal/resilience/retry"
	"rules-radar/internal/utils/text"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterConfig holds settings for the OpenRouter-backed summarizer.
type OpenRouterConfig struct {
	// CharacterLimit is the target maximum summary length in runes.
	// Loaded from SUMMARIZER_CHAR_LIMIT (range 100-5000, default 1400).
	CharacterLimit int

	// Model is the OpenRouter model slug.
	Model string

	// MaxTokens caps the completion length.
	MaxTokens int

	// Temperature keeps summaries close to the source text.
	Temperature float32

	// BaseURL is the OpenAI-compatible endpoint.
	BaseURL string

	// Timeout bounds one API call.
	Timeout time.Duration
}

// GetCharacterLimit implements SummarizerConfig.
func (c *OpenRouterConfig) GetCharacterLimit() int {
	return c.CharacterLimit
}

// Validate implements SummarizerConfig.
func (c *OpenRouterConfig) Validate() error {
	if err := ValidateCharacterLimit(c.CharacterLimit); err != nil {
		return fmt.Errorf("invalid character limit: %w", err)
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	return nil
}

// LoadOpenRouterConfig loads configuration from environment variables.
// Fail-closed: an out-of-range SUMMARIZER_CHAR_LIMIT is an error rather
// than a silent fallback, since summary length directly shapes the
// notification output.
//
// Environment variables:
//   - SUMMARIZER_CHAR_LIMIT: target summary length (default 1400)
//   - SUMMARIZER_MODEL: OpenRouter model slug (default openai/gpt-4o-mini)
//   - OPENROUTER_BASE_URL: endpoint override, mainly for tests
func LoadOpenRouterConfig() (*OpenRouterConfig, error) {
	charLimit := defaultCharLimit
	if envLimit := os.Getenv("SUMMARIZER_CHAR_LIMIT"); envLimit != "" {
		parsed, err := strconv.Atoi(envLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid SUMMARIZER_CHAR_LIMIT format: %s: %w", envLimit, err)
		}
		if err := ValidateCharacterLimit(parsed); err != nil {
			return nil, fmt.Errorf("SUMMARIZER_CHAR_LIMIT out of valid range: %w", err)
		}
		charLimit = parsed
	}

	model := os.Getenv("SUMMARIZER_MODEL")
	if model == "" {
		model = "openai/gpt-4o-mini"
	}
	baseURL := os.Getenv("OPENROUTER_BASE_URL")
	if baseURL == "" {
		baseURL = openRouterBaseURL
	}

	cfg := &OpenRouterConfig{
		CharacterLimit: charLimit,
		Model:          model,
		MaxTokens:      800,
		Temperature:    0.2,
		BaseURL:        baseURL,
		Timeout:        60 * time.Second,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OpenRouter configuration: %w", err)
	}
	return cfg, nil
}

// OpenRouter implements Summarizer against OpenRouter's OpenAI-compatible
// chat completions API.
type OpenRouter struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	retryConfig     retry.Config
	config          *OpenRouterConfig
	metricsRecorder SummaryMetricsRecorder
}

// NewOpenRouter creates an OpenRouter summarizer with circuit breaker,
// retry and metrics wired in.
func NewOpenRouter(apiKey string, config *OpenRouterConfig) *OpenRouter {
	clientCfg := openai.DefaultConfig(apiKey)
	clientCfg.BaseURL = config.BaseURL

	slog.Info("initialized openrouter summarizer",
		slog.Int("character_limit", config.CharacterLimit),
		slog.String("model", config.Model))

	return &OpenRouter{
		client:          openai.NewClientWithConfig(clientCfg),
		circuitBreaker:  circuitbreaker.New(circuitbreaker.LLMAPIConfig()),
		retryConfig:     retry.LLMAPIConfig(),
		config:          config,
		metricsRecorder: NewPrometheusSummaryMetrics(),
	}
}

// Summarize generates a Russian summary of the given text.
func (o *OpenRouter) Summarize(ctx context.Context, input string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doSummarize(ctx, input)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openrouter circuit breaker open, request rejected",
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openrouter unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})
	if retryErr != nil {
		return "", fmt.Errorf("openrouter summarize failed after retries: %w", retryErr)
	}
	return result, nil
}

func (o *OpenRouter) doSummarize(ctx context.Context, input string) (string, error) {
	truncated := input
	if len(input) > maxInputChars {
		truncated = input[:maxInputChars] + truncationMarker
		slog.Warn("input truncated for openrouter",
			slog.Int("original_length", len(input)),
			slog.Int("truncated_length", len(truncated)))
	}

	prompt := buildPrompt(o.config.CharacterLimit, truncated)

	slog.InfoContext(ctx, "starting summarization",
		slog.Int("input_length", text.CountRunes(truncated)),
		slog.Int("character_limit", o.config.CharacterLimit))

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.config.Model,
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "summarization failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("openrouter api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openrouter returned empty response")
	}

	summary := resp.Choices[0].Message.Content
	summaryLength := text.CountRunes(summary)
	withinLimit := summaryLength <= o.config.CharacterLimit

	slog.InfoContext(ctx, "summarization completed",
		slog.Int("summary_length", summaryLength),
		slog.Bool("within_limit", withinLimit),
		slog.Duration("duration", duration))

	o.metricsRecorder.RecordLength(summaryLength)
	o.metricsRecorder.RecordDuration(duration)
	o.metricsRecorder.RecordCompliance(withinLimit)
	if !withinLimit {
		o.metricsRecorder.RecordLimitExceeded()
	}

	return summary, nil
}
