package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"rules-radar/internal/pkg/config"
)

const defaultTelegramBaseURL = "https://api.telegram.org"

// TelegramConfig contains configuration for the Telegram bot channel.
type TelegramConfig struct {
	// Enabled is derived at load time: a bot token plus at least one
	// chat ID.
	Enabled bool

	// BotToken is the bot API token.
	BotToken string

	// ChatIDs are the destination chats for change reports.
	ChatIDs []string

	// DevChatID is the optional operator chat for failure reports.
	DevChatID string

	// Timeout is the HTTP request timeout for Bot API calls.
	Timeout time.Duration

	// BaseURL overrides the Bot API endpoint, for tests.
	BaseURL string
}

// LoadTelegramConfigFromEnv reads TELEGRAM_* variables. Fail-open: a bad
// timeout falls back to the default with a warning; a missing token just
// disables the channel.
func LoadTelegramConfigFromEnv() (TelegramConfig, []string) {
	var warnings []string

	timeoutResult := config.LoadEnvDuration("TELEGRAM_TIMEOUT", 15*time.Second, func(d time.Duration) error {
		return config.ValidatePositiveDuration(d)
	})
	warnings = append(warnings, timeoutResult.Warnings...)

	cfg := TelegramConfig{
		BotToken:  config.LoadEnvString("TELEGRAM_BOT_TOKEN", ""),
		DevChatID: config.LoadEnvString("TELEGRAM_DEV_CHAT_ID", ""),
		Timeout:   timeoutResult.Value.(time.Duration),
		BaseURL:   config.LoadEnvString("TELEGRAM_API_BASE_URL", defaultTelegramBaseURL),
	}

	for _, id := range strings.Split(config.LoadEnvString("TELEGRAM_CHAT_IDS", ""), ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			cfg.ChatIDs = append(cfg.ChatIDs, id)
		}
	}

	cfg.Enabled = cfg.BotToken != "" && len(cfg.ChatIDs) > 0
	return cfg, warnings
}

// TelegramChannel sends messages through the Telegram Bot API. It
// implements the notify Channel and ErrorReporter interfaces.
type TelegramChannel struct {
	config      TelegramConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewTelegramChannel creates a TelegramChannel. The limiter paces sends
// to one message per second with a small burst, inside the Bot API's
// per-chat limit.
func NewTelegramChannel(cfg TelegramConfig) *TelegramChannel {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTelegramBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &TelegramChannel{
		config:      cfg,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: NewRateLimiter(1, 3),
	}
}

func (t *TelegramChannel) Name() string { return "telegram" }

func (t *TelegramChannel) IsEnabled() bool { return t.config.Enabled }

// Send posts one HTML message to every configured chat. Chats are
// independent; the first failed chat aborts the send so the caller's
// retry accounting stays per-message.
func (t *TelegramChannel) Send(ctx context.Context, message string) error {
	for _, chatID := range t.config.ChatIDs {
		if err := t.sendToChat(ctx, chatID, message); err != nil {
			return fmt.Errorf("chat %s: %w", chatID, err)
		}
	}
	return nil
}

// ReportError posts a failure report to the operator chat. No-op when
// TELEGRAM_DEV_CHAT_ID is unset.
func (t *TelegramChannel) ReportError(ctx context.Context, message string) error {
	if t.config.DevChatID == "" {
		return nil
	}
	return t.sendToChat(ctx, t.config.DevChatID, message)
}

// telegramSendRequest is the sendMessage payload.
type telegramSendRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// telegramResponse is the Bot API envelope, enough for error handling.
type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (t *TelegramChannel) sendToChat(ctx context.Context, chatID, message string) error {
	if err := t.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return t.sendWithRetry(ctx, chatID, message)
}

// sendWithRetry applies the channel retry policy: 429 sleeps for
// retry_after then retries, 5xx and network errors back off and retry
// once, other 4xx fail immediately.
func (t *TelegramChannel) sendWithRetry(ctx context.Context, chatID, message string) error {
	const (
		maxAttempts = 2
		baseDelay   = 3 * time.Second
	)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := t.sendOnce(ctx, chatID, message)
		if err == nil {
			return nil
		}
		lastErr = err

		if rateLimitErr, ok := is429Error(err); ok {
			slog.Warn("telegram rate limit hit, backing off",
				slog.String("chat_id", chatID),
				slog.Duration("retry_after", rateLimitErr.RetryAfter),
				slog.Int("attempt", attempt))
			select {
			case <-time.After(rateLimitErr.RetryAfter):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during rate limit backoff: %w", ctx.Err())
			}
		}

		if !isRetryableError(err) {
			return err
		}

		if attempt < maxAttempts {
			delay := baseDelay * time.Duration(attempt)
			slog.Warn("telegram send failed, retrying",
				slog.String("chat_id", chatID),
				slog.Any("error", err),
				slog.Duration("delay", delay),
				slog.Int("attempt", attempt))
			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return fmt.Errorf("context canceled during retry backoff: %w", ctx.Err())
			}
		}
	}

	return fmt.Errorf("telegram send failed after %d attempts: %w", maxAttempts, lastErr)
}

func (t *TelegramChannel) sendOnce(ctx context.Context, chatID, message string) error {
	payload := telegramSendRequest{
		ChatID:                chatID,
		Text:                  message,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendMessage payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.config.BaseURL, t.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var apiResp telegramResponse
	_ = json.Unmarshal(body, &apiResp)

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 5 * time.Second
		if apiResp.Parameters.RetryAfter > 0 {
			retryAfter = time.Duration(apiResp.Parameters.RetryAfter) * time.Second
		}
		return &RateLimitError{
			Message:    "telegram rate limit exceeded",
			RetryAfter: retryAfter,
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("telegram API client error %d: %s", resp.StatusCode, apiResp.Description),
		}
	}

	return &ServerError{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("telegram API server error %d: %s", resp.StatusCode, apiResp.Description),
	}
}
