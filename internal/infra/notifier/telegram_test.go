package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedSend struct {
	path    string
	payload telegramSendRequest
}

func newRecordingServer(t *testing.T, handler func(n int, w http.ResponseWriter)) (*httptest.Server, func() []recordedSend) {
	t.Helper()
	var mu sync.Mutex
	var sends []recordedSend

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload telegramSendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		mu.Lock()
		sends = append(sends, recordedSend{path: r.URL.Path, payload: payload})
		n := len(sends)
		mu.Unlock()

		if handler != nil {
			handler(n, w)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedSend {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedSend(nil), sends...)
	}
}

func TestTelegramSendToMultipleChats(t *testing.T) {
	srv, sends := newRecordingServer(t, nil)

	ch := NewTelegramChannel(TelegramConfig{
		Enabled:  true,
		BotToken: "token123",
		ChatIDs:  []string{"-100111", "-100222"},
		BaseURL:  srv.URL,
	})

	require.NoError(t, ch.Send(context.Background(), "<b>[EU]</b> report"))

	got := sends()
	require.Len(t, got, 2)
	assert.Equal(t, "/bottoken123/sendMessage", got[0].path)
	assert.Equal(t, "-100111", got[0].payload.ChatID)
	assert.Equal(t, "-100222", got[1].payload.ChatID)
	assert.Equal(t, "HTML", got[0].payload.ParseMode)
	assert.True(t, got[0].payload.DisableWebPagePreview)
	assert.Equal(t, "<b>[EU]</b> report", got[0].payload.Text)
}

func TestTelegramRetriesAfterRateLimit(t *testing.T) {
	srv, sends := newRecordingServer(t, func(n int, w http.ResponseWriter) {
		if n == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":1}}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	ch := NewTelegramChannel(TelegramConfig{
		Enabled:  true,
		BotToken: "t",
		ChatIDs:  []string{"1"},
		BaseURL:  srv.URL,
	})

	start := time.Now()
	require.NoError(t, ch.Send(context.Background(), "msg"))
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
	assert.Len(t, sends(), 2)
}

func TestTelegramDoesNotRetryClientErrors(t *testing.T) {
	srv, sends := newRecordingServer(t, func(_ int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities"}`))
	})

	ch := NewTelegramChannel(TelegramConfig{
		Enabled:  true,
		BotToken: "t",
		ChatIDs:  []string{"1"},
		BaseURL:  srv.URL,
	})

	err := ch.Send(context.Background(), "broken <tag")
	require.Error(t, err)

	var clientErr *ClientError
	assert.ErrorAs(t, err, &clientErr)
	assert.Len(t, sends(), 1)
}

func TestTelegramReportErrorUsesDevChat(t *testing.T) {
	srv, sends := newRecordingServer(t, nil)

	ch := NewTelegramChannel(TelegramConfig{
		Enabled:   true,
		BotToken:  "t",
		ChatIDs:   []string{"1"},
		DevChatID: "-999",
		BaseURL:   srv.URL,
	})

	require.NoError(t, ch.ReportError(context.Background(), "пасс упал"))

	got := sends()
	require.Len(t, got, 1)
	assert.Equal(t, "-999", got[0].payload.ChatID)
}

func TestTelegramReportErrorWithoutDevChat(t *testing.T) {
	srv, sends := newRecordingServer(t, nil)

	ch := NewTelegramChannel(TelegramConfig{
		Enabled:  true,
		BotToken: "t",
		ChatIDs:  []string{"1"},
		BaseURL:  srv.URL,
	})

	require.NoError(t, ch.ReportError(context.Background(), "ignored"))
	assert.Empty(t, sends())
}

func TestLoadTelegramConfigFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_IDS", "-100111, -100222 ,")
	t.Setenv("TELEGRAM_DEV_CHAT_ID", "-999")
	t.Setenv("TELEGRAM_TIMEOUT", "20s")

	cfg, warnings := LoadTelegramConfigFromEnv()
	assert.Empty(t, warnings)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"-100111", "-100222"}, cfg.ChatIDs)
	assert.Equal(t, "-999", cfg.DevChatID)
	assert.Equal(t, 20*time.Second, cfg.Timeout)
}

func TestLoadTelegramConfigDisabledWithoutToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_IDS", "")

	cfg, _ := LoadTelegramConfigFromEnv()
	assert.False(t, cfg.Enabled)
}

func TestLoadTelegramConfigBadTimeoutFallsBack(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_IDS", "1")
	t.Setenv("TELEGRAM_TIMEOUT", "not-a-duration")

	cfg, warnings := LoadTelegramConfigFromEnv()
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "TELEGRAM_TIMEOUT")
}
