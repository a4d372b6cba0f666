package worker

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0 9 * * *", cfg.CronSchedule)
	assert.Equal(t, "Europe/Chisinau", cfg.Timezone)
	assert.Equal(t, 4, cfg.FetchMaxConcurrent)
	assert.Equal(t, 4, cfg.NotifyMaxConcurrent)
	assert.Equal(t, 20*time.Minute, cfg.PassTimeout)
	assert.Equal(t, 9091, cfg.HealthPort)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WorkerConfig)
		substr string
	}{
		{"bad cron", func(c *WorkerConfig) { c.CronSchedule = "not cron" }, "cron schedule"},
		{"bad timezone", func(c *WorkerConfig) { c.Timezone = "Mars/Olympus" }, "timezone"},
		{"fetch concurrency too high", func(c *WorkerConfig) { c.FetchMaxConcurrent = 51 }, "fetch max concurrent"},
		{"fetch concurrency too low", func(c *WorkerConfig) { c.FetchMaxConcurrent = 0 }, "fetch max concurrent"},
		{"zero pass timeout", func(c *WorkerConfig) { c.PassTimeout = 0 }, "pass timeout"},
		{"privileged health port", func(c *WorkerConfig) { c.HealthPort = 80 }, "health port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "*/30 * * * *")
	t.Setenv("WORKER_TIMEZONE", "UTC")
	t.Setenv("FETCH_MAX_CONCURRENT", "8")
	t.Setenv("NOTIFY_MAX_CONCURRENT", "2")
	t.Setenv("PASS_TIMEOUT", "45m")
	t.Setenv("WORKER_HEALTH_PORT", "9999")

	cfg, err := LoadConfigFromEnv(slog.Default(), NewWorkerMetrics())
	require.NoError(t, err)

	assert.Equal(t, "*/30 * * * *", cfg.CronSchedule)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, 8, cfg.FetchMaxConcurrent)
	assert.Equal(t, 2, cfg.NotifyMaxConcurrent)
	assert.Equal(t, 45*time.Minute, cfg.PassTimeout)
	assert.Equal(t, 9999, cfg.HealthPort)
}

func TestLoadConfigFromEnvFailOpen(t *testing.T) {
	t.Setenv("CRON_SCHEDULE", "every tuesday")
	t.Setenv("FETCH_MAX_CONCURRENT", "500")
	t.Setenv("PASS_TIMEOUT", "2s") // below the 1m floor

	cfg, err := LoadConfigFromEnv(slog.Default(), NewWorkerMetrics())
	require.NoError(t, err)

	defaults := DefaultConfig()
	assert.Equal(t, defaults.CronSchedule, cfg.CronSchedule)
	assert.Equal(t, defaults.FetchMaxConcurrent, cfg.FetchMaxConcurrent)
	assert.Equal(t, defaults.PassTimeout, cfg.PassTimeout)
	assert.NoError(t, cfg.Validate())
}
