// Package worker holds the scheduled-pass runtime: configuration,
// health endpoints and worker-level metrics.
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"rules-radar/internal/pkg/config"
)

// WorkerConfig controls scheduling and pass-level limits.
type WorkerConfig struct {
	// CronSchedule is the five-field cron expression for pass runs.
	// Default "0 9 * * *": every day at 09:00.
	CronSchedule string

	// Timezone is the IANA timezone the schedule is evaluated in.
	Timezone string

	// FetchMaxConcurrent bounds concurrent source fetches in a pass.
	// Range 1-50.
	FetchMaxConcurrent int

	// NotifyMaxConcurrent bounds concurrent channel deliveries.
	// Range 1-50.
	NotifyMaxConcurrent int

	// PassTimeout cancels a pass that runs too long.
	PassTimeout time.Duration

	// HealthPort is the port of the health check HTTP server.
	HealthPort int
}

// DefaultConfig returns production-ready defaults: a daily morning pass
// in the office timezone, modest fan-out, a timeout that covers slow
// proxied fetches.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		CronSchedule:        "0 9 * * *",
		Timezone:            "Europe/Chisinau",
		FetchMaxConcurrent:  4,
		NotifyMaxConcurrent: 4,
		PassTimeout:         20 * time.Minute,
		HealthPort:          9091,
	}
}

// Validate checks every field and aggregates the failures.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := config.ValidateCronSchedule(c.CronSchedule); err != nil {
		errs = append(errs, fmt.Errorf("cron schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.FetchMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("fetch max concurrent: %w", err))
	}
	if err := config.ValidateIntRange(c.NotifyMaxConcurrent, 1, 50); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.PassTimeout); err != nil {
		errs = append(errs, fmt.Errorf("pass timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from the environment.
// Fail-open: invalid values fall back to defaults with a warning and a
// metric, so a typo in one variable never stops the worker. The error
// return is always nil and exists for call-site symmetry.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	apply := func(field string, result config.ConfigLoadResult, assign func(interface{})) {
		assign(result.Value)
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	apply("cron_schedule",
		config.LoadEnvWithFallback("CRON_SCHEDULE", cfg.CronSchedule, config.ValidateCronSchedule),
		func(v interface{}) { cfg.CronSchedule = v.(string) })

	apply("timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone),
		func(v interface{}) { cfg.Timezone = v.(string) })

	apply("fetch_max_concurrent",
		config.LoadEnvInt("FETCH_MAX_CONCURRENT", cfg.FetchMaxConcurrent, func(v int) error {
			return config.ValidateIntRange(v, 1, 50)
		}),
		func(v interface{}) { cfg.FetchMaxConcurrent = v.(int) })

	apply("notify_max_concurrent",
		config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, func(v int) error {
			return config.ValidateIntRange(v, 1, 50)
		}),
		func(v interface{}) { cfg.NotifyMaxConcurrent = v.(int) })

	apply("pass_timeout",
		config.LoadEnvDuration("PASS_TIMEOUT", cfg.PassTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, 1*time.Minute, 4*time.Hour)
		}),
		func(v interface{}) { cfg.PassTimeout = v.(time.Duration) })

	apply("health_port",
		config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
			return config.ValidateIntRange(v, 1024, 65535)
		}),
		func(v interface{}) { cfg.HealthPort = v.(int) })

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	return &cfg, nil
}
