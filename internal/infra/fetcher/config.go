package fetcher

import (
	"fmt"
	"time"

	pkgconfig "rules-radar/internal/pkg/config"
)

// Config controls a single page fetch. Limits exist to keep one
// misbehaving source from starving the pass.
type Config struct {
	// Timeout bounds one HTTP request including the fallback retry's own
	// request.
	Timeout time.Duration

	// MaxBodySize caps the response body in bytes, enforced while reading.
	MaxBodySize int64

	// MaxRedirects caps the redirect chain per request.
	MaxRedirects int

	// DenyPrivateIPs rejects URLs resolving to loopback/private/link-local
	// addresses before any request is made.
	DenyPrivateIPs bool

	// UserAgent is sent on every request. Policy pages served from CDNs
	// tend to block obvious bots, so the default imitates a browser.
	UserAgent string
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		MaxBodySize:    10 * 1024 * 1024,
		MaxRedirects:   5,
		DenyPrivateIPs: true,
		UserAgent:      defaultUserAgent,
	}
}

// LoadConfigFromEnv loads fetch settings with fail-open fallbacks:
// FETCH_TIMEOUT, FETCH_MAX_BODY_SIZE, FETCH_MAX_REDIRECTS,
// FETCH_DENY_PRIVATE_IPS, FETCH_USER_AGENT. Warnings accumulate per
// fallback applied.
func LoadConfigFromEnv() (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	timeout := pkgconfig.LoadEnvDuration("FETCH_TIMEOUT", cfg.Timeout, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 5*time.Minute)
	})
	cfg.Timeout = timeout.Value.(time.Duration)
	warnings = append(warnings, timeout.Warnings...)

	bodySize := pkgconfig.LoadEnvInt("FETCH_MAX_BODY_SIZE", int(cfg.MaxBodySize), func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1024, 100*1024*1024)
	})
	cfg.MaxBodySize = int64(bodySize.Value.(int))
	warnings = append(warnings, bodySize.Warnings...)

	redirects := pkgconfig.LoadEnvInt("FETCH_MAX_REDIRECTS", cfg.MaxRedirects, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 0, 10)
	})
	cfg.MaxRedirects = redirects.Value.(int)
	warnings = append(warnings, redirects.Warnings...)

	denyPrivate := pkgconfig.LoadEnvBool("FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)
	cfg.DenyPrivateIPs = denyPrivate.Value.(bool)
	warnings = append(warnings, denyPrivate.Warnings...)

	cfg.UserAgent = pkgconfig.LoadEnvString("FETCH_USER_AGENT", cfg.UserAgent)

	return cfg, warnings
}

// Validate checks configured limits.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxBodySize < 1024 {
		return fmt.Errorf("max body size must be at least 1KB, got %d", c.MaxBodySize)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}
