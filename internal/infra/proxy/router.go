// Package proxy routes outbound fetches through per-region upstream proxies.
// Regions without a configured proxy connect directly. Blocked responses
// from a region with a fallback get exactly one retry through the fallback
// region's proxy.
package proxy

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"rules-radar/internal/domain/entity"
	"rules-radar/internal/pkg/config"
)

// Handle is a routed connection decision: either a proxy URL with
// credentials, or a direct connection. A sticky handle carries a session
// token minted at Route time, so the upstream exit stays pinned for the
// handle's lifetime and a fresh Route gets a fresh exit.
type Handle struct {
	region   entity.Region
	proxyURL *url.URL
}

// Direct reports whether the handle bypasses any proxy.
func (h *Handle) Direct() bool {
	return h.proxyURL == nil
}

// Region returns the region whose rule produced this handle. For a
// fallback handle this is the fallback region, not the original one.
func (h *Handle) Region() entity.Region {
	return h.region
}

// URL returns the proxy URL including credentials, or nil for direct.
func (h *Handle) URL() *url.URL {
	return h.proxyURL
}

// Transport builds an http.Transport honoring the handle's routing.
func (h *Handle) Transport() *http.Transport {
	t := &http.Transport{
		TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
	}
	if h.proxyURL != nil {
		t.Proxy = http.ProxyURL(h.proxyURL)
	}
	return t
}

// Router resolves regions to proxy handles using the immutable catalog
// rules. Route and OnFailure are safe for concurrent use.
type Router struct {
	rules  map[entity.Region]config.ProxyRule
	logger *slog.Logger
}

// NewRouter builds a router from the catalog's proxy rules.
func NewRouter(catalog *config.SourceCatalog, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	rules := make(map[entity.Region]config.ProxyRule, len(catalog.Proxies))
	for _, rule := range catalog.Proxies {
		rules[entity.Region(rule.Region)] = rule
	}
	return &Router{rules: rules, logger: logger}
}

// Route returns the handle for a region. Regions without a rule, including
// GLOBAL in the default setup, route direct.
func (r *Router) Route(region entity.Region) *Handle {
	rule, ok := r.rules[region]
	if !ok {
		return &Handle{region: region}
	}
	return r.handleFor(region, rule)
}

// OnFailure decides whether a blocked fetch gets a second chance through
// another region's proxy. It returns (handle, true) only when the status is
// an auth-blocking one, the failing region has a fallback configured, and
// the fallback region has a rule of its own. The caller applies the
// fallback at most once per fetch.
func (r *Router) OnFailure(region entity.Region, statusCode int) (*Handle, bool) {
	if !IsBlockingStatus(statusCode) {
		return nil, false
	}
	rule, ok := r.rules[region]
	if !ok || rule.Fallback == "" {
		return nil, false
	}
	fallbackRegion := entity.Region(rule.Fallback)
	fallbackRule, ok := r.rules[fallbackRegion]
	if !ok {
		return nil, false
	}

	recordFallback(region, fallbackRegion)
	r.logger.Warn("proxy fallback engaged",
		slog.String("from_region", string(region)),
		slog.String("to_region", string(fallbackRegion)),
		slog.Int("status_code", statusCode),
	)
	return r.handleFor(fallbackRegion, fallbackRule), true
}

func (r *Router) handleFor(region entity.Region, rule config.ProxyRule) *Handle {
	password := rule.Password
	if rule.Sticky {
		password += sessionToken()
	}
	u := &url.URL{
		Scheme: "http",
		Host:   rule.Endpoint,
	}
	if rule.Username != "" {
		u.User = url.UserPassword(rule.Username, password)
	}
	return &Handle{region: region, proxyURL: u}
}

// IsBlockingStatus reports whether a status code indicates the upstream
// refused the proxied client rather than the page being unavailable.
func IsBlockingStatus(statusCode int) bool {
	return statusCode == http.StatusForbidden || statusCode == http.StatusProxyAuthRequired
}

func sessionToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
