// Package fetcher performs conditional page fetches with proxy routing,
// content normalization and hash-based change detection.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"rules-radar/internal/domain/entity"
	"rules-radar/internal/infra/proxy"
)

// Status classifies the outcome of one fetch.
type Status int

const (
	// StatusUnchanged means the page answered but its content is the same
	// as the cached state (304 or equal hash).
	StatusUnchanged Status = iota

	// StatusChanged means the page answered with content whose hash
	// differs from the cached state (or there was no cached state).
	StatusChanged

	// StatusFailed means no usable answer; the cached state must be left
	// untouched.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnchanged:
		return "unchanged"
	case StatusChanged:
		return "changed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries everything the pipeline needs from one fetch. Body and
// Title are populated only for StatusChanged; validators and ContentHash
// are populated for Unchanged and Changed.
type Result struct {
	Status       Status
	Body         string
	Title        string
	ETag         string
	LastModified string
	ContentHash  string
	Err          error
}

// Fetcher fetches sources through the proxy router. Safe for concurrent
// use; each call builds its own client from the routed handle.
type Fetcher struct {
	cfg    Config
	router *proxy.Router
	logger *slog.Logger
}

// New creates a Fetcher.
func New(cfg Config, router *proxy.Router, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{cfg: cfg, router: router, logger: logger}
}

// Fetch performs one conditional fetch for a source. Auth-blocking
// responses (403/407) get exactly one retry through the router's fallback
// handle; a second block, or a block with no fallback, fails the fetch.
func (f *Fetcher) Fetch(ctx context.Context, source entity.Source, prev *entity.CacheEntry) Result {
	if err := validateURL(source.URL, f.cfg.DenyPrivateIPs); err != nil {
		return failedResult(err)
	}

	handle := f.router.Route(source.Region)
	res, statusCode := f.attempt(ctx, source, prev, handle)

	if proxy.IsBlockingStatus(statusCode) {
		fallback, ok := f.router.OnFailure(source.Region, statusCode)
		if !ok {
			return failedResult(fmt.Errorf("%w: status %d from %s", ErrBlocked, statusCode, source.URL))
		}
		res, statusCode = f.attempt(ctx, source, prev, fallback)
		if proxy.IsBlockingStatus(statusCode) {
			return failedResult(fmt.Errorf("%w: status %d from %s after fallback", ErrBlocked, statusCode, source.URL))
		}
	}

	return res
}

// attempt runs a single request through one handle. The second return is
// the raw response status (0 on transport error) so Fetch can recognize
// blocking statuses.
func (f *Fetcher) attempt(ctx context.Context, source entity.Source, prev *entity.CacheEntry, handle *proxy.Handle) (Result, int) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, source.URL, nil)
	if err != nil {
		return failedResult(fmt.Errorf("%w: %v", ErrInvalidURL, err)), 0
	}
	f.setHeaders(req, prev)

	resp, err := f.client(handle).Do(req)
	if err != nil {
		return failedResult(fmt.Errorf("fetch %s: %w", source.URL, err)), 0
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		res := Result{Status: StatusUnchanged}
		if prev != nil {
			res.ETag = prev.ETag
			res.LastModified = prev.LastModified
			res.ContentHash = prev.ContentHash
		}
		return res, resp.StatusCode

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		res, err := f.readBody(resp, source, prev)
		if err != nil {
			return failedResult(err), resp.StatusCode
		}
		return res, resp.StatusCode

	default:
		return failedResult(&StatusError{StatusCode: resp.StatusCode, URL: source.URL}), resp.StatusCode
	}
}

func (f *Fetcher) readBody(resp *http.Response, source entity.Source, prev *entity.CacheEntry) (Result, error) {
	limited := io.LimitReader(resp.Body, f.cfg.MaxBodySize+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return Result{}, fmt.Errorf("read body from %s: %w", source.URL, err)
	}
	if int64(len(raw)) > f.cfg.MaxBodySize {
		return Result{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrBodyTooLarge, source.URL, f.cfg.MaxBodySize)
	}

	normalized, err := NormalizePlainText(string(raw))
	if err != nil {
		return Result{}, fmt.Errorf("normalize %s: %w", source.URL, err)
	}
	hash := HashContent(normalized)

	res := Result{
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
		ContentHash:  hash,
	}

	if prev != nil && prev.ContentHash == hash {
		res.Status = StatusUnchanged
		return res, nil
	}

	pageURL := resp.Request.URL
	if pageURL == nil {
		pageURL, _ = url.Parse(source.URL)
	}
	body, title := ExtractReadable(raw, pageURL)
	if source.Title != "" {
		title = source.Title
	}

	res.Status = StatusChanged
	res.Body = body
	res.Title = title
	return res, nil
}

func (f *Fetcher) setHeaders(req *http.Request, prev *entity.CacheEntry) {
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	if prev != nil {
		if prev.ETag != "" {
			req.Header.Set("If-None-Match", prev.ETag)
		}
		if prev.LastModified != "" {
			req.Header.Set("If-Modified-Since", prev.LastModified)
		}
	}
}

func (f *Fetcher) client(handle *proxy.Handle) *http.Client {
	return &http.Client{
		Transport: handle.Transport(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			return validateURL(req.URL.String(), f.cfg.DenyPrivateIPs)
		},
	}
}

func failedResult(err error) Result {
	return Result{Status: StatusFailed, Err: err}
}
