package fetcher

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidURL indicates the URL failed scheme or hostname validation.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrPrivateIP indicates the hostname resolves to a private address.
	ErrPrivateIP = errors.New("URL resolves to private IP")

	// ErrBodyTooLarge indicates the response exceeded the configured size cap.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTooManyRedirects indicates the redirect chain exceeded the limit.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBlocked indicates an auth-blocking response (403/407) that survived
	// the proxy fallback, or had no fallback to try.
	ErrBlocked = errors.New("request blocked")
)

// StatusError is a non-2xx, non-304 response. The page itself answered, so
// the cache entry for the source stays untouched.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}
