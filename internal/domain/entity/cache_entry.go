package entity

import "time"

// CacheEntry holds the last-known fetch state of one source. It is keyed
// by the composite identity (tag, url, region); there is at most one entry
// per identity. The content hash is the authority for "did this change";
// validators only let the upstream skip the body transfer.
type CacheEntry struct {
	Tag    string
	URL    string
	Region Region

	// ETag and LastModified are the conditional-request validators from
	// the last successful fetch. Either may be empty when the upstream
	// does not send them.
	ETag         string
	LastModified string

	// ContentHash is the SHA-256 digest of the normalized page text.
	ContentHash string

	// LastCheckedAt advances on every fetch, changed or not.
	LastCheckedAt time.Time
}

// Key returns the composite identity of the entry.
func (e *CacheEntry) Key() (tag, url string, region Region) {
	return e.Tag, e.URL, e.Region
}
