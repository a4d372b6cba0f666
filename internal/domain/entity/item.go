package entity

import "time"

// Item is one durable record of a detected content change. Items are
// append-only history: a later change to the same page produces a new
// item with a fresh hash and timestamp, never an update of an old one.
type Item struct {
	ID     int64
	Tag    string
	URL    string
	Region Region
	Title  string

	// ContentHash is the digest of the fetched body that produced this
	// item; it always matches the cache entry written in the same pass.
	ContentHash string

	// SummaryRU is the condensed Russian summary of the change. Empty
	// when the summarizer failed at detection time.
	SummaryRU string

	// NeedsSummary marks an item whose summarizer call failed; a later
	// pass fills the summary in without creating a new item.
	NeedsSummary bool

	FirstSeenAt   time.Time
	LastChangedAt time.Time
}
