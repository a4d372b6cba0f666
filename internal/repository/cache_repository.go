// Package repository defines persistence interfaces for the watcher's two
// durable collections: the fetch cache and the change-item history.
// Concrete implementations live under internal/infra/adapter/persistence.
package repository

import (
	"context"

	"rules-radar/internal/domain/entity"
)

// CacheRepository persists the last-known fetch state per source.
// Entries are keyed by the composite identity (tag, url, region); there is
// at most one entry per identity.
type CacheRepository interface {
	// Get returns the entry for the composite key, or entity.ErrNotFound.
	Get(ctx context.Context, tag, url string, region entity.Region) (*entity.CacheEntry, error)

	// Put inserts or updates the entry for its composite key. The write is
	// durable when Put returns; LastCheckedAt is always taken from the
	// given entry so it advances on every fetch, changed or not.
	Put(ctx context.Context, entry *entity.CacheEntry) error

	// List returns all entries, for diagnostics and tests.
	List(ctx context.Context) ([]*entity.CacheEntry, error)
}
