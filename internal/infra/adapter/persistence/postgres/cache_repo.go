// Package postgres implements the repositories against PostgreSQL through
// the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"rules-radar/internal/domain/entity"
	"rules-radar/internal/infra/db"
	"rules-radar/internal/repository"
)

type CacheRepo struct{ db db.Querier }

func NewCacheRepo(q db.Querier) repository.CacheRepository {
	return &CacheRepo{db: q}
}

func (repo *CacheRepo) Get(ctx context.Context, tag, url string, region entity.Region) (*entity.CacheEntry, error) {
	const query = `
SELECT tag, url, region, etag, last_modified, content_hash, last_checked_at
FROM cache_entries
WHERE tag = $1 AND url = $2 AND region = $3
LIMIT 1`
	var e entity.CacheEntry
	var regionStr string
	err := repo.db.QueryRowContext(ctx, query, tag, url, string(region)).Scan(
		&e.Tag, &e.URL, &regionStr, &e.ETag, &e.LastModified, &e.ContentHash, &e.LastCheckedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	e.Region = entity.ParseRegion(regionStr)
	return &e, nil
}

func (repo *CacheRepo) Put(ctx context.Context, entry *entity.CacheEntry) error {
	const query = `
INSERT INTO cache_entries (tag, url, region, etag, last_modified, content_hash, last_checked_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (tag, url, region) DO UPDATE SET
       etag            = EXCLUDED.etag,
       last_modified   = EXCLUDED.last_modified,
       content_hash    = EXCLUDED.content_hash,
       last_checked_at = EXCLUDED.last_checked_at`
	_, err := repo.db.ExecContext(ctx, query,
		entry.Tag, entry.URL, string(entry.Region),
		entry.ETag, entry.LastModified, entry.ContentHash, entry.LastCheckedAt,
	)
	if err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	return nil
}

func (repo *CacheRepo) List(ctx context.Context) ([]*entity.CacheEntry, error) {
	const query = `
SELECT tag, url, region, etag, last_modified, content_hash, last_checked_at
FROM cache_entries
ORDER BY tag, url, region`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.CacheEntry, 0, 50)
	for rows.Next() {
		var e entity.CacheEntry
		var regionStr string
		if err := rows.Scan(&e.Tag, &e.URL, &regionStr, &e.ETag, &e.LastModified, &e.ContentHash, &e.LastCheckedAt); err != nil {
			return nil, fmt.Errorf("List: %w", err)
		}
		e.Region = entity.ParseRegion(regionStr)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
