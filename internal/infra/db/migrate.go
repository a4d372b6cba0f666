package db

import "database/sql"

// MigrateUp creates the fetch cache and change history tables for the
// given driver and rewrites legacy rows without a region to GLOBAL.
// All statements are idempotent; MigrateUp runs on every startup.
func MigrateUp(conn *sql.DB, driver string) error {
	var statements []string
	switch driver {
	case DriverSQLite:
		statements = sqliteSchema
	default:
		statements = postgresSchema
	}

	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}

	// Rows written before regions existed carry an empty region; they all
	// belong to GLOBAL. Runs as a no-op on fresh databases.
	legacy := []string{
		`UPDATE cache_entries SET region = 'GLOBAL' WHERE region IS NULL OR region = ''`,
		`UPDATE items SET region = 'GLOBAL' WHERE region IS NULL OR region = ''`,
	}
	for _, stmt := range legacy {
		if _, err := conn.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS cache_entries (
    tag             TEXT NOT NULL,
    url             TEXT NOT NULL,
    region          TEXT NOT NULL DEFAULT 'GLOBAL',
    etag            TEXT NOT NULL DEFAULT '',
    last_modified   TEXT NOT NULL DEFAULT '',
    content_hash    TEXT NOT NULL DEFAULT '',
    last_checked_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (tag, url, region)
)`,
	`CREATE TABLE IF NOT EXISTS items (
    id              BIGSERIAL PRIMARY KEY,
    tag             TEXT NOT NULL,
    url             TEXT NOT NULL,
    region          TEXT NOT NULL DEFAULT 'GLOBAL',
    title           TEXT NOT NULL DEFAULT '',
    content_hash    TEXT NOT NULL,
    summary_ru      TEXT NOT NULL DEFAULT '',
    needs_summary   BOOLEAN NOT NULL DEFAULT FALSE,
    first_seen_at   TIMESTAMPTZ NOT NULL,
    last_changed_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_last_changed_at ON items(last_changed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_items_needs_summary ON items(needs_summary) WHERE needs_summary`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS cache_entries (
    tag             TEXT NOT NULL,
    url             TEXT NOT NULL,
    region          TEXT NOT NULL DEFAULT 'GLOBAL',
    etag            TEXT NOT NULL DEFAULT '',
    last_modified   TEXT NOT NULL DEFAULT '',
    content_hash    TEXT NOT NULL DEFAULT '',
    last_checked_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tag, url, region)
)`,
	`CREATE TABLE IF NOT EXISTS items (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    tag             TEXT NOT NULL,
    url             TEXT NOT NULL,
    region          TEXT NOT NULL DEFAULT 'GLOBAL',
    title           TEXT NOT NULL DEFAULT '',
    content_hash    TEXT NOT NULL,
    summary_ru      TEXT NOT NULL DEFAULT '',
    needs_summary   BOOLEAN NOT NULL DEFAULT 0,
    first_seen_at   TIMESTAMP NOT NULL,
    last_changed_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_items_last_changed_at ON items(last_changed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_items_needs_summary ON items(needs_summary) WHERE needs_summary`,
}
