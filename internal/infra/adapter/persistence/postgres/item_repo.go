package postgres

import (
	"context"
	"fmt"
	"time"

	"rules-radar/internal/domain/entity"
	"rules-radar/internal/infra/db"
	"rules-radar/internal/repository"
)

type ItemRepo struct{ db db.Querier }

func NewItemRepo(q db.Querier) repository.ItemRepository {
	return &ItemRepo{db: q}
}

func (repo *ItemRepo) Append(ctx context.Context, item *entity.Item) error {
	const query = `
INSERT INTO items (tag, url, region, title, content_hash, summary_ru, needs_summary, first_seen_at, last_changed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		item.Tag, item.URL, string(item.Region), item.Title,
		item.ContentHash, item.SummaryRU, item.NeedsSummary,
		item.FirstSeenAt, item.LastChangedAt,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (repo *ItemRepo) List(ctx context.Context, since *time.Time) ([]*entity.Item, error) {
	query := `
SELECT id, tag, url, region, title, content_hash, summary_ru, needs_summary, first_seen_at, last_changed_at
FROM items`
	var args []interface{}
	if since != nil {
		query += `
WHERE last_changed_at >= $1`
		args = append(args, *since)
	}
	query += `
ORDER BY last_changed_at ASC`

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

func (repo *ItemRepo) ListPendingSummaries(ctx context.Context, limit int) ([]*entity.Item, error) {
	const query = `
SELECT id, tag, url, region, title, content_hash, summary_ru, needs_summary, first_seen_at, last_changed_at
FROM items
WHERE needs_summary
ORDER BY last_changed_at ASC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListPendingSummaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanItems(rows)
}

func (repo *ItemRepo) SetSummary(ctx context.Context, id int64, summaryRU string) error {
	const query = `
UPDATE items SET summary_ru = $1, needs_summary = FALSE WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, summaryRU, id)
	if err != nil {
		return fmt.Errorf("SetSummary: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("SetSummary: %w", entity.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanItems(rows rowScanner) ([]*entity.Item, error) {
	items := make([]*entity.Item, 0, 50)
	for rows.Next() {
		var item entity.Item
		var regionStr string
		if err := rows.Scan(
			&item.ID, &item.Tag, &item.URL, &regionStr, &item.Title,
			&item.ContentHash, &item.SummaryRU, &item.NeedsSummary,
			&item.FirstSeenAt, &item.LastChangedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		item.Region = entity.ParseRegion(regionStr)
		items = append(items, &item)
	}
	return items, rows.Err()
}
