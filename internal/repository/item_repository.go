package repository

import (
	"context"
	"time"

	"rules-radar/internal/domain/entity"
)

// ItemRepository persists the append-only history of detected changes.
type ItemRepository interface {
	// Append durably inserts a new item and fills in its ID. Existing
	// items are never updated or removed by Append.
	Append(ctx context.Context, item *entity.Item) error

	// List returns items with last_changed_at >= since (all items when
	// since is nil), ordered by last_changed_at ascending.
	List(ctx context.Context, since *time.Time) ([]*entity.Item, error)

	// ListPendingSummaries returns up to limit items whose summarizer
	// call failed at detection time, oldest first.
	ListPendingSummaries(ctx context.Context, limit int) ([]*entity.Item, error)

	// SetSummary fills in the summary of a previously appended item and
	// clears its needs-summary flag. Only the summary column changes; the
	// change history itself stays immutable.
	SetSummary(ctx context.Context, id int64, summaryRU string) error
}
