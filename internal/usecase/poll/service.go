// Package poll implements the polling pass: fetch every configured
// source, detect content changes, summarize them and hand the new change
// items to the notifier.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"rules-radar/internal/domain/entity"
	"rules-radar/internal/infra/fetcher"
	"rules-radar/internal/observability/metrics"
	"rules-radar/internal/observability/tracing"
	"rules-radar/internal/repository"
)

const (
	// summarizerParallelism bounds concurrent LLM calls; fetch fan-out is
	// configured separately and is usually wider.
	summarizerParallelism = 2

	// pendingSummaryLimit caps how many deferred summaries one pass tries
	// to fill in before polling.
	pendingSummaryLimit = 10
)

// PageFetcher fetches one source conditionally against its cached state.
type PageFetcher interface {
	Fetch(ctx context.Context, source entity.Source, prev *entity.CacheEntry) fetcher.Result
}

// Summarizer produces a condensed Russian summary of page text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// Notifier delivers one batch of change items detected in a pass.
type Notifier interface {
	Deliver(ctx context.Context, items []*entity.Item) error
}

// Config controls pass-level parallelism.
type Config struct {
	// FetchParallelism is the maximum number of concurrent source fetches.
	FetchParallelism int
}

// Service runs polling passes over a fixed source catalog.
type Service struct {
	CacheRepo  repository.CacheRepository
	ItemRepo   repository.ItemRepository
	Fetcher    PageFetcher
	Summarizer Summarizer
	Notifier   Notifier
	Sources    []entity.Source
	cfg        Config
}

// NewService creates a poll Service. Notifier may be nil to disable
// delivery (items are still recorded).
func NewService(
	cacheRepo repository.CacheRepository,
	itemRepo repository.ItemRepository,
	pageFetcher PageFetcher,
	summarizer Summarizer,
	notifier Notifier,
	sources []entity.Source,
	cfg Config,
) *Service {
	if cfg.FetchParallelism < 1 {
		cfg.FetchParallelism = 1
	}
	return &Service{
		CacheRepo:  cacheRepo,
		ItemRepo:   itemRepo,
		Fetcher:    pageFetcher,
		Summarizer: summarizer,
		Notifier:   notifier,
		Sources:    sources,
		cfg:        cfg,
	}
}

// PassStats contains statistics about one polling pass.
type PassStats struct {
	Sources         int
	Changed         int64
	Unchanged       int64
	FetchErrors     int64
	SummarizeErrors int64
	Backfilled      int64
	Duration        time.Duration
}

// RunPass polls every source once. Fetch and summarizer failures are
// counted and logged but never abort the pass; only context cancellation
// and store write errors do. New items are delivered as one batch in
// catalog order.
func (s *Service) RunPass(ctx context.Context) (*PassStats, error) {
	logger := slog.Default()
	start := time.Now()
	stats := &PassStats{Sources: len(s.Sources)}

	if len(s.Sources) == 0 {
		return stats, ErrNoSources
	}

	ctx, span := tracing.GetTracer().Start(ctx, "poll.pass")
	defer span.End()

	s.backfillPendingSummaries(ctx, stats)

	fetchSem := make(chan struct{}, s.cfg.FetchParallelism)
	summarySem := make(chan struct{}, summarizerParallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	var newItems []*entity.Item

	for _, src := range s.Sources {
		source := src
		eg.Go(func() error {
			fetchSem <- struct{}{}
			item, err := s.pollSource(egCtx, source, summarySem, stats)
			<-fetchSem
			if err != nil {
				return err
			}
			if item != nil {
				mu.Lock()
				newItems = append(newItems, item)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		stats.Duration = time.Since(start)
		metrics.RecordPass(false, stats.Duration)
		return stats, err
	}

	s.sortByCatalogOrder(newItems)

	if len(newItems) > 0 && s.Notifier != nil {
		if err := s.Notifier.Deliver(ctx, newItems); err != nil {
			logger.Warn("notification delivery incomplete",
				slog.Int("items", len(newItems)),
				slog.Any("error", err))
		}
	}

	stats.Duration = time.Since(start)
	metrics.RecordPass(true, stats.Duration)
	logger.Info("polling pass completed",
		slog.Int("sources", stats.Sources),
		slog.Int64("changed", stats.Changed),
		slog.Int64("unchanged", stats.Unchanged),
		slog.Int64("fetch_errors", stats.FetchErrors),
		slog.Int64("summarize_errors", stats.SummarizeErrors),
		slog.Int64("backfilled", stats.Backfilled),
		slog.Duration("duration", stats.Duration),
	)

	return stats, nil
}

// pollSource runs the fetch-detect-record cycle for one source. It
// returns a non-nil item when a change was recorded. Cache and item
// writes for the source happen sequentially in this goroutine, so a
// crash between sources never leaves a half-written identity.
func (s *Service) pollSource(ctx context.Context, source entity.Source, summarySem chan struct{}, stats *PassStats) (*entity.Item, error) {
	logger := slog.Default()
	start := time.Now()

	ctx, span := tracing.GetTracer().Start(ctx, "poll.source")
	span.SetAttributes(
		attribute.String("source.tag", source.Tag),
		attribute.String("source.region", string(source.Region)),
	)
	defer span.End()

	prev, err := s.CacheRepo.Get(ctx, source.Tag, source.URL, source.Region)
	if err != nil {
		if !errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("read cache entry for %s: %w", source.Tag, err)
		}
		prev = nil
	}

	res := s.Fetcher.Fetch(ctx, source, prev)

	switch res.Status {
	case fetcher.StatusFailed:
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		atomic.AddInt64(&stats.FetchErrors, 1)
		metrics.RecordSourcePoll(source.Tag, source.Region, res.Status.String(), time.Since(start))
		logger.Warn("fetch failed, cache left untouched",
			slog.String("tag", source.Tag),
			slog.String("url", source.URL),
			slog.String("region", string(source.Region)),
			slog.Any("error", res.Err))
		return nil, nil

	case fetcher.StatusUnchanged:
		entry := &entity.CacheEntry{
			Tag:           source.Tag,
			URL:           source.URL,
			Region:        source.Region,
			ETag:          res.ETag,
			LastModified:  res.LastModified,
			ContentHash:   res.ContentHash,
			LastCheckedAt: time.Now().UTC(),
		}
		if err := s.CacheRepo.Put(ctx, entry); err != nil {
			return nil, fmt.Errorf("update cache entry for %s: %w", source.Tag, err)
		}
		atomic.AddInt64(&stats.Unchanged, 1)
		metrics.RecordSourcePoll(source.Tag, source.Region, res.Status.String(), time.Since(start))
		return nil, nil

	case fetcher.StatusChanged:
		item, err := s.recordChange(ctx, source, res, summarySem, stats)
		if err != nil {
			return nil, err
		}
		atomic.AddInt64(&stats.Changed, 1)
		metrics.RecordSourcePoll(source.Tag, source.Region, res.Status.String(), time.Since(start))
		metrics.RecordItemRecorded(source.Region)
		return item, nil
	}

	return nil, nil
}

// recordChange summarizes the new content and persists the item before
// the cache entry. A summarizer failure defers the summary instead of
// dropping the change; writing the item first guarantees the change is
// never re-detected without having been recorded.
func (s *Service) recordChange(ctx context.Context, source entity.Source, res fetcher.Result, summarySem chan struct{}, stats *PassStats) (*entity.Item, error) {
	logger := slog.Default()
	now := time.Now().UTC()

	item := &entity.Item{
		Tag:           source.Tag,
		URL:           source.URL,
		Region:        source.Region,
		Title:         res.Title,
		ContentHash:   res.ContentHash,
		FirstSeenAt:   now,
		LastChangedAt: now,
	}

	summarySem <- struct{}{}
	summary, err := s.Summarizer.Summarize(ctx, res.Body)
	<-summarySem

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		atomic.AddInt64(&stats.SummarizeErrors, 1)
		metrics.RecordSummarized(false)
		item.NeedsSummary = true
		logger.Warn("summarization failed, recording change without summary",
			slog.String("tag", source.Tag),
			slog.String("url", source.URL),
			slog.Any("error", err))
	} else {
		metrics.RecordSummarized(true)
		item.SummaryRU = summary
	}

	if err := s.ItemRepo.Append(ctx, item); err != nil {
		return nil, fmt.Errorf("append item for %s: %w", source.Tag, err)
	}

	entry := &entity.CacheEntry{
		Tag:           source.Tag,
		URL:           source.URL,
		Region:        source.Region,
		ETag:          res.ETag,
		LastModified:  res.LastModified,
		ContentHash:   res.ContentHash,
		LastCheckedAt: now,
	}
	if err := s.CacheRepo.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("update cache entry for %s: %w", source.Tag, err)
	}

	return item, nil
}

// backfillPendingSummaries fills in summaries deferred by earlier passes.
// Items carry no body text, so the page is refetched unconditionally; a
// failure here leaves the item pending for the next pass.
func (s *Service) backfillPendingSummaries(ctx context.Context, stats *PassStats) {
	logger := slog.Default()

	pending, err := s.ItemRepo.ListPendingSummaries(ctx, pendingSummaryLimit)
	if err != nil {
		logger.Warn("failed to list pending summaries", slog.Any("error", err))
		return
	}

	for _, item := range pending {
		source := entity.Source{Tag: item.Tag, URL: item.URL, Region: item.Region, Title: item.Title}
		res := s.Fetcher.Fetch(ctx, source, nil)
		if res.Status != fetcher.StatusChanged || res.Body == "" {
			logger.Warn("backfill refetch failed, summary stays deferred",
				slog.Int64("item_id", item.ID),
				slog.String("url", item.URL),
				slog.Any("error", res.Err))
			continue
		}

		summary, err := s.Summarizer.Summarize(ctx, res.Body)
		if err != nil {
			atomic.AddInt64(&stats.SummarizeErrors, 1)
			metrics.RecordSummarized(false)
			logger.Warn("backfill summarization failed",
				slog.Int64("item_id", item.ID),
				slog.String("url", item.URL),
				slog.Any("error", err))
			continue
		}

		if err := s.ItemRepo.SetSummary(ctx, item.ID, summary); err != nil {
			logger.Warn("failed to store backfilled summary",
				slog.Int64("item_id", item.ID),
				slog.Any("error", err))
			continue
		}

		metrics.RecordSummarized(true)
		metrics.RecordSummaryBackfill()
		atomic.AddInt64(&stats.Backfilled, 1)
	}
}

// sortByCatalogOrder restores the configured source order for items that
// finished out of order under concurrency, so notification sections read
// the same from pass to pass.
func (s *Service) sortByCatalogOrder(items []*entity.Item) {
	order := make(map[string]int, len(s.Sources))
	for i, src := range s.Sources {
		order[src.Tag+"|"+src.URL+"|"+string(src.Region)] = i
	}
	sort.SliceStable(items, func(i, j int) bool {
		ki := items[i].Tag + "|" + items[i].URL + "|" + string(items[i].Region)
		kj := items[j].Tag + "|" + items[j].URL + "|" + string(items[j].Region)
		return order[ki] < order[kj]
	})
}
