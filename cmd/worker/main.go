// Command worker runs the scheduled polling worker: it loads the source
// catalog, wires the fetch-summarize-notify pipeline and fires a pass on
// the configured cron schedule until terminated.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"rules-radar/internal/infra/adapter/persistence/postgres"
	"rules-radar/internal/infra/adapter/persistence/sqlite"
	"rules-radar/internal/infra/db"
	"rules-radar/internal/infra/fetcher"
	"rules-radar/internal/infra/notifier"
	"rules-radar/internal/infra/proxy"
	"rules-radar/internal/infra/summarizer"
	"rules-radar/internal/infra/worker"
	"rules-radar/internal/observability/logging"
	"rules-radar/internal/observability/metrics"
	"rules-radar/internal/observability/tracing"
	pkgconfig "rules-radar/internal/pkg/config"
	"rules-radar/internal/repository"
	"rules-radar/internal/resilience/circuitbreaker"
	"rules-radar/internal/usecase/notify"
	"rules-radar/internal/usecase/poll"
)

func main() {
	// .env is optional; production supplies real environment variables.
	_ = godotenv.Load()

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("worker failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.InitTracerProvider()
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	conn, driver, err := db.Open()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := db.MigrateUp(conn, driver); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database schema current", slog.String("driver", driver))

	breaker := circuitbreaker.NewDBCircuitBreaker(conn)
	cacheRepo, itemRepo := buildRepositories(driver, breaker)

	workerMetrics := worker.NewWorkerMetrics()
	cfg, err := worker.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return fmt.Errorf("load worker config: %w", err)
	}

	catalogPath := os.Getenv("SOURCES_FILE")
	if catalogPath == "" {
		catalogPath = pkgconfig.DefaultSourcesFile
	}
	catalog, err := pkgconfig.LoadSourceCatalog(catalogPath)
	if err != nil {
		return fmt.Errorf("load source catalog: %w", err)
	}
	logger.Info("source catalog loaded",
		slog.String("path", catalogPath),
		slog.Int("sources", len(catalog.Sources)),
		slog.Int("proxy_rules", len(catalog.Proxies)))

	router := proxy.NewRouter(catalog, logger)

	fetchCfg, warnings := fetcher.LoadConfigFromEnv()
	for _, warning := range warnings {
		logger.Warn("fetch configuration fallback", slog.String("warning", warning))
	}
	pageFetcher := fetcher.New(fetchCfg, router, logger)

	summ, err := summarizer.NewFromEnv()
	if err != nil {
		return fmt.Errorf("build summarizer: %w", err)
	}

	channels := buildChannels(logger)
	notifySvc := notify.NewService(channels, cfg.NotifyMaxConcurrent)

	pollSvc := poll.NewService(cacheRepo, itemRepo, pageFetcher, summ, notifySvc, catalog.Sources,
		poll.Config{FetchParallelism: cfg.FetchMaxConcurrent})

	startMetricsServer(ctx, logger, notifySvc)

	health := worker.NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
	go func() {
		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", slog.Any("error", err))
		}
	}()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	// SkipIfStillRunning keeps a slow pass from stacking up behind the
	// schedule; the pass timeout bounds the pass itself.
	scheduler := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	entryID, err := scheduler.AddFunc(cfg.CronSchedule, func() {
		runPassJob(ctx, logger, workerMetrics, pollSvc, notifySvc, cfg.PassTimeout)
		updateStoreGauges(ctx, conn, cacheRepo, logger)
	})
	if err != nil {
		return fmt.Errorf("schedule pass job: %w", err)
	}

	scheduler.Start()
	health.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone),
		slog.Int("entry_id", int(entryID)))

	<-ctx.Done()
	logger.Info("shutdown signal received")
	health.SetReady(false)

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		logger.Warn("running pass did not finish before shutdown deadline")
	}

	logger.Info("worker stopped")
	return nil
}

// runPassJob executes one polling pass with a timeout and records the
// outcome. A pass failure is reported to the dev channel; the next
// scheduled run proceeds regardless.
func runPassJob(
	ctx context.Context,
	logger *slog.Logger,
	metrics *worker.WorkerMetrics,
	pollSvc *poll.Service,
	notifySvc *notify.Service,
	timeout time.Duration,
) {
	metrics.RecordJobRun("started")
	start := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stats, err := pollSvc.RunPass(jobCtx)
	duration := time.Since(start)
	metrics.RecordJobDuration(duration.Seconds())
	if stats != nil {
		metrics.RecordSourcesProcessed(stats.Sources)
	}

	if err != nil {
		metrics.RecordJobRun("failure")
		logger.Error("polling pass failed",
			slog.Any("error", err),
			slog.Duration("duration", duration))

		// Shutdown may have canceled the job context; report on a fresh one.
		reportCtx, cancelReport := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelReport()
		notifySvc.ReportPassFailure(reportCtx, err)
		return
	}

	metrics.RecordJobRun("success")
	metrics.RecordLastSuccess()
	logger.Info("polling pass finished",
		slog.Int("sources", stats.Sources),
		slog.Int64("changed", stats.Changed),
		slog.Int64("unchanged", stats.Unchanged),
		slog.Int64("fetch_errors", stats.FetchErrors),
		slog.Duration("duration", duration))
}

// updateStoreGauges refreshes the store-level gauges after a pass.
func updateStoreGauges(ctx context.Context, conn *sql.DB, cacheRepo repository.CacheRepository, logger *slog.Logger) {
	stats := conn.Stats()
	metrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)

	gaugeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	entries, err := cacheRepo.List(gaugeCtx)
	if err != nil {
		logger.Warn("failed to count cache entries", slog.Any("error", err))
		return
	}
	metrics.UpdateCacheEntriesTotal(len(entries))
}

// buildRepositories selects the persistence adapter matching the opened
// driver. Both adapters speak through db.Querier, so the circuit breaker
// wraps either one.
func buildRepositories(driver string, q db.Querier) (repository.CacheRepository, repository.ItemRepository) {
	switch driver {
	case db.DriverSQLite:
		return sqlite.NewCacheRepo(q), sqlite.NewItemRepo(q)
	default:
		return postgres.NewCacheRepo(q), postgres.NewItemRepo(q)
	}
}

// buildChannels constructs the notification channels from environment
// configuration. A misconfigured channel stays in the list disabled, so
// health checks can show it.
func buildChannels(logger *slog.Logger) []notify.Channel {
	tgCfg, warnings := notifier.LoadTelegramConfigFromEnv()
	for _, warning := range warnings {
		logger.Warn("telegram configuration fallback", slog.String("warning", warning))
	}
	if !tgCfg.Enabled {
		logger.Warn("telegram channel disabled, change notifications will not be delivered")
	}
	return []notify.Channel{notifier.NewTelegramChannel(tgCfg)}
}
