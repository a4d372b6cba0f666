package circuitbreaker

import (
	"context"
	"database/sql"
	"time"

	"github.com/sony/gobreaker"

	"rules-radar/internal/observability/metrics"
)

// DBCircuitBreaker wraps the store connection with circuit breaker
// protection so a dead database fails passes fast instead of stacking
// blocked queries. It satisfies db.Querier, so the persistence adapters
// take it in place of *sql.DB.
type DBCircuitBreaker struct {
	cb *CircuitBreaker
	db *sql.DB
}

// DBConfig returns the breaker settings for store queries: opens after
// 5 consecutive failures, retries after 30 seconds.
func DBConfig() Config {
	return Config{
		Name:             "database",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 1.0,
		MinRequests:      5,
	}
}

// NewDBCircuitBreaker wraps conn with the default store breaker.
func NewDBCircuitBreaker(conn *sql.DB) *DBCircuitBreaker {
	return &DBCircuitBreaker{cb: New(DBConfig()), db: conn}
}

// NewDBCircuitBreakerWithConfig wraps conn with custom breaker settings.
func NewDBCircuitBreakerWithConfig(conn *sql.DB, cfg Config) *DBCircuitBreaker {
	return &DBCircuitBreaker{cb: New(cfg), db: conn}
}

// QueryContext runs a query through the breaker. When the circuit is
// open it returns gobreaker.ErrOpenState without touching the database.
func (dcb *DBCircuitBreaker) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	result, err := dcb.cb.Execute(func() (interface{}, error) {
		return dcb.db.QueryContext(ctx, query, args...)
	})
	metrics.RecordDBQuery("query", time.Since(start))
	if err != nil {
		return nil, err
	}
	return result.(*sql.Rows), nil
}

// ExecContext runs a statement through the breaker. When the circuit is
// open it returns gobreaker.ErrOpenState without touching the database.
func (dcb *DBCircuitBreaker) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := dcb.cb.Execute(func() (interface{}, error) {
		return dcb.db.ExecContext(ctx, query, args...)
	})
	metrics.RecordDBQuery("exec", time.Since(start))
	if err != nil {
		return nil, err
	}
	return result.(sql.Result), nil
}

// QueryRowContext runs a single-row query. sql.Row defers its error
// until Scan, so the breaker cannot observe the outcome here; the row
// passes through unprotected.
func (dcb *DBCircuitBreaker) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := dcb.db.QueryRowContext(ctx, query, args...)
	metrics.RecordDBQuery("query_row", time.Since(start))
	return row
}

// State returns the current breaker state.
func (dcb *DBCircuitBreaker) State() gobreaker.State {
	return dcb.cb.State()
}

// IsOpen reports whether the breaker is open.
func (dcb *DBCircuitBreaker) IsOpen() bool {
	return dcb.cb.IsOpen()
}

// DB returns the wrapped connection, for operations like migrations that
// must bypass the breaker.
func (dcb *DBCircuitBreaker) DB() *sql.DB {
	return dcb.db
}
