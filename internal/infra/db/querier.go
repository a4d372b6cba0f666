package db

import (
	"context"
	"database/sql"
)

// Querier is the subset of database/sql the persistence adapters need.
// Both *sql.DB and the circuit-breaker wrapper satisfy it, so protection
// can be added at wiring time without touching the adapters.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}
