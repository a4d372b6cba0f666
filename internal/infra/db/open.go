// Package db opens the store database and keeps its schema current.
// Two drivers are supported: postgres (pgx) for deployments and sqlite
// (pure Go) for single-binary installs; both speak database/sql.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Driver names accepted in DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ConnectionConfig holds connection pool settings.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default pool settings.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open connects according to DB_DRIVER:
//   - "postgres" (default): DATABASE_URL via the pgx stdlib driver
//   - "sqlite": single file at DB_PATH (default rules-radar.db)
//
// The returned driver name selects the matching persistence adapter.
func Open() (*sql.DB, string, error) {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = DriverPostgres
	}

	var conn *sql.DB
	var err error
	switch driver {
	case DriverPostgres:
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return nil, "", fmt.Errorf("DATABASE_URL not set")
		}
		conn, err = sql.Open("pgx", dsn)

	case DriverSQLite:
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "rules-radar.db"
		}
		conn, err = sql.Open("sqlite", path)

	default:
		return nil, "", fmt.Errorf("unknown DB_DRIVER '%s' (expected postgres or sqlite)", driver)
	}
	if err != nil {
		return nil, "", fmt.Errorf("open %s database: %w", driver, err)
	}

	cfg := getConnectionConfigFromEnv()
	if driver == DriverSQLite {
		// The sqlite driver serializes writes; one connection avoids
		// SQLITE_BUSY under the concurrent pass.
		cfg.MaxOpenConns = 1
		cfg.MaxIdleConns = 1
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.String("driver", driver),
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("ping %s database: %w", driver, err)
	}

	slog.Info("database connection established")
	return conn, driver, nil
}

func getConnectionConfigFromEnv() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	if maxOpen := os.Getenv("DB_MAX_OPEN_CONNS"); maxOpen != "" {
		if val, err := strconv.Atoi(maxOpen); err == nil && val > 0 {
			cfg.MaxOpenConns = val
		}
	}
	if maxIdle := os.Getenv("DB_MAX_IDLE_CONNS"); maxIdle != "" {
		if val, err := strconv.Atoi(maxIdle); err == nil && val > 0 {
			cfg.MaxIdleConns = val
		}
	}
	if lifetime := os.Getenv("DB_CONN_MAX_LIFETIME"); lifetime != "" {
		if val, err := time.ParseDuration(lifetime); err == nil && val > 0 {
			cfg.ConnMaxLifetime = val
		}
	}
	if idleTime := os.Getenv("DB_CONN_MAX_IDLE_TIME"); idleTime != "" {
		if val, err := time.ParseDuration(idleTime); err == nil && val > 0 {
			cfg.ConnMaxIdleTime = val
		}
	}

	return cfg
}
