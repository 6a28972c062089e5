package postgres

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "postgres" database/sql driver.
	_ "github.com/lib/pq"

	"activityboard/internal/platform/config"
)

// DB wraps a database/sql pool backed by lib/pq.
type DB struct {
	*sql.DB
}

// New opens and pings a Postgres pool. Returns nil if the URL is empty.
func New(ctx context.Context, cfg config.PostgresConfig) (*DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &DB{DB: db}, nil
}

// Health checks if the pool can reach the server.
func (d *DB) Health(ctx context.Context) error {
	return d.PingContext(ctx)
}
