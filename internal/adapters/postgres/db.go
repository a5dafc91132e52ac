package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/mapframe/internal/pkg/metrics"
)

// DB wraps pgxpool.Pool and provides a shared connection pool.
type DB struct {
	Pool *pgxpool.Pool

	stop chan struct{}
}

// New creates a connection pool and starts the pool gauge reporter.
func New(ctx context.Context, dsn string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	db := &DB{Pool: pool, stop: make(chan struct{})}
	go db.reportPoolStats()
	return db, nil
}

func (db *DB) reportPoolStats() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		case <-db.stop:
			return
		}
	}
}

// Close releases pool resources.
func (db *DB) Close() {
	close(db.stop)
	db.Pool.Close()
}
