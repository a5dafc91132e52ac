package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// CacheRepo implements ports.CacheStore on Postgres. Deployments that do not
// want a separate Valkey can point the cache backend here; entries live in
// the cache_entries table with an optional expiry.
type CacheRepo struct {
	db *DB
}

// NewCacheRepo creates a new CacheRepo.
func NewCacheRepo(db *DB) *CacheRepo {
	return &CacheRepo{db: db}
}

// Get returns the payload for key, or (nil, nil) when absent or expired.
func (r *CacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT value FROM cache_entries
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
	`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Set upserts the payload. ttlSeconds 0 stores without expiry.
func (r *CacheRepo) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	var expires *time.Time
	if ttlSeconds > 0 {
		t := time.Now().Add(time.Duration(ttlSeconds) * time.Second)
		expires = &t
	}

	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO cache_entries (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()
	`, key, value, expires)
	return err
}

// Delete removes the entry. Deleting an absent key is not an error.
func (r *CacheRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	return err
}

// PurgeExpired drops entries past their expiry and reports how many went.
// The migrate binary runs this as a maintenance step.
func (r *CacheRepo) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= now()
	`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
