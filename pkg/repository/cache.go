package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/newsdigest/pkg/domain"
)

// CacheRepository persists summary cache entries
type CacheRepository struct {
	db *sqlx.DB
}

// cacheEntrySQL represents a cache entry for SQL operations, times are unix milliseconds
type cacheEntrySQL struct {
	Key       string `db:"cache_key"`
	Value     string `db:"value"`
	CreatedAt int64  `db:"created_at"`
	ExpiresAt int64  `db:"expires_at"`
}

// NewCacheRepository creates a new cache repository
func NewCacheRepository(db *sqlx.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// LoadCache returns all stored entries, expired ones included
func (r *CacheRepository) LoadCache(ctx context.Context) ([]domain.CacheEntry, error) {
	var rows []cacheEntrySQL
	if err := r.db.SelectContext(ctx, &rows,
		"SELECT cache_key, value, created_at, expires_at FROM cache_entries ORDER BY expires_at"); err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	res := make([]domain.CacheEntry, 0, len(rows))
	for _, row := range rows {
		res = append(res, domain.CacheEntry{
			Key:       row.Key,
			Value:     row.Value,
			CreatedAt: fromUnix(row.CreatedAt),
			ExpiresAt: fromUnix(row.ExpiresAt),
		})
	}
	return res, nil
}

// SaveCacheEntry inserts or replaces an entry
func (r *CacheRepository) SaveCacheEntry(ctx context.Context, entry domain.CacheEntry) error {
	row := cacheEntrySQL{
		Key:       entry.Key,
		Value:     entry.Value,
		CreatedAt: toUnix(entry.CreatedAt),
		ExpiresAt: toUnix(entry.ExpiresAt),
	}
	query := `
		INSERT INTO cache_entries (cache_key, value, created_at, expires_at)
		VALUES (:cache_key, :value, :created_at, :expires_at)
		ON CONFLICT(cache_key) DO UPDATE SET
			value = excluded.value,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`
	err := withLockRetry(ctx, func() error {
		_, err := r.db.NamedExecContext(ctx, query, row)
		return err
	})
	if err != nil {
		return fmt.Errorf("save cache entry: %w", err)
	}
	return nil
}

// DeleteCacheEntry removes a single entry
func (r *CacheRepository) DeleteCacheEntry(ctx context.Context, key string) error {
	err := withLockRetry(ctx, func() error {
		_, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE cache_key = ?", key)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// DeleteExpiredCache removes entries expired at now, returns the number removed
func (r *CacheRepository) DeleteExpiredCache(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	err := withLockRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE expires_at <= ?", toUnix(now))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete expired cache: %w", err)
	}
	return removed, nil
}
