package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/newsdigest/pkg/domain"
)

// HistoryRepository keeps fingerprints of delivered items for the dedup lookback window
type HistoryRepository struct {
	db *sqlx.DB
}

// seenItemSQL represents a delivered item for SQL operations
type seenItemSQL struct {
	Fingerprint string `db:"fingerprint"`
	URL         string `db:"url"`
	Source      string `db:"source"`
	Title       string `db:"title"`
	BodyHash    string `db:"body_hash"`
	SeenAt      int64  `db:"seen_at"`
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// SeenSince returns the subset of fingerprints remembered at or after since
func (r *HistoryRepository) SeenSince(ctx context.Context, fingerprints []string, since time.Time) (map[string]bool, error) {
	res := make(map[string]bool)
	if len(fingerprints) == 0 {
		return res, nil
	}

	// sqlite has a bound parameter limit, query in chunks
	const chunkSize = 500
	for start := 0; start < len(fingerprints); start += chunkSize {
		end := min(start+chunkSize, len(fingerprints))
		query, args, err := sqlx.In(
			"SELECT fingerprint FROM seen_items WHERE seen_at >= ? AND fingerprint IN (?)",
			toUnix(since), fingerprints[start:end])
		if err != nil {
			return nil, fmt.Errorf("build seen query: %w", err)
		}
		var found []string
		if err := r.db.SelectContext(ctx, &found, r.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("select seen items: %w", err)
		}
		for _, fp := range found {
			res[fp] = true
		}
	}
	return res, nil
}

// Remember records items as delivered at the given time, existing fingerprints are refreshed
func (r *HistoryRepository) Remember(ctx context.Context, items []domain.ContentItem, at time.Time) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO seen_items (fingerprint, url, source, title, body_hash, seen_at)
		VALUES (:fingerprint, :url, :source, :title, :body_hash, :seen_at)
		ON CONFLICT(fingerprint) DO UPDATE SET seen_at = excluded.seen_at
	`
	err := withLockRetry(ctx, func() error {
		tx, err := r.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck // no-op after commit

		for _, item := range items {
			row := seenItemSQL{
				Fingerprint: item.Fingerprint,
				URL:         item.URL,
				Source:      item.Source,
				Title:       item.Title,
				BodyHash:    item.BodyHash,
				SeenAt:      toUnix(at),
			}
			if _, err := tx.NamedExecContext(ctx, query, row); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("remember items: %w", err)
	}
	return nil
}

// Prune removes history older than before, returns the number removed
func (r *HistoryRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	err := withLockRetry(ctx, func() error {
		res, err := r.db.ExecContext(ctx, "DELETE FROM seen_items WHERE seen_at < ?", toUnix(before))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return removed, nil
}

// Count returns the number of remembered fingerprints
func (r *HistoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM seen_items"); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return count, nil
}
