package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/umputun/newsdigest/pkg/domain"
)

// RunRepository stores pipeline run reports
type RunRepository struct {
	db *sqlx.DB
}

// runSQL represents a run for SQL operations, the full report is kept as JSON
type runSQL struct {
	ID         string `db:"id"`
	Status     string `db:"status"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
	Report     string `db:"report"`
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun inserts or replaces the report of a run
func (r *RunRepository) SaveRun(ctx context.Context, report *domain.RunReport) error {
	if report == nil {
		return errors.New("nil report")
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	row := runSQL{
		ID:         report.ID,
		Status:     string(report.Status),
		StartedAt:  toUnix(report.StartedAt),
		FinishedAt: toUnix(report.FinishedAt),
		Report:     string(data),
	}
	query := `
		INSERT INTO runs (id, status, started_at, finished_at, report)
		VALUES (:id, :status, :started_at, :finished_at, :report)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			finished_at = excluded.finished_at,
			report = excluded.report
	`
	err = withLockRetry(ctx, func() error {
		_, err := r.db.NamedExecContext(ctx, query, row)
		return err
	})
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// LastRun returns the most recently started run, nil if there are none
func (r *RunRepository) LastRun(ctx context.Context) (*domain.RunReport, error) {
	var row runSQL
	err := r.db.GetContext(ctx, &row,
		"SELECT id, status, started_at, finished_at, report FROM runs ORDER BY started_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last run: %w", err)
	}
	return row.toDomain()
}

// ListRuns returns up to limit most recent runs, newest first. Items are not included.
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]domain.RunReport, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []runSQL
	if err := r.db.SelectContext(ctx, &rows,
		"SELECT id, status, started_at, finished_at, report FROM runs ORDER BY started_at DESC LIMIT ?", limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	res := make([]domain.RunReport, 0, len(rows))
	for _, row := range rows {
		rep, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		rep.Items = nil
		res = append(res, *rep)
	}
	return res, nil
}

func (r runSQL) toDomain() (*domain.RunReport, error) {
	var rep domain.RunReport
	if err := json.Unmarshal([]byte(r.Report), &rep); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", r.ID, err)
	}
	if rep.Dropped == nil {
		rep.Dropped = map[domain.DropReason]int{}
	}
	return &rep, nil
}
