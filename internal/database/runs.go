package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"facility-locator/internal/models"
)

// RunRepository handles solver run history persistence
type RunRepository interface {
	Create(ctx context.Context, run *models.RunRecord) (*models.RunRecord, error)
	List(ctx context.Context, limit, offset int) ([]models.RunRecord, int, error)
	GetByID(ctx context.Context, id int64) (*models.RunRecord, error)
	GetByRunID(ctx context.Context, runID string) (*models.RunRecord, error)
}

type runRepository struct {
	db *sql.DB
}

const runColumns = `id, run_id, mode, facility_count, demand_count,
	cost_current, cost_previous, cost_delta, coin, snapshot, created_at`

func (r *runRepository) Create(ctx context.Context, run *models.RunRecord) (*models.RunRecord, error) {
	query := `
		INSERT INTO runs (run_id, mode, facility_count, demand_count,
		                  cost_current, cost_previous, cost_delta, coin, snapshot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING ` + runColumns

	row := r.db.QueryRowContext(ctx, query,
		run.RunID, string(run.Mode), run.FacilityCount, run.DemandCount,
		run.CostCurrent, run.CostPrevious, run.CostDelta, run.Coin, string(run.Snapshot),
	)
	created, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return created, nil
}

func (r *runRepository) List(ctx context.Context, limit, offset int) ([]models.RunRecord, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count runs: %w", err)
	}

	query := `
		SELECT ` + runColumns + `
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RunRecord{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, total, nil
}

func (r *runRepository) GetByID(ctx context.Context, id int64) (*models.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (r *runRepository) GetByRunID(ctx context.Context, runID string) (*models.RunRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var (
		run      models.RunRecord
		mode     string
		snapshot string
	)
	err := row.Scan(
		&run.ID, &run.RunID, &mode, &run.FacilityCount, &run.DemandCount,
		&run.CostCurrent, &run.CostPrevious, &run.CostDelta, &run.Coin, &snapshot, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.Mode = models.SolveMode(mode)
	run.Snapshot = []byte(snapshot)
	return &run, nil
}
