package database

import (
	"context"
	"database/sql"
	"fmt"

	"qualification_reminder/internal/domain/run"

	"github.com/google/uuid"
	"github.com/lib/pq" // For pq.Array
)

type PostgresRunRepository struct {
	db *sql.DB
}

func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) Create(ctx context.Context, rn *run.Run) error {
	query := `INSERT INTO routine_runs (id, kind, reference_date, status, processed, sent, failures, error, started_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		rn.ID, rn.Kind, rn.ReferenceDate, rn.Status, rn.Processed, rn.Sent,
		pq.Array(failuresOrEmpty(rn.Failures)), rn.Error, rn.StartedAt)
	if err != nil {
		return fmt.Errorf("error creating routine run: %w", err)
	}
	return nil
}

func (r *PostgresRunRepository) Update(ctx context.Context, rn *run.Run) error {
	query := `UPDATE routine_runs
              SET status = $1, processed = $2, sent = $3, failures = $4, error = $5, finished_at = $6
              WHERE id = $7`
	var finishedAt sql.NullTime
	if !rn.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: rn.FinishedAt, Valid: true}
	}
	result, err := r.db.ExecContext(ctx, query,
		rn.Status, rn.Processed, rn.Sent, pq.Array(failuresOrEmpty(rn.Failures)), rn.Error, finishedAt, rn.ID)
	if err != nil {
		return fmt.Errorf("error updating routine run: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected for routine run update: %w", err)
	}
	if rowsAffected == 0 {
		return run.ErrRunNotFound
	}
	return nil
}

const selectRunColumns = `SELECT id, kind, reference_date, status, processed, sent, failures, error, started_at, finished_at FROM routine_runs`

func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*run.Run, error) {
	row := r.db.QueryRowContext(ctx, selectRunColumns+` WHERE id = $1`, id)
	rn, err := scanRun(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, run.ErrRunNotFound
		}
		return nil, fmt.Errorf("error getting routine run by ID: %w", err)
	}
	return rn, nil
}

// ListRecent returns the latest runs of kind, newest first. An empty kind lists every kind.
func (r *PostgresRunRepository) ListRecent(ctx context.Context, kind run.Kind, limit int) ([]*run.Run, error) {
	query := selectRunColumns + ` WHERE ($1::text = '' OR kind = $1::text) ORDER BY started_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("error listing routine runs: %w", err)
	}
	defer rows.Close()

	var runs []*run.Run
	for rows.Next() {
		rn, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning routine run: %w", err)
		}
		runs = append(runs, rn)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating routine runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*run.Run, error) {
	rn := &run.Run{}
	var finishedAt sql.NullTime
	err := s.Scan(&rn.ID, &rn.Kind, &rn.ReferenceDate, &rn.Status, &rn.Processed, &rn.Sent,
		pq.Array(&rn.Failures), &rn.Error, &rn.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	if finishedAt.Valid {
		rn.FinishedAt = finishedAt.Time
	}
	return rn, nil
}

func failuresOrEmpty(failures []string) []string {
	if failures == nil {
		return []string{}
	}
	return failures
}
