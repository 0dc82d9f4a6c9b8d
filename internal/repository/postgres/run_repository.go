package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/renatond/dbi-replenishment/internal/domain"
)

// RunRepository persists replenishment run history.
type RunRepository interface {
	Create(ctx context.Context, location string) (int64, error)
	Complete(ctx context.Context, run *domain.Run) error
	Fail(ctx context.Context, id int64, message string) error
	GetByID(ctx context.Context, id int64) (*domain.Run, error)
	Latest(ctx context.Context, location string) (*domain.Run, error)
	List(ctx context.Context, location string, limit int) ([]*domain.Run, error)
}

type runRepository struct {
	db *DB
}

func NewRunRepository(db *DB) RunRepository {
	return &runRepository{db: db}
}

// Create inserts a new run in running state and returns its id.
func (r *runRepository) Create(ctx context.Context, location string) (int64, error) {
	var id int64
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO runs (location, status, started_at)
			VALUES ($1, $2, $3)
			RETURNING id
		`
		return tx.QueryRowContext(ctx, query, location, domain.RunRunning, time.Now()).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// Complete records the output counts and marks the run completed.
func (r *runRepository) Complete(ctx context.Context, run *domain.Run) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE runs
			SET status = $2,
			    total_skus = $3,
			    po_lines = $4,
			    assemblies = $5,
			    transfers = $6,
			    excluded = $7,
			    output_file = $8,
			    completed_at = $9
			WHERE id = $1
		`
		_, err := tx.ExecContext(ctx, query,
			run.ID,
			domain.RunCompleted,
			run.TotalSKUs,
			run.POLines,
			run.Assemblies,
			run.Transfers,
			run.Excluded,
			run.OutputFile,
			time.Now(),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to complete run %d: %w", run.ID, err)
	}
	return nil
}

// Fail marks the run failed with the given message.
func (r *runRepository) Fail(ctx context.Context, id int64, message string) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE runs
			SET status = $2, error_message = $3, completed_at = $4
			WHERE id = $1
		`
		_, err := tx.ExecContext(ctx, query, id, domain.RunFailed, message, time.Now())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to mark run %d failed: %w", id, err)
	}
	return nil
}

func (r *runRepository) GetByID(ctx context.Context, id int64) (*domain.Run, error) {
	query := `
		SELECT id, location, status, total_skus, po_lines, assemblies,
		       transfers, excluded, COALESCE(output_file, '') AS output_file,
		       COALESCE(error_message, '') AS error_message,
		       started_at, completed_at
		FROM runs
		WHERE id = $1
	`
	var run domain.Run
	if err := sqlx.GetContext(ctx, r.db, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run %d: %w", id, err)
	}
	return &run, nil
}

// Latest returns the most recent completed run for a location, nil when the
// location has no history yet.
func (r *runRepository) Latest(ctx context.Context, location string) (*domain.Run, error) {
	query := `
		SELECT id, location, status, total_skus, po_lines, assemblies,
		       transfers, excluded, COALESCE(output_file, '') AS output_file,
		       COALESCE(error_message, '') AS error_message,
		       started_at, completed_at
		FROM runs
		WHERE location = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1
	`
	var run domain.Run
	if err := sqlx.GetContext(ctx, r.db, &run, query, location, domain.RunCompleted); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest run for %s: %w", location, err)
	}
	return &run, nil
}

func (r *runRepository) List(ctx context.Context, location string, limit int) ([]*domain.Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, location, status, total_skus, po_lines, assemblies,
		       transfers, excluded, COALESCE(output_file, '') AS output_file,
		       COALESCE(error_message, '') AS error_message,
		       started_at, completed_at
		FROM runs
		WHERE ($1 = '' OR location = $1)
		ORDER BY started_at DESC
		LIMIT $2
	`
	var runs []*domain.Run
	if err := sqlx.SelectContext(ctx, r.db, &runs, query, location, limit); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}
