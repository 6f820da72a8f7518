package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"cfstats/internal/common"
	"cfstats/internal/domain/model"
)

type RefreshJobRepository interface {
	Create(ctx context.Context, job *model.RefreshJob) error
	GetByID(ctx context.Context, id string) (*model.RefreshJob, error)
	UpdateStatus(ctx context.Context, id, status string, lastError *string) error
	IncrementAttempts(ctx context.Context, id string) error
	// Complete marks the job Completed and links the snapshot it produced.
	Complete(ctx context.Context, id, snapshotID string) error
}

type pgRefreshJobRepository struct {
	db *sql.DB
}

func NewPgRefreshJobRepository(db *sql.DB) RefreshJobRepository {
	return &pgRefreshJobRepository{db: db}
}

func (r *pgRefreshJobRepository) Create(ctx context.Context, job *model.RefreshJob) error {
	query := `INSERT INTO refresh_jobs (id, handle, reason, status)
	          VALUES ($1, $2, $3, $4)
	          RETURNING attempts, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, job.ID, strings.ToLower(job.Handle), job.Reason, job.Status).
		Scan(&job.Attempts, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgRefreshJobRepository.Create: %w", err)
	}
	return nil
}

func (r *pgRefreshJobRepository) GetByID(ctx context.Context, id string) (*model.RefreshJob, error) {
	query := `SELECT id, handle, reason, status, attempts, last_error, snapshot_id, created_at, updated_at
	          FROM refresh_jobs WHERE id = $1`
	job := &model.RefreshJob{}
	var lastError, snapshotID sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.Handle, &job.Reason, &job.Status, &job.Attempts,
		&lastError, &snapshotID, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRefreshJobRepository.GetByID: %w", err)
	}
	if lastError.Valid {
		job.LastError = &lastError.String
	}
	if snapshotID.Valid {
		job.SnapshotID = &snapshotID.String
	}
	return job, nil
}

func (r *pgRefreshJobRepository) UpdateStatus(ctx context.Context, id, status string, lastError *string) error {
	query := `UPDATE refresh_jobs SET status = $2, last_error = $3, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	return r.exec(ctx, "UpdateStatus", query, id, status, lastError)
}

func (r *pgRefreshJobRepository) IncrementAttempts(ctx context.Context, id string) error {
	query := `UPDATE refresh_jobs SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	return r.exec(ctx, "IncrementAttempts", query, id)
}

func (r *pgRefreshJobRepository) Complete(ctx context.Context, id, snapshotID string) error {
	query := `UPDATE refresh_jobs SET status = $2, snapshot_id = $3, last_error = NULL, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1`
	return r.exec(ctx, "Complete", query, id, model.JobStatusCompleted, snapshotID)
}

func (r *pgRefreshJobRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("pgRefreshJobRepository.%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
