package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"cfstats/internal/common"
	"cfstats/internal/domain/model"
)

type TrackedHandleRepository interface {
	// Add is idempotent; re-adding keeps the original row.
	Add(ctx context.Context, handle string, addedBy *string) (*model.TrackedHandle, error)
	Remove(ctx context.Context, handle string) error
	List(ctx context.Context) ([]model.TrackedHandle, error)
}

type pgTrackedHandleRepository struct {
	db *sql.DB
}

func NewPgTrackedHandleRepository(db *sql.DB) TrackedHandleRepository {
	return &pgTrackedHandleRepository{db: db}
}

func (r *pgTrackedHandleRepository) Add(ctx context.Context, handle string, addedBy *string) (*model.TrackedHandle, error) {
	query := `INSERT INTO tracked_handles (handle, added_by) VALUES ($1, $2)
	          ON CONFLICT (handle) DO UPDATE SET handle = EXCLUDED.handle
	          RETURNING handle, added_by, created_at`
	th := &model.TrackedHandle{}
	var addedByNull sql.NullString
	err := r.db.QueryRowContext(ctx, query, strings.ToLower(handle), addedBy).Scan(&th.Handle, &addedByNull, &th.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("pgTrackedHandleRepository.Add: %w", err)
	}
	if addedByNull.Valid {
		th.AddedBy = &addedByNull.String
	}
	return th, nil
}

func (r *pgTrackedHandleRepository) Remove(ctx context.Context, handle string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tracked_handles WHERE handle = $1`, strings.ToLower(handle))
	if err != nil {
		return fmt.Errorf("pgTrackedHandleRepository.Remove: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgTrackedHandleRepository.Remove: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgTrackedHandleRepository) List(ctx context.Context) ([]model.TrackedHandle, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT handle, added_by, created_at FROM tracked_handles ORDER BY created_at, handle`)
	if err != nil {
		return nil, fmt.Errorf("pgTrackedHandleRepository.List: %w", err)
	}
	defer rows.Close()

	var out []model.TrackedHandle
	for rows.Next() {
		var th model.TrackedHandle
		var addedBy sql.NullString
		if err := rows.Scan(&th.Handle, &addedBy, &th.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgTrackedHandleRepository.List scan: %w", err)
		}
		if addedBy.Valid {
			th.AddedBy = &addedBy.String
		}
		out = append(out, th)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgTrackedHandleRepository.List rows: %w", err)
	}
	return out, nil
}
