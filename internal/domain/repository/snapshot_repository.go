package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cfstats/internal/common"
	"cfstats/internal/domain/model"
)

type SnapshotRepository interface {
	Save(ctx context.Context, snap *model.Snapshot) error
	Latest(ctx context.Context, handle string) (*model.Snapshot, error)
	// History lists summaries newest first.
	History(ctx context.Context, handle string, limit int) ([]model.SnapshotSummary, error)
	// LatestSummaries returns the newest summary of every handle that has one.
	LatestSummaries(ctx context.Context, handles []string) ([]model.SnapshotSummary, error)
}

type pgSnapshotRepository struct {
	db *sql.DB
}

func NewPgSnapshotRepository(db *sql.DB) SnapshotRepository {
	return &pgSnapshotRepository{db: db}
}

func (r *pgSnapshotRepository) Save(ctx context.Context, snap *model.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("pgSnapshotRepository.Save marshal: %w", err)
	}
	query := `INSERT INTO snapshots (id, handle, rating, max_rating, rank, total_solved, payload, fetched_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.db.ExecContext(ctx, query,
		snap.ID, strings.ToLower(snap.Handle), snap.Profile.Rating, snap.Profile.MaxRating,
		snap.Profile.Rank, snap.Stats.TotalSolved, payload, snap.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("pgSnapshotRepository.Save: %w", err)
	}
	return nil
}

func (r *pgSnapshotRepository) Latest(ctx context.Context, handle string) (*model.Snapshot, error) {
	query := `SELECT payload FROM snapshots WHERE handle = $1 ORDER BY fetched_at DESC LIMIT 1`
	var payload []byte
	if err := r.db.QueryRowContext(ctx, query, strings.ToLower(handle)).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSnapshotRepository.Latest: %w", err)
	}
	snap := &model.Snapshot{}
	if err := json.Unmarshal(payload, snap); err != nil {
		return nil, fmt.Errorf("pgSnapshotRepository.Latest unmarshal: %w", err)
	}
	return snap, nil
}

func (r *pgSnapshotRepository) History(ctx context.Context, handle string, limit int) ([]model.SnapshotSummary, error) {
	query := `SELECT id, payload->>'handle', rating, max_rating, rank, total_solved, fetched_at
	          FROM snapshots WHERE handle = $1 ORDER BY fetched_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, strings.ToLower(handle), limit)
	if err != nil {
		return nil, fmt.Errorf("pgSnapshotRepository.History: %w", err)
	}
	return scanSummaries(rows, "History")
}

func (r *pgSnapshotRepository) LatestSummaries(ctx context.Context, handles []string) ([]model.SnapshotSummary, error) {
	lowered := make([]string, len(handles))
	for i, h := range handles {
		lowered[i] = strings.ToLower(h)
	}
	query := `SELECT DISTINCT ON (handle) id, payload->>'handle', rating, max_rating, rank, total_solved, fetched_at
	          FROM snapshots WHERE handle = ANY($1) ORDER BY handle, fetched_at DESC`
	rows, err := r.db.QueryContext(ctx, query, lowered)
	if err != nil {
		return nil, fmt.Errorf("pgSnapshotRepository.LatestSummaries: %w", err)
	}
	return scanSummaries(rows, "LatestSummaries")
}

func scanSummaries(rows *sql.Rows, op string) ([]model.SnapshotSummary, error) {
	defer rows.Close()
	var out []model.SnapshotSummary
	for rows.Next() {
		var s model.SnapshotSummary
		if err := rows.Scan(&s.ID, &s.Handle, &s.Rating, &s.MaxRating, &s.Rank, &s.TotalSolved, &s.FetchedAt); err != nil {
			return nil, fmt.Errorf("pgSnapshotRepository.%s scan: %w", op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgSnapshotRepository.%s rows: %w", op, err)
	}
	return out, nil
}
