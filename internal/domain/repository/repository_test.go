package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"cfstats/internal/common"
	"cfstats/internal/domain/model"
	"cfstats/internal/platform/database"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a scratch database when DATABASE_TEST_URL is set.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("DATABASE_TEST_URL")
	if dsn == "" {
		t.Skip("DATABASE_TEST_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.EnsureSchema(context.Background(), db))
	return db
}

func TestSnapshotRepositoryLatestAndHistory(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewPgSnapshotRepository(db)
	handle := "h" + uuid.NewString()[:8]

	base := time.Now().UTC().Truncate(time.Second)
	for i, rating := range []int{1400, 1500, 1450} {
		snap := &model.Snapshot{
			ID:        uuid.NewString(),
			Handle:    handle,
			Profile:   model.UserProfile{Handle: handle, Rating: rating},
			Stats:     model.Stats{Handle: handle, TotalSolved: i * 10},
			FetchedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Save(ctx, snap))
	}

	latest, err := repo.Latest(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, 1450, latest.Profile.Rating)

	hist, err := repo.History(ctx, handle, 2)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, []int{1450, 1500}, []int{hist[0].Rating, hist[1].Rating})

	sums, err := repo.LatestSummaries(ctx, []string{handle, "nobody-" + handle})
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, 20, sums[0].TotalSolved)

	_, err = repo.Latest(ctx, "nobody-"+handle)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTrackedHandleRepositoryIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewPgTrackedHandleRepository(db)
	handle := "T" + uuid.NewString()[:8]

	first, err := repo.Add(ctx, handle, nil)
	require.NoError(t, err)
	second, err := repo.Add(ctx, handle, nil)
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt))

	require.NoError(t, repo.Remove(ctx, handle))
	assert.ErrorIs(t, repo.Remove(ctx, handle), common.ErrNotFound)
}

func TestRefreshJobRepositoryLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewPgRefreshJobRepository(db)

	job := &model.RefreshJob{ID: uuid.NewString(), Handle: "Tourist", Reason: model.RefreshReasonManual, Status: model.JobStatusQueued}
	require.NoError(t, repo.Create(ctx, job))
	require.NoError(t, repo.IncrementAttempts(ctx, job.ID))

	msg := "boom"
	require.NoError(t, repo.UpdateStatus(ctx, job.ID, model.JobStatusFailed, &msg))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "tourist", got.Handle)
	assert.Equal(t, 1, got.Attempts)
	require.NotNil(t, got.LastError)
	assert.Equal(t, "boom", *got.LastError)
	assert.True(t, got.Done())

	assert.ErrorIs(t, repo.UpdateStatus(ctx, uuid.NewString(), model.JobStatusFailed, nil), common.ErrNotFound)
}
