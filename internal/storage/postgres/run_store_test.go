package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/storage"
)

func TestRunStore_InsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	run := &domain.RunSummary{
		RunID:      "run-1",
		StartedAt:  t0,
		FinishedAt: t0.Add(3 * time.Second),
		Candidates: 30,
		Accepted:   4,
		Skipped: map[domain.SkipReason]int{
			domain.SkipReasonUnavailable:       20,
			domain.SkipReasonDegenerateListing: 6,
		},
		ArchiveKey: "runs/2023/04/02/run-1.json",
	}
	require.NoError(t, store.Insert(ctx, run))

	got, err := store.GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Candidates, got.Candidates)
	assert.Equal(t, run.Accepted, got.Accepted)
	assert.Equal(t, run.Skipped, got.Skipped)
	assert.Equal(t, run.ArchiveKey, got.ArchiveKey)
	assert.True(t, run.StartedAt.Equal(got.StartedAt))

	err = store.Insert(ctx, run)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestRunStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewRunStore(pool).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRunStore_ListRecent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewRunStore(pool)

	for i, id := range []string{"r1", "r2", "r3"} {
		start := t0.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Insert(ctx, &domain.RunSummary{
			RunID: id, StartedAt: start, FinishedAt: start.Add(time.Second),
		}))
	}

	runs, err := store.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].RunID)
	assert.Equal(t, "r2", runs[1].RunID)
	assert.Empty(t, runs[0].Skipped)
}
