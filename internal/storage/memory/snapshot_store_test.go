package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/storage"
)

func TestSnapshotStore_InsertAndQuery(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.SignalSnapshot{
		{SnapshotID: "s1", RunID: "r1", TokenID: "b", ObservedAt: t0},
		{SnapshotID: "s2", RunID: "r1", TokenID: "a", ObservedAt: t0},
		{SnapshotID: "s3", RunID: "r2", TokenID: "a", ObservedAt: t0.Add(-time.Hour)},
	}
	if err := store.InsertBulk(ctx, snaps); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	byRun, err := store.GetByRun(ctx, "r1")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(byRun) != 2 || byRun[0].TokenID != "a" || byRun[1].TokenID != "b" {
		t.Errorf("Unexpected run snapshots: %+v", byRun)
	}

	byToken, err := store.GetByToken(ctx, "a")
	if err != nil {
		t.Fatalf("GetByToken failed: %v", err)
	}
	if len(byToken) != 2 || byToken[0].RunID != "r2" {
		t.Errorf("Expected observed_at ASC, got %+v", byToken)
	}
}

func TestSnapshotStore_DuplicateKey(t *testing.T) {
	store := NewSnapshotStore()
	ctx := context.Background()

	_ = store.InsertBulk(ctx, []*domain.SignalSnapshot{{SnapshotID: "s1", RunID: "r1", TokenID: "a"}})
	err := store.InsertBulk(ctx, []*domain.SignalSnapshot{{SnapshotID: "s1", RunID: "r1", TokenID: "a"}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if err := store.InsertBulk(ctx, []*domain.SignalSnapshot{{}}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
