package memory

import (
	"context"
	"sort"
	"sync"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SignalSnapshot // keyed by snapshot_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string]*domain.SignalSnapshot),
	}
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate snapshot_id.
func (s *SnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.SignalSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.SnapshotID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[snap.SnapshotID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, dup := seen[snap.SnapshotID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[snap.SnapshotID] = struct{}{}
	}

	for _, snap := range snapshots {
		snapCopy := *snap
		s.data[snap.SnapshotID] = &snapCopy
	}
	return nil
}

// GetByRun retrieves all snapshots of a run, ordered by token_id ASC.
func (s *SnapshotStore) GetByRun(_ context.Context, runID string) ([]*domain.SignalSnapshot, error) {
	result := s.filter(func(snap *domain.SignalSnapshot) bool { return snap.RunID == runID })

	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenID < result[j].TokenID
	})
	return result, nil
}

// GetByToken retrieves all snapshots of a token, ordered by observed_at ASC.
func (s *SnapshotStore) GetByToken(_ context.Context, tokenID string) ([]*domain.SignalSnapshot, error) {
	result := s.filter(func(snap *domain.SignalSnapshot) bool { return snap.TokenID == tokenID })

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ObservedAt.Equal(result[j].ObservedAt) {
			return result[i].ObservedAt.Before(result[j].ObservedAt)
		}
		return result[i].SnapshotID < result[j].SnapshotID
	})
	return result, nil
}

func (s *SnapshotStore) filter(keep func(*domain.SignalSnapshot) bool) []*domain.SignalSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SignalSnapshot
	for _, snap := range s.data {
		if keep(snap) {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}
	return result
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)
