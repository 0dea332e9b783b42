package memory

import (
	"context"
	"sort"
	"sync"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/normalization"
	"objkt-signal-lab/internal/storage"
)

type eventKey struct {
	tokenID    string
	sequenceID int64
}

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu      sync.RWMutex
	data    map[eventKey]domain.Event
	byToken map[string][]eventKey
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{
		data:    make(map[eventKey]domain.Event),
		byToken: make(map[string][]eventKey),
	}
}

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(_ context.Context, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Check all keys first so a duplicate leaves the store untouched
	seen := make(map[eventKey]struct{}, len(events))
	for i := range events {
		if events[i].TokenID == "" {
			return storage.ErrInvalidInput
		}
		k := eventKey{events[i].TokenID, events[i].SequenceID}
		if _, exists := s.data[k]; exists {
			return storage.ErrDuplicateKey
		}
		if _, dup := seen[k]; dup {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for i := range events {
		k := eventKey{events[i].TokenID, events[i].SequenceID}
		s.data[k] = copyEvent(events[i])
		s.byToken[k.tokenID] = append(s.byToken[k.tokenID], k)
	}
	return nil
}

// GetByToken retrieves all events of a token, ordered by (timestamp ASC, sequence_id ASC).
func (s *EventStore) GetByToken(_ context.Context, tokenID string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.byToken[tokenID]
	result := make([]domain.Event, 0, len(keys))
	for _, k := range keys {
		result = append(result, copyEvent(s.data[k]))
	}
	return normalization.SortEvents(result), nil
}

// GetMaxSequence returns the highest stored sequence_id of a token.
func (s *EventStore) GetMaxSequence(_ context.Context, tokenID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.byToken[tokenID]
	if len(keys) == 0 {
		return 0, storage.ErrNotFound
	}
	maxSeq := keys[0].sequenceID
	for _, k := range keys[1:] {
		if k.sequenceID > maxSeq {
			maxSeq = k.sequenceID
		}
	}
	return maxSeq, nil
}

// ListTokens returns every token id with stored events, ordered ASC.
func (s *EventStore) ListTokens(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.byToken))
	for tokenID := range s.byToken {
		result = append(result, tokenID)
	}
	sort.Strings(result)
	return result, nil
}

// copyEvent deep-copies the pointer and slice fields of an event.
func copyEvent(e domain.Event) domain.Event {
	if e.Creator != nil {
		c := *e.Creator
		e.Creator = &c
	}
	if e.RecipientAddress != nil {
		r := *e.RecipientAddress
		e.RecipientAddress = &r
	}
	if e.Price != nil {
		p := *e.Price
		e.Price = &p
	}
	if e.RoyaltyShares != nil {
		e.RoyaltyShares = append([]domain.RoyaltyShare(nil), e.RoyaltyShares...)
	}
	return e
}

// Verify interface compliance at compile time.
var _ storage.EventStore = (*EventStore)(nil)
