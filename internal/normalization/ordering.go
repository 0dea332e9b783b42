package normalization

import (
	"errors"
	"sort"

	"objkt-signal-lab/internal/domain"
)

// ErrInvalidOrdering is returned when events are not properly ordered.
var ErrInvalidOrdering = errors.New("events are not in deterministic order")

// SortEvents returns a copy of events ordered by (timestamp ASC, sequence_id ASC).
// The input slice is left untouched.
func SortEvents(events []domain.Event) []domain.Event {
	if len(events) == 0 {
		return nil
	}
	sorted := make([]domain.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareEvents(&sorted[i], &sorted[j]) < 0
	})
	return sorted
}

// ValidateEventOrdering checks if events are strictly ordered.
// Returns ErrInvalidOrdering if not.
func ValidateEventOrdering(events []domain.Event) error {
	for i := 1; i < len(events); i++ {
		if compareEvents(&events[i-1], &events[i]) >= 0 {
			return ErrInvalidOrdering
		}
	}
	return nil
}

// DedupeEvents drops repeated sequence ids from an ordered slice, keeping the first.
// Used when histories from several sources are merged.
func DedupeEvents(events []domain.Event) []domain.Event {
	if len(events) == 0 {
		return events
	}
	seen := make(map[int64]struct{}, len(events))
	out := events[:0:0]
	for _, e := range events {
		if _, ok := seen[e.SequenceID]; ok {
			continue
		}
		seen[e.SequenceID] = struct{}{}
		out = append(out, e)
	}
	return out
}

// compareEvents returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
//
// Order: (timestamp ASC, sequence_id ASC)
func compareEvents(a, b *domain.Event) int {
	if !a.Timestamp.Equal(b.Timestamp) {
		if a.Timestamp.Before(b.Timestamp) {
			return -1
		}
		return 1
	}
	if a.SequenceID != b.SequenceID {
		if a.SequenceID < b.SequenceID {
			return -1
		}
		return 1
	}
	return 0
}
