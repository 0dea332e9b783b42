package signal

import (
	"fmt"

	"objkt-signal-lab/internal/domain"
)

// ResolveArtist returns the creator of the first LIST_CREATE event.
// Events must be sorted ascending.
func ResolveArtist(events []domain.Event) (domain.Creator, error) {
	for i := range events {
		e := &events[i]
		if e.MarketplaceKind != domain.MarketplaceKindListCreate {
			continue
		}
		if e.Creator == nil || e.Creator.Address == "" {
			return domain.Creator{}, fmt.Errorf("%w: listing %d has no creator address", ErrMalformedRecord, e.SequenceID)
		}
		return *e.Creator, nil
	}
	return domain.Creator{}, ErrArtistNotFound
}
