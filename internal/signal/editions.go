package signal

import "objkt-signal-lab/internal/domain"

// NetListedEditions nets the editions the artist listed against the editions the artist withdrew.
// Listings by any other creator are ignored. The result is not clamped and may be negative.
func NetListedEditions(events []domain.Event, artist domain.Creator) int64 {
	var net int64
	for i := range events {
		e := &events[i]
		if e.CreatorAddress() != artist.Address {
			continue
		}
		switch e.MarketplaceKind {
		case domain.MarketplaceKindListCreate:
			net += e.Amount
		case domain.MarketplaceKindListCancel:
			net -= e.Amount
		}
	}
	return net
}
