package signal

import (
	"fmt"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/normalization"
)

// Evaluate folds one token's event history into a TokenSignal.
//
// The history is sorted on a copy before any derivation. On ErrDegenerateListing and
// ErrUnavailable the computed signal is returned alongside the error so callers can
// report it; on every other error the signal is nil.
func Evaluate(tokenID string, events []domain.Event, selfAddress string, th Thresholds) (*domain.TokenSignal, error) {
	sorted := normalization.SortEvents(events)

	if err := validateKinds(sorted); err != nil {
		return nil, err
	}

	artist, err := ResolveArtist(sorted)
	if err != nil {
		return nil, err
	}

	if IsAlreadyHeld(sorted, selfAddress) {
		return nil, ErrAlreadyHeld
	}

	listed := NetListedEditions(sorted, artist)
	sold := PurchaseCount(sorted)

	sig := &domain.TokenSignal{
		TokenID:        tokenID,
		Artist:         artist,
		Price:          FirstSalePrice(sorted),
		RoyaltyPercent: RoyaltyPercent(sorted),
		EditionsListed: listed,
		EditionsSold:   sold,
		LastEventAt:    sorted[len(sorted)-1].Timestamp,
	}
	fillTokenContext(sig, sorted)

	if interval, ok := AverageCollectInterval(PurchaseTimestampsMinutes(sorted)); ok {
		sig.AvgCollectIntervalMinutes = &interval
	}

	// Division guard: zero listed editions reports a zero rate and is never available.
	if listed == 0 {
		return sig, ErrDegenerateListing
	}
	sig.SoldRate = float64(sold) / float64(listed)

	sig.IsAvailable = IsAvailable(listed, sold, th)
	if !sig.IsAvailable {
		return sig, fmt.Errorf("%w: listed=%d sold=%d", ErrUnavailable, listed, sold)
	}
	return sig, nil
}

func validateKinds(events []domain.Event) error {
	for i := range events {
		e := &events[i]
		if !e.Kind.IsValid() {
			return fmt.Errorf("%w: event %d has kind %q", ErrMalformedRecord, e.SequenceID, e.Kind)
		}
		if !e.MarketplaceKind.IsValid() {
			return fmt.Errorf("%w: event %d has marketplace kind %q", ErrMalformedRecord, e.SequenceID, e.MarketplaceKind)
		}
	}
	return nil
}

// fillTokenContext copies the token metadata that the feed repeats on every record.
func fillTokenContext(sig *domain.TokenSignal, events []domain.Event) {
	for i := range events {
		e := &events[i]
		if sig.TokenName == "" {
			sig.TokenName = e.TokenName
		}
		if sig.FAContract == "" {
			sig.FAContract = e.FAContract
		}
		if e.MarketplaceKind == domain.MarketplaceKindListCreate && sig.FirstListedAt.IsZero() {
			sig.FirstListedAt = e.Timestamp
			sig.Marketplace = e.Marketplace
		}
	}
}
