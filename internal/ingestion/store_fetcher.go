package ingestion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/storage"
)

// StoreFetcher serves recorded histories, acting as both candidate source and history fetcher.
type StoreFetcher struct {
	store storage.EventStore
}

// NewStoreFetcher creates a new StoreFetcher.
func NewStoreFetcher(store storage.EventStore) *StoreFetcher {
	return &StoreFetcher{store: store}
}

// DiscoverCandidateTokens returns up to limit recorded token ids, most recently
// purchased first, matching live discovery. Tokens without a recorded purchase rank by
// their latest event; ties keep token id order.
func (f *StoreFetcher) DiscoverCandidateTokens(ctx context.Context, limit int) ([]string, error) {
	tokens, err := f.store.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recorded tokens: %w", err)
	}

	latest := make(map[string]time.Time, len(tokens))
	for _, tokenID := range tokens {
		events, err := f.store.GetByToken(ctx, tokenID)
		if err != nil {
			return nil, fmt.Errorf("get recorded history %s: %w", tokenID, err)
		}
		latest[tokenID] = lastActivity(events)
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return latest[tokens[i]].After(latest[tokens[j]])
	})

	if limit > 0 && len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens, nil
}

// lastActivity returns the latest purchase time, or the latest event time when the
// history holds no purchase.
func lastActivity(events []domain.Event) time.Time {
	var lastBuy, lastEvent time.Time
	for _, e := range events {
		if e.Timestamp.After(lastEvent) {
			lastEvent = e.Timestamp
		}
		if e.MarketplaceKind == domain.MarketplaceKindListBuy && e.Timestamp.After(lastBuy) {
			lastBuy = e.Timestamp
		}
	}
	if lastBuy.IsZero() {
		return lastEvent
	}
	return lastBuy
}

// FetchTokenHistory returns the recorded history of a token.
// Returns storage.ErrNotFound when nothing was recorded.
func (f *StoreFetcher) FetchTokenHistory(ctx context.Context, tokenID string) ([]domain.Event, error) {
	events, err := f.store.GetByToken(ctx, tokenID)
	if err != nil {
		return nil, fmt.Errorf("get recorded history: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("token %s: %w", tokenID, storage.ErrNotFound)
	}
	return events, nil
}
