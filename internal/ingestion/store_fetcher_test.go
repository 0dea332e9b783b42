package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/storage"
	"objkt-signal-lab/internal/storage/memory"
)

func TestStoreFetcher_ReplaysRecordedHistory(t *testing.T) {
	store := memory.NewEventStore()
	ctx := context.Background()
	for _, id := range []string{"3", "1", "2"} {
		if err := store.InsertBulk(ctx, history(id, 1, 2)); err != nil {
			t.Fatal(err)
		}
	}

	f := NewStoreFetcher(store)

	tokens, err := f.DiscoverCandidateTokens(ctx, 2)
	if err != nil {
		t.Fatalf("DiscoverCandidateTokens failed: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "1" || tokens[1] != "2" {
		t.Errorf("expected [1 2], got %v", tokens)
	}

	events, err := f.FetchTokenHistory(ctx, "3")
	if err != nil {
		t.Fatalf("FetchTokenHistory failed: %v", err)
	}
	if len(events) != 2 || events[0].SequenceID != 1 {
		t.Errorf("expected ordered history, got %+v", events)
	}
}

func TestStoreFetcher_UnknownToken(t *testing.T) {
	f := NewStoreFetcher(memory.NewEventStore())
	_, err := f.FetchTokenHistory(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreFetcher_DiscoversMostRecentlyPurchasedFirst(t *testing.T) {
	store := memory.NewEventStore()
	ctx := context.Background()

	// "1" was bought last, "2" has the newest event overall but its newest buy is older.
	recorded := map[string][]domain.Event{
		"1": {
			{TokenID: "1", SequenceID: 1, Timestamp: base.Add(30 * time.Minute), MarketplaceKind: domain.MarketplaceKindListBuy},
		},
		"2": {
			{TokenID: "2", SequenceID: 2, Timestamp: base.Add(10 * time.Minute), MarketplaceKind: domain.MarketplaceKindListBuy},
			{TokenID: "2", SequenceID: 3, Timestamp: base.Add(60 * time.Minute), MarketplaceKind: domain.MarketplaceKindListCreate},
		},
		"3": {
			{TokenID: "3", SequenceID: 4, Timestamp: base.Add(20 * time.Minute), MarketplaceKind: domain.MarketplaceKindListBuy},
		},
	}
	for _, events := range recorded {
		if err := store.InsertBulk(ctx, events); err != nil {
			t.Fatal(err)
		}
	}

	f := NewStoreFetcher(store)

	tokens, err := f.DiscoverCandidateTokens(ctx, 0)
	if err != nil {
		t.Fatalf("DiscoverCandidateTokens failed: %v", err)
	}
	want := []string{"1", "3", "2"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tokens)
		}
	}

	tokens, err = f.DiscoverCandidateTokens(ctx, 1)
	if err != nil {
		t.Fatalf("DiscoverCandidateTokens failed: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "1" {
		t.Errorf("expected [1], got %v", tokens)
	}
}
