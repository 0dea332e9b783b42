package ingestion

import (
	"context"
	"errors"
	"testing"
	"time"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/normalization"
	"objkt-signal-lab/internal/storage"
	"objkt-signal-lab/internal/storage/memory"
)

var base = time.Date(2023, 6, 1, 10, 0, 0, 0, time.UTC)

// stubSource returns canned histories per token.
type stubSource struct {
	histories map[string][]domain.Event
	err       error
	calls     int
}

func (s *stubSource) FetchTokenHistory(_ context.Context, tokenID string) ([]domain.Event, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.histories[tokenID], nil
}

// orderValidatingEventStore rejects batches that are not in deterministic order.
type orderValidatingEventStore struct {
	storage.EventStore
}

func (s *orderValidatingEventStore) InsertBulk(ctx context.Context, events []domain.Event) error {
	if err := normalization.ValidateEventOrdering(events); err != nil {
		return err
	}
	return s.EventStore.InsertBulk(ctx, events)
}

// failingEventStore fails every write.
type failingEventStore struct {
	storage.EventStore
}

func (s *failingEventStore) InsertBulk(context.Context, []domain.Event) error {
	return errors.New("disk full")
}

func history(tokenID string, seqs ...int64) []domain.Event {
	events := make([]domain.Event, 0, len(seqs))
	for i := len(seqs) - 1; i >= 0; i-- { // reversed on purpose
		events = append(events, domain.Event{
			TokenID:         tokenID,
			SequenceID:      seqs[i],
			Timestamp:       base.Add(time.Duration(seqs[i]) * time.Minute),
			MarketplaceKind: domain.MarketplaceKindListBuy,
		})
	}
	return events
}

func TestRecordingFetcher_RecordsOrderedHistory(t *testing.T) {
	store := memory.NewEventStore()
	src := &stubSource{histories: map[string][]domain.Event{"1": history("1", 1, 2, 3)}}
	fetcher := NewRecordingFetcher(RecorderOptions{
		Source: src,
		Store:  &orderValidatingEventStore{EventStore: store},
	})

	ctx := context.Background()
	events, err := fetcher.FetchTokenHistory(ctx, "1")
	if err != nil {
		t.Fatalf("FetchTokenHistory failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected upstream history to be returned, got %d events", len(events))
	}

	stored, _ := store.GetByToken(ctx, "1")
	if len(stored) != 3 {
		t.Fatalf("expected 3 recorded events, got %d", len(stored))
	}
}

func TestRecordingFetcher_AppendsOnlyUnseen(t *testing.T) {
	store := memory.NewEventStore()
	src := &stubSource{histories: map[string][]domain.Event{"1": history("1", 1, 2)}}
	fetcher := NewRecordingFetcher(RecorderOptions{Source: src, Store: store})
	ctx := context.Background()

	if _, err := fetcher.FetchTokenHistory(ctx, "1"); err != nil {
		t.Fatal(err)
	}

	// Second fetch sees two new events
	src.histories["1"] = history("1", 1, 2, 3, 4)
	n, err := fetcher.Record(ctx, "1", src.histories["1"])
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 new events, got %d", n)
	}

	// Nothing new the third time
	n, err = fetcher.Record(ctx, "1", src.histories["1"])
	if err != nil || n != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}

	maxSeq, _ := store.GetMaxSequence(ctx, "1")
	if maxSeq != 4 {
		t.Errorf("expected max sequence 4, got %d", maxSeq)
	}
}

func TestRecordingFetcher_FillsMissingTokenID(t *testing.T) {
	store := memory.NewEventStore()
	fetcher := NewRecordingFetcher(RecorderOptions{Source: &stubSource{}, Store: store})
	ctx := context.Background()

	if _, err := fetcher.Record(ctx, "77", history("", 5)); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	stored, _ := store.GetByToken(ctx, "77")
	if len(stored) != 1 || stored[0].TokenID != "77" {
		t.Errorf("expected event stored under token 77, got %+v", stored)
	}
}

func TestRecordingFetcher_StoreFailureIsNotFatal(t *testing.T) {
	src := &stubSource{histories: map[string][]domain.Event{"1": history("1", 1)}}
	fetcher := NewRecordingFetcher(RecorderOptions{
		Source: src,
		Store:  &failingEventStore{EventStore: memory.NewEventStore()},
	})

	events, err := fetcher.FetchTokenHistory(context.Background(), "1")
	if err != nil {
		t.Fatalf("expected recording failure to be swallowed, got %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestRecordingFetcher_SourceError(t *testing.T) {
	boom := errors.New("upstream down")
	fetcher := NewRecordingFetcher(RecorderOptions{
		Source: &stubSource{err: boom},
		Store:  memory.NewEventStore(),
	})

	if _, err := fetcher.FetchTokenHistory(context.Background(), "1"); !errors.Is(err, boom) {
		t.Errorf("expected source error, got %v", err)
	}
}
