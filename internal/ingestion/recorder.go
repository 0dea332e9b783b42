// Package ingestion mirrors fetched token histories into the event store
// and serves stored histories back to the pipeline for offline runs.
package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/normalization"
	"objkt-signal-lab/internal/storage"
)

// HistorySource returns the complete event history of one token.
type HistorySource interface {
	FetchTokenHistory(ctx context.Context, tokenID string) ([]domain.Event, error)
}

// RecordingFetcher wraps a HistorySource and appends every event it has not stored yet.
// Recording is best-effort: store failures are logged and the fetched history is still returned.
type RecordingFetcher struct {
	source HistorySource
	store  storage.EventStore
	log    *logrus.Entry
}

// RecorderOptions contains configuration for creating a RecordingFetcher.
type RecorderOptions struct {
	Source HistorySource
	Store  storage.EventStore
	Logger *logrus.Entry
}

// NewRecordingFetcher creates a new RecordingFetcher.
func NewRecordingFetcher(opts RecorderOptions) *RecordingFetcher {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &RecordingFetcher{
		source: opts.Source,
		store:  opts.Store,
		log:    logger.WithField("component", "ingestion"),
	}
}

// FetchTokenHistory fetches from the source and records unseen events.
func (r *RecordingFetcher) FetchTokenHistory(ctx context.Context, tokenID string) ([]domain.Event, error) {
	events, err := r.source.FetchTokenHistory(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	n, err := r.Record(ctx, tokenID, events)
	entry := r.log.WithField("token_id", tokenID)
	switch {
	case err != nil:
		entry.WithError(err).Warn("history not recorded")
	case n > 0:
		entry.WithField("events", n).Debug("history recorded")
	}
	return events, nil
}

// Record stores the events of tokenID whose sequence id is above the highest stored one.
// Events are inserted in (timestamp, sequence_id) order. Returns the count inserted.
func (r *RecordingFetcher) Record(ctx context.Context, tokenID string, events []domain.Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	maxSeq, err := r.store.GetMaxSequence(ctx, tokenID)
	hasStored := true
	if errors.Is(err, storage.ErrNotFound) {
		hasStored = false
	} else if err != nil {
		return 0, fmt.Errorf("get max sequence: %w", err)
	}

	// Enforce deterministic ordering
	ordered := normalization.DedupeEvents(normalization.SortEvents(events))

	fresh := make([]domain.Event, 0, len(ordered))
	for _, e := range ordered {
		if hasStored && e.SequenceID <= maxSeq {
			continue
		}
		if e.TokenID == "" {
			e.TokenID = tokenID
		}
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	// Store via bulk insert - storage layer handles duplicates
	if err := r.store.InsertBulk(ctx, fresh); err != nil {
		return 0, fmt.Errorf("insert events: %w", err)
	}
	return len(fresh), nil
}
