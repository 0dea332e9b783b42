package storage

import (
	"context"

	"objkt-signal-lab/internal/domain"
)

// EventStore provides access to token_events storage.
type EventStore interface {
	// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate
	// (token_id, sequence_id).
	InsertBulk(ctx context.Context, events []domain.Event) error

	// GetByToken retrieves all events of a token, ordered by (timestamp ASC, sequence_id ASC).
	GetByToken(ctx context.Context, tokenID string) ([]domain.Event, error)

	// GetMaxSequence returns the highest stored sequence_id of a token.
	// Returns ErrNotFound if the token has no events.
	GetMaxSequence(ctx context.Context, tokenID string) (int64, error)

	// ListTokens returns every token id with stored events, ordered ASC.
	ListTokens(ctx context.Context) ([]string, error)
}

// SignalStore provides access to token_signals storage (latest signal per token).
type SignalStore interface {
	// Upsert inserts or replaces the record of a token.
	Upsert(ctx context.Context, r *domain.SignalRecord) error

	// GetByTokenID retrieves a record. Returns ErrNotFound if not exists.
	GetByTokenID(ctx context.Context, tokenID string) (*domain.SignalRecord, error)

	// ListRecent returns up to limit records, ordered by updated_at DESC, token_id ASC.
	ListRecent(ctx context.Context, limit int) ([]*domain.SignalRecord, error)
}

// RunStore provides access to scan_runs storage.
type RunStore interface {
	// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.RunSummary) error

	// GetByID retrieves a run. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.RunSummary, error)

	// ListRecent returns up to limit runs, ordered by started_at DESC.
	ListRecent(ctx context.Context, limit int) ([]*domain.RunSummary, error)
}

// SnapshotStore provides access to signal_snapshots storage (append-only).
type SnapshotStore interface {
	// InsertBulk adds multiple snapshots. Fails entire batch on duplicate snapshot_id.
	InsertBulk(ctx context.Context, snapshots []*domain.SignalSnapshot) error

	// GetByRun retrieves all snapshots of a run, ordered by token_id ASC.
	GetByRun(ctx context.Context, runID string) ([]*domain.SignalSnapshot, error)

	// GetByToken retrieves all snapshots of a token, ordered by observed_at ASC.
	GetByToken(ctx context.Context, tokenID string) ([]*domain.SignalSnapshot, error)
}
