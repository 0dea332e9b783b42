package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/storage"
)

// SignalStore implements storage.SignalStore using PostgreSQL.
type SignalStore struct {
	pool *Pool
}

// NewSignalStore creates a new SignalStore.
func NewSignalStore(pool *Pool) *SignalStore {
	return &SignalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SignalStore = (*SignalStore)(nil)

const signalColumns = `
	token_id, token_name, creator_address, creator_alias, fa_contract, marketplace,
	price_mutez, royalty_percent, editions_listed, editions_sold, sold_rate,
	avg_collect_interval_minutes, is_available, first_listed_at, last_event_at, run_id, updated_at
`

// Upsert inserts or replaces the record of a token.
func (s *SignalStore) Upsert(ctx context.Context, r *domain.SignalRecord) (err error) {
	if r == nil || r.TokenID == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("upsert_signal", start, err) }()

	query := `
		INSERT INTO token_signals (` + signalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (token_id) DO UPDATE SET
			token_name = EXCLUDED.token_name,
			creator_address = EXCLUDED.creator_address,
			creator_alias = EXCLUDED.creator_alias,
			fa_contract = EXCLUDED.fa_contract,
			marketplace = EXCLUDED.marketplace,
			price_mutez = EXCLUDED.price_mutez,
			royalty_percent = EXCLUDED.royalty_percent,
			editions_listed = EXCLUDED.editions_listed,
			editions_sold = EXCLUDED.editions_sold,
			sold_rate = EXCLUDED.sold_rate,
			avg_collect_interval_minutes = EXCLUDED.avg_collect_interval_minutes,
			is_available = EXCLUDED.is_available,
			first_listed_at = EXCLUDED.first_listed_at,
			last_event_at = EXCLUDED.last_event_at,
			run_id = EXCLUDED.run_id,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		r.TokenID,
		r.TokenName,
		r.CreatorAddress,
		r.CreatorAlias,
		r.FAContract,
		r.Marketplace,
		priceToMutez(r.Price),
		r.RoyaltyPercent,
		r.EditionsListed,
		r.EditionsSold,
		r.SoldRate,
		r.AvgCollectIntervalMinutes,
		r.IsAvailable,
		r.FirstListedAt.UTC(),
		r.LastEventAt.UTC(),
		r.RunID,
		r.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert signal: %w", err)
	}
	return nil
}

// GetByTokenID retrieves a record. Returns ErrNotFound if not exists.
func (s *SignalStore) GetByTokenID(ctx context.Context, tokenID string) (*domain.SignalRecord, error) {
	query := `SELECT ` + signalColumns + ` FROM token_signals WHERE token_id = $1`

	r, err := scanSignal(s.pool.QueryRow(ctx, query, tokenID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get signal: %w", err)
	}
	return r, nil
}

// ListRecent returns up to limit records, ordered by updated_at DESC, token_id ASC.
func (s *SignalStore) ListRecent(ctx context.Context, limit int) ([]*domain.SignalRecord, error) {
	if limit <= 0 {
		return []*domain.SignalRecord{}, nil
	}
	query := `SELECT ` + signalColumns + `
		FROM token_signals
		ORDER BY updated_at DESC, token_id ASC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	result := []*domain.SignalRecord{}
	for rows.Next() {
		r, err := scanSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signals: %w", err)
	}
	return result, nil
}

func scanSignal(row pgx.Row) (*domain.SignalRecord, error) {
	var (
		r     domain.SignalRecord
		mutez *int64
	)
	err := row.Scan(
		&r.TokenID,
		&r.TokenName,
		&r.CreatorAddress,
		&r.CreatorAlias,
		&r.FAContract,
		&r.Marketplace,
		&mutez,
		&r.RoyaltyPercent,
		&r.EditionsListed,
		&r.EditionsSold,
		&r.SoldRate,
		&r.AvgCollectIntervalMinutes,
		&r.IsAvailable,
		&r.FirstListedAt,
		&r.LastEventAt,
		&r.RunID,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Price = mutezToPrice(mutez)
	r.FirstListedAt = r.FirstListedAt.UTC()
	r.LastEventAt = r.LastEventAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
