package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const insertEventQuery = `
	INSERT INTO token_events (
		token_id, sequence_id, timestamp, kind, marketplace_kind, creator, recipient_address,
		price_mutez, amount, royalty_shares, token_name, fa_contract, marketplace, marketplace_contract
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
`

// InsertBulk adds multiple events atomically. Fails entire batch on any duplicate.
func (s *EventStore) InsertBulk(ctx context.Context, events []domain.Event) (err error) {
	if len(events) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { observe("insert_events", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range events {
		e := &events[i]
		if e.TokenID == "" {
			return storage.ErrInvalidInput
		}

		var creator []byte
		if e.Creator != nil {
			if creator, err = json.Marshal(e.Creator); err != nil {
				return fmt.Errorf("encode creator: %w", err)
			}
		}
		shares := e.RoyaltyShares
		if shares == nil {
			shares = []domain.RoyaltyShare{}
		}
		royalties, err := json.Marshal(shares)
		if err != nil {
			return fmt.Errorf("encode royalty shares: %w", err)
		}

		_, err = tx.Exec(ctx, insertEventQuery,
			e.TokenID,
			e.SequenceID,
			e.Timestamp.UTC(),
			string(e.Kind),
			string(e.MarketplaceKind),
			creator,
			e.RecipientAddress,
			e.Price,
			e.Amount,
			royalties,
			e.TokenName,
			e.FAContract,
			e.Marketplace,
			e.MarketplaceContract,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByToken retrieves all events of a token, ordered by (timestamp ASC, sequence_id ASC).
func (s *EventStore) GetByToken(ctx context.Context, tokenID string) (result []domain.Event, err error) {
	start := time.Now()
	defer func() { observe("get_events", start, err) }()

	query := `
		SELECT token_id, sequence_id, timestamp, kind, marketplace_kind, creator, recipient_address,
		       price_mutez, amount, royalty_shares, token_name, fa_contract, marketplace, marketplace_contract
		FROM token_events
		WHERE token_id = $1
		ORDER BY timestamp ASC, sequence_id ASC
	`

	rows, err := s.pool.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return result, nil
}

// GetMaxSequence returns the highest stored sequence_id of a token.
func (s *EventStore) GetMaxSequence(ctx context.Context, tokenID string) (int64, error) {
	var maxSeq *int64
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(sequence_id) FROM token_events WHERE token_id = $1`, tokenID,
	).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get max sequence: %w", err)
	}
	if maxSeq == nil {
		return 0, storage.ErrNotFound
	}
	return *maxSeq, nil
}

// ListTokens returns every token id with stored events, ordered ASC.
func (s *EventStore) ListTokens(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT token_id FROM token_events ORDER BY token_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var tokenID string
		if err := rows.Scan(&tokenID); err != nil {
			return nil, fmt.Errorf("scan token id: %w", err)
		}
		result = append(result, tokenID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}
	return result, nil
}

func scanEvent(rows pgx.Rows) (domain.Event, error) {
	var (
		e               domain.Event
		kind, mkind     string
		creator, shares []byte
	)
	err := rows.Scan(
		&e.TokenID,
		&e.SequenceID,
		&e.Timestamp,
		&kind,
		&mkind,
		&creator,
		&e.RecipientAddress,
		&e.Price,
		&e.Amount,
		&shares,
		&e.TokenName,
		&e.FAContract,
		&e.Marketplace,
		&e.MarketplaceContract,
	)
	if err != nil {
		return e, fmt.Errorf("scan event: %w", err)
	}

	e.Timestamp = e.Timestamp.UTC()
	e.Kind = domain.EventKind(kind)
	e.MarketplaceKind = domain.MarketplaceKind(mkind)
	if creator != nil {
		e.Creator = &domain.Creator{}
		if err := json.Unmarshal(creator, e.Creator); err != nil {
			return e, fmt.Errorf("decode creator: %w", err)
		}
	}
	if err := json.Unmarshal(shares, &e.RoyaltyShares); err != nil {
		return e, fmt.Errorf("decode royalty shares: %w", err)
	}
	if len(e.RoyaltyShares) == 0 {
		e.RoyaltyShares = nil
	}
	return e, nil
}
