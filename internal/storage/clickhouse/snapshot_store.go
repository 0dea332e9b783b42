package clickhouse

import (
	"context"
	"fmt"
	"time"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/observability"
	"objkt-signal-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	snapshot_id, run_id, token_id, observed_at,
	editions_listed, editions_sold, sold_rate, price_mutez,
	royalty_percent, avg_collect_interval_minutes, is_available, skip_reason
`

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate snapshot_id.
func (s *SnapshotStore) InsertBulk(ctx context.Context, snapshots []*domain.SignalSnapshot) (err error) {
	if len(snapshots) == 0 {
		return nil
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_snapshots", time.Since(start).Seconds(), err)
	}()

	// Check for intra-batch duplicates
	seen := make(map[string]struct{}, len(snapshots))
	ids := make([]string, 0, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.SnapshotID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[snap.SnapshotID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[snap.SnapshotID] = struct{}{}
		ids = append(ids, snap.SnapshotID)
	}

	// MergeTree does not enforce uniqueness, so check existing rows explicitly
	var existing uint64
	row := s.conn.QueryRow(ctx, `SELECT count() FROM signal_snapshots WHERE snapshot_id IN (?)`, ids)
	if err := row.Scan(&existing); err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if existing > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO signal_snapshots (`+snapshotColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, snap := range snapshots {
		err = batch.Append(
			snap.SnapshotID, snap.RunID, snap.TokenID, snap.ObservedAt.UTC(),
			snap.EditionsListed, snap.EditionsSold, snap.SoldRate, snap.PriceMutez,
			snap.RoyaltyPercent, snap.AvgCollectIntervalMinutes, snap.IsAvailable, snap.SkipReason,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByRun retrieves all snapshots of a run, ordered by token_id ASC.
func (s *SnapshotStore) GetByRun(ctx context.Context, runID string) ([]*domain.SignalSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM signal_snapshots
		WHERE run_id = ?
		ORDER BY token_id ASC, snapshot_id ASC
	`
	return s.query(ctx, "get snapshots by run", query, runID)
}

// GetByToken retrieves all snapshots of a token, ordered by observed_at ASC.
func (s *SnapshotStore) GetByToken(ctx context.Context, tokenID string) ([]*domain.SignalSnapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM signal_snapshots
		WHERE token_id = ?
		ORDER BY observed_at ASC, snapshot_id ASC
	`
	return s.query(ctx, "get snapshots by token", query, tokenID)
}

func (s *SnapshotStore) query(ctx context.Context, op, query string, arg any) ([]*domain.SignalSnapshot, error) {
	rows, err := s.conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*domain.SignalSnapshot
	for rows.Next() {
		var snap domain.SignalSnapshot
		err := rows.Scan(
			&snap.SnapshotID, &snap.RunID, &snap.TokenID, &snap.ObservedAt,
			&snap.EditionsListed, &snap.EditionsSold, &snap.SoldRate, &snap.PriceMutez,
			&snap.RoyaltyPercent, &snap.AvgCollectIntervalMinutes, &snap.IsAvailable, &snap.SkipReason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.ObservedAt = snap.ObservedAt.UTC()
		result = append(result, &snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return result, nil
}
