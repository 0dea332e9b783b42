package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

const runColumns = `run_id, started_at, finished_at, candidates, accepted, skipped, archive_key`

// Insert adds a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.RunSummary) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	skipped := make(map[string]int, len(r.Skipped))
	for reason, n := range r.Skipped {
		skipped[string(reason)] = n
	}
	skippedJSON, err := json.Marshal(skipped)
	if err != nil {
		return fmt.Errorf("encode skipped: %w", err)
	}

	query := `INSERT INTO scan_runs (` + runColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = s.pool.Exec(ctx, query,
		r.RunID,
		r.StartedAt.UTC(),
		r.FinishedAt.UTC(),
		r.Candidates,
		r.Accepted,
		skippedJSON,
		r.ArchiveKey,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM scan_runs WHERE run_id = $1`

	r, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// ListRecent returns up to limit runs, ordered by started_at DESC.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]*domain.RunSummary, error) {
	if limit <= 0 {
		return []*domain.RunSummary{}, nil
	}
	query := `SELECT ` + runColumns + ` FROM scan_runs ORDER BY started_at DESC, run_id ASC LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	result := []*domain.RunSummary{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return result, nil
}

func scanRun(row pgx.Row) (*domain.RunSummary, error) {
	var (
		r       domain.RunSummary
		skipped []byte
	)
	err := row.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.Candidates, &r.Accepted, &skipped, &r.ArchiveKey)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{}
	if err := json.Unmarshal(skipped, &counts); err != nil {
		return nil, fmt.Errorf("decode skipped: %w", err)
	}
	r.Skipped = make(map[domain.SkipReason]int, len(counts))
	for reason, n := range counts {
		r.Skipped[domain.SkipReason(reason)] = n
	}
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	return &r, nil
}
