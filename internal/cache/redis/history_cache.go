package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/observability"
)

// DefaultHistoryTTL bounds how stale a cached history may be.
const DefaultHistoryTTL = 2 * time.Minute

// HistoryFetcher returns the complete event history of one token.
type HistoryFetcher interface {
	FetchTokenHistory(ctx context.Context, tokenID string) ([]domain.Event, error)
}

// CachedFetcher serves token histories from Redis and falls through to the
// wrapped fetcher on a miss.
//
// Key schema:
//
//	objkt:history:{tokenID} - JSON array of events
type CachedFetcher struct {
	rdb  *redis.Client
	next HistoryFetcher
	ttl  time.Duration
	log  *logrus.Entry
}

// NewCachedFetcher creates a CachedFetcher. A non-positive ttl uses DefaultHistoryTTL.
func NewCachedFetcher(c *Client, next HistoryFetcher, ttl time.Duration, logger *logrus.Entry) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultHistoryTTL
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &CachedFetcher{
		rdb:  c.rdb,
		next: next,
		ttl:  ttl,
		log:  logger.WithField("component", "history_cache"),
	}
}

func historyKey(tokenID string) string { return "objkt:history:" + tokenID }

// FetchTokenHistory returns the cached history when present.
// Cache read and write failures degrade to a direct fetch.
func (c *CachedFetcher) FetchTokenHistory(ctx context.Context, tokenID string) ([]domain.Event, error) {
	events, err := c.get(ctx, tokenID)
	switch {
	case err == nil:
		observability.RecordCacheLookup(true)
		return events, nil
	case !errors.Is(err, redis.Nil):
		c.log.WithError(err).WithField("token_id", tokenID).Warn("cache read failed")
	}
	observability.RecordCacheLookup(false)

	events, err = c.next.FetchTokenHistory(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	if err := c.set(ctx, tokenID, events); err != nil {
		c.log.WithError(err).WithField("token_id", tokenID).Warn("cache write failed")
	}
	return events, nil
}

// Invalidate drops the cached history of a token.
func (c *CachedFetcher) Invalidate(ctx context.Context, tokenID string) error {
	if err := c.rdb.Del(ctx, historyKey(tokenID)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate history %s: %w", tokenID, err)
	}
	return nil
}

func (c *CachedFetcher) get(ctx context.Context, tokenID string) ([]domain.Event, error) {
	data, err := c.rdb.Get(ctx, historyKey(tokenID)).Bytes()
	if err != nil {
		return nil, err
	}

	var events []domain.Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("redis: unmarshal history %s: %w", tokenID, err)
	}
	return events, nil
}

func (c *CachedFetcher) set(ctx context.Context, tokenID string, events []domain.Event) error {
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("redis: marshal history %s: %w", tokenID, err)
	}
	if err := c.rdb.Set(ctx, historyKey(tokenID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set history %s: %w", tokenID, err)
	}
	return nil
}
