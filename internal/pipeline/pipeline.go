// Package pipeline evaluates a batch of candidate tokens into available token signals.
// Flow: discovery → per-token history fetch (bounded, parallel) → evaluation → ordered output
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/observability"
	"objkt-signal-lab/internal/signal"
)

// Defaults applied by New when Options leave a field zero.
const (
	DefaultConcurrencyLimit = 8
	DefaultFetchTimeout     = 15 * time.Second
	DefaultLimit            = 30
)

var (
	// ErrUpstreamFetch wraps history collaborator failures and timeouts.
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// ErrDiscovery wraps candidate discovery failures. It is the only error a run returns.
	ErrDiscovery = errors.New("candidate discovery failed")
)

// CandidateSource returns candidate token ids, most recently transacted first.
type CandidateSource interface {
	DiscoverCandidateTokens(ctx context.Context, limit int) ([]string, error)
}

// HistoryFetcher returns the complete event history of one token, in any order.
type HistoryFetcher interface {
	FetchTokenHistory(ctx context.Context, tokenID string) ([]domain.Event, error)
}

// Options for creating Pipeline.
type Options struct {
	// Required collaborators
	Source  CandidateSource
	Fetcher HistoryFetcher

	// Operator wallet; tokens transferred to it are skipped.
	SelfAddress string
	Thresholds  signal.Thresholds

	ConcurrencyLimit int           // max parallel fetches, default 8
	FetchTimeout     time.Duration // per-token deadline, default 15s
	RankBy           RankBy        // default RankNone (discovery order)

	Logger *logrus.Entry
}

// Pipeline runs discovery and evaluation over a batch of tokens.
type Pipeline struct {
	source      CandidateSource
	fetcher     HistoryFetcher
	selfAddress string
	thresholds  signal.Thresholds
	concurrency int
	timeout     time.Duration
	rankBy      RankBy
	log         *logrus.Entry
	clock       func() time.Time
	newID       func() uuid.UUID
}

// New creates a new Pipeline.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		source:      opts.Source,
		fetcher:     opts.Fetcher,
		selfAddress: opts.SelfAddress,
		thresholds:  opts.Thresholds,
		concurrency: opts.ConcurrencyLimit,
		timeout:     opts.FetchTimeout,
		rankBy:      opts.RankBy,
		log:         opts.Logger,
		clock:       func() time.Time { return time.Now().UTC() },
		newID:       uuid.New,
	}
	if p.concurrency <= 0 {
		p.concurrency = DefaultConcurrencyLimit
	}
	if p.timeout <= 0 {
		p.timeout = DefaultFetchTimeout
	}
	if p.rankBy == "" {
		p.rankBy = RankNone
	}
	if p.thresholds == (signal.Thresholds{}) {
		p.thresholds = signal.DefaultThresholds()
	}
	if p.log == nil {
		p.log = logrus.NewEntry(logrus.StandardLogger())
	}
	p.log = p.log.WithField("component", "pipeline")
	return p
}

// WithClock sets a custom clock function for deterministic run timestamps.
func (p *Pipeline) WithClock(clock func() time.Time) *Pipeline {
	p.clock = clock
	return p
}

// Summary counts the outcome of one run.
type Summary struct {
	Candidates int                       `json:"candidates"`
	Accepted   int                       `json:"accepted"`
	Skipped    map[domain.SkipReason]int `json:"skipped"`
}

// RunResult contains the output of one run.
type RunResult struct {
	RunID       uuid.UUID            `json:"run_id"`
	StartedAt   time.Time            `json:"started_at"`
	FinishedAt  time.Time            `json:"finished_at"`
	Signals     []domain.TokenSignal `json:"signals"`
	Diagnostics []domain.Diagnostic  `json:"diagnostics"`
	Summary     Summary              `json:"summary"`
}

// GetAvailableTokenSignals discovers up to limit candidates and returns the available ones.
// Only a discovery failure is returned as an error; per-token failures land in Diagnostics.
func (p *Pipeline) GetAvailableTokenSignals(ctx context.Context, limit int) (*RunResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	started := p.clock()

	tokenIDs, err := p.source.DiscoverCandidateTokens(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDiscovery, err)
	}
	observability.RecordCandidatesDiscovered(len(tokenIDs))
	p.log.WithField("candidates", len(tokenIDs)).Debug("candidates discovered")

	result := p.ComputeSignals(ctx, tokenIDs)
	result.StartedAt = started
	return result, nil
}

// outcome is the per-token result slot, indexed by discovery position.
type outcome struct {
	signal     *domain.TokenSignal
	diagnostic *domain.Diagnostic
}

// ComputeSignals evaluates tokenIDs concurrently. Signals keep the input order.
// A failed or timed-out fetch only affects its own token.
func (p *Pipeline) ComputeSignals(ctx context.Context, tokenIDs []string) *RunResult {
	started := p.clock()
	slots := make([]outcome, len(tokenIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, tokenID := range tokenIDs {
		if gctx.Err() != nil {
			slots[i] = skipped(tokenID, domain.SkipReasonUpstreamFetch, fmt.Errorf("%w: %w", ErrUpstreamFetch, gctx.Err()))
			continue
		}
		g.Go(func() error {
			slots[i] = p.evaluateToken(gctx, tokenID)
			return nil
		})
	}
	_ = g.Wait()

	result := &RunResult{
		RunID:       p.newID(),
		StartedAt:   started,
		Signals:     []domain.TokenSignal{},
		Diagnostics: []domain.Diagnostic{},
		Summary: Summary{
			Candidates: len(tokenIDs),
			Skipped:    make(map[domain.SkipReason]int),
		},
	}
	for _, slot := range slots {
		if slot.signal != nil {
			result.Signals = append(result.Signals, *slot.signal)
			continue
		}
		if slot.diagnostic != nil {
			result.Diagnostics = append(result.Diagnostics, *slot.diagnostic)
			result.Summary.Skipped[slot.diagnostic.Reason]++
		}
	}
	result.Summary.Accepted = len(result.Signals)
	Rank(result.Signals, p.rankBy)
	result.FinishedAt = p.clock()

	p.log.WithFields(logrus.Fields{
		"candidates": result.Summary.Candidates,
		"accepted":   result.Summary.Accepted,
		"skipped":    len(result.Diagnostics),
	}).Info("batch evaluated")

	return result
}

// evaluateToken fetches and evaluates one token. It never returns an error;
// failures become diagnostics so siblings keep running.
func (p *Pipeline) evaluateToken(ctx context.Context, tokenID string) outcome {
	fetchCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	fetchStart := time.Now()
	events, err := p.fetcher.FetchTokenHistory(fetchCtx, tokenID)
	observability.RecordHistoryFetch(time.Since(fetchStart).Seconds())
	if errors.Is(err, domain.ErrInvalidEvent) {
		return p.skip(tokenID, domain.SkipReasonMalformedRecord, err)
	}
	if err != nil {
		return p.skip(tokenID, domain.SkipReasonUpstreamFetch, fmt.Errorf("%w: %w", ErrUpstreamFetch, err))
	}

	observability.RecordTokenEvaluated()
	sig, err := signal.Evaluate(tokenID, events, p.selfAddress, p.thresholds)
	if err != nil {
		return p.skip(tokenID, classify(err), err)
	}

	observability.RecordSignalEmitted()
	p.log.WithFields(logrus.Fields{
		"token_id":  tokenID,
		"sold_rate": sig.SoldRate,
	}).Debug("token accepted")
	return outcome{signal: sig}
}

// skip builds a diagnostic outcome and logs it at the level its reason deserves.
func (p *Pipeline) skip(tokenID string, reason domain.SkipReason, err error) outcome {
	observability.RecordTokenSkipped(reason.String())
	entry := p.log.WithFields(logrus.Fields{
		"token_id": tokenID,
		"reason":   reason,
	})
	switch reason {
	case domain.SkipReasonResolutionFailure, domain.SkipReasonMalformedRecord, domain.SkipReasonUpstreamFetch:
		entry.WithError(err).Warn("token skipped")
	default:
		entry.Debug("token skipped")
	}
	return skipped(tokenID, reason, err)
}

func skipped(tokenID string, reason domain.SkipReason, err error) outcome {
	return outcome{diagnostic: &domain.Diagnostic{
		TokenID: tokenID,
		Reason:  reason,
		Detail:  err.Error(),
	}}
}

// classify maps evaluation errors onto skip reasons.
func classify(err error) domain.SkipReason {
	switch {
	case errors.Is(err, signal.ErrArtistNotFound):
		return domain.SkipReasonResolutionFailure
	case errors.Is(err, signal.ErrMalformedRecord), errors.Is(err, domain.ErrInvalidEvent):
		return domain.SkipReasonMalformedRecord
	case errors.Is(err, signal.ErrDegenerateListing):
		return domain.SkipReasonDegenerateListing
	case errors.Is(err, signal.ErrAlreadyHeld):
		return domain.SkipReasonAlreadyHeld
	case errors.Is(err, signal.ErrUnavailable):
		return domain.SkipReasonUnavailable
	}
	return domain.SkipReasonMalformedRecord
}
