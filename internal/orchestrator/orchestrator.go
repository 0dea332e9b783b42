// Package orchestrator runs one scan end to end and fans its outcome out to
// persistence, archive and the live feed.
// Flow: pipeline → signal upsert → snapshots → archive → run summary → publish
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/idhash"
	"objkt-signal-lab/internal/observability"
	"objkt-signal-lab/internal/pipeline"
	"objkt-signal-lab/internal/storage"
)

// Feed message type used for scan results.
const messageSignals = "signals"

// Scanner produces the signals of one run.
type Scanner interface {
	GetAvailableTokenSignals(ctx context.Context, limit int) (*pipeline.RunResult, error)
}

// Archiver stores a serialised run and returns its object key.
type Archiver interface {
	ArchiveRun(ctx context.Context, runID string, startedAt time.Time, run any) (string, error)
}

// Publisher pushes a message to connected feed clients.
type Publisher interface {
	Publish(msgType string, payload any) error
}

// Options for creating Orchestrator.
type Options struct {
	Scanner Scanner

	// Optional sinks, nil disables the phase.
	SignalStore   storage.SignalStore
	SnapshotStore storage.SnapshotStore
	RunStore      storage.RunStore
	Archiver      Archiver
	Publisher     Publisher

	Limit  int // candidates per run, default pipeline.DefaultLimit
	Logger *logrus.Entry
}

// Orchestrator coordinates a full scan.
type Orchestrator struct {
	opts Options
	log  *logrus.Entry
	now  func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	if opts.Limit <= 0 {
		opts.Limit = pipeline.DefaultLimit
	}
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Orchestrator{
		opts: opts,
		log:  log.WithField("component", "orchestrator"),
		now:  time.Now,
	}
}

// RunResult contains the output of one orchestrated run.
type RunResult struct {
	*pipeline.RunResult

	SignalsPersisted   int
	SnapshotsPersisted int
	ArchiveKey         string

	// SinkErrors lists failures of optional phases. They never fail the run.
	SinkErrors []string
}

// Run executes a scan of Options.Limit candidates and every configured sink.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	return o.RunWithLimit(ctx, o.opts.Limit)
}

// RunWithLimit is Run with an explicit candidate limit; limit <= 0 uses Options.Limit.
// Only a scan failure is returned; sink failures are logged and collected.
func (o *Orchestrator) RunWithLimit(ctx context.Context, limit int) (*RunResult, error) {
	if limit <= 0 {
		limit = o.opts.Limit
	}
	start := o.now()

	scan, err := o.opts.Scanner.GetAvailableTokenSignals(ctx, limit)
	if err != nil {
		observability.RecordPipelineRun("error", time.Since(start).Seconds())
		o.log.WithError(err).Error("scan failed")
		return nil, fmt.Errorf("scan: %w", err)
	}

	result := &RunResult{RunResult: scan}
	runID := scan.RunID.String()
	log := o.log.WithField("run_id", runID)

	// Phase 1: latest signal per token
	if o.opts.SignalStore != nil {
		for i := range scan.Signals {
			rec := domain.NewSignalRecord(&scan.Signals[i], runID, scan.FinishedAt)
			if err := o.opts.SignalStore.Upsert(ctx, rec); err != nil {
				result.fail(log, "upsert signal "+rec.TokenID, err)
				continue
			}
			result.SignalsPersisted++
		}
	}

	// Phase 2: append-only snapshots, skipped tokens included
	if o.opts.SnapshotStore != nil {
		snaps := BuildSnapshots(scan)
		if err := o.opts.SnapshotStore.InsertBulk(ctx, snaps); err != nil {
			result.fail(log, "insert snapshots", err)
		} else {
			result.SnapshotsPersisted = len(snaps)
		}
	}

	// Phase 3: archive
	if o.opts.Archiver != nil {
		key, err := o.opts.Archiver.ArchiveRun(ctx, runID, scan.StartedAt, scan)
		if err != nil {
			result.fail(log, "archive run", err)
		} else {
			result.ArchiveKey = key
		}
	}

	// Phase 4: run summary
	if o.opts.RunStore != nil {
		summary := &domain.RunSummary{
			RunID:      runID,
			StartedAt:  scan.StartedAt,
			FinishedAt: scan.FinishedAt,
			Candidates: scan.Summary.Candidates,
			Accepted:   scan.Summary.Accepted,
			Skipped:    scan.Summary.Skipped,
			ArchiveKey: result.ArchiveKey,
		}
		if err := o.opts.RunStore.Insert(ctx, summary); err != nil {
			result.fail(log, "insert run summary", err)
		}
	}

	// Phase 5: live feed
	if o.opts.Publisher != nil {
		if err := o.opts.Publisher.Publish(messageSignals, scan); err != nil {
			result.fail(log, "publish signals", err)
		}
	}

	status := "success"
	if len(result.SinkErrors) > 0 {
		status = "partial"
	}
	observability.RecordPipelineRun(status, time.Since(start).Seconds())
	observability.MarkScanSucceeded(o.now().Unix())

	log.WithFields(logrus.Fields{
		"candidates":  scan.Summary.Candidates,
		"accepted":    scan.Summary.Accepted,
		"persisted":   result.SignalsPersisted,
		"snapshots":   result.SnapshotsPersisted,
		"archive_key": result.ArchiveKey,
		"sink_errors": len(result.SinkErrors),
		"duration":    time.Since(start).String(),
	}).Info("run complete")

	return result, nil
}

func (r *RunResult) fail(log *logrus.Entry, phase string, err error) {
	log.WithError(err).Warnf("%s failed", phase)
	r.SinkErrors = append(r.SinkErrors, fmt.Sprintf("%s: %v", phase, err))
}

// BuildSnapshots flattens a run into one snapshot per evaluated token.
// Accepted tokens come first, in output order, followed by diagnostics.
func BuildSnapshots(scan *pipeline.RunResult) []*domain.SignalSnapshot {
	runID := scan.RunID.String()
	out := make([]*domain.SignalSnapshot, 0, len(scan.Signals)+len(scan.Diagnostics))

	for i := range scan.Signals {
		s := &scan.Signals[i]
		snap := &domain.SignalSnapshot{
			SnapshotID:                idhash.ComputeSnapshotID(runID, s.TokenID),
			RunID:                     runID,
			TokenID:                   s.TokenID,
			ObservedAt:                scan.FinishedAt,
			EditionsListed:            s.EditionsListed,
			EditionsSold:              s.EditionsSold,
			SoldRate:                  s.SoldRate,
			RoyaltyPercent:            s.RoyaltyPercent,
			AvgCollectIntervalMinutes: s.AvgCollectIntervalMinutes,
			IsAvailable:               s.IsAvailable,
		}
		if s.Price != nil {
			m := s.Price.Shift(6).IntPart()
			snap.PriceMutez = &m
		}
		out = append(out, snap)
	}

	for _, d := range scan.Diagnostics {
		out = append(out, &domain.SignalSnapshot{
			SnapshotID: idhash.ComputeSnapshotID(runID, d.TokenID),
			RunID:      runID,
			TokenID:    d.TokenID,
			ObservedAt: scan.FinishedAt,
			SkipReason: d.Reason.String(),
		})
	}
	return out
}
