package reporting

import (
	"context"
	"strconv"
	"time"

	"objkt-signal-lab/internal/domain"
	"objkt-signal-lab/internal/pipeline"
	"objkt-signal-lab/internal/storage"
)

// DefaultRecentRuns is how many previous runs a report lists.
const DefaultRecentRuns = 10

// Generator produces reports from run results.
type Generator struct {
	runStore storage.RunStore // optional
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. runStore may be nil.
func NewGenerator(runStore storage.RunStore) *Generator {
	return &Generator{
		runStore: runStore,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds a report for result, with recent runs when a run store is set.
func (g *Generator) Generate(ctx context.Context, result *pipeline.RunResult) (*Report, error) {
	r := &Report{
		GeneratedAt: g.now(),
		RunID:       result.RunID.String(),
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
		Summary:     summarySection(result.Summary),
		Signals:     make([]SignalRow, 0, len(result.Signals)),
		Diagnostics: make([]DiagnosticRow, 0, len(result.Diagnostics)),
	}

	for i := range result.Signals {
		r.Signals = append(r.Signals, signalRow(&result.Signals[i]))
	}
	for _, d := range result.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, DiagnosticRow{
			TokenID: d.TokenID,
			Reason:  d.Reason.String(),
			Detail:  d.Detail,
		})
	}

	if g.runStore != nil {
		runs, err := g.runStore.ListRecent(ctx, DefaultRecentRuns)
		if err != nil {
			return nil, err
		}
		for _, run := range runs {
			r.RecentRuns = append(r.RecentRuns, RunRow{
				RunID:      run.RunID,
				StartedAt:  run.StartedAt,
				Candidates: run.Candidates,
				Accepted:   run.Accepted,
				ArchiveKey: run.ArchiveKey,
			})
		}
	}

	return r, nil
}

// summarySection lists every skip reason, zero counts included, in a fixed order.
func summarySection(s pipeline.Summary) SummarySection {
	section := SummarySection{
		Candidates: s.Candidates,
		Accepted:   s.Accepted,
		Skipped:    make([]SkipCountRow, 0, len(domain.AllSkipReasons)),
	}
	for _, reason := range domain.AllSkipReasons {
		section.Skipped = append(section.Skipped, SkipCountRow{
			Reason: reason.String(),
			Count:  s.Skipped[reason],
		})
	}
	return section
}

func signalRow(s *domain.TokenSignal) SignalRow {
	row := SignalRow{
		TokenID:        s.TokenID,
		TokenName:      s.TokenName,
		ArtistAddress:  s.Artist.Address,
		RoyaltyPercent: s.RoyaltyPercent,
		EditionsListed: s.EditionsListed,
		EditionsSold:   s.EditionsSold,
		SoldRate:       s.SoldRate,
		FAContract:     s.FAContract,
		Marketplace:    s.Marketplace,
	}
	if s.Artist.Alias != nil {
		row.ArtistAlias = *s.Artist.Alias
	}
	if s.Price != nil {
		row.Price = s.Price.String()
	}
	if s.AvgCollectIntervalMinutes != nil {
		row.CollectMinutes = strconv.FormatFloat(*s.AvgCollectIntervalMinutes, 'f', -1, 64)
	}
	return row
}
