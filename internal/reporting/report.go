package reporting

import "time"

// Report summarises one scan run.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time

	Summary SummarySection

	// Accepted tokens, in run output order
	Signals []SignalRow

	// Skipped tokens, in discovery order
	Diagnostics []DiagnosticRow

	// Previous runs, newest first. Empty when no run history is available.
	RecentRuns []RunRow
}

// SummarySection counts run outcomes.
type SummarySection struct {
	Candidates int
	Accepted   int
	Skipped    []SkipCountRow // one row per reason, fixed order
}

// SkipCountRow is the number of tokens skipped for one reason.
type SkipCountRow struct {
	Reason string
	Count  int
}

// SignalRow is one accepted token.
type SignalRow struct {
	TokenID        string
	TokenName      string
	ArtistAddress  string
	ArtistAlias    string
	Price          string // display units, empty when never sold
	RoyaltyPercent float64
	EditionsListed int64
	EditionsSold   int64
	SoldRate       float64
	CollectMinutes string // empty when undefined
	FAContract     string
	Marketplace    string
}

// DiagnosticRow is one skipped token.
type DiagnosticRow struct {
	TokenID string
	Reason  string
	Detail  string
}

// RunRow is one historical run.
type RunRow struct {
	RunID      string
	StartedAt  time.Time
	Candidates int
	Accepted   int
	ArchiveKey string
}
