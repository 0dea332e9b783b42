package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignalRecord is the latest persisted signal of a token, one row per token.
// Rows are overwritten by newer runs.
type SignalRecord struct {
	TokenID        string `json:"token_id"`
	TokenName      string `json:"token_name"`
	CreatorAddress string `json:"creator_address"`
	CreatorAlias   string `json:"creator_alias"`
	FAContract     string `json:"fa_contract"`
	Marketplace    string `json:"marketplace"`

	Price                     *decimal.Decimal `json:"price"` // display units
	RoyaltyPercent            float64          `json:"royalty_percent"`
	EditionsListed            int64            `json:"editions_listed"`
	EditionsSold              int64            `json:"editions_sold"`
	SoldRate                  float64          `json:"sold_rate"`
	AvgCollectIntervalMinutes *float64         `json:"avg_collect_interval_minutes"`
	IsAvailable               bool             `json:"is_available"`

	FirstListedAt time.Time `json:"first_listed_at"`
	LastEventAt   time.Time `json:"last_event_at"`
	RunID         string    `json:"run_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewSignalRecord flattens a signal for persistence.
func NewSignalRecord(sig *TokenSignal, runID string, at time.Time) *SignalRecord {
	r := &SignalRecord{
		TokenID:                   sig.TokenID,
		TokenName:                 sig.TokenName,
		CreatorAddress:            sig.Artist.Address,
		FAContract:                sig.FAContract,
		Marketplace:               sig.Marketplace,
		Price:                     sig.Price,
		RoyaltyPercent:            sig.RoyaltyPercent,
		EditionsListed:            sig.EditionsListed,
		EditionsSold:              sig.EditionsSold,
		SoldRate:                  sig.SoldRate,
		AvgCollectIntervalMinutes: sig.AvgCollectIntervalMinutes,
		IsAvailable:               sig.IsAvailable,
		FirstListedAt:             sig.FirstListedAt,
		LastEventAt:               sig.LastEventAt,
		RunID:                     runID,
		UpdatedAt:                 at,
	}
	if sig.Artist.Alias != nil {
		r.CreatorAlias = *sig.Artist.Alias
	}
	return r
}

// RunSummary is the persisted outcome of one scan.
type RunSummary struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Candidates int                `json:"candidates"`
	Accepted   int                `json:"accepted"`
	Skipped    map[SkipReason]int `json:"skipped"`
	ArchiveKey string             `json:"archive_key,omitempty"` // empty when not archived
}

// SignalSnapshot is one (run, token) observation kept for time-series analysis.
// Skipped tokens are recorded too, with SkipReason set.
type SignalSnapshot struct {
	SnapshotID                string
	RunID                     string
	TokenID                   string
	ObservedAt                time.Time
	EditionsListed            int64
	EditionsSold              int64
	SoldRate                  float64
	PriceMutez                *int64
	RoyaltyPercent            float64
	AvgCollectIntervalMinutes *float64
	IsAvailable               bool
	SkipReason                string
}
