package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenSignal is the computed output for one token.
// It is a pure function of the token's event history and is recomputed, never patched.
type TokenSignal struct {
	TokenID        string           `json:"token_id"`
	TokenName      string           `json:"token_name,omitempty"`
	FAContract     string           `json:"fa_contract,omitempty"`
	Marketplace    string           `json:"marketplace,omitempty"`
	Artist         Creator          `json:"artist"`
	Price          *decimal.Decimal `json:"price"` // display units; nil when never sold
	RoyaltyPercent float64          `json:"royalty_percent"`
	EditionsListed int64            `json:"editions_listed"` // may be negative
	EditionsSold   int64            `json:"editions_sold"`
	SoldRate       float64          `json:"sold_rate"`

	// AvgCollectIntervalMinutes is nil when fewer than two purchases exist.
	AvgCollectIntervalMinutes *float64 `json:"avg_collect_interval_minutes"`

	IsAvailable   bool      `json:"is_available"`
	FirstListedAt time.Time `json:"first_listed_at"`
	LastEventAt   time.Time `json:"last_event_at"`
}

// SkipReason explains why a token was left out of a run's output.
type SkipReason string

const (
	SkipReasonResolutionFailure SkipReason = "RESOLUTION_FAILURE"
	SkipReasonMalformedRecord   SkipReason = "MALFORMED_RECORD"
	SkipReasonDegenerateListing SkipReason = "DEGENERATE_LISTING"
	SkipReasonAlreadyHeld       SkipReason = "ALREADY_HELD"
	SkipReasonUnavailable       SkipReason = "UNAVAILABLE"
	SkipReasonUpstreamFetch     SkipReason = "UPSTREAM_FETCH_FAILURE"
)

// String returns the string representation of SkipReason.
func (r SkipReason) String() string {
	return string(r)
}

// AllSkipReasons lists every reason in a stable order (used for summaries and reports).
var AllSkipReasons = []SkipReason{
	SkipReasonResolutionFailure,
	SkipReasonMalformedRecord,
	SkipReasonDegenerateListing,
	SkipReasonAlreadyHeld,
	SkipReasonUnavailable,
	SkipReasonUpstreamFetch,
}

// Diagnostic records one skipped token.
type Diagnostic struct {
	TokenID string     `json:"token_id"`
	Reason  SkipReason `json:"reason"`
	Detail  string     `json:"detail,omitempty"`
}
