package pipeline

import (
	"fmt"
	"sort"

	"objkt-signal-lab/internal/domain"
)

// RankBy selects an optional ordering applied to accepted signals.
type RankBy string

const (
	// RankNone keeps discovery order.
	RankNone RankBy = "none"
	// RankSoldRate orders by sold rate, highest first.
	RankSoldRate RankBy = "sold_rate"
	// RankCollectInterval orders by average collect interval, shortest first.
	// Tokens with an undefined interval go last.
	RankCollectInterval RankBy = "collect_interval"
)

// String returns the string representation of RankBy.
func (r RankBy) String() string {
	return string(r)
}

// ParseRankBy validates a ranking name. Empty means RankNone.
func ParseRankBy(s string) (RankBy, error) {
	switch RankBy(s) {
	case "", RankNone:
		return RankNone, nil
	case RankSoldRate, RankCollectInterval:
		return RankBy(s), nil
	}
	return "", fmt.Errorf("unknown rank_by %q", s)
}

// Rank reorders signals in place. The sort is stable so ties keep discovery order.
func Rank(signals []domain.TokenSignal, by RankBy) {
	switch by {
	case RankSoldRate:
		sort.SliceStable(signals, func(i, j int) bool {
			return signals[i].SoldRate > signals[j].SoldRate
		})
	case RankCollectInterval:
		sort.SliceStable(signals, func(i, j int) bool {
			a, b := signals[i].AvgCollectIntervalMinutes, signals[j].AvgCollectIntervalMinutes
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return *a < *b
		})
	}
}
