package signal

import (
	"github.com/shopspring/decimal"

	"objkt-signal-lab/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// RoyaltyPercent reads the royalty shares attached to the first event and returns the
// artist's royalty as a percentage.
//
// Shares are assumed to use one common Decimals value; the last share's value is used.
func RoyaltyPercent(events []domain.Event) float64 {
	if len(events) == 0 || len(events[0].RoyaltyShares) == 0 {
		return 0
	}
	var sum int64
	var decimals int32
	for _, s := range events[0].RoyaltyShares {
		sum += s.Amount
		decimals = s.Decimals
	}
	return decimal.New(sum, -decimals).Mul(hundred).InexactFloat64()
}
