package signal

import (
	"github.com/shopspring/decimal"

	"objkt-signal-lab/internal/domain"
)

// microUnitExponent converts micro-units (mutez) into display units.
const microUnitExponent = -6

// PurchaseCount counts LIST_BUY events regardless of creator.
func PurchaseCount(events []domain.Event) int64 {
	var n int64
	for i := range events {
		if events[i].MarketplaceKind == domain.MarketplaceKindListBuy {
			n++
		}
	}
	return n
}

// FirstSalePrice returns the price of the first LIST_BUY in display units.
// Returns nil when there is no purchase or the first purchase carries no price.
// Later buys are secondary sales and never affect the result.
func FirstSalePrice(events []domain.Event) *decimal.Decimal {
	for i := range events {
		e := &events[i]
		if e.MarketplaceKind != domain.MarketplaceKindListBuy {
			continue
		}
		if e.Price == nil {
			return nil
		}
		p := decimal.New(*e.Price, microUnitExponent)
		return &p
	}
	return nil
}

// PurchaseTimestampsMinutes returns floor(unix_seconds / 60) for every LIST_BUY, in event order.
func PurchaseTimestampsMinutes(events []domain.Event) []int64 {
	var out []int64
	for i := range events {
		e := &events[i]
		if e.MarketplaceKind != domain.MarketplaceKindListBuy {
			continue
		}
		out = append(out, floorDiv(e.Timestamp.Unix(), 60))
	}
	return out
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
