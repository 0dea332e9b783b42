package signal

import (
	"time"

	"objkt-signal-lab/internal/domain"
)

const (
	artistAddr    = "tz1artist"
	collectorAddr = "tz1collector"
	selfAddr      = "tz1self"
)

var t0 = time.Date(2023, 5, 10, 9, 0, 0, 0, time.UTC)

func minute(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Minute)
}

func ptr[T any](v T) *T {
	return &v
}

func listCreate(seq int64, at time.Time, creator string, amount int64) domain.Event {
	return domain.Event{
		SequenceID:      seq,
		Timestamp:       at,
		Kind:            domain.EventKindNone,
		MarketplaceKind: domain.MarketplaceKindListCreate,
		Creator:         &domain.Creator{Address: creator},
		Amount:          amount,
	}
}

func listCancel(seq int64, at time.Time, creator string, amount int64) domain.Event {
	e := listCreate(seq, at, creator, amount)
	e.MarketplaceKind = domain.MarketplaceKindListCancel
	return e
}

func listBuy(seq int64, at time.Time, buyer string, price int64) domain.Event {
	return domain.Event{
		SequenceID:       seq,
		Timestamp:        at,
		Kind:             domain.EventKindNone,
		MarketplaceKind:  domain.MarketplaceKindListBuy,
		Creator:          &domain.Creator{Address: buyer},
		RecipientAddress: ptr(buyer),
		Price:            ptr(price),
		Amount:           1,
	}
}

func transfer(seq int64, at time.Time, from, to string) domain.Event {
	return domain.Event{
		SequenceID:       seq,
		Timestamp:        at,
		Kind:             domain.EventKindTransfer,
		MarketplaceKind:  domain.MarketplaceKindNone,
		Creator:          &domain.Creator{Address: from},
		RecipientAddress: ptr(to),
		Amount:           1,
	}
}

func withRoyalties(events []domain.Event, shares ...domain.RoyaltyShare) []domain.Event {
	for i := range events {
		events[i].RoyaltyShares = shares
	}
	return events
}
