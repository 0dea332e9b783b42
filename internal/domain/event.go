package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidEvent is returned when an upstream record cannot be mapped onto Event
// (unknown kind, missing required field).
var ErrInvalidEvent = errors.New("invalid event record")

// EventKind is the lifecycle class of a ledger entry.
type EventKind string

const (
	EventKindNone     EventKind = "NONE"
	EventKindMint     EventKind = "MINT"
	EventKindTransfer EventKind = "TRANSFER"
)

// String returns the string representation of EventKind.
func (k EventKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a known value.
func (k EventKind) IsValid() bool {
	switch k {
	case EventKindNone, EventKindMint, EventKindTransfer:
		return true
	}
	return false
}

// ParseEventKind maps the marketplace feed value (e.g. "transfer") onto EventKind.
// Empty and "null" map to EventKindNone.
func ParseEventKind(s string) (EventKind, error) {
	switch s {
	case "", "null", "NONE":
		return EventKindNone, nil
	case "mint", "MINT":
		return EventKindMint, nil
	case "transfer", "TRANSFER":
		return EventKindTransfer, nil
	}
	return "", fmt.Errorf("%w: unknown event kind %q", ErrInvalidEvent, s)
}

// MarketplaceKind is the marketplace-semantics class of a ledger entry.
type MarketplaceKind string

const (
	MarketplaceKindNone        MarketplaceKind = "NONE"
	MarketplaceKindListCreate  MarketplaceKind = "LIST_CREATE"
	MarketplaceKindListCancel  MarketplaceKind = "LIST_CANCEL"
	MarketplaceKindListBuy     MarketplaceKind = "LIST_BUY"
	MarketplaceKindOfferCreate MarketplaceKind = "OFFER_CREATE"
)

// String returns the string representation of MarketplaceKind.
func (k MarketplaceKind) String() string {
	return string(k)
}

// IsValid checks if the kind is a known value.
func (k MarketplaceKind) IsValid() bool {
	switch k {
	case MarketplaceKindNone, MarketplaceKindListCreate, MarketplaceKindListCancel,
		MarketplaceKindListBuy, MarketplaceKindOfferCreate:
		return true
	}
	return false
}

// FeedValue returns the lowercase value used by the objkt feed.
func (k MarketplaceKind) FeedValue() string {
	switch k {
	case MarketplaceKindListCreate:
		return "list_create"
	case MarketplaceKindListCancel:
		return "list_cancel"
	case MarketplaceKindListBuy:
		return "list_buy"
	case MarketplaceKindOfferCreate:
		return "offer_create"
	}
	return "null"
}

// ParseMarketplaceKind maps the feed value (e.g. "list_buy") onto MarketplaceKind.
// Empty and "null" map to MarketplaceKindNone.
func ParseMarketplaceKind(s string) (MarketplaceKind, error) {
	switch s {
	case "", "null", "NONE":
		return MarketplaceKindNone, nil
	case "list_create", "LIST_CREATE":
		return MarketplaceKindListCreate, nil
	case "list_cancel", "LIST_CANCEL":
		return MarketplaceKindListCancel, nil
	case "list_buy", "LIST_BUY":
		return MarketplaceKindListBuy, nil
	case "offer_create", "OFFER_CREATE":
		return MarketplaceKindOfferCreate, nil
	}
	return "", fmt.Errorf("%w: unknown marketplace kind %q", ErrInvalidEvent, s)
}

// Creator is the identity attached to a ledger entry.
// Address is required; everything else is optional profile data.
type Creator struct {
	Address   string  `json:"address"`
	Alias     *string `json:"alias,omitempty"`
	Twitter   *string `json:"twitter,omitempty"`
	Instagram *string `json:"instagram,omitempty"`
	Facebook  *string `json:"facebook,omitempty"`
	Email     *string `json:"email,omitempty"`
	TzDomain  *string `json:"tzdomain,omitempty"`
}

// RoyaltyShare is a fractional entitlement: Amount / 10^Decimals.
type RoyaltyShare struct {
	Amount   int64 `json:"amount"`
	Decimals int32 `json:"decimals"`
}

// Event is one immutable ledger record for a token.
type Event struct {
	TokenID          string          `json:"token_id"`
	SequenceID       int64           `json:"sequence_id"` // upstream event id, tie-break for equal timestamps
	Timestamp        time.Time       `json:"timestamp"`
	Kind             EventKind       `json:"kind"`
	MarketplaceKind  MarketplaceKind `json:"marketplace_kind"`
	Creator          *Creator        `json:"creator,omitempty"`
	RecipientAddress *string         `json:"recipient_address,omitempty"`
	Price            *int64          `json:"price,omitempty"` // micro-units, set on buys
	Amount           int64           `json:"amount"`          // edition delta for create/cancel
	RoyaltyShares    []RoyaltyShare  `json:"royalty_shares,omitempty"`

	// Token context carried on every record by the feed.
	TokenName           string `json:"token_name,omitempty"`
	FAContract          string `json:"fa_contract,omitempty"`
	Marketplace         string `json:"marketplace,omitempty"`
	MarketplaceContract string `json:"marketplace_contract,omitempty"`
}

// CreatorAddress returns the creator address or "" when the creator is missing.
func (e *Event) CreatorAddress() string {
	if e.Creator == nil {
		return ""
	}
	return e.Creator.Address
}
