package objkt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// flexInt accepts a JSON number or a numeric string (bigint columns arrive as either).
type flexInt struct {
	Value int64
	Valid bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = flexInt{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		b = []byte(s)
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return fmt.Errorf("parse integer %q: %w", string(b), err)
	}
	*f = flexInt{Value: v, Valid: true}
	return nil
}

func (f flexInt) ptr() *int64 {
	if !f.Valid {
		return nil
	}
	v := f.Value
	return &v
}

// wireHolder is the creator/profile object of an event.
type wireHolder struct {
	Address   string  `json:"address"`
	Alias     *string `json:"alias"`
	Email     *string `json:"email"`
	Facebook  *string `json:"facebook"`
	Instagram *string `json:"instagram"`
	Twitter   *string `json:"twitter"`
	TzDomain  *string `json:"tzdomain"`
}

type wireRoyalty struct {
	Amount   flexInt `json:"amount"`
	Decimals int32   `json:"decimals"`
}

type wireToken struct {
	Name      *string       `json:"name"`
	TokenID   string        `json:"token_id"`
	Royalties []wireRoyalty `json:"royalties"`
}

type wireMarketplace struct {
	Name     string `json:"name"`
	Contract string `json:"contract"`
}

// wireEvent mirrors one row of the objkt `event` table as selected by historyQuery.
type wireEvent struct {
	ID                   flexInt          `json:"id"`
	Timestamp            *string          `json:"timestamp"`
	EventType            *string          `json:"event_type"`
	MarketplaceEventType *string          `json:"marketplace_event_type"`
	CreatorAddress       *string          `json:"creator_address"`
	Creator              *wireHolder      `json:"creator"`
	RecipientAddress     *string          `json:"recipient_address"`
	Price                flexInt          `json:"price"`
	Amount               flexInt          `json:"amount"`
	FAContract           *string          `json:"fa_contract"`
	MarketplaceContract  *string          `json:"marketplace_contract"`
	Marketplace          *wireMarketplace `json:"marketplace"`
	Token                *wireToken       `json:"token"`
}

type wireTokenPK struct {
	TokenPK flexInt `json:"token_pk"`
}

type discoveryData struct {
	Event []wireTokenPK `json:"event"`
}

type historyData struct {
	Event []wireEvent `json:"event"`
}
