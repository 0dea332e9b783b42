package objkt

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"objkt-signal-lab/internal/domain"
)

// discoveryPageFactor over-fetches purchases because several may hit the same token.
const discoveryPageFactor = 3

const discoveryQuery = `query GetTokens($limit: Int!, $order_by: [event_order_by!], $where: event_bool_exp!) {
  event(order_by: $order_by, limit: $limit, where: $where) {
    token_pk
  }
}`

const historyQuery = `query GetTokenEvents($where: event_bool_exp!, $order_by: [event_order_by!]) {
  event(where: $where, order_by: $order_by) {
    id
    timestamp
    event_type
    marketplace_event_type
    creator_address
    creator {
      address
      alias
      email
      facebook
      instagram
      twitter
      tzdomain
    }
    recipient_address
    price
    amount
    fa_contract
    marketplace_contract
    marketplace {
      name
      contract
    }
    token {
      name
      token_id
      royalties {
        amount
        decimals
      }
    }
  }
}`

// DiscoverCandidateTokens returns up to limit distinct token ids from the most recent
// purchases, most recent first.
func (c *Client) DiscoverCandidateTokens(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	vars := map[string]any{
		"limit": limit * discoveryPageFactor,
		"order_by": []map[string]string{
			{"id": "desc"},
			{"timestamp": "desc"},
		},
		"where": map[string]any{
			"marketplace_event_type": map[string]string{"_eq": domain.MarketplaceKindListBuy.FeedValue()},
		},
	}

	var data discoveryData
	if err := c.query(ctx, "discover", discoveryQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("discover candidates: %w", err)
	}

	seen := make(map[int64]struct{}, len(data.Event))
	ids := make([]string, 0, limit)
	for _, row := range data.Event {
		if !row.TokenPK.Valid {
			continue
		}
		if _, ok := seen[row.TokenPK.Value]; ok {
			continue
		}
		seen[row.TokenPK.Value] = struct{}{}
		ids = append(ids, strconv.FormatInt(row.TokenPK.Value, 10))
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

// FetchTokenHistory returns every non-reverted, timestamped event of the token.
// Records with an unknown kind fail the whole fetch with domain.ErrInvalidEvent.
func (c *Client) FetchTokenHistory(ctx context.Context, tokenID string) ([]domain.Event, error) {
	pk, err := strconv.ParseInt(tokenID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("token id %q is not a token_pk: %w", tokenID, err)
	}
	vars := map[string]any{
		"where": map[string]any{
			"timestamp": map[string]bool{"_is_null": false},
			"reverted":  map[string]bool{"_neq": true},
			"token_pk":  map[string]int64{"_eq": pk},
		},
		"order_by": []map[string]string{
			{"id": "asc"},
			{"timestamp": "asc"},
		},
	}

	var data historyData
	if err := c.query(ctx, "history", historyQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("fetch history %s: %w", tokenID, err)
	}

	events := make([]domain.Event, 0, len(data.Event))
	for i := range data.Event {
		e, err := toEvent(tokenID, &data.Event[i])
		if err != nil {
			return nil, fmt.Errorf("token %s: %w", tokenID, err)
		}
		events = append(events, e)
	}
	return events, nil
}

// toEvent maps one wire row onto domain.Event.
func toEvent(tokenID string, w *wireEvent) (domain.Event, error) {
	if !w.ID.Valid {
		return domain.Event{}, fmt.Errorf("%w: event without id", domain.ErrInvalidEvent)
	}
	if w.Timestamp == nil {
		return domain.Event{}, fmt.Errorf("%w: event %d without timestamp", domain.ErrInvalidEvent, w.ID.Value)
	}
	ts, err := time.Parse(time.RFC3339, *w.Timestamp)
	if err != nil {
		return domain.Event{}, fmt.Errorf("%w: event %d timestamp: %v", domain.ErrInvalidEvent, w.ID.Value, err)
	}
	kind, err := domain.ParseEventKind(deref(w.EventType))
	if err != nil {
		return domain.Event{}, err
	}
	mkind, err := domain.ParseMarketplaceKind(deref(w.MarketplaceEventType))
	if err != nil {
		return domain.Event{}, err
	}

	e := domain.Event{
		TokenID:             tokenID,
		SequenceID:          w.ID.Value,
		Timestamp:           ts.UTC(),
		Kind:                kind,
		MarketplaceKind:     mkind,
		Creator:             toCreator(w),
		RecipientAddress:    w.RecipientAddress,
		Price:               w.Price.ptr(),
		Amount:              w.Amount.Value,
		FAContract:          deref(w.FAContract),
		MarketplaceContract: deref(w.MarketplaceContract),
	}
	if w.Marketplace != nil {
		e.Marketplace = w.Marketplace.Name
	}
	if w.Token != nil {
		e.TokenName = deref(w.Token.Name)
		for _, r := range w.Token.Royalties {
			e.RoyaltyShares = append(e.RoyaltyShares, domain.RoyaltyShare{
				Amount:   r.Amount.Value,
				Decimals: r.Decimals,
			})
		}
	}
	return e, nil
}

// toCreator prefers the joined holder profile and falls back to creator_address.
func toCreator(w *wireEvent) *domain.Creator {
	if w.Creator != nil && w.Creator.Address != "" {
		return &domain.Creator{
			Address:   w.Creator.Address,
			Alias:     w.Creator.Alias,
			Twitter:   w.Creator.Twitter,
			Instagram: w.Creator.Instagram,
			Facebook:  w.Creator.Facebook,
			Email:     w.Creator.Email,
			TzDomain:  w.Creator.TzDomain,
		}
	}
	if w.CreatorAddress != nil && *w.CreatorAddress != "" {
		return &domain.Creator{Address: *w.CreatorAddress}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
