package signal

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objkt-signal-lab/internal/domain"
)

// availableHistory lists 5 editions and sells 3 of them, out of order.
func availableHistory() []domain.Event {
	events := []domain.Event{
		listBuy(12, minute(125), "tz1c", 4_000_000),
		listCreate(10, minute(50), artistAddr, 5),
		listBuy(11, minute(110), "tz1b", 3_000_000),
		listBuy(9, minute(100), "tz1a", 2_000_000),
	}
	for i := range events {
		events[i].TokenName = "Sunrise"
		events[i].FAContract = "KT1RJ6PbjHpwc3M5rw5s2Nbmefwbuwbdxton"
		events[i].Marketplace = "objkt_marketplace_v2"
	}
	// The feed repeats royalties on every record.
	return withRoyalties(events, domain.RoyaltyShare{Amount: 100000, Decimals: 6})
}

func TestEvaluate_Available(t *testing.T) {
	sig, err := Evaluate("T1", availableHistory(), selfAddr, DefaultThresholds())
	require.NoError(t, err)
	require.NotNil(t, sig)

	assert.Equal(t, "T1", sig.TokenID)
	assert.Equal(t, artistAddr, sig.Artist.Address)
	assert.Equal(t, int64(5), sig.EditionsListed)
	assert.Equal(t, int64(3), sig.EditionsSold)
	assert.InDelta(t, 0.6, sig.SoldRate, 1e-12)
	assert.Equal(t, 10.0, sig.RoyaltyPercent)
	assert.True(t, sig.IsAvailable)

	require.NotNil(t, sig.Price)
	assert.Equal(t, "2", sig.Price.String())

	require.NotNil(t, sig.AvgCollectIntervalMinutes)
	assert.Equal(t, 12.0, *sig.AvgCollectIntervalMinutes)

	assert.Equal(t, "Sunrise", sig.TokenName)
	assert.Equal(t, "objkt_marketplace_v2", sig.Marketplace)
	assert.Equal(t, minute(50), sig.FirstListedAt)
	assert.Equal(t, minute(125), sig.LastEventAt)
}

func TestEvaluate_DoesNotMutateInput(t *testing.T) {
	events := availableHistory()
	before := make([]domain.Event, len(events))
	copy(before, events)

	_, err := Evaluate("T1", events, selfAddr, DefaultThresholds())
	require.NoError(t, err)
	assert.Equal(t, before, events)
}

func TestEvaluate_Idempotent(t *testing.T) {
	a, errA := Evaluate("T1", availableHistory(), selfAddr, DefaultThresholds())
	b, errB := Evaluate("T1", availableHistory(), selfAddr, DefaultThresholds())
	require.NoError(t, errA)
	require.NoError(t, errB)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical signals:\n%+v\n%+v", a, b)
	}
}

func TestEvaluate_ResolutionFailure(t *testing.T) {
	events := []domain.Event{listBuy(1, minute(0), "tz1a", 1_000_000)}
	sig, err := Evaluate("T1", events, selfAddr, DefaultThresholds())
	assert.Nil(t, sig)
	assert.ErrorIs(t, err, ErrArtistNotFound)
}

func TestEvaluate_UnknownKind(t *testing.T) {
	events := availableHistory()
	events[0].MarketplaceKind = domain.MarketplaceKind("LIST_SWAP")

	sig, err := Evaluate("T1", events, selfAddr, DefaultThresholds())
	assert.Nil(t, sig)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestEvaluate_AlreadyHeld(t *testing.T) {
	events := append(availableHistory(), transfer(20, minute(200), "tz1a", selfAddr))

	sig, err := Evaluate("T1", events, selfAddr, DefaultThresholds())
	assert.Nil(t, sig)
	assert.ErrorIs(t, err, ErrAlreadyHeld)
}

func TestEvaluate_Degenerate(t *testing.T) {
	events := []domain.Event{
		listCreate(1, minute(0), artistAddr, 3),
		listCancel(2, minute(1), artistAddr, 3),
		listBuy(3, minute(2), "tz1a", 1_000_000),
	}

	sig, err := Evaluate("T2", events, selfAddr, DefaultThresholds())
	assert.ErrorIs(t, err, ErrDegenerateListing)
	require.NotNil(t, sig)
	assert.Equal(t, 0.0, sig.SoldRate)
	assert.False(t, sig.IsAvailable)
	assert.Nil(t, sig.AvgCollectIntervalMinutes)
}

func TestEvaluate_Unavailable(t *testing.T) {
	events := []domain.Event{
		listCreate(1, minute(0), artistAddr, 2),
		listBuy(2, minute(1), "tz1a", 1_000_000),
		listBuy(3, minute(2), "tz1b", 1_000_000),
	}

	sig, err := Evaluate("T3", events, selfAddr, DefaultThresholds())
	assert.ErrorIs(t, err, ErrUnavailable)
	require.NotNil(t, sig)
	assert.Equal(t, 1.0, sig.SoldRate)
	assert.False(t, sig.IsAvailable)
}

func TestEvaluate_NegativeListed(t *testing.T) {
	events := []domain.Event{
		listCreate(1, minute(0), artistAddr, 1),
		listCancel(2, minute(1), artistAddr, 3),
		listBuy(3, minute(2), "tz1a", 1_000_000),
	}

	sig, err := Evaluate("T4", events, selfAddr, DefaultThresholds())
	assert.ErrorIs(t, err, ErrUnavailable)
	require.NotNil(t, sig)
	assert.Equal(t, int64(-2), sig.EditionsListed)
	assert.Equal(t, -0.5, sig.SoldRate)
}
