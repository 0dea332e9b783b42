package signal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objkt-signal-lab/internal/domain"
)

func TestResolveArtist_FirstListCreate(t *testing.T) {
	events := []domain.Event{
		transfer(1, minute(0), "tz1mint", artistAddr),
		listCreate(2, minute(1), artistAddr, 10),
		listCreate(3, minute(2), collectorAddr, 1),
	}

	artist, err := ResolveArtist(events)
	require.NoError(t, err)
	assert.Equal(t, artistAddr, artist.Address)
}

func TestResolveArtist_KeepsProfile(t *testing.T) {
	e := listCreate(1, minute(0), artistAddr, 5)
	e.Creator.Alias = ptr("painter")
	e.Creator.Twitter = ptr("@painter")

	artist, err := ResolveArtist([]domain.Event{e})
	require.NoError(t, err)
	require.NotNil(t, artist.Alias)
	assert.Equal(t, "painter", *artist.Alias)
	assert.Equal(t, "@painter", *artist.Twitter)
}

func TestResolveArtist_NotFound(t *testing.T) {
	events := []domain.Event{
		transfer(1, minute(0), "tz1mint", artistAddr),
		listBuy(2, minute(1), collectorAddr, 1_000_000),
	}

	_, err := ResolveArtist(events)
	assert.ErrorIs(t, err, ErrArtistNotFound)

	_, err = ResolveArtist(nil)
	assert.ErrorIs(t, err, ErrArtistNotFound)
}

func TestResolveArtist_MissingCreator(t *testing.T) {
	e := listCreate(1, minute(0), artistAddr, 5)
	e.Creator = nil

	_, err := ResolveArtist([]domain.Event{e})
	assert.True(t, errors.Is(err, ErrMalformedRecord), "got %v", err)

	e.Creator = &domain.Creator{}
	_, err = ResolveArtist([]domain.Event{e})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
