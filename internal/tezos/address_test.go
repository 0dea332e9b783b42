package tezos

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func testKey(t *testing.T, seedByte byte) ed25519.PublicKey {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = seedByte
	}
	return ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
}

func TestAddressFromPublicKey(t *testing.T) {
	pub := testKey(t, 7)
	edpk, err := EncodePublicKey(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(edpk, "edpk"), "got %s", edpk)

	addr, err := AddressFromPublicKey(edpk)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "tz1"), "got %s", addr)
	assert.Len(t, addr, 36)

	h, err := blake2b.New(20, nil)
	require.NoError(t, err)
	h.Write(pub)
	assert.Equal(t, EncodeCheck(prefixTz1, h.Sum(nil)), addr)

	kind, err := ParseAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, KindEd25519, kind)
}

func TestAddressFromPublicKey_Deterministic(t *testing.T) {
	edpk, err := EncodePublicKey(testKey(t, 1))
	require.NoError(t, err)

	a, err := AddressFromPublicKey(edpk)
	require.NoError(t, err)
	b, err := AddressFromPublicKey(edpk)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := EncodePublicKey(testKey(t, 2))
	require.NoError(t, err)
	c, err := AddressFromPublicKey(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestAddressFromPublicKey_Invalid(t *testing.T) {
	_, err := AddressFromPublicKey("not-base58-0OIl")
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	// Valid checksum, wrong prefix.
	_, err = AddressFromPublicKey(EncodeCheck(prefixTz1, make([]byte, 32)))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	_, err = EncodePublicKey(make([]byte, 31))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestParseAddress_Kinds(t *testing.T) {
	hash := make([]byte, 20)
	for i := range hash {
		hash[i] = byte(i)
	}

	tests := []struct {
		prefix []byte
		want   AddressKind
		lead   string
	}{
		{prefixTz1, KindEd25519, "tz1"},
		{prefixTz2, KindSecp256k1, "tz2"},
		{prefixTz3, KindP256, "tz3"},
		{prefixTz4, KindBLS, "tz4"},
		{prefixKT1, KindOriginated, "KT1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			addr := EncodeCheck(tt.prefix, hash)
			assert.True(t, strings.HasPrefix(addr, tt.lead), "got %s", addr)

			kind, err := ParseAddress(addr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
			assert.NoError(t, ValidateAddress(addr))
		})
	}
}

func TestValidateAddress_Invalid(t *testing.T) {
	valid := EncodeCheck(prefixTz1, make([]byte, 20))

	// Flip the last character to break the checksum.
	last := valid[len(valid)-1]
	replacement := byte('a')
	if last == 'a' {
		replacement = 'b'
	}
	corrupted := valid[:len(valid)-1] + string(replacement)

	for _, addr := range []string{"", "tz1short", corrupted, "tz1self"} {
		assert.ErrorIs(t, ValidateAddress(addr), ErrInvalidAddress, "address %q", addr)
	}
}

func TestDecodeCheck_RoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	body, err := DecodeCheck(EncodeCheck(prefixKT1, payload))
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, prefixKT1...), payload...), body)
}
