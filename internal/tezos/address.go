// Package tezos validates Tezos account addresses and derives them from public keys.
package tezos

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

var (
	// ErrInvalidAddress is returned for strings that are not a Tezos account address.
	ErrInvalidAddress = errors.New("invalid tezos address")

	// ErrInvalidPublicKey is returned for malformed ed25519 public keys.
	ErrInvalidPublicKey = errors.New("invalid tezos public key")

	errChecksum = errors.New("checksum mismatch")
)

// Base58check prefixes.
var (
	prefixTz1  = []byte{6, 161, 159}
	prefixTz2  = []byte{6, 161, 161}
	prefixTz3  = []byte{6, 161, 164}
	prefixTz4  = []byte{6, 161, 166}
	prefixKT1  = []byte{2, 90, 121}
	prefixEdpk = []byte{13, 15, 37, 217}
)

const (
	addressHashLen = 20
	ed25519KeyLen  = 32
	checksumLen    = 4
)

// AddressKind identifies the account type encoded by an address prefix.
type AddressKind string

const (
	KindEd25519    AddressKind = "tz1"
	KindSecp256k1  AddressKind = "tz2"
	KindP256       AddressKind = "tz3"
	KindBLS        AddressKind = "tz4"
	KindOriginated AddressKind = "KT1"
)

var addressPrefixes = map[AddressKind][]byte{
	KindEd25519:    prefixTz1,
	KindSecp256k1:  prefixTz2,
	KindP256:       prefixTz3,
	KindBLS:        prefixTz4,
	KindOriginated: prefixKT1,
}

// EncodeCheck returns base58(prefix || payload || checksum).
func EncodeCheck(prefix, payload []byte) string {
	buf := make([]byte, 0, len(prefix)+len(payload)+checksumLen)
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return base58.Encode(buf)
}

// DecodeCheck decodes a base58check string and verifies its checksum.
// The returned slice still carries the prefix.
func DecodeCheck(s string) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(raw) < checksumLen {
		return nil, errChecksum
	}
	body, sum := raw[:len(raw)-checksumLen], raw[len(raw)-checksumLen:]
	if !bytes.Equal(checksum(body), sum) {
		return nil, errChecksum
	}
	return body, nil
}

// ParseAddress validates an account or contract address and returns its kind.
func ParseAddress(addr string) (AddressKind, error) {
	if len(addr) != 36 {
		return "", fmt.Errorf("%w: %q has length %d", ErrInvalidAddress, addr, len(addr))
	}
	body, err := DecodeCheck(addr)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	for kind, prefix := range addressPrefixes {
		if len(body) == len(prefix)+addressHashLen && bytes.HasPrefix(body, prefix) {
			return kind, nil
		}
	}
	return "", fmt.Errorf("%w: %q has unknown prefix", ErrInvalidAddress, addr)
}

// ValidateAddress returns nil if addr is a well-formed tz1/tz2/tz3/tz4/KT1 address.
func ValidateAddress(addr string) error {
	_, err := ParseAddress(addr)
	return err
}

// AddressFromPublicKey derives the tz1 address of an edpk-encoded ed25519 public key.
func AddressFromPublicKey(edpk string) (string, error) {
	body, err := DecodeCheck(edpk)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(body) != len(prefixEdpk)+ed25519KeyLen || !bytes.HasPrefix(body, prefixEdpk) {
		return "", fmt.Errorf("%w: not an edpk key", ErrInvalidPublicKey)
	}
	key := body[len(prefixEdpk):]

	// Reject byte strings that do not decode to a curve point.
	if _, err := new(edwards25519.Point).SetBytes(key); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	h, err := blake2b.New(addressHashLen, nil)
	if err != nil {
		return "", err
	}
	h.Write(key)
	return EncodeCheck(prefixTz1, h.Sum(nil)), nil
}

// EncodePublicKey returns the edpk encoding of a raw 32-byte ed25519 public key.
func EncodePublicKey(key []byte) (string, error) {
	if len(key) != ed25519KeyLen {
		return "", fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidPublicKey, ed25519KeyLen, len(key))
	}
	return EncodeCheck(prefixEdpk, key), nil
}

func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:checksumLen]
}
