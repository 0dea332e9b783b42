package signal

import "errors"

// Sentinel errors returned by Evaluate. Each maps onto one domain.SkipReason.
var (
	// ErrArtistNotFound is returned when no LIST_CREATE event exists.
	ErrArtistNotFound = errors.New("artist not found")

	// ErrMalformedRecord is returned when a record lacks a required field or carries an unknown kind.
	ErrMalformedRecord = errors.New("malformed event record")

	// ErrDegenerateListing is returned when the artist's net listed editions is zero.
	ErrDegenerateListing = errors.New("degenerate listing: zero editions listed")

	// ErrAlreadyHeld is returned when the operator already received the token.
	ErrAlreadyHeld = errors.New("token already held")

	// ErrUnavailable is returned when the availability gate rejects the token.
	ErrUnavailable = errors.New("token unavailable")
)
