package signal

import "objkt-signal-lab/internal/domain"

// IsAlreadyHeld reports whether any TRANSFER delivered the token to selfAddress.
// An empty selfAddress never matches.
func IsAlreadyHeld(events []domain.Event, selfAddress string) bool {
	if selfAddress == "" {
		return false
	}
	for i := range events {
		e := &events[i]
		if e.Kind == domain.EventKindTransfer && e.RecipientAddress != nil && *e.RecipientAddress == selfAddress {
			return true
		}
	}
	return false
}
