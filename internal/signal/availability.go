package signal

import (
	"errors"
	"fmt"
)

// Thresholds configures the availability gate. All comparisons are strict.
type Thresholds struct {
	MinListed int64 `toml:"min_listed" json:"min_listed"`
	MaxListed int64 `toml:"max_listed" json:"max_listed"`
	MinSold   int64 `toml:"min_sold" json:"min_sold"`
}

// DefaultThresholds returns the stock gate: 1 < listed < 100, sold > 2.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinListed: 1,
		MaxListed: 100,
		MinSold:   2,
	}
}

// Validate checks that the thresholds leave a non-empty acceptance window.
func (t Thresholds) Validate() error {
	if t.MinListed < 0 || t.MinSold < 0 {
		return errors.New("thresholds must be non-negative")
	}
	if t.MaxListed <= t.MinListed+1 {
		return fmt.Errorf("max_listed (%d) must exceed min_listed (%d) by more than one", t.MaxListed, t.MinListed)
	}
	return nil
}

// IsAvailable applies the threshold gate:
// listed > MinListed, listed < MaxListed, sold > MinSold and listed > sold.
func IsAvailable(listed, sold int64, th Thresholds) bool {
	return listed > th.MinListed &&
		listed < th.MaxListed &&
		sold > th.MinSold &&
		listed > sold
}
