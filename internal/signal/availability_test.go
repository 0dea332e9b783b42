package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAvailable_Boundaries(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name   string
		listed int64
		sold   int64
		want   bool
	}{
		{"listed at min", 1, 0, false},
		{"listed at max", 100, 3, false},
		{"sold at min", 10, 2, false},
		{"listed equals sold", 50, 50, false},
		{"listed below sold", 5, 7, false},
		{"negative listed", -4, 3, false},
		{"accepted", 5, 3, true},
		{"upper edge accepted", 99, 98, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAvailable(tt.listed, tt.sold, th))
		})
	}
}

func TestIsAvailable_CustomThresholds(t *testing.T) {
	th := Thresholds{MinListed: 0, MaxListed: 10, MinSold: 0}
	assert.True(t, IsAvailable(2, 1, th))
	assert.False(t, IsAvailable(10, 1, th))
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())
	assert.Error(t, Thresholds{MinListed: 5, MaxListed: 6, MinSold: 0}.Validate())
	assert.Error(t, Thresholds{MinListed: -1, MaxListed: 10, MinSold: 0}.Validate())
}
