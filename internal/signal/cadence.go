package signal

import "math"

// AverageCollectInterval returns the floored mean gap between consecutive purchase
// timestamps (minutes, ascending). ok is false when fewer than two timestamps exist,
// meaning the interval is undefined rather than zero.
func AverageCollectInterval(minutes []int64) (interval float64, ok bool) {
	if len(minutes) < 2 {
		return 0, false
	}
	var total int64
	for i := 1; i < len(minutes); i++ {
		total += minutes[i] - minutes[i-1]
	}
	return math.Floor(float64(total) / float64(len(minutes)-1)), true
}
