package puzzle

import (
	"fmt"
	"math"
)

const (
	second = 1
	minute = 60 * second
	hour   = 60 * minute
	day    = 24 * hour
	month  = 31 * day
	year   = 365 * day
)

// ETA formats the time needed for remaining squarings at speed squarings
// per second, truncated to whole units.
func ETA(remaining uint64, speed float64) string {
	if speed <= 0 || math.IsNaN(speed) {
		return "unknown"
	}
	f := math.Floor(float64(remaining) / speed)
	seconds := uint64(math.MaxInt64)
	if f < math.MaxInt64 {
		seconds = uint64(f)
	}
	switch {
	case seconds < 100*second:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds < 100*minute:
		return fmt.Sprintf("%d minutes", seconds/minute)
	case seconds < 100*hour:
		return fmt.Sprintf("%d hours", seconds/hour)
	case seconds < 60*day:
		return fmt.Sprintf("%d days", seconds/day)
	case seconds < 20*month:
		return fmt.Sprintf("%d months", seconds/month)
	default:
		return fmt.Sprintf("%d years", seconds/year)
	}
}
