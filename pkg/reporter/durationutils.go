package reporter

import (
	"math"
	"time"
)

func roundDuration(dur time.Duration) time.Duration {
	if dur > time.Minute {
		return dur.Round(10 * time.Second)
	}
	if dur > time.Second {
		return dur.Round(10 * time.Millisecond)
	}
	if dur > time.Millisecond {
		return dur.Round(10 * time.Microsecond)
	}
	if dur > time.Microsecond {
		return dur.Round(10 * time.Nanosecond)
	}
	return dur
}

// formatLatency formats latency in milliseconds for the console, unavailable latencies are printed as N/A.
func formatLatency(ms float64, available bool) string {
	if !available {
		return "N/A"
	}
	return roundDuration(time.Duration(ms * float64(time.Millisecond))).String()
}

func roundMs(ms float64) float64 {
	return math.Round(ms*100) / 100
}
