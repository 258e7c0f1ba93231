package datasource

import (
	"time"

	"github.com/rxtech-lab/argo-chart/internal/types"
)

// Resample aggregates time-sorted bars into buckets of width interval,
// aligned to the Unix epoch: first open, max high, min low, last close,
// summed volume. Bars already at or above the interval pass through unchanged.
func Resample(bars []types.Bar, interval time.Duration) []types.Bar {
	result := make([]types.Bar, 0, len(bars))

	for _, b := range bars {
		bucket := b.Time.Truncate(interval)

		if n := len(result); n > 0 && result[n-1].Time.Equal(bucket) {
			last := &result[n-1]
			last.High = max(last.High, b.High)
			last.Low = min(last.Low, b.Low)
			last.Close = b.Close
			last.Volume += b.Volume

			continue
		}

		b.Time = bucket
		result = append(result, b)
	}

	return result
}
