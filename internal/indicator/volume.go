package indicator

import "math"

// volumeLines returns the volume moving average and volume / average.
// The ratio is undefined where the average is zero.
func volumeLines(volumes []float64, period int, k kernels, cache *Cache) (average, ratio Line) {
	average = cache.Line(cacheKey("volume", "sma", period), func() Line { return k.sma(volumes, period) })

	ratio = nanLine(len(volumes))
	for i := range volumes {
		if math.IsNaN(average[i]) || average[i] <= 0 {
			continue
		}

		ratio[i] = volumes[i] / average[i]
	}

	return average, ratio
}
