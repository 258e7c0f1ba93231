package prediction

import (
	"math"
	"sort"

	"github.com/rxtech-lab/argo-chart/internal/pattern"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// SwingMagnitude is the mean absolute move between consecutive swing extremes
// over the trailing lookback bars. With fewer than two swings it falls back to
// the mean high-low range of the same bars.
func SwingMagnitude(series types.Series, lookback, swingWindow int) float64 {
	n := series.Len()
	if n == 0 {
		return 0
	}

	window := series.Window(max(0, n-lookback), n)
	highs, lows := window.Highs(), window.Lows()

	type swing struct {
		index int
		price float64
	}

	swings := make([]swing, 0)
	for _, i := range pattern.FindPeaks(highs, swingWindow) {
		swings = append(swings, swing{index: i, price: highs[i]})
	}
	for _, i := range pattern.FindTroughs(lows, swingWindow) {
		swings = append(swings, swing{index: i, price: lows[i]})
	}

	if len(swings) >= 2 {
		sort.SliceStable(swings, func(i, j int) bool { return swings[i].index < swings[j].index })

		total := 0.0
		for i := 1; i < len(swings); i++ {
			total += math.Abs(swings[i].price - swings[i-1].price)
		}

		return total / float64(len(swings)-1)
	}

	total := 0.0
	for i := range highs {
		total += highs[i] - lows[i]
	}

	return total / float64(len(highs))
}
