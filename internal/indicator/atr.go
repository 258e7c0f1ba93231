package indicator

import "math"

// atr averages the true range with Wilder smoothing. The true range starts at
// bar 1 and the first ATR, at bar period, is the mean of the first period ranges.
func (m *ManualCalculator) atr(highs, lows, closes []float64, period int) Line {
	out := nanLine(len(closes))
	if period < 1 || len(closes) <= period {
		return out
	}

	tr := trueRange(highs, lows, closes)

	prev := 0.0
	for i := 1; i <= period; i++ {
		prev += tr[i]
	}

	p := float64(period)
	prev /= p
	out[period] = prev

	for i := period + 1; i < len(closes); i++ {
		prev = (prev*(p-1) + tr[i]) / p
		out[i] = prev
	}

	return out
}

func trueRange(highs, lows, closes []float64) Line {
	tr := nanLine(len(closes))
	for i := 1; i < len(closes); i++ {
		tr[i] = math.Max(highs[i]-lows[i], math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
	}

	return tr
}
