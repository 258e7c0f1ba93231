package indicator

// sma is the arithmetic mean of the trailing period values, first defined at period-1.
func (m *ManualCalculator) sma(values []float64, period int) Line {
	out := nanLine(len(values))
	if period < 1 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}

		out[i] = sum / float64(period)
	}

	return out
}

// ema is seeded with the simple mean of the first period values and then
// smoothed with k = 2 / (period + 1).
func (m *ManualCalculator) ema(values []float64, period int) Line {
	out := nanLine(len(values))
	if period < 1 || len(values) < period {
		return out
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}

	k := 2.0 / float64(period+1)
	prev := seed / float64(period)
	out[period-1] = prev

	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out[i] = prev
	}

	return out
}
