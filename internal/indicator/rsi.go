package indicator

import "math"

// neutralRSIValue is reported when the trailing period+1 closes are identical.
const neutralRSIValue = 50.0

// rsiEpsilon is the gain plus loss below which a window counts as motionless.
// It applies to closes normalized by unitScale, so it is relative to the price level.
const rsiEpsilon = 1e-14

// rsi uses Wilder smoothing seeded with the simple mean of the first period changes.
func (m *ManualCalculator) rsi(closes []float64, period int) Line {
	out := nanLine(len(closes))
	if period < 2 || len(closes) <= period {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change < 0 {
			avgLoss -= change
		} else {
			avgGain += change
		}
	}

	p := float64(period)
	avgGain /= p
	avgLoss /= p
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change < 0 {
			loss = -change
		} else {
			gain = change
		}

		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	total := avgGain + avgLoss
	if total > -rsiEpsilon && total < rsiEpsilon {
		return 0
	}

	return 100 * avgGain / total
}

// unitScale divides values by their mean magnitude. RSI is scale invariant, so
// this keeps the epsilon cutoff meaningful for very small or very large prices.
func unitScale(values []float64) []float64 {
	mean := 0.0
	for _, v := range values {
		mean += math.Abs(v)
	}

	out := make([]float64, len(values))
	if mean == 0 {
		copy(out, values)
		return out
	}

	mean /= float64(len(values))
	for i, v := range values {
		out[i] = v / mean
	}

	return out
}

// neutralRSI replaces the value at every index whose trailing period+1 closes
// are all equal with the neutral reading.
func neutralRSI(line Line, closes []float64, period int) Line {
	for i := period; i < len(closes); i++ {
		if allEqual(closes[i-period : i+1]) {
			line[i] = neutralRSIValue
		}
	}

	return line
}
