package indicator

import "math"

const cciConstant = 0.015

// cci is (tp - mean(tp)) / (0.015 * mean absolute deviation of tp) over the period.
func (m *ManualCalculator) cci(highs, lows, closes []float64, period int) Line {
	out := nanLine(len(closes))
	if period < 1 || len(closes) < period {
		return out
	}

	tp := typicalPrices(highs, lows, closes)
	for i := period - 1; i < len(tp); i++ {
		window := tp[i-period+1 : i+1]

		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)

		deviation := 0.0
		for _, v := range window {
			deviation += math.Abs(v - mean)
		}
		deviation /= float64(period)

		diff := tp[i] - mean
		if deviation != 0 && diff != 0 {
			out[i] = diff / (cciConstant * deviation)
		} else {
			out[i] = 0
		}
	}

	return out
}
