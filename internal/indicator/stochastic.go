package indicator

import "math"

func (m *ManualCalculator) highest(values []float64, period int) Line {
	return m.extreme(values, period, math.Max)
}

func (m *ManualCalculator) lowest(values []float64, period int) Line {
	return m.extreme(values, period, math.Min)
}

func (m *ManualCalculator) extreme(values []float64, period int, pick func(a, b float64) float64) Line {
	out := nanLine(len(values))
	if period < 1 || len(values) < period {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		v := values[i]
		for j := i - period + 1; j < i; j++ {
			v = pick(v, values[j])
		}

		out[i] = v
	}

	return out
}

// stochasticLines returns %K = 100 * (close - LL) / (HH - LL) over kPeriod and
// %D as the simple mean of %K over dPeriod. %K is undefined when HH == LL.
func stochasticLines(highs, lows, closes []float64, kPeriod, dPeriod int, k kernels) (stochK, stochD Line) {
	hh := k.highest(highs, kPeriod)
	ll := k.lowest(lows, kPeriod)

	stochK = nanLine(len(closes))
	for i := range closes {
		if math.IsNaN(hh[i]) || math.IsNaN(ll[i]) || hh[i] == ll[i] {
			continue
		}

		stochK[i] = 100 * (closes[i] - ll[i]) / (hh[i] - ll[i])
	}

	stochD = onRuns(stochK, func(values []float64) Line { return k.sma(values, dPeriod) })

	return stochK, stochD
}
