package indicator

import "math"

// onRuns applies fn to every maximal run of defined values in line and writes
// the results back at the same positions.
func onRuns(line Line, fn func(values []float64) Line) Line {
	out := nanLine(len(line))

	start := -1
	for i := 0; i <= len(line); i++ {
		defined := i < len(line) && !math.IsNaN(line[i])
		if defined && start < 0 {
			start = i
		}

		if !defined && start >= 0 {
			copy(out[start:i], fn(line[start:i]))
			start = -1
		}
	}

	return out
}

// flatWindows marks indices whose trailing window of period values has no range.
func flatWindows(values []float64, period int) []bool {
	return flatRangeWindows(values, values, period)
}

// flatRangeWindows marks indices where the highest high equals the lowest low
// over the trailing window.
func flatRangeWindows(highs, lows []float64, period int) []bool {
	flat := make([]bool, len(highs))
	if period < 1 {
		return flat
	}

	for i := period - 1; i < len(highs); i++ {
		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}

		flat[i] = hh == ll
	}

	return flat
}

func maskFlat(line Line, flat []bool) Line {
	for i := range line {
		if flat[i] {
			line[i] = math.NaN()
		}
	}

	return line
}

func typicalPrices(highs, lows, closes []float64) []float64 {
	tp := make([]float64, len(closes))
	for i := range closes {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}

	return tp
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}

	return true
}
