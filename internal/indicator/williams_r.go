package indicator

import "math"

// williamsR is -100 * (HH - close) / (HH - LL) over the trailing period.
func (m *ManualCalculator) williamsR(highs, lows, closes []float64, period int) Line {
	out := nanLine(len(closes))
	if period < 1 || len(closes) < period {
		return out
	}

	for i := period - 1; i < len(closes); i++ {
		hh, ll := highs[i], lows[i]
		for j := i - period + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}

		if diff := hh - ll; diff != 0 {
			out[i] = -100 * (hh - closes[i]) / diff
		} else {
			out[i] = 0
		}
	}

	return out
}
