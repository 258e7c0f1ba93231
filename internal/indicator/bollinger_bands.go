package indicator

import "math"

// bollinger is the SMA of the window plus and minus stdDev population standard deviations.
func (m *ManualCalculator) bollinger(closes []float64, period int, stdDev float64) (upper, middle, lower Line) {
	upper, lower = nanLine(len(closes)), nanLine(len(closes))
	middle = m.sma(closes, period)

	for i := period - 1; i < len(closes) && period > 0; i++ {
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - middle[i]
			variance += d * d
		}

		sd := math.Sqrt(variance / float64(period))
		upper[i] = middle[i] + stdDev*sd
		lower[i] = middle[i] - stdDev*sd
	}

	return upper, middle, lower
}

// bollingerLines adds the band width and pins the bands to the middle on
// windows without any price range.
func bollingerLines(closes []float64, period int, stdDev float64, k kernels) (upper, middle, lower, width Line) {
	upper, middle, lower = k.bollinger(closes, period, stdDev)
	flat := flatWindows(closes, period)

	width = nanLine(len(closes))
	for i := range closes {
		if flat[i] && !math.IsNaN(middle[i]) {
			upper[i] = middle[i]
			lower[i] = middle[i]
		}

		width[i] = upper[i] - lower[i]
	}

	return upper, middle, lower, width
}
