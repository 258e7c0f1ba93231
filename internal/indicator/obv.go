package indicator

// obv starts at the first bar's volume and adds or subtracts each bar's volume
// by the direction of the close.
func (m *ManualCalculator) obv(closes, volumes []float64) Line {
	out := nanLine(len(closes))
	if len(closes) == 0 {
		return out
	}

	out[0] = volumes[0]
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}

	return out
}
