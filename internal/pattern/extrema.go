package pattern

// FindPeaks returns the indices i whose value is strictly greater than each of
// the window values to the left and at least each of the window values to the
// right. Only indices with a full window on both sides qualify, so the first
// bar of a plateau wins and a flat series has no peaks.
func FindPeaks(values []float64, window int) []int {
	return findExtrema(values, window, func(center, other float64) bool { return center > other },
		func(center, other float64) bool { return center >= other })
}

// FindTroughs is the mirror of FindPeaks.
func FindTroughs(values []float64, window int) []int {
	return findExtrema(values, window, func(center, other float64) bool { return center < other },
		func(center, other float64) bool { return center <= other })
}

func findExtrema(values []float64, window int, left, right func(center, other float64) bool) []int {
	if window < 1 {
		window = 1
	}

	var indices []int

	for i := window; i+window < len(values); i++ {
		ok := true

		for j := i - window; j < i && ok; j++ {
			ok = left(values[i], values[j])
		}

		for j := i + 1; j <= i+window && ok; j++ {
			ok = right(values[i], values[j])
		}

		if ok {
			indices = append(indices, i)
		}
	}

	return indices
}
