package analysis

import (
	"math"

	"github.com/rxtech-lab/argo-chart/internal/types"
)

// ExtremeMoveThreshold is the relative close-to-close move counted as an extreme jump.
const ExtremeMoveThreshold = 0.20

// QualityReport summarizes suspicious bars in a series. It never fails an analysis.
type QualityReport struct {
	Bars                int     `json:"bars" yaml:"bars"`
	ExtremeMoves        int     `json:"extreme_moves" yaml:"extreme_moves"`
	InconsistentCandles int     `json:"inconsistent_candles" yaml:"inconsistent_candles"`
	Score               float64 `json:"score" yaml:"score"`
}

// AssessQuality counts extreme jumps and candles whose high/low do not bracket
// open and close.
func AssessQuality(series types.Series) QualityReport {
	report := QualityReport{Bars: series.Len()}

	for i, b := range series.Bars {
		if b.Low > math.Min(b.Open, b.Close) || b.High < math.Max(b.Open, b.Close) {
			report.InconsistentCandles++
		}

		if i == 0 {
			continue
		}

		prev := series.Bars[i-1].Close
		if prev != 0 && math.Abs(b.Close-prev)/math.Abs(prev) > ExtremeMoveThreshold {
			report.ExtremeMoves++
		}
	}

	score := 1 - 0.05*float64(report.ExtremeMoves) - 0.1*float64(report.InconsistentCandles)
	report.Score = math.Max(0, math.Min(1, score))

	return report
}
