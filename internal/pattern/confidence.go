package pattern

import (
	"math"

	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// Score combines the factor scores with the configured weights and clamps the
// result to [0, 1].
func Score(weights config.ConfidenceWeights, breakdown types.ConfidenceBreakdown) float64 {
	value := weights.Fit*clamp01(breakdown.Fit) +
		weights.Symmetry*clamp01(breakdown.Symmetry) +
		weights.Volume*clamp01(breakdown.Volume) +
		weights.Duration*clamp01(breakdown.Duration)

	return clamp01(value)
}

func (c *detectContext) breakdown(fit, symmetry float64, start, end int) types.ConfidenceBreakdown {
	volume := 1.0
	if c.cfg.VolumeBreakoutMultiple > 0 {
		volume = c.volumeRatio(start, end) / c.cfg.VolumeBreakoutMultiple
	}

	duration := float64(end-start+1) / (c.cfg.DurationReferenceFraction * float64(c.n))

	return types.ConfidenceBreakdown{
		Fit:      clamp01(fit),
		Symmetry: clamp01(symmetry),
		Volume:   clamp01(volume),
		Duration: clamp01(duration),
	}
}

func (c *detectContext) finish(p types.Pattern, fit, symmetry float64) types.Pattern {
	p.Score = c.breakdown(fit, symmetry, p.Start, p.End)
	p.Confidence = Score(c.cfg.Weights, p.Score)

	return p
}

// spacingSymmetry is 1 when both legs have the same bar count.
func spacingSymmetry(left, right int) float64 {
	longest := math.Max(float64(left), float64(right))
	if longest == 0 {
		return 1
	}

	return 1 - math.Abs(float64(left-right))/longest
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return math.Max(0, math.Min(1, v))
}
