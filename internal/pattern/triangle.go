package pattern

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// slopeClass buckets a normalized slope.
type slopeClass int

const (
	slopeFlat slopeClass = iota
	slopeRising
	slopeFalling
)

func (c *detectContext) classify(normalized float64) slopeClass {
	switch {
	case math.Abs(normalized) < c.cfg.FlatSlopePct:
		return slopeFlat
	case normalized > 0:
		return slopeRising
	default:
		return slopeFalling
	}
}

// detectTriangle fits boundary lines through the swing highs and lows of the
// trailing window and classifies their slopes.
func detectTriangle(c *detectContext) []types.Pattern {
	kind := types.PatternTriangle

	w := min(c.cfg.TriangleMaxWindow, max(c.cfg.TriangleMinWindow, c.n/2))
	w = min(w, c.n)
	start, end := c.n-w, c.n-1

	upper, okUpper := c.boundary(FindPeaks(c.highs[start:], c.cfg.SwingWindow), c.highs, start)
	lower, okLower := c.boundary(FindTroughs(c.lows[start:], c.cfg.SwingWindow), c.lows, start)
	if !okUpper || !okLower {
		c.reject(kind, start, end, "not enough swing points")
		return nil
	}

	if upper.RSquared < c.cfg.RSquaredThreshold || lower.RSquared < c.cfg.RSquaredThreshold {
		c.reject(kind, start, end, "boundary fit below threshold")
		return nil
	}

	scale := c.meanAbsClose(start, end)
	if scale == 0 {
		return nil
	}

	top, bottom := c.classify(upper.Slope/scale), c.classify(lower.Slope/scale)

	var variant types.PatternVariant
	direction := types.BiasNeutral

	switch {
	case top == slopeFlat && bottom == slopeRising:
		variant, direction = types.VariantAscending, types.BiasBullish
	case top == slopeFalling && bottom == slopeFlat:
		variant, direction = types.VariantDescending, types.BiasBearish
	case top == slopeFalling && bottom == slopeRising:
		variant = types.VariantSymmetrical
	case top == slopeFlat && bottom == slopeFlat:
		variant = types.VariantConsolidation
	default:
		c.reject(kind, start, end, "boundary slopes do not converge")
		return nil
	}

	resistance := upper.At(float64(end))
	support := lower.At(float64(end))
	height := upper.At(float64(start)) - lower.At(float64(start))

	p := types.Pattern{
		Kind:      kind,
		Variant:   variant,
		Start:     start,
		End:       end,
		Direction: direction,
		Levels: types.KeyLevels{
			Resistance: optional.Some(resistance),
			Support:    optional.Some(support),
		},
		Description: fmt.Sprintf("%s triangle between %.4f and %.4f", variant, support, resistance),
	}

	switch variant {
	case types.VariantAscending:
		p.Levels.Target = optional.Some(resistance + height)
		p.Levels.Invalidation = optional.Some(support)
	case types.VariantDescending:
		p.Levels.Target = optional.Some(support - height)
		p.Levels.Invalidation = optional.Some(resistance)
	}

	fit := math.Min(upper.RSquared, lower.RSquared)

	return []types.Pattern{c.finish(p, fit, 1-math.Abs(upper.RSquared-lower.RSquared))}
}

// boundary fits a line through swing points given relative to offset.
func (c *detectContext) boundary(points []int, values []float64, offset int) (LinearFit, bool) {
	if len(points) < 2 {
		return LinearFit{}, false
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p + offset)
		ys[i] = values[p+offset]
	}

	fit, err := Fit(xs, ys)
	if err != nil {
		return LinearFit{}, false
	}

	return fit, true
}
