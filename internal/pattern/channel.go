package pattern

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

type channelFit struct {
	start, end   int
	variant      types.PatternVariant
	upper, lower LinearFit
}

// detectTrendChannels fits parallel lines over half-overlapping windows and
// merges adjacent windows that trend the same way.
func detectTrendChannels(c *detectContext) []types.Pattern {
	w := c.cfg.ChannelWindow
	step := max(1, w/2)

	fits := make([]channelFit, 0)
	for start := 0; start+w <= c.n; start += step {
		if fit, ok := c.channel(start, start+w-1); ok {
			fits = append(fits, fit)
		}
	}

	patterns := make([]types.Pattern, 0)

	for i := 0; i < len(fits); {
		j := i
		for j+1 < len(fits) && fits[j+1].variant == fits[i].variant && fits[j+1].start <= fits[j].end+1 {
			j++
		}

		if j > i {
			if merged, ok := c.channel(fits[i].start, fits[j].end); ok && merged.variant == fits[i].variant {
				patterns = append(patterns, c.channelPattern(merged))
				i = j + 1

				continue
			}
		}

		for k := i; k <= j; k++ {
			patterns = append(patterns, c.channelPattern(fits[k]))
		}
		i = j + 1
	}

	if p, ok := c.weakening(); ok {
		patterns = append(patterns, p)
	}

	return patterns
}

// channel fits one window. The close regression sets the shared slope.
func (c *detectContext) channel(start, end int) (channelFit, bool) {
	kind := types.PatternTrendChannel

	xs := make([]float64, end-start+1)
	for i := range xs {
		xs[i] = float64(start + i)
	}

	trend, err := Fit(xs, c.closes[start:end+1])
	if err != nil || trend.ConstantY {
		return channelFit{}, false
	}

	upper, err := FitWithSlope(xs, c.highs[start:end+1], trend.Slope)
	if err != nil || upper.ConstantY {
		return channelFit{}, false
	}

	lower, err := FitWithSlope(xs, c.lows[start:end+1], trend.Slope)
	if err != nil || lower.ConstantY {
		return channelFit{}, false
	}

	if upper.RSquared < c.cfg.RSquaredThreshold || lower.RSquared < c.cfg.RSquaredThreshold {
		c.reject(kind, start, end, "channel boundary fit below threshold")
		return channelFit{}, false
	}

	scale := c.meanAbsClose(start, end)
	if scale == 0 {
		return channelFit{}, false
	}

	variant := types.VariantHorizontal
	switch c.classify(trend.Slope / scale) {
	case slopeRising:
		variant = types.VariantUp
	case slopeFalling:
		variant = types.VariantDown
	}

	return channelFit{start: start, end: end, variant: variant, upper: upper, lower: lower}, true
}

func (c *detectContext) channelPattern(f channelFit) types.Pattern {
	x := float64(f.end)
	resistance, support := f.upper.At(x), f.lower.At(x)

	p := types.Pattern{
		Kind:      types.PatternTrendChannel,
		Variant:   f.variant,
		Start:     f.start,
		End:       f.end,
		Direction: types.BiasNeutral,
		Levels: types.KeyLevels{
			Resistance: optional.Some(resistance),
			Support:    optional.Some(support),
		},
		Description: fmt.Sprintf("%s channel between %.4f and %.4f", f.variant, support, resistance),
	}

	switch f.variant {
	case types.VariantUp:
		p.Direction = types.BiasBullish
		p.Levels.Target = optional.Some(resistance)
		p.Levels.Invalidation = optional.Some(support)
	case types.VariantDown:
		p.Direction = types.BiasBearish
		p.Levels.Target = optional.Some(support)
		p.Levels.Invalidation = optional.Some(resistance)
	}

	fit := math.Min(f.upper.RSquared, f.lower.RSquared)

	return c.finish(p, fit, 1-math.Abs(f.upper.RSquared-f.lower.RSquared))
}

// weakening reports a neutral pattern when the trailing short regression slope
// has lost most of the trailing long trend.
func (c *detectContext) weakening() (types.Pattern, bool) {
	short, long := c.cfg.WeakeningShortWindow, c.cfg.WeakeningLongWindow
	if short >= long || c.n < long {
		return types.Pattern{}, false
	}

	longFit, ok := c.trailingFit(long)
	if !ok || longFit.ConstantY {
		return types.Pattern{}, false
	}

	shortFit, ok := c.trailingFit(short)
	if !ok {
		return types.Pattern{}, false
	}

	scale := c.meanAbsClose(c.n-long, c.n-1)
	if scale == 0 {
		return types.Pattern{}, false
	}

	prior := c.classify(longFit.Slope / scale)
	if prior == slopeFlat {
		return types.Pattern{}, false
	}

	limit := math.Abs(longFit.Slope) * c.cfg.WeakeningSlopeRatio
	if math.Abs(shortFit.Slope) >= limit {
		return types.Pattern{}, false
	}

	trend := types.BiasBullish
	if prior == slopeFalling {
		trend = types.BiasBearish
	}

	start, end := c.n-short, c.n-1
	p := types.Pattern{
		Kind:      types.PatternTrendChannel,
		Variant:   types.VariantWeakening,
		Start:     start,
		End:       end,
		Direction: types.BiasNeutral,
		Levels: types.KeyLevels{
			Resistance: optional.Some(c.highs[maxIndex(c.highs, start, end)]),
			Support:    optional.Some(c.lows[minIndex(c.lows, start, end)]),
		},
		Description: fmt.Sprintf("Previous %s trend showing signs of weakening", trend),
	}

	return c.finish(p, longFit.RSquared, 1-math.Abs(shortFit.Slope)/limit), true
}

// trailingFit regresses the last w closes on their bar index.
func (c *detectContext) trailingFit(w int) (LinearFit, bool) {
	start := c.n - w
	xs := make([]float64, w)
	for i := range xs {
		xs[i] = float64(start + i)
	}

	fit, err := Fit(xs, c.closes[start:])
	if err != nil {
		return LinearFit{}, false
	}

	return fit, true
}
