package pattern

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// BreakoutStrength tiers a breakout by how far the close penetrated the level.
type BreakoutStrength string

const (
	BreakoutMinor    BreakoutStrength = "minor"
	BreakoutModerate BreakoutStrength = "moderate"
	BreakoutStrong   BreakoutStrength = "strong"
)

// ClassifyBreakout maps a relative penetration to a tier.
func ClassifyBreakout(penetration float64) BreakoutStrength {
	switch {
	case penetration < 0.01:
		return BreakoutMinor
	case penetration < 0.03:
		return BreakoutModerate
	default:
		return BreakoutStrong
	}
}

// detectBreakouts reports closes that cross a tested level of the previous
// lookback bars on expanded volume.
func detectBreakouts(c *detectContext) []types.Pattern {
	lookback := c.cfg.BreakoutLookback
	patterns := make([]types.Pattern, 0)

	for t := lookback; t < c.n; t++ {
		from := t - lookback
		resistance := c.highs[maxIndex(c.highs, from, t-1)]
		support := c.lows[minIndex(c.lows, from, t-1)]
		meanVolume := mean(c.volumes[from:t])

		if c.volumes[t] < c.cfg.VolumeBreakoutMultiple*meanVolume || meanVolume <= 0 {
			continue
		}

		upper := resistance + math.Abs(resistance)*c.cfg.BreakoutMarginPct
		if c.closes[t] > upper && c.closes[t-1] <= upper {
			touches := touchCount(c.highs[from:t], resistance, c.cfg.LevelTouchTolerancePct)
			if touches < c.cfg.MinLevelTouches {
				c.reject(types.PatternBreakout, from, t, "resistance not tested enough")
			} else {
				patterns = append(patterns, c.breakout(from, t, resistance, support, touches, meanVolume, true))
			}
		}

		lower := support - math.Abs(support)*c.cfg.BreakoutMarginPct
		if c.closes[t] < lower && c.closes[t-1] >= lower {
			touches := touchCount(c.lows[from:t], support, c.cfg.LevelTouchTolerancePct)
			if touches < c.cfg.MinLevelTouches {
				c.reject(types.PatternBreakout, from, t, "support not tested enough")
			} else {
				patterns = append(patterns, c.breakout(from, t, resistance, support, touches, meanVolume, false))
			}
		}
	}

	return patterns
}

func (c *detectContext) breakout(from, t int, resistance, support float64, touches int, meanVolume float64, up bool) types.Pattern {
	height := resistance - support

	p := types.Pattern{
		Kind:  types.PatternBreakout,
		Start: from,
		End:   t,
		Levels: types.KeyLevels{
			Resistance: optional.Some(resistance),
			Support:    optional.Some(support),
		},
	}

	var level float64
	if up {
		level = resistance
		p.Variant = types.VariantResistanceBreakout
		p.Direction = types.BiasBullish
		p.Levels.Target = optional.Some(resistance + height)
		p.Levels.Invalidation = optional.Some(resistance)
	} else {
		level = support
		p.Variant = types.VariantSupportBreakdown
		p.Direction = types.BiasBearish
		p.Levels.Target = optional.Some(support - height)
		p.Levels.Invalidation = optional.Some(support)
	}

	penetration := 0.0
	if level != 0 {
		penetration = math.Abs(c.closes[t]-level) / math.Abs(level)
	}

	strength := ClassifyBreakout(penetration)
	p.Description = fmt.Sprintf("%s %s of %.4f on %.2fx volume", strength, p.Variant, level, c.volumes[t]/meanVolume)

	fit := float64(touches) / float64(2*max(1, c.cfg.MinLevelTouches))

	return c.finish(p, fit, penetration/0.03)
}

func touchCount(values []float64, level, tolerance float64) int {
	band := math.Abs(level) * tolerance
	count := 0
	for _, v := range values {
		if math.Abs(v-level) <= band {
			count++
		}
	}

	return count
}
