package pattern

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// detectDoubles pairs each peak (trough) with the first later one of similar
// height that is far enough away and separated by a deep enough reaction.
func detectDoubles(c *detectContext) []types.Pattern {
	patterns := make([]types.Pattern, 0)
	patterns = append(patterns, c.doubles(types.PatternDoubleTop)...)
	patterns = append(patterns, c.doubles(types.PatternDoubleBottom)...)

	return patterns
}

func (c *detectContext) doubles(kind types.PatternKind) []types.Pattern {
	top := kind == types.PatternDoubleTop

	extrema, values := c.troughs, c.lows
	if top {
		extrema, values = c.peaks, c.highs
	}

	tol := c.cfg.PatternTolerancePct
	patterns := make([]types.Pattern, 0)

	for i, first := range extrema {
		for _, second := range extrema[i+1:] {
			if second-first < c.cfg.MinPatternBarSeparation {
				continue
			}

			mismatch := relativeDiff(values[first], values[second])
			if mismatch > tol {
				c.reject(kind, first, second, "extremes differ beyond tolerance")
				continue
			}

			if second-first < 2 {
				continue
			}

			var between int
			var retracement, extreme float64
			var beyond bool
			if top {
				between = minIndex(c.lows, first+1, second-1)
				extreme = math.Max(values[first], values[second])
				retracement = extreme - c.lows[between]
				beyond = c.highs[maxIndex(c.highs, first+1, second-1)] > extreme
			} else {
				between = maxIndex(c.highs, first+1, second-1)
				extreme = math.Min(values[first], values[second])
				retracement = c.highs[between] - extreme
				beyond = c.lows[minIndex(c.lows, first+1, second-1)] < extreme
			}

			if beyond {
				c.reject(kind, first, second, "a more extreme bar lies between the pair")
				continue
			}

			if extreme == 0 || retracement/math.Abs(extreme) < c.cfg.MinRetracementPct {
				c.reject(kind, first, second, "retracement too shallow")
				continue
			}

			patterns = append(patterns, c.double(kind, first, second, between, mismatch))

			break
		}
	}

	return patterns
}

func (c *detectContext) double(kind types.PatternKind, first, second, between int, mismatch float64) types.Pattern {
	p := types.Pattern{
		Kind:  kind,
		Start: first,
		End:   second,
	}

	if kind == types.PatternDoubleTop {
		level := (c.highs[first] + c.highs[second]) / 2
		neckline := c.lows[between]
		p.Direction = types.BiasBearish
		p.Levels = types.KeyLevels{
			Resistance:   optional.Some(level),
			Support:      optional.Some(neckline),
			Neckline:     optional.Some(neckline),
			Target:       optional.Some(neckline - (level - neckline)),
			Invalidation: optional.Some(math.Max(c.highs[first], c.highs[second])),
		}
		p.Description = fmt.Sprintf("Double top near %.4f with neckline %.4f", level, neckline)
	} else {
		level := (c.lows[first] + c.lows[second]) / 2
		neckline := c.highs[between]
		p.Direction = types.BiasBullish
		p.Levels = types.KeyLevels{
			Support:      optional.Some(level),
			Resistance:   optional.Some(neckline),
			Neckline:     optional.Some(neckline),
			Target:       optional.Some(neckline + (neckline - level)),
			Invalidation: optional.Some(math.Min(c.lows[first], c.lows[second])),
		}
		p.Description = fmt.Sprintf("Double bottom near %.4f with neckline %.4f", level, neckline)
	}

	fit := 1 - mismatch/c.cfg.PatternTolerancePct

	return c.finish(p, fit, spacingSymmetry(between-first, second-between))
}
