package pattern

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// detectHeadAndShoulders scans consecutive peak triples for the regular form
// and consecutive trough triples for the inverse form.
func detectHeadAndShoulders(c *detectContext) []types.Pattern {
	patterns := make([]types.Pattern, 0)
	patterns = append(patterns, c.headAndShoulders(false)...)
	patterns = append(patterns, c.headAndShoulders(true)...)

	return patterns
}

func (c *detectContext) headAndShoulders(inverse bool) []types.Pattern {
	extrema, values := c.peaks, c.highs
	if inverse {
		extrema, values = c.troughs, c.lows
	}

	minSpacing := max(1, c.cfg.MinPatternBarSeparation/2)
	kind := types.PatternHeadAndShoulders
	patterns := make([]types.Pattern, 0)

	for i := 0; i+2 < len(extrema); i++ {
		left, head, right := extrema[i], extrema[i+1], extrema[i+2]

		if head-left < minSpacing || right-head < minSpacing {
			c.reject(kind, left, right, "shoulders too close to head")
			continue
		}

		if !c.prominent(values, left, head, right, inverse) {
			c.reject(kind, left, right, "head not prominent")
			continue
		}

		mismatch := relativeDiff(values[left], values[right])
		if mismatch > c.cfg.PatternTolerancePct {
			c.reject(kind, left, right, "shoulders differ beyond tolerance")
			continue
		}

		var leftReaction, rightReaction float64
		if inverse {
			leftReaction = c.highs[maxIndex(c.highs, left+1, head-1)]
			rightReaction = c.highs[maxIndex(c.highs, head+1, right-1)]
		} else {
			leftReaction = c.lows[minIndex(c.lows, left+1, head-1)]
			rightReaction = c.lows[minIndex(c.lows, head+1, right-1)]
		}

		neckline := (leftReaction + rightReaction) / 2
		if (!inverse && neckline >= math.Min(values[left], values[right])) ||
			(inverse && neckline <= math.Max(values[left], values[right])) {
			c.reject(kind, left, right, "neckline outside shoulders")
			continue
		}

		height := values[head] - neckline

		p := types.Pattern{
			Kind:      kind,
			Start:     left,
			End:       right,
			Direction: types.BiasBearish,
			Levels: types.KeyLevels{
				Neckline:     optional.Some(neckline),
				Target:       optional.Some(neckline - height),
				Invalidation: optional.Some(values[head]),
			},
		}

		if inverse {
			p.Variant = types.VariantInverse
			p.Direction = types.BiasBullish
			p.Levels.Support = optional.Some(values[head])
			p.Levels.Resistance = optional.Some(neckline)
			p.Description = fmt.Sprintf("Inverse head and shoulders with head %.4f and neckline %.4f", values[head], neckline)
		} else {
			p.Levels.Resistance = optional.Some(values[head])
			p.Levels.Support = optional.Some(neckline)
			p.Description = fmt.Sprintf("Head and shoulders with head %.4f and neckline %.4f", values[head], neckline)
		}

		fit := 1 - mismatch/c.cfg.PatternTolerancePct
		patterns = append(patterns, c.finish(p, fit, spacingSymmetry(head-left, right-head)))
	}

	return patterns
}

// prominent reports whether the head clears both shoulders by the configured margin.
func (c *detectContext) prominent(values []float64, left, head, right int, inverse bool) bool {
	for _, shoulder := range []int{left, right} {
		if values[shoulder] == 0 {
			return false
		}

		clearance := values[head] - values[shoulder]
		if inverse {
			clearance = -clearance
		}

		if clearance/math.Abs(values[shoulder]) <= c.cfg.HeadMinProminencePct {
			return false
		}
	}

	return true
}
