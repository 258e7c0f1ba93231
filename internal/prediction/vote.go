package prediction

import (
	"fmt"

	"github.com/rxtech-lab/argo-chart/internal/indicator"
	"github.com/rxtech-lab/argo-chart/internal/pattern"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

const (
	sourceTrend    = "trend"
	sourceMomentum = "momentum"
	sourcePattern  = "pattern"
)

func biasOf(score float64) types.Bias {
	switch {
	case score > 0:
		return types.BiasBullish
	case score < 0:
		return types.BiasBearish
	default:
		return types.BiasNeutral
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// trendVote compares the fast and slow moving averages and the close with the fast one.
func (e *Engine) trendVote(set *indicator.IndicatorSet, current float64) (types.Vote, bool) {
	periods := e.cfg.Indicator.MAPeriods
	if len(periods) < 2 || e.cfg.Prediction.TrendWeight <= 0 {
		return types.Vote{}, false
	}

	fast, slow := set.Last(types.SMAName(periods[0])), set.Last(types.SMAName(periods[1]))
	if fast.IsNone() || slow.IsNone() {
		return types.Vote{}, false
	}

	f, s := fast.Unwrap(), slow.Unwrap()
	score := sign(f-s) + sign(current-f)

	return types.Vote{
		Source: sourceTrend,
		Bias:   biasOf(score),
		Weight: e.cfg.Prediction.TrendWeight,
		Reason: fmt.Sprintf("SMA%d %.4f vs SMA%d %.4f, close %.4f", periods[0], f, periods[1], s, current),
	}, true
}

// momentumVote combines MACD against its signal line with RSI extremes.
func (e *Engine) momentumVote(set *indicator.IndicatorSet) (types.Vote, bool) {
	if e.cfg.Prediction.MomentumWeight <= 0 {
		return types.Vote{}, false
	}

	macd, signal := set.Last(types.IndicatorMACD), set.Last(types.IndicatorMACDSignal)
	rsi := set.Last(types.IndicatorRSI)

	haveMACD := macd.IsSome() && signal.IsSome()
	if !haveMACD && rsi.IsNone() {
		return types.Vote{}, false
	}

	score := 0.0
	reason := ""

	if haveMACD {
		score += sign(macd.Unwrap() - signal.Unwrap())
		reason = fmt.Sprintf("MACD %.4f vs signal %.4f", macd.Unwrap(), signal.Unwrap())
	}

	if rsi.IsSome() {
		r := rsi.Unwrap()
		switch {
		case r < e.cfg.Prediction.RSIOversold:
			score++
		case r > e.cfg.Prediction.RSIOverbought:
			score--
		}

		if reason != "" {
			reason += ", "
		}
		reason += fmt.Sprintf("RSI %.2f", r)
	}

	return types.Vote{
		Source: sourceMomentum,
		Bias:   biasOf(score),
		Weight: e.cfg.Prediction.MomentumWeight,
		Reason: reason,
	}, true
}

// patternVote sums the directions of the most confident active patterns.
func (e *Engine) patternVote(patterns []types.Pattern, last int) (types.Vote, bool) {
	if e.cfg.Prediction.PatternWeight <= 0 {
		return types.Vote{}, false
	}

	active := pattern.Active(patterns, last, e.cfg.Prediction.ActivePatternBars)
	if len(active) == 0 {
		return types.Vote{}, false
	}

	if len(active) > e.cfg.Prediction.TopPatterns {
		active = active[:e.cfg.Prediction.TopPatterns]
	}

	score := 0.0
	names := ""
	for i, p := range active {
		score += p.Confidence * p.Direction.Sign()
		if i > 0 {
			names += ", "
		}
		names += fmt.Sprintf("%s %.2f", p.Name(), p.Confidence)
	}

	return types.Vote{
		Source: sourcePattern,
		Bias:   biasOf(score),
		Weight: e.cfg.Prediction.PatternWeight,
		Reason: names,
	}, true
}
