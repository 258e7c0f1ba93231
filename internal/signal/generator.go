// Package signal converts a prediction into a risk-managed trading signal.
package signal

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/indicator"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/pattern"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/internal/utils"
	"go.uber.org/zap"
)

// confirmationCount is the number of independent filters a signal can collect.
const confirmationCount = 3

// Generator produces one signal per evaluated bar.
type Generator struct {
	cfg config.Config
	log *logger.Logger
}

// NewGenerator creates a signal generator. A nil logger discards output.
func NewGenerator(cfg config.Config, log *logger.Logger) *Generator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Generator{cfg: cfg, log: log}
}

// Generate returns BUY, SELL or HOLD for the last bar of series. Any degenerate
// risk computation yields HOLD, so an actionable signal always has a non-zero
// stop distance and a positive position size.
func (g *Generator) Generate(series types.Series, set *indicator.IndicatorSet, patterns []types.Pattern, prediction types.Prediction, equity float64) types.Signal {
	if series.Len() == 0 {
		return hold(0, "empty series")
	}

	last := series.Len() - 1
	entry := series.Bars[last].Close

	var side float64
	var bias types.Bias
	var action types.Action

	switch prediction.Direction {
	case types.DirectionUp:
		side, bias, action = 1, types.BiasBullish, types.ActionBuy
	case types.DirectionDown:
		side, bias, action = -1, types.BiasBearish, types.ActionSell
	default:
		return hold(entry, "prediction is sideways")
	}

	active := pattern.Active(patterns, last, g.cfg.Prediction.ActivePatternBars)
	confirmations, reasons := g.confirm(set, active, bias)

	score := (prediction.Confidence + float64(confirmations)/confirmationCount) / 2
	if score < g.cfg.Signal.ConfidenceThreshold {
		return hold(entry, fmt.Sprintf("agreement %.2f below threshold %.2f", score, g.cfg.Signal.ConfidenceThreshold), reasons...)
	}

	stop, ok := g.stopLoss(set, active, bias, entry, side)
	if !ok {
		return hold(entry, "no stop loss level available", reasons...)
	}

	risk := math.Abs(entry - stop)
	if risk == 0 {
		return hold(entry, "stop loss equals entry", reasons...)
	}

	reward := g.cfg.Signal.MinRiskRewardRatio * risk
	if move := side * (prediction.TargetPrice - entry); move > reward {
		reward = move
	}

	size := utils.CalculateRiskQuantity(equity, g.cfg.Signal.MaxRiskPerTrade, risk, g.cfg.Signal.QuantityPrecision)
	if size <= 0 {
		return hold(entry, fmt.Sprintf("position size %.8f is not positive", size), reasons...)
	}

	signal := types.Signal{
		Action:          action,
		Strength:        strengthOf(confirmations),
		EntryPrice:      entry,
		StopLoss:        stop,
		TakeProfit:      entry + side*reward,
		RiskRewardRatio: reward / risk,
		PositionSize:    size,
		RiskAmount:      size * risk,
		Confirmations:   confirmations,
		Reasons:         append(reasons, fmt.Sprintf("prediction %s with confidence %.2f", prediction.Direction, prediction.Confidence)),
	}

	g.log.Debug("Signal generated",
		zap.String("symbol", series.Symbol),
		zap.String("action", string(signal.Action)),
		zap.String("strength", string(signal.Strength)),
		zap.Float64("entry", entry),
		zap.Float64("stop_loss", stop),
		zap.Float64("position_size", size),
	)

	return signal
}

// confirm counts the pattern, trend and volume filters that agree with bias.
func (g *Generator) confirm(set *indicator.IndicatorSet, active []types.Pattern, bias types.Bias) (int, []string) {
	count := 0
	reasons := make([]string, 0, confirmationCount)

	for _, p := range active {
		if p.Direction == bias && p.Confidence >= g.cfg.Signal.ConfidenceThreshold {
			count++
			reasons = append(reasons, fmt.Sprintf("pattern %s confirms with confidence %.2f", p.Name(), p.Confidence))

			break
		}
	}

	if set == nil {
		return count, reasons
	}

	if g.trendAligned(set, bias) {
		count++
		reasons = append(reasons, "moving averages aligned")
	}

	if ratio := set.Last(types.IndicatorVolumeRatio); ratio.IsSome() && ratio.Unwrap() >= g.cfg.Signal.VolumeConfirmationRatio {
		count++
		reasons = append(reasons, fmt.Sprintf("volume %.2fx average", ratio.Unwrap()))
	}

	return count, reasons
}

// trendAligned reports whether the configured moving averages are stacked fast
// to slow in the direction of bias.
func (g *Generator) trendAligned(set *indicator.IndicatorSet, bias types.Bias) bool {
	periods := g.cfg.Indicator.MAPeriods
	if len(periods) < 2 {
		return false
	}

	values := make([]float64, len(periods))
	for i, p := range periods {
		v := set.Last(types.SMAName(p))
		if v.IsNone() {
			return false
		}
		values[i] = v.Unwrap()
	}

	for i := 1; i < len(values); i++ {
		if bias.Sign()*(values[i-1]-values[i]) <= 0 {
			return false
		}
	}

	return true
}

// stopLoss picks the level closest to entry among the ATR offset and the
// invalidation levels of agreeing patterns that sit on the losing side.
func (g *Generator) stopLoss(set *indicator.IndicatorSet, active []types.Pattern, bias types.Bias, entry, side float64) (float64, bool) {
	candidates := make([]float64, 0, len(active)+1)

	if set != nil {
		if atr := set.Last(types.IndicatorATR); atr.IsSome() && atr.Unwrap() > 0 {
			candidates = append(candidates, entry-side*g.cfg.Signal.StopLossATRMultiplier*atr.Unwrap())
		}
	}

	for _, p := range active {
		if p.Direction != bias || p.Levels.Invalidation.IsNone() {
			continue
		}

		if level := p.Levels.Invalidation.Unwrap(); side*(entry-level) > 0 {
			candidates = append(candidates, level)
		}
	}

	if len(candidates) == 0 {
		return 0, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if math.Abs(entry-c) < math.Abs(entry-best) {
			best = c
		}
	}

	return best, true
}

func strengthOf(confirmations int) types.Strength {
	switch {
	case confirmations >= 3:
		return types.StrengthStrong
	case confirmations == 2:
		return types.StrengthMedium
	default:
		return types.StrengthWeak
	}
}

func hold(entry float64, reason string, context ...string) types.Signal {
	return types.Signal{
		Action:     types.ActionHold,
		Strength:   types.StrengthWeak,
		EntryPrice: entry,
		StopLoss:   entry,
		TakeProfit: entry,
		Reasons:    append(append([]string{}, context...), reason),
	}
}
