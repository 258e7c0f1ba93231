// Package prediction turns indicators and patterns into a directional forecast
// for the last bar of a series.
package prediction

import (
	"fmt"

	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/indicator"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"go.uber.org/zap"
)

// Engine predicts the direction of the next horizon bars by weighted vote.
type Engine struct {
	cfg config.Config
	log *logger.Logger
}

// NewEngine creates a prediction engine. A nil logger discards output.
func NewEngine(cfg config.Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{cfg: cfg, log: log}
}

// Predict evaluates the last bar of series. Bars beyond the series are never
// consulted, so a caller that truncates the series controls what the engine sees.
func (e *Engine) Predict(series types.Series, set *indicator.IndicatorSet, patterns []types.Pattern) (types.Prediction, error) {
	if err := series.Validate(); err != nil {
		return types.Prediction{}, err
	}

	if set == nil || set.Len() != series.Len() {
		return types.Prediction{}, errors.New(errors.ErrCodeInvalidParameter, "indicator set does not match the series")
	}

	last := series.Len() - 1
	current := series.Bars[last].Close

	votes := make([]types.Vote, 0, 3)
	for _, vote := range []func() (types.Vote, bool){
		func() (types.Vote, bool) { return e.trendVote(set, current) },
		func() (types.Vote, bool) { return e.momentumVote(set) },
		func() (types.Vote, bool) { return e.patternVote(patterns, last) },
	} {
		if v, ok := vote(); ok {
			votes = append(votes, v)
		}
	}

	direction, confidence := tally(votes)

	prediction := types.Prediction{
		Direction:    direction,
		CurrentPrice: current,
		TargetPrice:  current,
		Confidence:   confidence,
		HorizonBars:  e.cfg.Prediction.PredictionHorizonBars,
		Reasons:      make([]string, 0, len(votes)),
		Votes:        votes,
	}

	move := SwingMagnitude(series, e.cfg.Prediction.SwingLookback, e.cfg.Pattern.SwingWindow) * confidence
	switch direction {
	case types.DirectionUp:
		prediction.TargetPrice = current + move
	case types.DirectionDown:
		prediction.TargetPrice = current - move
	}

	for _, v := range votes {
		prediction.Reasons = append(prediction.Reasons, fmt.Sprintf("%s: %s", v.Source, v.Reason))
	}

	if len(votes) == 0 {
		prediction.Reasons = append(prediction.Reasons, "no indicator or pattern had enough data to vote")
	}

	e.log.Debug("Prediction computed",
		zap.String("symbol", series.Symbol),
		zap.String("direction", string(direction)),
		zap.Float64("confidence", confidence),
		zap.Int("votes", len(votes)),
	)

	return prediction, nil
}

// tally picks the side with more weight. Neutral votes only dilute confidence
// unless the two sides tie, in which case the call is SIDEWAYS.
func tally(votes []types.Vote) (types.Direction, float64) {
	var bullish, bearish, neutral float64
	for _, v := range votes {
		switch v.Bias {
		case types.BiasBullish:
			bullish += v.Weight
		case types.BiasBearish:
			bearish += v.Weight
		default:
			neutral += v.Weight
		}
	}

	total := bullish + bearish + neutral
	if total <= 0 {
		return types.DirectionSideways, 0
	}

	switch {
	case bullish > bearish:
		return types.DirectionUp, clamp01(bullish / total)
	case bearish > bullish:
		return types.DirectionDown, clamp01(bearish / total)
	default:
		return types.DirectionSideways, clamp01(neutral / total)
	}
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
