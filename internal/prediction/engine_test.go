package prediction

import (
	"testing"

	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/indicator"
	"github.com/rxtech-lab/argo-chart/internal/pattern"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/mocks"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PredictionTestSuite struct {
	suite.Suite
	cfg    config.Config
	engine *Engine
}

func TestPredictionSuite(t *testing.T) {
	suite.Run(t, new(PredictionTestSuite))
}

func (suite *PredictionTestSuite) SetupTest() {
	suite.cfg = config.Default()
	suite.engine = NewEngine(suite.cfg, nil)
}

func (suite *PredictionTestSuite) predict(series types.Series) types.Prediction {
	set, err := indicator.NewEngine(nil, nil).Compute(series, suite.cfg.Indicator)
	suite.Require().NoError(err)

	patterns, err := pattern.NewDetector(suite.cfg.Pattern, nil).Detect(series, set)
	suite.Require().NoError(err)

	prediction, err := suite.engine.Predict(series, set, patterns)
	suite.Require().NoError(err)

	return prediction
}

func ramp(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}

	return closes
}

func (suite *PredictionTestSuite) TestRisingSeriesPredictsUp() {
	series := mocks.SeriesFromCloses("UP", ramp(60, 100, 1), 0.5, 1000)

	prediction := suite.predict(series)

	suite.Equal(types.DirectionUp, prediction.Direction)
	suite.GreaterOrEqual(prediction.Confidence, 2.0/3.0)
	suite.Greater(prediction.TargetPrice, prediction.CurrentPrice)
	suite.Equal(159.0, prediction.CurrentPrice)
	suite.Equal(suite.cfg.Prediction.PredictionHorizonBars, prediction.HorizonBars)
	suite.Len(prediction.Reasons, len(prediction.Votes))
}

func (suite *PredictionTestSuite) TestFallingSeriesPredictsDown() {
	series := mocks.SeriesFromCloses("DOWN", ramp(60, 160, -1), 0.5, 1000)

	prediction := suite.predict(series)

	suite.Equal(types.DirectionDown, prediction.Direction)
	suite.Less(prediction.TargetPrice, prediction.CurrentPrice)
}

func (suite *PredictionTestSuite) TestFlatSeriesIsSideways() {
	prediction := suite.predict(mocks.FlatSeries("FLAT", 80, 100))

	suite.Equal(types.DirectionSideways, prediction.Direction)
	suite.Equal(100.0, prediction.TargetPrice)
	suite.InDelta(1, prediction.Confidence, 1e-12)
}

func (suite *PredictionTestSuite) TestShortSeriesAbstains() {
	prediction := suite.predict(mocks.SeriesFromCloses("S", []float64{1, 2, 3}, 0.1, 10))

	suite.Equal(types.DirectionSideways, prediction.Direction)
	suite.Equal(0.0, prediction.Confidence)
	suite.Empty(prediction.Votes)
	suite.Len(prediction.Reasons, 1)
}

func (suite *PredictionTestSuite) TestRejectsMismatchedSet() {
	series := mocks.SeriesFromCloses("S", ramp(30, 10, 1), 0.1, 10)

	_, err := suite.engine.Predict(series, nil, nil)
	suite.True(errors.IsInvalidParameter(err))

	_, err = suite.engine.Predict(types.Series{}, nil, nil)
	suite.True(errors.IsDataInsufficient(err))
}

func (suite *PredictionTestSuite) TestPatternVoteUsesTopActivePatterns() {
	patterns := []types.Pattern{
		{Kind: types.PatternDoubleBottom, End: 99, Direction: types.BiasBullish, Confidence: 0.9},
		{Kind: types.PatternDoubleTop, End: 98, Direction: types.BiasBearish, Confidence: 0.5},
		{Kind: types.PatternBreakout, End: 10, Direction: types.BiasBearish, Confidence: 1},
	}

	vote, ok := suite.engine.patternVote(patterns, 99)
	suite.True(ok)
	suite.Equal(types.BiasBullish, vote.Bias)

	_, ok = suite.engine.patternVote(patterns[2:], 99)
	suite.False(ok)
}

func (suite *PredictionTestSuite) TestTally() {
	tests := []struct {
		name       string
		votes      []types.Vote
		direction  types.Direction
		confidence float64
	}{
		{name: "no votes", direction: types.DirectionSideways, confidence: 0},
		{
			name: "unanimous",
			votes: []types.Vote{
				{Bias: types.BiasBullish, Weight: 1},
				{Bias: types.BiasBullish, Weight: 1},
			},
			direction:  types.DirectionUp,
			confidence: 1,
		},
		{
			name: "majority",
			votes: []types.Vote{
				{Bias: types.BiasBearish, Weight: 1},
				{Bias: types.BiasBearish, Weight: 1},
				{Bias: types.BiasNeutral, Weight: 1},
			},
			direction:  types.DirectionDown,
			confidence: 2.0 / 3.0,
		},
		{
			name: "tie",
			votes: []types.Vote{
				{Bias: types.BiasBearish, Weight: 1},
				{Bias: types.BiasBullish, Weight: 1},
			},
			direction:  types.DirectionSideways,
			confidence: 0,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			direction, confidence := tally(tc.votes)
			suite.Equal(tc.direction, direction)
			suite.InDelta(tc.confidence, confidence, 1e-12)
		})
	}
}

func (suite *PredictionTestSuite) TestSwingMagnitude() {
	// no swings on a ramp: falls back to the mean bar range
	suite.InDelta(1.0, SwingMagnitude(mocks.SeriesFromCloses("R", ramp(30, 10, 1), 0.5, 1), 50, 2), 1e-12)

	closes := mocks.PiecewiseCloses(
		mocks.Anchor{Index: 0, Price: 100},
		mocks.Anchor{Index: 5, Price: 110},
		mocks.Anchor{Index: 10, Price: 100},
		mocks.Anchor{Index: 15, Price: 110},
		mocks.Anchor{Index: 20, Price: 100},
	)
	suite.InDelta(10, SwingMagnitude(mocks.SeriesFromCloses("Z", closes, 0, 1), 50, 2), 1e-9)
	suite.Equal(0.0, SwingMagnitude(types.Series{}, 50, 2))
}

func (suite *PredictionTestSuite) TestRealizedDirection() {
	suite.Equal(types.DirectionUp, RealizedDirection(100, 101, 0.005))
	suite.Equal(types.DirectionDown, RealizedDirection(100, 99, 0.005))
	suite.Equal(types.DirectionSideways, RealizedDirection(100, 100.4, 0.005))
	suite.Equal(types.DirectionUp, RealizedDirection(-100, -99, 0.005))
}
