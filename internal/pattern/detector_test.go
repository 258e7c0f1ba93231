package pattern

import (
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/indicator"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/mocks"
	"github.com/stretchr/testify/suite"
)

type DetectorTestSuite struct {
	suite.Suite
	cfg      config.Config
	detector *Detector
}

func TestDetectorSuite(t *testing.T) {
	suite.Run(t, new(DetectorTestSuite))
}

func (suite *DetectorTestSuite) SetupTest() {
	suite.cfg = config.Default()
	suite.detector = NewDetector(suite.cfg.Pattern, nil)
}

func (suite *DetectorTestSuite) detect(series types.Series) []types.Pattern {
	set, err := indicator.NewEngine(nil, nil).Compute(series, suite.cfg.Indicator)
	suite.Require().NoError(err)

	patterns, err := suite.detector.Detect(series, set)
	suite.Require().NoError(err)

	return patterns
}

func ofKind(patterns []types.Pattern, kind types.PatternKind) []types.Pattern {
	var out []types.Pattern
	for _, p := range patterns {
		if p.Kind == kind {
			out = append(out, p)
		}
	}

	return out
}

func (suite *DetectorTestSuite) TestDoubleTopScenario() {
	closes := mocks.PiecewiseCloses(
		mocks.Anchor{Index: 0, Price: 120},
		mocks.Anchor{Index: 10, Price: 150},
		mocks.Anchor{Index: 25, Price: 130},
		mocks.Anchor{Index: 40, Price: 150},
		mocks.Anchor{Index: 50, Price: 120},
	)
	series := mocks.SeriesFromCloses("DT", closes, 0, 1000)

	patterns := suite.detect(series)

	tops := ofKind(patterns, types.PatternDoubleTop)
	suite.Require().Len(tops, 1)
	suite.Equal(10, tops[0].Start)
	suite.Equal(40, tops[0].End)
	suite.Equal(types.BiasBearish, tops[0].Direction)
	suite.Equal(130.0, tops[0].Levels.Neckline.Unwrap())
	suite.Equal(110.0, tops[0].Levels.Target.Unwrap())
	suite.Equal(150.0, tops[0].Levels.Invalidation.Unwrap())
	suite.Equal(series.Bars[10].Time, tops[0].StartTime)
	suite.Equal(series.Bars[40].Time, tops[0].EndTime)
	suite.InDelta(1, tops[0].Score.Fit, 1e-12)
	suite.InDelta(1, tops[0].Score.Symmetry, 1e-12)
	suite.Greater(tops[0].Confidence, 0.5)

	suite.Empty(ofKind(patterns, types.PatternDoubleBottom))
}

func (suite *DetectorTestSuite) TestDoubleTopRejectsMismatchedPeaks() {
	closes := mocks.PiecewiseCloses(
		mocks.Anchor{Index: 0, Price: 120},
		mocks.Anchor{Index: 10, Price: 150},
		mocks.Anchor{Index: 25, Price: 130},
		mocks.Anchor{Index: 40, Price: 160},
		mocks.Anchor{Index: 50, Price: 120},
	)

	patterns := suite.detect(mocks.SeriesFromCloses("DT", closes, 0, 1000))
	suite.Empty(ofKind(patterns, types.PatternDoubleTop))
}

func (suite *DetectorTestSuite) TestDoublesSymmetricUnderInversion() {
	for _, seed := range []int64{1, 2, 3, 4, 5} {
		gen := mocks.NewDataGenerator(seed)
		cfg := mocks.DefaultConfig()
		cfg.Count = 300
		series := gen.Generate(cfg)
		inverted := mocks.InvertSeries(series)

		original, err := suite.detector.Detect(series, nil)
		suite.Require().NoError(err)
		mirrored, err := suite.detector.Detect(inverted, nil)
		suite.Require().NoError(err)

		pairs := [][2]types.PatternKind{
			{types.PatternDoubleTop, types.PatternDoubleBottom},
			{types.PatternDoubleBottom, types.PatternDoubleTop},
		}
		for _, pair := range pairs {
			want := ofKind(original, pair[0])
			got := ofKind(mirrored, pair[1])
			suite.Require().Len(got, len(want), "seed %d kind %s", seed, pair[0])

			for i := range want {
				suite.Equal(want[i].Start, got[i].Start)
				suite.Equal(want[i].End, got[i].End)
				suite.Equal(-want[i].Direction.Sign(), got[i].Direction.Sign())
				suite.InDelta(want[i].Confidence, got[i].Confidence, 1e-9)
			}
		}
	}
}

func (suite *DetectorTestSuite) TestRiseAndFallChannels() {
	closes := mocks.PiecewiseCloses(
		mocks.Anchor{Index: 0, Price: 100},
		mocks.Anchor{Index: 40, Price: 160},
		mocks.Anchor{Index: 59, Price: 130},
	)

	patterns := suite.detect(mocks.SeriesFromCloses("RF", closes, 0.5, 1000))

	channels := ofKind(patterns, types.PatternTrendChannel)
	suite.Require().Len(channels, 2)

	suite.Equal(types.VariantUp, channels[0].Variant)
	suite.Equal(0, channels[0].Start)
	suite.Equal(39, channels[0].End)
	suite.Equal(types.BiasBullish, channels[0].Direction)
	suite.InDelta(0.9333, channels[0].Confidence, 1e-3)

	suite.Equal(types.VariantDown, channels[1].Variant)
	suite.Equal(40, channels[1].Start)
	suite.Equal(59, channels[1].End)
	suite.Equal(types.BiasBearish, channels[1].Direction)
}

func (suite *DetectorTestSuite) TestAscendingTriangle() {
	closes := mocks.PiecewiseCloses(
		mocks.Anchor{Index: 0, Price: 100},
		mocks.Anchor{Index: 3, Price: 110},
		mocks.Anchor{Index: 6, Price: 101},
		mocks.Anchor{Index: 9, Price: 110},
		mocks.Anchor{Index: 12, Price: 102},
		mocks.Anchor{Index: 15, Price: 110},
		mocks.Anchor{Index: 18, Price: 103},
		mocks.Anchor{Index: 21, Price: 110},
		mocks.Anchor{Index: 24, Price: 104},
		mocks.Anchor{Index: 27, Price: 110},
		mocks.Anchor{Index: 30, Price: 105},
		mocks.Anchor{Index: 33, Price: 110},
		mocks.Anchor{Index: 36, Price: 106},
		mocks.Anchor{Index: 39, Price: 110},
	)

	patterns := suite.detect(mocks.SeriesFromCloses("TRI", closes, 0, 1000))

	triangles := ofKind(patterns, types.PatternTriangle)
	suite.Require().Len(triangles, 1)
	suite.Equal(types.VariantAscending, triangles[0].Variant)
	suite.Equal(types.BiasBullish, triangles[0].Direction)
	suite.Equal(20, triangles[0].Start)
	suite.Equal(39, triangles[0].End)
	suite.InDelta(110, triangles[0].Levels.Resistance.Unwrap(), 1e-9)
	suite.True(triangles[0].Levels.Target.IsSome())
}

// zigzag alternates swing highs at bars 3, 9, 15, ... with swing lows at bars
// 6, 12, 18, ... up to bar 39; peak(k) and trough(k) give the k-th swing price.
func zigzag(peak, trough func(k int) float64) []float64 {
	anchors := []mocks.Anchor{{Index: 0, Price: (peak(0) + trough(0)) / 2}}
	for k := 0; 3+6*k <= 39; k++ {
		anchors = append(anchors, mocks.Anchor{Index: 3 + 6*k, Price: peak(k)})
		if 6+6*k <= 39 {
			anchors = append(anchors, mocks.Anchor{Index: 6 + 6*k, Price: trough(k)})
		}
	}

	return mocks.PiecewiseCloses(anchors...)
}

func (suite *DetectorTestSuite) TestDescendingTriangle() {
	closes := zigzag(
		func(int) float64 { return 110 },
		func(k int) float64 { return 101 + float64(k) },
	)

	// inversion turns the rising floor into a falling ceiling under a flat floor
	patterns, err := suite.detector.Detect(mocks.InvertSeries(mocks.SeriesFromCloses("TRI", closes, 0, 1000)), nil)
	suite.Require().NoError(err)

	triangles := ofKind(patterns, types.PatternTriangle)
	suite.Require().Len(triangles, 1)
	suite.Equal(types.VariantDescending, triangles[0].Variant)
	suite.Equal(types.BiasBearish, triangles[0].Direction)
	suite.InDelta(-110, triangles[0].Levels.Support.Unwrap(), 1e-9)
	suite.True(triangles[0].Levels.Target.IsSome())
}

func (suite *DetectorTestSuite) TestSymmetricalTriangle() {
	closes := zigzag(
		func(k int) float64 { return 130 - 2*float64(k) },
		func(k int) float64 { return 100 + 2*float64(k) },
	)

	triangles := ofKind(suite.detect(mocks.SeriesFromCloses("TRI", closes, 0, 1000)), types.PatternTriangle)
	suite.Require().Len(triangles, 1)
	suite.Equal(types.VariantSymmetrical, triangles[0].Variant)
	suite.Equal(types.BiasNeutral, triangles[0].Direction)
	suite.True(triangles[0].Levels.Target.IsNone())
}

func (suite *DetectorTestSuite) TestConsolidation() {
	closes := zigzag(
		func(int) float64 { return 110 },
		func(int) float64 { return 100 },
	)

	triangles := ofKind(suite.detect(mocks.SeriesFromCloses("RANGE", closes, 0, 1000)), types.PatternTriangle)
	suite.Require().Len(triangles, 1)
	suite.Equal(types.VariantConsolidation, triangles[0].Variant)
	suite.Equal(types.BiasNeutral, triangles[0].Direction)
	suite.InDelta(110, triangles[0].Levels.Resistance.Unwrap(), 1e-9)
	suite.InDelta(100, triangles[0].Levels.Support.Unwrap(), 1e-9)
	suite.InDelta(1, triangles[0].Score.Fit, 1e-12)
}

func headAndShouldersSeries(rightShoulder float64) types.Series {
	closes := mocks.PiecewiseCloses(
		mocks.Anchor{Index: 0, Price: 120},
		mocks.Anchor{Index: 10, Price: 140},
		mocks.Anchor{Index: 17, Price: 125},
		mocks.Anchor{Index: 25, Price: 150},
		mocks.Anchor{Index: 33, Price: 125},
		mocks.Anchor{Index: 40, Price: rightShoulder},
		mocks.Anchor{Index: 50, Price: 120},
	)

	return mocks.SeriesFromCloses("HS", closes, 0, 1000)
}

func (suite *DetectorTestSuite) TestHeadAndShoulders() {
	patterns := suite.detect(headAndShouldersSeries(140))

	hs := ofKind(patterns, types.PatternHeadAndShoulders)
	suite.Require().Len(hs, 1)
	suite.Equal(types.VariantNone, hs[0].Variant)
	suite.Equal(10, hs[0].Start)
	suite.Equal(40, hs[0].End)
	suite.Equal(types.BiasBearish, hs[0].Direction)
	suite.Equal(125.0, hs[0].Levels.Neckline.Unwrap())
	suite.Equal(100.0, hs[0].Levels.Target.Unwrap())
	suite.Equal(150.0, hs[0].Levels.Invalidation.Unwrap())
	suite.InDelta(1, hs[0].Score.Fit, 1e-12)
	suite.InDelta(1, hs[0].Score.Symmetry, 1e-12)
	suite.Greater(hs[0].Confidence, 0.5)

	// the shoulders match but the head between them is higher
	suite.Empty(ofKind(patterns, types.PatternDoubleTop))
}

func (suite *DetectorTestSuite) TestInverseHeadAndShoulders() {
	patterns, err := suite.detector.Detect(mocks.InvertSeries(headAndShouldersSeries(140)), nil)
	suite.Require().NoError(err)

	hs := ofKind(patterns, types.PatternHeadAndShoulders)
	suite.Require().Len(hs, 1)
	suite.Equal(types.VariantInverse, hs[0].Variant)
	suite.Equal(10, hs[0].Start)
	suite.Equal(40, hs[0].End)
	suite.Equal(types.BiasBullish, hs[0].Direction)
	suite.Equal(-125.0, hs[0].Levels.Neckline.Unwrap())
	suite.Equal(-100.0, hs[0].Levels.Target.Unwrap())
	suite.Equal(-150.0, hs[0].Levels.Invalidation.Unwrap())

	suite.Empty(ofKind(patterns, types.PatternDoubleBottom))
}

func (suite *DetectorTestSuite) TestHeadAndShouldersRejectsMismatchedShoulders() {
	patterns := suite.detect(headAndShouldersSeries(146))
	suite.Empty(ofKind(patterns, types.PatternHeadAndShoulders))
}

func ofVariant(patterns []types.Pattern, variant types.PatternVariant) []types.Pattern {
	var out []types.Pattern
	for _, p := range patterns {
		if p.Variant == variant {
			out = append(out, p)
		}
	}

	return out
}

func (suite *DetectorTestSuite) TestTrendWeakening() {
	closes := mocks.PiecewiseCloses(
		mocks.Anchor{Index: 0, Price: 100},
		mocks.Anchor{Index: 40, Price: 150},
		mocks.Anchor{Index: 59, Price: 151},
	)
	series := mocks.SeriesFromCloses("WEAK", closes, 0.5, 1000)

	weak := ofVariant(ofKind(suite.detect(series), types.PatternTrendChannel), types.VariantWeakening)
	suite.Require().Len(weak, 1)
	suite.Equal(40, weak[0].Start)
	suite.Equal(59, weak[0].End)
	suite.Equal(types.BiasNeutral, weak[0].Direction)
	suite.Contains(weak[0].Description, "bullish")
	suite.GreaterOrEqual(weak[0].Confidence, 0.0)
	suite.LessOrEqual(weak[0].Confidence, 1.0)

	mirrored, err := suite.detector.Detect(mocks.InvertSeries(series), nil)
	suite.Require().NoError(err)

	weak = ofVariant(mirrored, types.VariantWeakening)
	suite.Require().Len(weak, 1)
	suite.Contains(weak[0].Description, "bearish")
}

func (suite *DetectorTestSuite) TestSteadyTrendIsNotWeakening() {
	closes := mocks.PiecewiseCloses(
		mocks.Anchor{Index: 0, Price: 100},
		mocks.Anchor{Index: 59, Price: 160},
	)

	patterns := suite.detect(mocks.SeriesFromCloses("STEADY", closes, 0.5, 1000))
	suite.Empty(ofVariant(patterns, types.VariantWeakening))

	suite.Empty(ofVariant(suite.detect(mocks.FlatSeries("FLAT", 60, 100)), types.VariantWeakening))
}

func breakoutSeries() types.Series {
	cycle := []float64{100, 105, 110, 105}
	closes := make([]float64, 31)
	for i := 0; i < 30; i++ {
		closes[i] = cycle[i%len(cycle)]
	}
	closes[30] = 115

	series := mocks.SeriesFromCloses("BO", closes, 0.2, 1000)
	series.Bars[30].Volume = 3000

	return series
}

func (suite *DetectorTestSuite) TestResistanceBreakout() {
	patterns := suite.detect(breakoutSeries())

	breakouts := ofKind(patterns, types.PatternBreakout)
	suite.Require().Len(breakouts, 1)
	suite.Equal(types.VariantResistanceBreakout, breakouts[0].Variant)
	suite.Equal(types.BiasBullish, breakouts[0].Direction)
	suite.Equal(10, breakouts[0].Start)
	suite.Equal(30, breakouts[0].End)
	suite.InDelta(110.2, breakouts[0].Levels.Invalidation.Unwrap(), 1e-9)
	suite.Contains(breakouts[0].Description, string(BreakoutStrong))
}

func (suite *DetectorTestSuite) TestBreakoutStrengthFollowsPenetration() {
	series := breakoutSeries()
	series.Bars[30].Close = 112.5
	series.Bars[30].Open = 112.5
	series.Bars[30].High = 112.7
	series.Bars[30].Low = 112.3
	series.Bars[30].Volume = 10000

	breakouts := ofKind(suite.detect(series), types.PatternBreakout)
	suite.Require().Len(breakouts, 1)
	suite.True(strings.HasPrefix(breakouts[0].Description, string(BreakoutModerate)))
}

func (suite *DetectorTestSuite) TestSupportBreakdownMirrorsBreakout() {
	patterns, err := suite.detector.Detect(mocks.InvertSeries(breakoutSeries()), nil)
	suite.Require().NoError(err)

	breakouts := ofKind(patterns, types.PatternBreakout)
	suite.Require().Len(breakouts, 1)
	suite.Equal(types.VariantSupportBreakdown, breakouts[0].Variant)
	suite.Equal(types.BiasBearish, breakouts[0].Direction)
	suite.Equal(30, breakouts[0].End)
}

func (suite *DetectorTestSuite) TestBreakoutNeedsVolume() {
	series := breakoutSeries()
	series.Bars[30].Volume = 1000

	suite.Empty(ofKind(suite.detect(series), types.PatternBreakout))
}

func (suite *DetectorTestSuite) TestFlatSeriesHasNoPatterns() {
	suite.Empty(suite.detect(mocks.FlatSeries("FLAT", 120, 100)))
}

func (suite *DetectorTestSuite) TestShortSeriesHasNoPatterns() {
	series := mocks.SeriesFromCloses("S", []float64{1, 2, 3, 2, 1}, 0.1, 100)

	patterns, err := suite.detector.Detect(series, nil)
	suite.NoError(err)
	suite.Empty(patterns)
}

func (suite *DetectorTestSuite) TestInvalidSeries() {
	_, err := suite.detector.Detect(types.Series{}, nil)
	suite.Error(err)
}

func (suite *DetectorTestSuite) TestConfidenceBoundsAndOrdering() {
	gen := mocks.NewDataGenerator(11)
	cfg := mocks.DefaultConfig()
	series := gen.Generate(cfg)

	patterns := suite.detect(series)
	order := map[types.PatternKind]int{}
	for i, kind := range types.PatternKinds {
		order[kind] = i
	}

	for i, p := range patterns {
		suite.GreaterOrEqual(p.Confidence, 0.0)
		suite.LessOrEqual(p.Confidence, 1.0)
		suite.LessOrEqual(p.Start, p.End)
		if i > 0 {
			prev := patterns[i-1]
			suite.True(order[prev.Kind] < order[p.Kind] ||
				(prev.Kind == p.Kind && prev.Start <= p.Start))
		}
	}
}

func (suite *DetectorTestSuite) TestScore() {
	weights := suite.cfg.Pattern.Weights

	suite.InDelta(1, Score(weights, types.ConfidenceBreakdown{Fit: 1, Symmetry: 1, Volume: 1, Duration: 1}), 1e-12)
	suite.Equal(0.0, Score(weights, types.ConfidenceBreakdown{Fit: -3}))
	suite.InDelta(0.4, Score(weights, types.ConfidenceBreakdown{Fit: 2}), 1e-12)
}

func (suite *DetectorTestSuite) TestClassifyBreakout() {
	suite.Equal(BreakoutMinor, ClassifyBreakout(0.005))
	suite.Equal(BreakoutModerate, ClassifyBreakout(0.02))
	suite.Equal(BreakoutStrong, ClassifyBreakout(0.05))
}

func (suite *DetectorTestSuite) TestActive() {
	patterns := []types.Pattern{
		{Kind: types.PatternBreakout, End: 50, Confidence: 0.4},
		{Kind: types.PatternTriangle, End: 95, Confidence: 0.3},
		{Kind: types.PatternDoubleTop, End: 99, Confidence: 0.8},
		{Kind: types.PatternTrendChannel, End: 92, Confidence: 0.3},
	}

	active := Active(patterns, 99, 5)
	suite.Require().Len(active, 2)
	suite.Equal(types.PatternDoubleTop, active[0].Kind)
	suite.Equal(types.PatternTriangle, active[1].Kind)
}
