package indicator

import (
	"math"
	"testing"

	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/mocks"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type IndicatorTestSuite struct {
	suite.Suite
	cfg         config.IndicatorConfig
	calculators []Calculator
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) SetupTest() {
	suite.cfg = config.Default().Indicator
	suite.calculators = []Calculator{NewTalibCalculator(), NewManualCalculator()}
}

func (suite *IndicatorTestSuite) forEachCalculator(fn func(calc Calculator)) {
	for _, calc := range suite.calculators {
		suite.Run(string(calc.Name()), func() {
			fn(calc)
		})
	}
}

func ramp(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}

	return closes
}

func (suite *IndicatorTestSuite) TestRSIStrictlyRisingIs100() {
	series := mocks.SeriesFromCloses("UP", ramp(60, 100, 1), 0.5, 1000)

	suite.forEachCalculator(func(calc Calculator) {
		set, err := calc.Compute(series, suite.cfg)
		suite.Require().NoError(err)

		rsi, _ := set.Line(types.IndicatorRSI)
		suite.Equal(suite.cfg.RSIPeriod, rsi.FirstDefined())
		for i := suite.cfg.RSIPeriod; i < series.Len(); i++ {
			suite.InDelta(100, rsi[i], 1e-9, "index %d", i)
		}
	})
}

func (suite *IndicatorTestSuite) TestRSIStrictlyFallingIs0() {
	series := mocks.SeriesFromCloses("DOWN", ramp(60, 200, -1), 0.5, 1000)

	suite.forEachCalculator(func(calc Calculator) {
		set, err := calc.Compute(series, suite.cfg)
		suite.Require().NoError(err)

		rsi, _ := set.Line(types.IndicatorRSI)
		for i := suite.cfg.RSIPeriod; i < series.Len(); i++ {
			suite.InDelta(0, rsi[i], 1e-9, "index %d", i)
		}
	})
}

func (suite *IndicatorTestSuite) TestRSIAtTinyPrices() {
	rising := mocks.SeriesFromCloses("TINY", ramp(40, 1e-9, 1e-16), 1e-17, 1000)
	falling := mocks.SeriesFromCloses("TINY", ramp(40, 1e-9, -1e-16), 1e-17, 1000)

	suite.forEachCalculator(func(calc Calculator) {
		set, err := calc.Compute(rising, suite.cfg)
		suite.Require().NoError(err)

		rsi, _ := set.Line(types.IndicatorRSI)
		for i := suite.cfg.RSIPeriod; i < rising.Len(); i++ {
			suite.InDelta(100, rsi[i], 1e-6, "rising index %d", i)
		}

		set, err = calc.Compute(falling, suite.cfg)
		suite.Require().NoError(err)

		rsi, _ = set.Line(types.IndicatorRSI)
		for i := suite.cfg.RSIPeriod; i < falling.Len(); i++ {
			suite.InDelta(0, rsi[i], 1e-6, "falling index %d", i)
		}
	})
}

func (suite *IndicatorTestSuite) TestUnitScale() {
	suite.Equal([]float64{0.5, 1.5}, unitScale([]float64{1, 3}))
	suite.Equal([]float64{0, 0}, unitScale([]float64{0, 0}))
}

func (suite *IndicatorTestSuite) TestFlatSeries() {
	series := mocks.FlatSeries("FLAT", 60, 100)

	suite.forEachCalculator(func(calc Calculator) {
		set, err := calc.Compute(series, suite.cfg)
		suite.Require().NoError(err)

		last := series.Len() - 1
		suite.Equal(50.0, set.Last(types.IndicatorRSI).Unwrap())
		suite.Equal(100.0, set.Last(types.IndicatorBBUpper).Unwrap())
		suite.Equal(100.0, set.Last(types.IndicatorBBLower).Unwrap())
		suite.Equal(0.0, set.Last(types.IndicatorBBWidth).Unwrap())
		suite.Equal(0.0, set.Last(types.IndicatorMACD).Unwrap())
		suite.Equal(0.0, set.Last(types.IndicatorATR).Unwrap())
		suite.Equal(1.0, set.Last(types.IndicatorVolumeRatio).Unwrap())
		suite.True(set.At(types.IndicatorStochK, last).IsNone())
		suite.True(set.At(types.IndicatorStochD, last).IsNone())
		suite.True(set.At(types.IndicatorWilliamsR, last).IsNone())
		suite.True(set.At(types.IndicatorCCI, last).IsNone())
	})
}

func (suite *IndicatorTestSuite) TestBollingerWidthFollowsStdDev() {
	series := mocks.NewDataGenerator(11).Generate(mocks.DefaultConfig())
	closes := series.Closes()
	period := suite.cfg.BBPeriod

	suite.forEachCalculator(func(calc Calculator) {
		set, err := calc.Compute(series, suite.cfg)
		suite.Require().NoError(err)
		width, _ := set.Line(types.IndicatorBBWidth)

		type point struct{ sd, width float64 }
		points := make([]point, 0, len(closes))
		for i := period - 1; i < len(closes); i++ {
			window := closes[i-period+1 : i+1]
			mean := 0.0
			for _, v := range window {
				mean += v
			}
			mean /= float64(period)
			variance := 0.0
			for _, v := range window {
				variance += (v - mean) * (v - mean)
			}
			points = append(points, point{math.Sqrt(variance / float64(period)), width[i]})
		}

		for a := range points {
			for b := range points {
				if points[a].sd < points[b].sd {
					suite.LessOrEqual(points[a].width, points[b].width+1e-6)
				}
			}
			suite.InDelta(2*suite.cfg.BBStdDev*points[a].sd, points[a].width, 1e-6)
		}
	})
}

func (suite *IndicatorTestSuite) TestKnownValues() {
	series := mocks.SeriesFromCloses("K", []float64{10, 11, 12, 13, 12, 11, 12, 13, 14, 15}, 1, 100)
	cfg := suite.cfg
	cfg.MAPeriods = []int{3, 4, 5}
	cfg.EMAPeriods = []int{3}
	cfg.ATRPeriod = 3

	suite.forEachCalculator(func(calc Calculator) {
		set, err := calc.Compute(series, cfg)
		suite.Require().NoError(err)

		sma3, _ := set.Line(types.SMAName(3))
		suite.True(math.IsNaN(sma3[1]))
		suite.InDelta(11.0, sma3[2], 1e-9)
		suite.InDelta(12.0, sma3[3], 1e-9)
		suite.InDelta(14.0, sma3[9], 1e-9)

		// seed 11 at index 2, then k = 0.5
		ema3, _ := set.Line(types.EMAName(3))
		suite.InDelta(11.0, ema3[2], 1e-9)
		suite.InDelta(12.0, ema3[3], 1e-9)
		suite.InDelta(12.0, ema3[4], 1e-9)
		suite.InDelta(11.5, ema3[5], 1e-9)

		// true range is 2 for bars 1..3 (high-low = 2 dominates a 1 point close move)
		atr, _ := set.Line(types.IndicatorATR)
		suite.True(math.IsNaN(atr[2]))
		suite.InDelta(2.0, atr[3], 1e-9)

		obv, _ := set.Line(types.IndicatorOBV)
		suite.Equal(100.0, obv[0])
		suite.Equal(400.0, obv[3])
		suite.Equal(200.0, obv[5])
	})
}

func (suite *IndicatorTestSuite) TestShortSeriesDegradesPerIndicator() {
	series := mocks.SeriesFromCloses("SHORT", ramp(12, 100, 0.5), 0.5, 1000)

	suite.forEachCalculator(func(calc Calculator) {
		set, err := calc.Compute(series, suite.cfg)
		suite.Require().NoError(err)

		suite.Equal(12, set.Len())
		suite.True(set.Last(types.SMAName(9)).IsSome())
		suite.True(set.Last(types.SMAName(21)).IsNone())
		suite.True(set.Last(types.IndicatorRSI).IsNone())
		suite.True(set.Last(types.IndicatorMACD).IsNone())
		suite.True(set.Last(types.IndicatorOBV).IsSome())
	})
}

func (suite *IndicatorTestSuite) TestEmptySeries() {
	suite.forEachCalculator(func(calc Calculator) {
		_, err := calc.Compute(types.Series{Symbol: "EMPTY"}, suite.cfg)
		suite.Error(err)
		suite.True(errors.IsDataInsufficient(err))
	})
}

func (suite *IndicatorTestSuite) TestEngineSelectsStrategy() {
	engine := NewEngine(nil, nil)
	series := mocks.NewDataGenerator(3).Generate(mocks.DefaultConfig())

	set, err := engine.Compute(series, suite.cfg)
	suite.NoError(err)
	suite.Equal(series.Len(), set.Len())

	cfg := suite.cfg
	cfg.Strategy = "unknown"
	_, err = engine.Compute(series, cfg)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeCalculatorNotFound))
}

type failingCalculator struct{}

func (f failingCalculator) Name() CalculatorType {
	return CalculatorTalib
}

func (f failingCalculator) Compute(types.Series, config.IndicatorConfig) (*IndicatorSet, error) {
	return nil, errors.New(errors.ErrCodeIndicatorCalculation, "kernel failed")
}

func (suite *IndicatorTestSuite) TestEngineFallsBackToManual() {
	series := mocks.NewDataGenerator(3).Generate(mocks.DefaultConfig())

	registry := NewCalculatorRegistry()
	suite.Require().NoError(registry.RegisterCalculator(failingCalculator{}))
	suite.Require().NoError(registry.RegisterCalculator(NewManualCalculator()))

	set, err := NewEngine(registry, nil).Compute(series, suite.cfg)
	suite.Require().NoError(err)

	expected, err := NewManualCalculator().Compute(series, suite.cfg)
	suite.Require().NoError(err)
	suite.Equal(expected.Last(types.IndicatorRSI), set.Last(types.IndicatorRSI))

	onlyFailing := NewCalculatorRegistry()
	suite.Require().NoError(onlyFailing.RegisterCalculator(failingCalculator{}))

	_, err = NewEngine(onlyFailing, nil).Compute(series, suite.cfg)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorCalculation))
}

func (suite *IndicatorTestSuite) TestComputeRejectsInvalidConfig() {
	series := mocks.SeriesFromCloses("CFG", ramp(40, 100, 1), 0.5, 1000)

	cases := []struct {
		name   string
		mutate func(cfg *config.IndicatorConfig)
	}{
		{"zero rsi period", func(cfg *config.IndicatorConfig) { cfg.RSIPeriod = 0 }},
		{"negative atr period", func(cfg *config.IndicatorConfig) { cfg.ATRPeriod = -1 }},
		{"zero bollinger multiplier", func(cfg *config.IndicatorConfig) { cfg.BBStdDev = 0 }},
		{"macd fast above slow", func(cfg *config.IndicatorConfig) { cfg.MACD.Fast = 30 }},
		{"unsorted ma periods", func(cfg *config.IndicatorConfig) { cfg.MAPeriods = []int{21, 9, 50} }},
	}

	for _, tc := range cases {
		suite.Run(tc.name, func() {
			cfg := suite.cfg
			cfg.MAPeriods = append([]int(nil), suite.cfg.MAPeriods...)
			tc.mutate(&cfg)

			suite.forEachCalculator(func(calc Calculator) {
				_, err := calc.Compute(series, cfg)
				suite.Error(err)
				suite.True(errors.IsInvalidParameter(err))
			})
		})
	}
}

func (suite *IndicatorTestSuite) TestLineJSON() {
	line := Line{math.NaN(), 1.5, 2}
	data, err := line.MarshalJSON()
	suite.NoError(err)
	suite.JSONEq(`[null, 1.5, 2]`, string(data))
	suite.True(line.At(0).IsNone())
	suite.Equal(1.5, line.At(1).Unwrap())
	suite.True(line.At(5).IsNone())
	suite.Equal(1, line.FirstDefined())
}
