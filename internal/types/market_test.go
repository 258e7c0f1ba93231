package types

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-chart/internal/version"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type TypesTestSuite struct {
	suite.Suite
}

func TestTypesSuite(t *testing.T) {
	suite.Run(t, new(TypesTestSuite))
}

func (suite *TypesTestSuite) series(n int) Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]Bar, n)

	for i := range bars {
		price := 100 + float64(i)
		bars[i] = Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}

	return Series{Symbol: "BTCUSDT", Timeframe: Timeframe1h, Bars: bars}
}

func (suite *TypesTestSuite) TestValidate() {
	suite.NoError(suite.series(10).Validate())

	empty := Series{Symbol: "X"}
	err := empty.Validate()
	suite.Error(err)
	suite.True(errors.IsDataInsufficient(err))

	tests := []struct {
		name   string
		mutate func(s Series)
	}{
		{"duplicate timestamp", func(s Series) { s.Bars[3].Time = s.Bars[2].Time }},
		{"unordered timestamp", func(s Series) { s.Bars[3].Time = s.Bars[0].Time.Add(-time.Hour) }},
		{"nan close", func(s Series) { s.Bars[4].Close = math.NaN() }},
		{"inf high", func(s Series) { s.Bars[4].High = math.Inf(1) }},
		{"negative volume", func(s Series) { s.Bars[5].Volume = -1 }},
		{"high below low", func(s Series) { s.Bars[5].High = s.Bars[5].Low - 1 }},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			s := suite.series(10)
			tc.mutate(s)
			err := s.Validate()
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidSeries))
		})
	}
}

func (suite *TypesTestSuite) TestNegativePricesAreValid() {
	s := suite.series(5)
	for i := range s.Bars {
		s.Bars[i].Open, s.Bars[i].Close = -s.Bars[i].Open, -s.Bars[i].Close
		s.Bars[i].High, s.Bars[i].Low = -s.Bars[i].Low, -s.Bars[i].High
	}

	suite.NoError(s.Validate())
}

func (suite *TypesTestSuite) TestWindow() {
	s := suite.series(10)

	w := s.Window(2, 5)
	suite.Equal(3, w.Len())
	suite.Equal(s.Bars[2], w.Bars[0])
	suite.Equal(s.Bars[4], w.Last())
	suite.Equal(3, cap(w.Bars))

	suite.Equal(10, s.Window(-3, 50).Len())
	suite.Equal(0, s.Window(7, 3).Len())
	suite.Equal([]float64{102, 103, 104}, w.Closes())
	suite.Equal([]float64{103, 104, 105}, w.Highs())
}

func (suite *TypesTestSuite) TestTimeframe() {
	minutes, err := Timeframe4h.Minutes()
	suite.NoError(err)
	suite.Equal(240, minutes)

	tf, err := ParseTimeframe("1d")
	suite.NoError(err)
	suite.Equal(Timeframe1d, tf)

	_, err = ParseTimeframe("7m")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeframe))
}

func (suite *TypesTestSuite) TestIndicatorNames() {
	suite.Equal(IndicatorName("sma_21"), SMAName(21))
	suite.Equal(IndicatorName("ema_12"), EMAName(12))
}

func (suite *TypesTestSuite) TestPatternName() {
	p := Pattern{Kind: PatternTriangle, Variant: VariantAscending}
	suite.Equal("triangle/ascending", p.Name())

	p = Pattern{Kind: PatternDoubleTop}
	suite.Equal("double_top", p.Name())
	suite.Equal(-1.0, BiasBearish.Sign())
	suite.Equal(0.0, BiasNeutral.Sign())
}

func (suite *TypesTestSuite) TestBacktestReportRoundTrip() {
	path := filepath.Join(suite.T().TempDir(), "report.yaml")
	entry := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	report := BacktestReport{
		ID:             "run-1",
		Version:        version.GetVersion(),
		Timestamp:      entry,
		Symbol:         "ETHUSDT",
		Timeframe:      Timeframe1h,
		InitialCapital: 10000,
		Trades: []Trade{{
			Side:       PositionSideShort,
			EntryIndex: 40,
			EntryTime:  entry,
			EntryPrice: 150,
			ExitIndex:  43,
			ExitTime:   entry.Add(3 * time.Hour),
			ExitPrice:  140,
			Quantity:   2,
			ExitReason: ExitReasonTakeProfit,
			PnL:        20,
		}},
		Predictions: []PredictionRecord{{Index: 40, Time: entry, Predicted: DirectionDown, Realized: DirectionDown, Confidence: 0.7}},
		Metrics:     Metrics{NumberOfTrades: 1, TotalPnL: 20},
	}

	suite.NoError(WriteBacktestReport(path, report))

	read, err := ReadBacktestReport(path)
	suite.NoError(err)
	suite.Equal(report.ID, read.ID)
	suite.Equal(report.Trades, read.Trades)
	suite.Equal(report.Predictions, read.Predictions)
	suite.Equal(report.Metrics, read.Metrics)
}

func (suite *TypesTestSuite) TestReadBacktestReportRejectsNewerVersion() {
	path := filepath.Join(suite.T().TempDir(), "report.yaml")
	suite.NoError(WriteBacktestReport(path, BacktestReport{ID: "run-2", Version: "v99.0.0"}))

	original := version.Version
	version.Version = "v0.4.0"
	defer func() { version.Version = original }()

	_, err := ReadBacktestReport(path)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeVersionMismatch))
}
