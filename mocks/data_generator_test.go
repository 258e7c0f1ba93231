package mocks

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DataGeneratorTestSuite struct {
	suite.Suite
}

func TestDataGeneratorSuite(t *testing.T) {
	suite.Run(t, new(DataGeneratorTestSuite))
}

func (suite *DataGeneratorTestSuite) TestGenerate() {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Count = 100

	series := gen.Generate(config)

	suite.Equal(100, series.Len())
	suite.Equal(config.Symbol, series.Symbol)
	suite.NoError(series.Validate())

	for i, b := range series.Bars {
		suite.Greater(b.Low, 0.0, "bar %d", i)
		suite.GreaterOrEqual(b.High, b.Low, "bar %d", i)
		if i > 0 {
			suite.Equal(config.Interval, b.Time.Sub(series.Bars[i-1].Time))
		}
	}
}

func (suite *DataGeneratorTestSuite) TestGenerateIsReproducible() {
	config := DefaultConfig()
	config.Count = 50

	a := NewDataGenerator(7).Generate(config)
	b := NewDataGenerator(7).Generate(config)
	suite.Equal(a, b)
}

func (suite *DataGeneratorTestSuite) TestPiecewiseCloses() {
	closes := PiecewiseCloses(Anchor{0, 100}, Anchor{4, 120}, Anchor{6, 110})

	suite.Len(closes, 7)
	suite.InDeltaSlice([]float64{100, 105, 110, 115, 120, 115, 110}, closes, 1e-9)
}

func (suite *DataGeneratorTestSuite) TestSeriesHelpers() {
	series := SeriesFromCloses("X", []float64{10, 11, 12}, 0.5, 100)
	suite.NoError(series.Validate())
	suite.Equal(11.5, series.Bars[1].High)
	suite.Equal(10.5, series.Bars[1].Low)

	inverted := InvertSeries(series)
	suite.NoError(inverted.Validate())
	suite.Equal(-11.5, inverted.Bars[1].Low)
	suite.Equal(-10.5, inverted.Bars[1].High)

	flat := FlatSeries("F", 30, 100)
	suite.Equal(30, flat.Len())
	suite.Equal(100.0, flat.Bars[29].High)
}
