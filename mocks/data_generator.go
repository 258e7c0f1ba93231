package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-chart/internal/types"
)

// DataGenerator generates realistic market data for testing and benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "BTCUSDT", "SPY")
	Symbol string
	// Timeframe is stamped on the generated series
	Timeframe types.Timeframe
	// StartTime is the beginning of the data series
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of data points to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical volatility per bar)
	Volatility float64
	// Trend is the total drift over the series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		Timeframe:      types.Timeframe1h,
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Hour,
		Count:          500,
		InitialPrice:   100.0,
		Volatility:     0.01,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates a series based on the configuration.
// The generated data follows a geometric Brownian motion model for realistic price movements.
func (g *DataGenerator) Generate(config GeneratorConfig) types.Series {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a standard normal draw
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		close := open * (1 + priceChange + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, close) + highExtension
		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance
		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Time:   currentTime,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(close, 4),
			Volume: roundToDecimals(volume, 2),
		}

		currentPrice = close
		currentTime = currentTime.Add(config.Interval)
	}

	return types.Series{
		Symbol:    config.Symbol,
		Timeframe: config.Timeframe,
		Bars:      bars,
	}
}

// Generate10K is a convenience function to generate 10,000 bars
// with default settings for benchmarking.
func Generate10K(symbol string) types.Series {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Symbol = symbol
	config.Count = 10000

	return gen.Generate(config)
}

// Anchor is a (bar index, close) point of a piecewise linear price path.
type Anchor struct {
	Index int
	Price float64
}

// PiecewiseCloses linearly interpolates closes between anchors. Anchors must be
// sorted by index and the first one must be at index 0.
func PiecewiseCloses(anchors ...Anchor) []float64 {
	if len(anchors) == 0 {
		return nil
	}

	last := anchors[len(anchors)-1]
	closes := make([]float64, last.Index+1)

	for k := 0; k+1 < len(anchors); k++ {
		from, to := anchors[k], anchors[k+1]
		span := float64(to.Index - from.Index)

		for i := from.Index; i <= to.Index; i++ {
			closes[i] = from.Price + (to.Price-from.Price)*float64(i-from.Index)/span
		}
	}

	closes[last.Index] = last.Price

	return closes
}

// SeriesFromCloses builds hourly bars with open = close, high = close + spread,
// low = close - spread and a constant volume.
func SeriesFromCloses(symbol string, closes []float64, spread float64, volume float64) types.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, len(closes))

	for i, c := range closes {
		bars[i] = types.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + spread,
			Low:    c - spread,
			Close:  c,
			Volume: volume,
		}
	}

	return types.Series{
		Symbol:    symbol,
		Timeframe: types.Timeframe1h,
		Bars:      bars,
	}
}

// FlatSeries returns count identical bars at price.
func FlatSeries(symbol string, count int, price float64) types.Series {
	closes := make([]float64, count)
	for i := range closes {
		closes[i] = price
	}

	return SeriesFromCloses(symbol, closes, 0, 1000)
}

// InvertSeries mirrors every price through zero: high becomes -low and so on.
func InvertSeries(series types.Series) types.Series {
	bars := make([]types.Bar, len(series.Bars))
	for i, b := range series.Bars {
		bars[i] = types.Bar{
			Time:   b.Time,
			Open:   -b.Open,
			High:   -b.Low,
			Low:    -b.High,
			Close:  -b.Close,
			Volume: b.Volume,
		}
	}

	return types.Series{
		Symbol:    series.Symbol,
		Timeframe: series.Timeframe,
		Bars:      bars,
	}
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
