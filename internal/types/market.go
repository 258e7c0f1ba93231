package types

import (
	"fmt"
	"math"
	"time"

	"github.com/rxtech-lab/argo-chart/pkg/errors"
)

// Timeframe is the bar interval of a series.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
)

// Minutes returns the length of one bar in minutes.
func (t Timeframe) Minutes() (int, error) {
	switch t {
	case Timeframe1m:
		return 1, nil
	case Timeframe5m:
		return 5, nil
	case Timeframe15m:
		return 15, nil
	case Timeframe30m:
		return 30, nil
	case Timeframe1h:
		return 60, nil
	case Timeframe4h:
		return 240, nil
	case Timeframe1d:
		return 1440, nil
	case Timeframe1w:
		return 10080, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe: %s", t)
	}
}

// ParseTimeframe parses a timeframe string such as "1h" or "1d".
func ParseTimeframe(value string) (Timeframe, error) {
	timeframe := Timeframe(value)
	if _, err := timeframe.Minutes(); err != nil {
		return "", err
	}

	return timeframe, nil
}

// Bar is one OHLC-V candle.
type Bar struct {
	Time   time.Time `json:"time" yaml:"time" csv:"time"`
	Open   float64   `json:"open" yaml:"open" csv:"open"`
	High   float64   `json:"high" yaml:"high" csv:"high"`
	Low    float64   `json:"low" yaml:"low" csv:"low"`
	Close  float64   `json:"close" yaml:"close" csv:"close"`
	Volume float64   `json:"volume" yaml:"volume" csv:"volume"`
}

// Series is a time ordered sequence of bars for one instrument.
// A series is owned by the caller and treated as read only by every engine.
type Series struct {
	Symbol    string    `json:"symbol" yaml:"symbol"`
	Timeframe Timeframe `json:"timeframe" yaml:"timeframe"`
	Bars      []Bar     `json:"bars" yaml:"bars"`
}

// Len returns the number of bars.
func (s Series) Len() int {
	return len(s.Bars)
}

// Validate checks the structural rules every engine relies on.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return errors.NewInsufficientDataError(1, 0, s.Symbol, "series has no bars")
	}

	for i, bar := range s.Bars {
		if !isFinite(bar.Open) || !isFinite(bar.High) || !isFinite(bar.Low) || !isFinite(bar.Close) || !isFinite(bar.Volume) {
			return errors.Newf(errors.ErrCodeInvalidSeries, "bar %d has a non-finite value", i)
		}

		if bar.Volume < 0 {
			return errors.Newf(errors.ErrCodeInvalidSeries, "bar %d has negative volume %f", i, bar.Volume)
		}

		if bar.High < bar.Low {
			return errors.Newf(errors.ErrCodeInvalidSeries, "bar %d has high %f below low %f", i, bar.High, bar.Low)
		}

		if i > 0 && !bar.Time.After(s.Bars[i-1].Time) {
			return errors.Newf(errors.ErrCodeInvalidSeries, "bar %d at %s is not after bar %d at %s",
				i, bar.Time.Format(time.RFC3339), i-1, s.Bars[i-1].Time.Format(time.RFC3339))
		}
	}

	return nil
}

// Window returns the bars in [start, end) as a series sharing the same storage.
func (s Series) Window(start, end int) Series {
	if start < 0 {
		start = 0
	}

	if end > len(s.Bars) {
		end = len(s.Bars)
	}

	if start > end {
		start = end
	}

	return Series{
		Symbol:    s.Symbol,
		Timeframe: s.Timeframe,
		Bars:      s.Bars[start:end:end],
	}
}

// Last returns the most recent bar. It panics on an empty series.
func (s Series) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}

func (s Series) Opens() []float64 {
	return s.column(func(b Bar) float64 { return b.Open })
}

func (s Series) Highs() []float64 {
	return s.column(func(b Bar) float64 { return b.High })
}

func (s Series) Lows() []float64 {
	return s.column(func(b Bar) float64 { return b.Low })
}

func (s Series) Closes() []float64 {
	return s.column(func(b Bar) float64 { return b.Close })
}

func (s Series) Volumes() []float64 {
	return s.column(func(b Bar) float64 { return b.Volume })
}

func (s Series) column(get func(Bar) float64) []float64 {
	values := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		values[i] = get(bar)
	}

	return values
}

// String implements fmt.Stringer.
func (s Series) String() string {
	if len(s.Bars) == 0 {
		return fmt.Sprintf("%s[%s] (empty)", s.Symbol, s.Timeframe)
	}

	return fmt.Sprintf("%s[%s] %d bars %s..%s", s.Symbol, s.Timeframe, len(s.Bars),
		s.Bars[0].Time.Format(time.RFC3339), s.Last().Time.Format(time.RFC3339))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
