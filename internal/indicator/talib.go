package indicator

import (
	"math"

	"github.com/markcheno/go-talib"
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
)

// TalibCalculator computes indicators with github.com/markcheno/go-talib.
// go-talib returns zeros for the lookback prefix and indexes past the end of
// short inputs, so every call is length guarded and the prefix is rewritten as NaN.
type TalibCalculator struct{}

// NewTalibCalculator creates the library backed calculator.
func NewTalibCalculator() Calculator {
	return &TalibCalculator{}
}

// Name implements Calculator.
func (t *TalibCalculator) Name() CalculatorType {
	return CalculatorTalib
}

// Compute implements Calculator.
func (t *TalibCalculator) Compute(series types.Series, cfg config.IndicatorConfig) (set *IndicatorSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			set = nil
			err = errors.Newf(errors.ErrCodeIndicatorCalculation, "talib computation failed: %v", r)
		}
	}()

	return compute(series, cfg, t)
}

func fromTalib(values []float64, lookback int) Line {
	out := make(Line, len(values))
	copy(out, values)

	for i := 0; i < lookback && i < len(out); i++ {
		out[i] = math.NaN()
	}

	return out
}

func (t *TalibCalculator) sma(values []float64, period int) Line {
	if period < 1 || len(values) < period {
		return nanLine(len(values))
	}

	if period == 1 {
		return fromTalib(values, 0)
	}

	return fromTalib(talib.Sma(values, period), period-1)
}

func (t *TalibCalculator) ema(values []float64, period int) Line {
	if period < 1 || len(values) < period {
		return nanLine(len(values))
	}

	if period == 1 {
		return fromTalib(values, 0)
	}

	return fromTalib(talib.Ema(values, period), period-1)
}

func (t *TalibCalculator) rsi(closes []float64, period int) Line {
	if period < 2 || len(closes) <= period {
		return nanLine(len(closes))
	}

	return fromTalib(talib.Rsi(closes, period), period)
}

func (t *TalibCalculator) bollinger(closes []float64, period int, stdDev float64) (upper, middle, lower Line) {
	if period < 2 || len(closes) < period {
		return nanLine(len(closes)), nanLine(len(closes)), nanLine(len(closes))
	}

	u, m, l := talib.BBands(closes, period, stdDev, stdDev, talib.SMA)

	return fromTalib(u, period-1), fromTalib(m, period-1), fromTalib(l, period-1)
}

func (t *TalibCalculator) highest(values []float64, period int) Line {
	if period < 2 || len(values) < period {
		return nanLine(len(values))
	}

	return fromTalib(talib.Max(values, period), period-1)
}

func (t *TalibCalculator) lowest(values []float64, period int) Line {
	if period < 2 || len(values) < period {
		return nanLine(len(values))
	}

	return fromTalib(talib.Min(values, period), period-1)
}

func (t *TalibCalculator) williamsR(highs, lows, closes []float64, period int) Line {
	if period < 2 || len(closes) < period {
		return nanLine(len(closes))
	}

	return fromTalib(talib.WillR(highs, lows, closes, period), period-1)
}

func (t *TalibCalculator) cci(highs, lows, closes []float64, period int) Line {
	if period < 2 || len(closes) < period {
		return nanLine(len(closes))
	}

	return fromTalib(talib.Cci(highs, lows, closes, period), period-1)
}

func (t *TalibCalculator) atr(highs, lows, closes []float64, period int) Line {
	if period < 1 || len(closes) <= period {
		return nanLine(len(closes))
	}

	return fromTalib(talib.Atr(highs, lows, closes, period), period)
}

func (t *TalibCalculator) obv(closes, volumes []float64) Line {
	if len(closes) == 0 {
		return Line{}
	}

	return fromTalib(talib.Obv(closes, volumes), 0)
}
