package indicator

import (
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"go.uber.org/zap"
)

// CalculatorType names a calculator strategy.
type CalculatorType string

const (
	CalculatorTalib  CalculatorType = config.StrategyTalib
	CalculatorManual CalculatorType = config.StrategyManual
)

// Calculator computes the full indicator set for a series.
type Calculator interface {
	// Name returns the strategy name used in configuration.
	Name() CalculatorType
	// Compute returns every configured indicator aligned with the series.
	Compute(series types.Series, cfg config.IndicatorConfig) (*IndicatorSet, error)
}

// kernels are the primitive computations a calculator strategy provides.
// Inputs never contain NaN; outputs have the input length with NaN for
// undefined entries.
type kernels interface {
	sma(values []float64, period int) Line
	ema(values []float64, period int) Line
	rsi(closes []float64, period int) Line
	bollinger(closes []float64, period int, stdDev float64) (upper, middle, lower Line)
	highest(values []float64, period int) Line
	lowest(values []float64, period int) Line
	williamsR(highs, lows, closes []float64, period int) Line
	cci(highs, lows, closes []float64, period int) Line
	atr(highs, lows, closes []float64, period int) Line
	obv(closes, volumes []float64) Line
}

// Engine selects a calculator by configured strategy and computes indicators.
type Engine struct {
	registry CalculatorRegistry
	log      *logger.Logger
}

// NewEngine creates an engine. A nil registry uses the default one.
func NewEngine(registry CalculatorRegistry, log *logger.Logger) *Engine {
	if registry == nil {
		registry = NewDefaultRegistry()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{
		registry: registry,
		log:      log,
	}
}

// Compute returns the indicator set of the series using cfg.Strategy.
func (e *Engine) Compute(series types.Series, cfg config.IndicatorConfig) (*IndicatorSet, error) {
	calculator, err := e.registry.GetCalculator(CalculatorType(cfg.Strategy))
	if err != nil {
		return nil, err
	}

	set, err := calculator.Compute(series, cfg)
	if err != nil && errors.HasCode(err, errors.ErrCodeIndicatorCalculation) && calculator.Name() != CalculatorManual {
		set, err = e.fallback(series, cfg, err)
	}

	if err != nil {
		return nil, err
	}

	e.log.Debug("Indicators computed",
		zap.String("symbol", series.Symbol),
		zap.String("strategy", cfg.Strategy),
		zap.Int("bars", series.Len()),
		zap.Int("lines", len(set.lines)),
	)

	return set, nil
}

// fallback retries with the manual calculator after a calculation failure.
// The original error is returned when no manual calculator is registered.
func (e *Engine) fallback(series types.Series, cfg config.IndicatorConfig, cause error) (*IndicatorSet, error) {
	manual, err := e.registry.GetCalculator(CalculatorManual)
	if err != nil {
		return nil, cause
	}

	e.log.Warn("Calculator failed, falling back to manual formulas",
		zap.String("symbol", series.Symbol),
		zap.String("strategy", cfg.Strategy),
		zap.Error(cause),
	)

	return manual.Compute(series, cfg)
}

func compute(series types.Series, cfg config.IndicatorConfig, k kernels) (*IndicatorSet, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	cache := NewCache()
	set := newIndicatorSet(series.Len())

	for _, period := range cfg.MAPeriods {
		set.put(types.SMAName(period), cache.Line(cacheKey("close", "sma", period), func() Line {
			return k.sma(closes, period)
		}))
	}

	for _, period := range cfg.EMAPeriods {
		set.put(types.EMAName(period), cache.Line(cacheKey("close", "ema", period), func() Line {
			return k.ema(closes, period)
		}))
	}

	set.put(types.IndicatorRSI, neutralRSI(k.rsi(unitScale(closes), cfg.RSIPeriod), closes, cfg.RSIPeriod))

	macd, signal, histogram := macdLines(closes, cfg.MACD, k, cache)
	set.put(types.IndicatorMACD, macd)
	set.put(types.IndicatorMACDSignal, signal)
	set.put(types.IndicatorMACDHistogram, histogram)

	upper, middle, lower, width := bollingerLines(closes, cfg.BBPeriod, cfg.BBStdDev, k)
	set.put(types.IndicatorBBUpper, upper)
	set.put(types.IndicatorBBMiddle, middle)
	set.put(types.IndicatorBBLower, lower)
	set.put(types.IndicatorBBWidth, width)

	stochK, stochD := stochasticLines(highs, lows, closes, cfg.StochKPeriod, cfg.StochDPeriod, k)
	set.put(types.IndicatorStochK, stochK)
	set.put(types.IndicatorStochD, stochD)

	set.put(types.IndicatorWilliamsR, maskFlat(k.williamsR(highs, lows, closes, cfg.WilliamsPeriod),
		flatRangeWindows(highs, lows, cfg.WilliamsPeriod)))
	set.put(types.IndicatorCCI, maskFlat(k.cci(highs, lows, closes, cfg.CCIPeriod),
		flatWindows(typicalPrices(highs, lows, closes), cfg.CCIPeriod)))
	set.put(types.IndicatorATR, k.atr(highs, lows, closes, cfg.ATRPeriod))
	set.put(types.IndicatorOBV, k.obv(closes, volumes))

	volumeMA, volumeRatio := volumeLines(volumes, cfg.VolumeMAPeriod, k, cache)
	set.put(types.IndicatorVolumeMA, volumeMA)
	set.put(types.IndicatorVolumeRatio, volumeRatio)

	return set, nil
}
