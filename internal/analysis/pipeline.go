// Package analysis runs the indicator, pattern, prediction and signal engines
// over one series.
package analysis

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/indicator"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/pattern"
	"github.com/rxtech-lab/argo-chart/internal/prediction"
	"github.com/rxtech-lab/argo-chart/internal/signal"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"go.uber.org/zap"
)

// Result is everything one analysis call produces.
type Result struct {
	Symbol     string                  `json:"symbol" yaml:"symbol"`
	Timeframe  types.Timeframe         `json:"timeframe" yaml:"timeframe"`
	Bars       int                     `json:"bars" yaml:"bars"`
	LastTime   time.Time               `json:"last_time" yaml:"last_time"`
	Indicators *indicator.IndicatorSet `json:"indicators" yaml:"-"`
	Patterns   []types.Pattern         `json:"patterns" yaml:"patterns"`
	Prediction types.Prediction        `json:"prediction" yaml:"prediction"`
	Signal     types.Signal            `json:"signal" yaml:"signal"`
	Quality    QualityReport           `json:"quality" yaml:"quality"`
}

// AsyncResult is delivered by AnalyzeAsync.
type AsyncResult struct {
	Result Result
	Err    error
}

// Pipeline wires the four engines with one immutable configuration.
type Pipeline struct {
	cfg        config.Config
	log        *logger.Logger
	indicators *indicator.Engine
	detector   *pattern.Detector
	predictor  *prediction.Engine
	generator  *signal.Generator
}

// NewPipeline validates cfg and builds the engines. A nil logger discards output.
func NewPipeline(cfg config.Config, log *logger.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Pipeline{
		cfg:        cfg,
		log:        log,
		indicators: indicator.NewEngine(indicator.NewDefaultRegistry(), log.Named("indicator")),
		detector:   pattern.NewDetector(cfg.Pattern, log.Named("pattern")),
		predictor:  prediction.NewEngine(cfg, log.Named("prediction")),
		generator:  signal.NewGenerator(cfg, log.Named("signal")),
	}, nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() config.Config {
	return p.cfg
}

// Analyze runs the full pipeline, sizing the signal against the configured account equity.
func (p *Pipeline) Analyze(series types.Series) (Result, error) {
	return p.AnalyzeWithEquity(series, p.cfg.Signal.AccountEquity)
}

// AnalyzeWithEquity runs the full pipeline and sizes the signal against equity.
// Only an invalid series fails the call.
func (p *Pipeline) AnalyzeWithEquity(series types.Series, equity float64) (Result, error) {
	if err := series.Validate(); err != nil {
		return Result{}, err
	}

	set, err := p.indicators.Compute(series, p.cfg.Indicator)
	if err != nil {
		return Result{}, err
	}

	patterns, err := p.detector.Detect(series, set)
	if err != nil {
		return Result{}, err
	}

	pred, err := p.predictor.Predict(series, set, patterns)
	if err != nil {
		return Result{}, err
	}

	sig := p.generator.Generate(series, set, patterns, pred, equity)

	result := Result{
		Symbol:     series.Symbol,
		Timeframe:  series.Timeframe,
		Bars:       series.Len(),
		LastTime:   series.Last().Time,
		Indicators: set,
		Patterns:   patterns,
		Prediction: pred,
		Signal:     sig,
		Quality:    AssessQuality(series),
	}

	p.log.Debug("Analysis completed",
		zap.String("symbol", series.Symbol),
		zap.Int("bars", series.Len()),
		zap.Int("patterns", len(patterns)),
		zap.String("prediction", string(pred.Direction)),
		zap.String("signal", string(sig.Action)),
	)

	return result, nil
}

// AnalyzeAsync runs Analyze on its own goroutine. The channel is buffered and
// receives exactly one complete result, so a caller may stop listening once ctx
// is done; the computation still runs to completion.
func (p *Pipeline) AnalyzeAsync(ctx context.Context, series types.Series) <-chan AsyncResult {
	out := make(chan AsyncResult, 1)

	go func() {
		defer close(out)

		if err := ctx.Err(); err != nil {
			out <- AsyncResult{Err: err}
			return
		}

		result, err := p.Analyze(series)
		out <- AsyncResult{Result: result, Err: err}
	}()

	return out
}
