package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-chart/internal/analysis"
	"github.com/rxtech-lab/argo-chart/internal/backtest/engine"
	"github.com/rxtech-lab/argo-chart/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/prediction"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/internal/version"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type BacktestEngineV1 struct {
	config        config.Config
	log           *logger.Logger
	pipeline      *analysis.Pipeline
	commissionFee commission_fee.CommissionFee
	initialized   bool
}

// evaluation is the outcome of one evaluation point. Each goroutine writes only its own slot.
type evaluation struct {
	index   int
	skipped bool
	result  analysis.Result
}

// NewBacktestEngineV1 creates an engine. A nil logger discards output.
func NewBacktestEngineV1(log *logger.Logger) engine.Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &BacktestEngineV1{
		config:        config.Default(),
		log:           log,
		pipeline:      nil,
		commissionFee: nil,
		initialized:   false,
	}
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(cfg config.Config) error {
	pipeline, err := analysis.NewPipeline(cfg, b.log.Named("analysis"))
	if err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest configuration", err)
	}

	b.config = cfg
	b.pipeline = pipeline
	b.commissionFee = commission_fee.GetCommissionFeeHandler(cfg.Backtest.Broker)
	b.initialized = true

	b.log.Debug("Backtest engine initialized",
		zap.Int("window_size", cfg.Backtest.BacktestWindowSize),
		zap.Int("warmup_bars", cfg.Backtest.WarmupBars),
		zap.String("broker", string(cfg.Backtest.Broker)),
	)

	return nil
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchemaJSON()
}

// EvaluateAt implements engine.Engine. Only bars with index <= t are passed to the pipeline.
func (b *BacktestEngineV1) EvaluateAt(series types.Series, t int) (analysis.Result, error) {
	if !b.initialized {
		return analysis.Result{}, errors.New(errors.ErrCodeBacktestNotInitialized, "backtest engine is not initialized")
	}

	if t < 0 || t >= series.Len() {
		return analysis.Result{}, errors.Newf(errors.ErrCodeInvalidParameter, "evaluation index %d outside series of %d bars", t, series.Len())
	}

	start := max(0, t-b.config.Backtest.BacktestWindowSize+1)
	window := series.Window(start, t+1)

	if window.Len() < b.config.Backtest.WarmupBars {
		return analysis.Result{}, errors.NewInsufficientDataErrorf(b.config.Backtest.WarmupBars, window.Len(), series.Symbol,
			"window ending at %d has %d bars, warmup needs %d", t, window.Len(), b.config.Backtest.WarmupBars)
	}

	return b.pipeline.Analyze(window)
}

// evaluationPoints returns every bar index the backtest evaluates.
func (b *BacktestEngineV1) evaluationPoints(n int) []int {
	points := make([]int, 0)
	for t := max(0, b.config.Backtest.WarmupBars-1); t < n; t += b.config.Backtest.EvaluationStep {
		points = append(points, t)
	}

	return points
}

// Run implements engine.Engine.
func (b *BacktestEngineV1) Run(ctx context.Context, series types.Series, callbacks engine.LifecycleCallbacks) (report *types.BacktestReport, err error) {
	if !b.initialized {
		return nil, errors.New(errors.ErrCodeBacktestNotInitialized, "backtest engine is not initialized")
	}

	if callbacks.OnBacktestEnd != nil {
		defer func() {
			(*callbacks.OnBacktestEnd)(report, err)
		}()
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	points := b.evaluationPoints(series.Len())

	b.log.Info("Backtest started",
		zap.String("run_id", runID),
		zap.String("symbol", series.Symbol),
		zap.Int("bars", series.Len()),
		zap.Int("windows", len(points)),
	)

	if callbacks.OnBacktestStart != nil {
		if err := (*callbacks.OnBacktestStart)(runID, series.Symbol, len(points)); err != nil {
			return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "backtest start callback failed", err)
		}
	}

	evaluations, err := b.evaluate(ctx, series, points, callbacks)
	if err != nil {
		return nil, err
	}

	sim := newSimulation(series, b.config, b.commissionFee)
	for _, ev := range evaluations {
		if ev.skipped {
			continue
		}

		trade, closed := sim.step(ev.index, ev.result.Signal)
		if !closed {
			continue
		}

		if callbacks.OnTradeClosed != nil {
			if err := (*callbacks.OnTradeClosed)(trade); err != nil {
				return nil, errors.Wrap(errors.ErrCodeCallbackFailed, "trade closed callback failed", err)
			}
		}
	}

	report = b.buildReport(runID, series, evaluations, sim)

	b.log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.Int("evaluated_windows", report.EvaluatedWindows),
		zap.Int("skipped_windows", report.SkippedWindows),
		zap.Int("trades", len(report.Trades)),
		zap.Float64("directional_accuracy", report.Metrics.DirectionalAccuracy),
		zap.Float64("total_pnl", report.Metrics.TotalPnL),
	)

	return report, nil
}

// evaluate runs the pipeline at every point concurrently. The returned slice is in bar order.
func (b *BacktestEngineV1) evaluate(ctx context.Context, series types.Series, points []int, callbacks engine.LifecycleCallbacks) ([]evaluation, error) {
	evaluations := make([]evaluation, len(points))

	limit := b.config.Backtest.MaxConcurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	var mu sync.Mutex
	completed := 0

	notify := func(ev evaluation) error {
		mu.Lock()
		defer mu.Unlock()

		completed++
		if callbacks.OnWindowEvaluated == nil {
			return nil
		}

		event := engine.WindowEvent{
			Index:     ev.index,
			Time:      series.Bars[ev.index].Time,
			Completed: completed,
			Total:     len(points),
			Skipped:   ev.skipped,
		}
		if !ev.skipped {
			event.Direction = ev.result.Prediction.Direction
			event.Action = ev.result.Signal.Action
		}

		if err := (*callbacks.OnWindowEvaluated)(event); err != nil {
			return errors.Wrap(errors.ErrCodeCallbackFailed, "window evaluated callback failed", err)
		}

		return nil
	}

	for k, t := range points {
		k, t := k, t
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			result, err := b.EvaluateAt(series, t)
			switch {
			case err == nil:
				evaluations[k] = evaluation{index: t, result: result}
			case errors.IsDataInsufficient(err):
				b.log.Debug("Skipping window", zap.Int("index", t), zap.Error(err))
				evaluations[k] = evaluation{index: t, skipped: true}
			default:
				return err
			}

			return notify(evaluations[k])
		})
	}

	if err := group.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestCancelled, "backtest cancelled", ctxErr)
		}

		return nil, err
	}

	return evaluations, nil
}

func (b *BacktestEngineV1) buildReport(runID string, series types.Series, evaluations []evaluation, sim *simulation) *types.BacktestReport {
	horizon := b.config.Prediction.PredictionHorizonBars
	closes := series.Closes()

	report := &types.BacktestReport{
		ID:             runID,
		Version:        version.GetVersion(),
		Timestamp:      time.Now(),
		Symbol:         series.Symbol,
		Timeframe:      series.Timeframe,
		InitialCapital: b.config.Backtest.InitialCapital,
		Trades:         sim.trades,
		Predictions:    make([]types.PredictionRecord, 0, len(evaluations)),
		EquityCurve:    nil,
	}

	firstIndex := -1
	for _, ev := range evaluations {
		if ev.skipped {
			report.SkippedWindows++
			continue
		}

		report.EvaluatedWindows++
		if firstIndex < 0 {
			firstIndex = ev.index
		}

		record := types.PredictionRecord{
			Index:      ev.index,
			Time:       series.Bars[ev.index].Time,
			Predicted:  ev.result.Prediction.Direction,
			Confidence: ev.result.Prediction.Confidence,
		}

		if future := ev.index + horizon; future < series.Len() {
			record.Realized = prediction.RealizedDirection(closes[ev.index], closes[future], b.config.Prediction.SidewaysThresholdPct)
		}

		report.Predictions = append(report.Predictions, record)
	}

	report.EquityCurve = EquityCurve(report.Trades, report.InitialCapital, series, firstIndex)
	report.Metrics = ComputeMetrics(report.Trades, report.Predictions, report.InitialCapital, b.config.Backtest.AnnualizationFactor)

	if firstIndex >= 0 && closes[firstIndex] != 0 {
		report.Metrics.BuyAndHoldReturn = (closes[len(closes)-1] - closes[firstIndex]) / closes[firstIndex]
	}

	return report
}
