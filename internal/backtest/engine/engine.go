package engine

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-chart/internal/analysis"
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnBacktestStartCallback is called once before any window is evaluated.
type OnBacktestStartCallback func(runID string, symbol string, totalWindows int) error

// OnWindowEvaluatedCallback is called after each evaluation point finishes.
// Calls are serialized but arrive in completion order, not bar order.
type OnWindowEvaluatedCallback func(event WindowEvent) error

// OnTradeClosedCallback is called for each simulated trade in chronological order.
type OnTradeClosedCallback func(trade types.Trade) error

// OnBacktestEndCallback is called when the backtest completes (always called via defer).
// report is nil when err is not nil.
type OnBacktestEndCallback func(report *types.BacktestReport, err error)

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnBacktestStart   *OnBacktestStartCallback
	OnWindowEvaluated *OnWindowEvaluatedCallback
	OnTradeClosed     *OnTradeClosedCallback
	OnBacktestEnd     *OnBacktestEndCallback
}

// WindowEvent reports one finished evaluation point.
type WindowEvent struct {
	Index     int             `json:"index"`
	Time      time.Time       `json:"time"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Skipped   bool            `json:"skipped"`
	Direction types.Direction `json:"direction,omitempty"`
	Action    types.Action    `json:"action,omitempty"`
}

type Engine interface {
	// Initialize the engine with the given configuration. The configuration is validated
	// and stays fixed for every following run.
	Initialize(cfg config.Config) error
	// Run evaluates the pipeline at every evaluation point of series using only the bars
	// up to that point, simulates the resulting signals and returns the finalized report.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, series types.Series, callbacks LifecycleCallbacks) (*types.BacktestReport, error)
	// EvaluateAt runs the pipeline on the trailing window that ends at bar t.
	EvaluateAt(series types.Series, t int) (analysis.Result, error)
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}
