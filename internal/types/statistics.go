package types

import (
	"os"
	"time"

	"github.com/rxtech-lab/argo-chart/internal/version"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Metrics struct {
	// Share of predictions with a known outcome whose direction matched the realized one.
	DirectionalAccuracy float64 `yaml:"directional_accuracy" json:"directional_accuracy"`
	// Accuracy restricted to UP predictions.
	UpAccuracy float64 `yaml:"up_accuracy" json:"up_accuracy"`
	// Accuracy restricted to DOWN predictions.
	DownAccuracy float64 `yaml:"down_accuracy" json:"down_accuracy"`
	// Count of predictions with a known outcome.
	NumberOfPredictions int `yaml:"number_of_predictions" json:"number_of_predictions"`
	// Count of all trades.
	NumberOfTrades int `yaml:"number_of_trades" json:"number_of_trades"`
	// Count of winning trades that has positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades" json:"number_of_winning_trades"`
	// Count of losing trades that has negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades" json:"number_of_losing_trades"`
	// Win rate.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// Mean pnl of winning trades.
	AverageWin float64 `yaml:"average_win" json:"average_win"`
	// Mean pnl of losing trades (negative or zero).
	AverageLoss float64 `yaml:"average_loss" json:"average_loss"`
	// Sum of trade pnl after fees.
	TotalPnL float64 `yaml:"total_pnl" json:"total_pnl"`
	// Sum of fees.
	TotalFees float64 `yaml:"total_fees" json:"total_fees"`
	// Annualized Sharpe ratio of per-trade returns.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// Maximum drawdown as a fraction of the running equity peak.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// Maximum drawdown in currency.
	MaxDrawdownAmount float64 `yaml:"max_drawdown_amount" json:"max_drawdown_amount"`
	// Return of holding the instrument from the first evaluated bar to the last bar.
	BuyAndHoldReturn float64 `yaml:"buy_and_hold_return" json:"buy_and_hold_return"`
}

type BacktestReport struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Version is the library version that wrote the report.
	Version string `yaml:"version" json:"version"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	Symbol    string    `yaml:"symbol" json:"symbol"`
	Timeframe Timeframe `yaml:"timeframe" json:"timeframe"`
	// InitialCapital is the starting equity.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	// EvaluatedWindows counts evaluation points that produced a prediction.
	EvaluatedWindows int `yaml:"evaluated_windows" json:"evaluated_windows"`
	// SkippedWindows counts evaluation points without enough history.
	SkippedWindows int                `yaml:"skipped_windows" json:"skipped_windows"`
	Trades         []Trade            `yaml:"trades" json:"trades"`
	Predictions    []PredictionRecord `yaml:"predictions" json:"predictions"`
	EquityCurve    []EquityPoint      `yaml:"equity_curve" json:"equity_curve"`
	Metrics        Metrics            `yaml:"metrics" json:"metrics"`
}

// WriteBacktestReport writes the report as YAML.
func WriteBacktestReport(path string, report BacktestReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to marshal backtest report to YAML", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write backtest report to file", err)
	}

	return nil
}

// ReadBacktestReport reads a YAML report and checks that this library can interpret it.
func ReadBacktestReport(path string) (BacktestReport, error) {
	var report BacktestReport

	data, err := os.ReadFile(path)
	if err != nil {
		return report, errors.Wrap(errors.ErrCodeReportReadFailed, "failed to read backtest report", err)
	}

	if err := yaml.Unmarshal(data, &report); err != nil {
		return report, errors.Wrap(errors.ErrCodeReportReadFailed, "failed to parse backtest report", err)
	}

	if err := version.CheckReportCompatibility(version.GetVersion(), report.Version); err != nil {
		return report, err
	}

	return report, nil
}
