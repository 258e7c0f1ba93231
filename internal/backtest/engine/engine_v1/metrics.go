package engine

import (
	"math"

	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/shopspring/decimal"
)

// ComputeMetrics aggregates a finished run. It depends only on its arguments,
// so feeding a report's trades and predictions back reproduces its metrics.
func ComputeMetrics(trades []types.Trade, predictions []types.PredictionRecord, initialCapital, annualizationFactor float64) types.Metrics {
	metrics := types.Metrics{}

	var correct, upTotal, upCorrect, downTotal, downCorrect int
	for _, p := range predictions {
		if !p.HasOutcome() {
			continue
		}

		metrics.NumberOfPredictions++
		hit := p.Predicted == p.Realized
		if hit {
			correct++
		}

		switch p.Predicted {
		case types.DirectionUp:
			upTotal++
			if hit {
				upCorrect++
			}
		case types.DirectionDown:
			downTotal++
			if hit {
				downCorrect++
			}
		}
	}

	metrics.DirectionalAccuracy = ratio(correct, metrics.NumberOfPredictions)
	metrics.UpAccuracy = ratio(upCorrect, upTotal)
	metrics.DownAccuracy = ratio(downCorrect, downTotal)

	totalPnL, totalFees := decimal.Zero, decimal.Zero
	wins, losses := decimal.Zero, decimal.Zero
	returns := make([]float64, 0, len(trades))

	for _, t := range trades {
		metrics.NumberOfTrades++
		pnl := decimal.NewFromFloat(t.PnL)
		totalPnL = totalPnL.Add(pnl)
		totalFees = totalFees.Add(decimal.NewFromFloat(t.Fee))
		returns = append(returns, t.Return)

		switch {
		case t.PnL > 0:
			metrics.NumberOfWinningTrades++
			wins = wins.Add(pnl)
		case t.PnL < 0:
			metrics.NumberOfLosingTrades++
			losses = losses.Add(pnl)
		}
	}

	metrics.WinRate = ratio(metrics.NumberOfWinningTrades, metrics.NumberOfTrades)
	metrics.TotalPnL = totalPnL.InexactFloat64()
	metrics.TotalFees = totalFees.InexactFloat64()

	if metrics.NumberOfWinningTrades > 0 {
		metrics.AverageWin = wins.Div(decimal.NewFromInt(int64(metrics.NumberOfWinningTrades))).InexactFloat64()
	}

	if metrics.NumberOfLosingTrades > 0 {
		metrics.AverageLoss = losses.Div(decimal.NewFromInt(int64(metrics.NumberOfLosingTrades))).InexactFloat64()
	}

	metrics.SharpeRatio = SharpeRatio(returns, annualizationFactor)
	metrics.MaxDrawdown, metrics.MaxDrawdownAmount = MaxDrawdown(trades, initialCapital)

	return metrics
}

// RecomputeMetrics re-aggregates a saved report. Buy and hold needs the price
// history, so it is carried over from the report.
func RecomputeMetrics(report types.BacktestReport, annualizationFactor float64) types.Metrics {
	metrics := ComputeMetrics(report.Trades, report.Predictions, report.InitialCapital, annualizationFactor)
	metrics.BuyAndHoldReturn = report.Metrics.BuyAndHoldReturn

	return metrics
}

// SharpeRatio is mean / population stddev of returns scaled by sqrt(annualizationFactor).
// Fewer than two returns or zero variance give 0.
func SharpeRatio(returns []float64, annualizationFactor float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(annualizationFactor)
}

// MaxDrawdown walks the equity curve implied by the trades, starting at
// initialCapital, and returns the largest peak-to-trough decline as a fraction
// of the peak and in currency.
func MaxDrawdown(trades []types.Trade, initialCapital float64) (float64, float64) {
	equity := decimal.NewFromFloat(initialCapital)
	peak := equity
	maxFraction, maxAmount := 0.0, 0.0

	for _, t := range trades {
		equity = equity.Add(decimal.NewFromFloat(t.PnL))
		if equity.GreaterThan(peak) {
			peak = equity
			continue
		}

		amount := peak.Sub(equity).InexactFloat64()
		maxAmount = math.Max(maxAmount, amount)

		if peak.IsPositive() {
			maxFraction = math.Max(maxFraction, peak.Sub(equity).Div(peak).InexactFloat64())
		}
	}

	return maxFraction, maxAmount
}

// EquityCurve returns the equity at the first evaluated bar followed by the
// equity after each trade exit.
func EquityCurve(trades []types.Trade, initialCapital float64, series types.Series, firstIndex int) []types.EquityPoint {
	curve := make([]types.EquityPoint, 0, len(trades)+1)

	if firstIndex >= 0 && firstIndex < series.Len() {
		curve = append(curve, types.EquityPoint{
			Index:  firstIndex,
			Time:   series.Bars[firstIndex].Time,
			Equity: initialCapital,
		})
	}

	equity := decimal.NewFromFloat(initialCapital)
	for _, t := range trades {
		equity = equity.Add(decimal.NewFromFloat(t.PnL))
		curve = append(curve, types.EquityPoint{
			Index:  t.ExitIndex,
			Time:   t.ExitTime,
			Equity: equity.InexactFloat64(),
		})
	}

	return curve
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}

	return float64(part) / float64(total)
}
