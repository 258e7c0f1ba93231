package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/analysis"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	LabelStyle = lipgloss.NewStyle().Faint(true).Width(22)
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	BoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	bullishStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	bearishStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	neutralStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

func row(label string, value any) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(label), fmt.Sprint(value))
}

func section(title string, rows ...string) string {
	return BoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{TitleStyle.Render(title)}, rows...)...))
}

// colored picks a style by the sign of a direction, action or bias.
func colored(value string) string {
	switch value {
	case string(types.DirectionUp), string(types.ActionBuy), string(types.BiasBullish):
		return bullishStyle.Render(value)
	case string(types.DirectionDown), string(types.ActionSell), string(types.BiasBearish):
		return bearishStyle.Render(value)
	default:
		return neutralStyle.Render(value)
	}
}

func level(value optional.Option[float64]) string {
	if value.IsNone() {
		return "-"
	}

	return fmt.Sprintf("%.4f", value.Unwrap())
}

func renderAnalysis(result analysis.Result) string {
	header := section(fmt.Sprintf("%s %s", result.Symbol, result.Timeframe),
		row("Bars", result.Bars),
		row("Last bar", result.LastTime.Format("2006-01-02 15:04")),
		row("Data quality", fmt.Sprintf("%.2f", result.Quality.Score)),
	)

	p := result.Prediction
	prediction := section("Prediction",
		append([]string{
			row("Direction", colored(string(p.Direction))),
			row("Confidence", fmt.Sprintf("%.0f%%", p.Confidence*100)),
			row("Current price", fmt.Sprintf("%.4f", p.CurrentPrice)),
			row(fmt.Sprintf("Target (%d bars)", p.HorizonBars), fmt.Sprintf("%.4f", p.TargetPrice)),
		}, bullets(p.Reasons)...)...,
	)

	s := result.Signal
	signalRows := []string{
		row("Action", colored(string(s.Action))),
		row("Strength", s.Strength),
	}

	if s.IsActionable() {
		signalRows = append(signalRows,
			row("Entry", fmt.Sprintf("%.4f", s.EntryPrice)),
			row("Stop loss", fmt.Sprintf("%.4f", s.StopLoss)),
			row("Take profit", fmt.Sprintf("%.4f", s.TakeProfit)),
			row("Risk/reward", fmt.Sprintf("%.2f", s.RiskRewardRatio)),
			row("Position size", s.PositionSize),
			row("Risk amount", fmt.Sprintf("%.2f", s.RiskAmount)),
		)
	}

	signal := section("Signal", append(signalRows, bullets(s.Reasons)...)...)

	return lipgloss.JoinVertical(lipgloss.Left, header, prediction, signal, renderPatterns(result.Patterns))
}

func renderPatterns(patterns []types.Pattern) string {
	if len(patterns) == 0 {
		return section("Patterns", "none detected")
	}

	rows := make([]string, 0, len(patterns))
	for _, p := range patterns {
		rows = append(rows, fmt.Sprintf("%-28s %s  bars %d-%d  conf %.2f  target %s  invalidation %s",
			p.Name(), colored(string(p.Direction)), p.Start, p.End, p.Confidence,
			level(p.Levels.Target), level(p.Levels.Invalidation)))
	}

	return section(fmt.Sprintf("Patterns (%d)", len(patterns)), rows...)
}

func renderMetrics(m types.Metrics) string {
	return section("Metrics",
		row("Predictions", m.NumberOfPredictions),
		row("Directional accuracy", percent(m.DirectionalAccuracy)),
		row("Up accuracy", percent(m.UpAccuracy)),
		row("Down accuracy", percent(m.DownAccuracy)),
		row("Trades", fmt.Sprintf("%d (%d won, %d lost)", m.NumberOfTrades, m.NumberOfWinningTrades, m.NumberOfLosingTrades)),
		row("Win rate", percent(m.WinRate)),
		row("Average win", fmt.Sprintf("%.2f", m.AverageWin)),
		row("Average loss", fmt.Sprintf("%.2f", m.AverageLoss)),
		row("Total P&L", fmt.Sprintf("%.2f", m.TotalPnL)),
		row("Total fees", fmt.Sprintf("%.2f", m.TotalFees)),
		row("Sharpe ratio", fmt.Sprintf("%.2f", m.SharpeRatio)),
		row("Max drawdown", fmt.Sprintf("%s (%.2f)", percent(m.MaxDrawdown), m.MaxDrawdownAmount)),
		row("Buy and hold", percent(m.BuyAndHoldReturn)),
	)
}

func renderReport(report types.BacktestReport) string {
	header := section(fmt.Sprintf("Backtest %s %s", report.Symbol, report.Timeframe),
		row("Run", report.ID),
		row("Initial capital", fmt.Sprintf("%.2f", report.InitialCapital)),
		row("Windows", fmt.Sprintf("%d evaluated, %d skipped", report.EvaluatedWindows, report.SkippedWindows)),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, renderMetrics(report.Metrics))
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func bullets(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, "  • "+strings.TrimSpace(line))
	}

	return out
}
