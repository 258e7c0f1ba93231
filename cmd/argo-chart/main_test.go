package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/mocks"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CLITestSuite struct {
	suite.Suite
	dir        string
	dataPath   string
	configPath string
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (suite *CLITestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	genCfg := mocks.DefaultConfig()
	genCfg.Count = 160
	genCfg.Volatility = 0.02
	series := mocks.NewDataGenerator(5).Generate(genCfg)

	var sb strings.Builder
	sb.WriteString("time,symbol,open,high,low,close,volume\n")
	for _, b := range series.Bars {
		fmt.Fprintf(&sb, "%s,%s,%g,%g,%g,%g,%g\n",
			b.Time.Format("2006-01-02 15:04:05"), series.Symbol, b.Open, b.High, b.Low, b.Close, b.Volume)
	}

	suite.dataPath = filepath.Join(suite.dir, "bars.csv")
	suite.Require().NoError(os.WriteFile(suite.dataPath, []byte(sb.String()), 0o600))

	suite.configPath = filepath.Join(suite.dir, "config.yaml")
	suite.Require().NoError(os.WriteFile(suite.configPath, []byte(`
log_level: error
backtest:
  backtest_window_size: 80
  evaluation_step: 5
`), 0o600))
}

func (suite *CLITestSuite) run(args ...string) (string, error) {
	var out bytes.Buffer

	app := newApp()
	app.Writer = &out
	app.ErrWriter = io.Discard

	err := app.Run(context.Background(), append([]string{"argo-chart", "--config", suite.configPath}, args...))

	return out.String(), err
}

func (suite *CLITestSuite) TestSchema() {
	out, err := suite.run("schema")
	suite.Require().NoError(err)
	suite.Contains(out, "backtest_window_size")

	var schema map[string]any
	suite.NoError(json.Unmarshal([]byte(out), &schema))
}

func (suite *CLITestSuite) TestAnalyzeJSON() {
	out, err := suite.run("analyze", "--data", suite.dataPath, "--symbol", "TEST", "--bars", "120", "-o", "json")
	suite.Require().NoError(err)

	var result map[string]any
	suite.Require().NoError(json.Unmarshal([]byte(out), &result))
	suite.Equal("TEST", result["symbol"])
	suite.Equal(float64(120), result["bars"])
	suite.Contains(result, "signal")
}

func (suite *CLITestSuite) TestAnalyzeText() {
	out, err := suite.run("analyze", "--data", suite.dataPath, "--symbol", "TEST")
	suite.Require().NoError(err)
	suite.Contains(out, "Prediction")
	suite.Contains(out, "Signal")
	suite.Contains(out, "Patterns")
}

func (suite *CLITestSuite) TestAnalyzeErrors() {
	_, err := suite.run("analyze", "--data", suite.dataPath, "--symbol", "TEST", "-o", "xml")
	suite.Error(err)

	_, err = suite.run("analyze", "--data", suite.dataPath, "--symbol", "NOPE")
	suite.Error(err)

	_, err = suite.run("analyze", "--data", suite.dataPath, "--symbol", "TEST", "--timeframe", "7m")
	suite.Error(err)
}

func (suite *CLITestSuite) TestAnalyzeOutsideDataRange() {
	_, err := suite.run("analyze", "--data", suite.dataPath, "--symbol", "TEST", "--start", "2100-01-01")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
	suite.Contains(err.Error(), "no rows for symbol TEST")
}

func (suite *CLITestSuite) TestBacktestAndMetrics() {
	reportPath := filepath.Join(suite.dir, "report.yaml")

	out, err := suite.run("backtest", "--data", suite.dataPath, "--symbol", "TEST", "--no-progress", "--report", reportPath, "-o", "json")
	suite.Require().NoError(err)

	var report types.BacktestReport
	suite.Require().NoError(json.Unmarshal([]byte(out), &report))
	suite.Greater(report.EvaluatedWindows, 0)

	saved, err := types.ReadBacktestReport(reportPath)
	suite.Require().NoError(err)
	suite.Equal(report.ID, saved.ID)

	out, err = suite.run("metrics", reportPath, "-o", "json")
	suite.Require().NoError(err)

	var metrics types.Metrics
	suite.Require().NoError(json.Unmarshal([]byte(out), &metrics))
	suite.Equal(report.Metrics.NumberOfTrades, metrics.NumberOfTrades)
	suite.Equal(report.Metrics.NumberOfPredictions, metrics.NumberOfPredictions)
	suite.InDelta(report.Metrics.TotalPnL, metrics.TotalPnL, 1e-6)
	suite.InDelta(report.Metrics.DirectionalAccuracy, metrics.DirectionalAccuracy, 1e-12)
	suite.Equal(report.Metrics.BuyAndHoldReturn, metrics.BuyAndHoldReturn)

	out, err = suite.run("metrics", reportPath)
	suite.Require().NoError(err)
	suite.Contains(out, "Win rate")
}

func (suite *CLITestSuite) TestBacktestText() {
	out, err := suite.run("backtest", "--data", suite.dataPath, "--symbol", "TEST", "--no-progress")
	suite.Require().NoError(err)
	suite.Contains(out, "Backtest TEST")
	suite.Contains(out, "Directional accuracy")
}

func (suite *CLITestSuite) TestMetricsRequiresOnePath() {
	_, err := suite.run("metrics")
	suite.Error(err)
	suite.True(errors.IsInvalidParameter(err))

	_, err = suite.run("metrics", filepath.Join(suite.dir, "missing.yaml"))
	suite.Error(err)
}

func (suite *CLITestSuite) TestRenderPatterns() {
	suite.Contains(renderPatterns(nil), "none detected")

	out := renderPatterns([]types.Pattern{{
		Kind:       types.PatternDoubleTop,
		Start:      10,
		End:        40,
		Direction:  types.BiasBearish,
		Confidence: 0.75,
	}})
	suite.Contains(out, "double_top")
	suite.Contains(out, "10-40")
	suite.Contains(out, "0.75")
}
