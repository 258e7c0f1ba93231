package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rxtech-lab/argo-chart/internal/analysis"
	"github.com/rxtech-lab/argo-chart/internal/backtest/engine"
	engine_v1 "github.com/rxtech-lab/argo-chart/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/datasource"
	"github.com/rxtech-lab/argo-chart/internal/server"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Output format (text, json, yaml)",
		Value:   formatText,
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Run indicators, pattern detection, prediction and signal generation on the latest bars",
		Flags: append(dataFlags(true),
			outputFlag(),
			&cli.FloatFlag{
				Name:  "equity",
				Usage: "Account equity used for position sizing (defaults to signal.account_equity)",
			},
		),
		Action: analyzeAction,
	}
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("output")
	if err := requireOutputFormat(format); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	series, err := loadSeries(ctx, cmd, log)
	if err != nil {
		return err
	}

	pipeline, err := analysis.NewPipeline(cfg, log.Named("analysis"))
	if err != nil {
		return err
	}

	equity := float64(cmd.Float("equity"))
	if equity <= 0 {
		equity = cfg.Signal.AccountEquity
	}

	result, err := pipeline.AnalyzeWithEquity(series, equity)
	if err != nil {
		return err
	}

	return write(cmd.Root().Writer, format, result, func() string { return renderAnalysis(result) })
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:  "backtest",
		Usage: "Replay the pipeline over history without lookahead and simulate its signals",
		Flags: append(dataFlags(true),
			outputFlag(),
			&cli.StringFlag{
				Name:    "report",
				Aliases: []string{"r"},
				Usage:   "Write the full report as YAML to this path",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide the progress bar",
			},
		),
		Action: backtestAction,
	}
}

func backtestAction(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("output")
	if err := requireOutputFormat(format); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	series, err := loadSeries(ctx, cmd, log)
	if err != nil {
		return err
	}

	backtest := engine_v1.NewBacktestEngineV1(log.Named("backtest"))
	if err := backtest.Initialize(cfg); err != nil {
		return err
	}

	callbacks := engine.LifecycleCallbacks{}

	var bar *progressbar.ProgressBar
	if !cmd.Bool("no-progress") {
		onStart := engine.OnBacktestStartCallback(func(_ string, symbol string, totalWindows int) error {
			bar = progressbar.NewOptions(totalWindows,
				progressbar.OptionSetDescription(fmt.Sprintf("Backtesting %s", symbol)),
				progressbar.OptionSetWriter(cmd.Root().ErrWriter),
				progressbar.OptionShowCount(),
			)

			return nil
		})
		onWindow := engine.OnWindowEvaluatedCallback(func(_ engine.WindowEvent) error {
			return bar.Add(1)
		})
		onEnd := engine.OnBacktestEndCallback(func(_ *types.BacktestReport, _ error) {
			if bar != nil {
				_ = bar.Finish()
			}
		})

		callbacks.OnBacktestStart = &onStart
		callbacks.OnWindowEvaluated = &onWindow
		callbacks.OnBacktestEnd = &onEnd
	}

	report, err := backtest.Run(ctx, series, callbacks)
	if err != nil {
		return err
	}

	if path := cmd.String("report"); path != "" {
		if err := types.WriteBacktestReport(path, *report); err != nil {
			return err
		}

		log.Info("Report written", zap.String("path", path))
	}

	if format == formatText {
		_, err := fmt.Fprintln(cmd.Root().Writer, renderReport(*report))

		return err
	}

	return write(cmd.Root().Writer, format, report, nil)
}

func metricsCommand() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Usage:     "Re-aggregate the metrics of a saved backtest report",
		ArgsUsage: "<report.yaml>",
		Flags:     []cli.Flag{outputFlag()},
		Action:    metricsAction,
	}
}

func metricsAction(_ context.Context, cmd *cli.Command) error {
	format := cmd.String("output")
	if err := requireOutputFormat(format); err != nil {
		return err
	}

	if cmd.Args().Len() != 1 {
		return errors.New(errors.ErrCodeInvalidParameter, "metrics expects exactly one report path")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	report, err := types.ReadBacktestReport(cmd.Args().First())
	if err != nil {
		return err
	}

	metrics := engine_v1.RecomputeMetrics(report, cfg.Backtest.AnnualizationFactor)

	return write(cmd.Root().Writer, format, metrics, func() string { return renderMetrics(metrics) })
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of the configuration file",
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := config.Default().GenerateSchemaJSON()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.Root().Writer, schema)

			return err
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the analysis and backtest HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: ":8080",
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Optional parquet or CSV file that requests can load symbols from",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	var provider datasource.Provider

	if path := cmd.String("data"); path != "" {
		duck, err := datasource.NewDuckDBProvider("", log.Named("datasource"))
		if err != nil {
			return err
		}
		defer duck.Close()

		if err := duck.Initialize(path); err != nil {
			return err
		}

		provider = duck
	}

	srv, err := server.NewServer(cfg, provider, log.Named("server"))
	if err != nil {
		return err
	}

	return srv.ListenAndServe(ctx, cmd.String("addr"))
}

// write encodes value in format. Text output calls render.
func write(w io.Writer, format string, value any, render func() string) error {
	switch format {
	case formatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return encoder.Encode(value)
	case formatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()

		return encoder.Encode(value)
	default:
		_, err := fmt.Fprintln(w, render())

		return err
	}
}
