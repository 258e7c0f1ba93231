package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/datasource"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/internal/version"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "argo-chart",
		Usage:   "Chart pattern analysis, direction prediction and backtesting",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file overlaid on the defaults",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error). Overrides log_level from the config",
			},
		},
		Commands: []*cli.Command{
			analyzeCommand(),
			backtestCommand(),
			metricsCommand(),
			schemaCommand(),
			serveCommand(),
		},
	}
}

// dataFlags select a series from a parquet or CSV file.
func dataFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Path to a parquet or CSV file with time, symbol, open, high, low, close, volume columns",
			Required: required,
		},
		&cli.StringFlag{
			Name:     "symbol",
			Aliases:  []string{"s"},
			Usage:    "Symbol to load",
			Required: required,
		},
		&cli.StringFlag{
			Name:    "timeframe",
			Aliases: []string{"t"},
			Usage:   "Bar timeframe (1m, 5m, 15m, 30m, 1h, 4h, 1d, 1w)",
			Value:   string(types.Timeframe1h),
		},
		&cli.IntFlag{
			Name:  "bars",
			Usage: "Keep only the most recent number of bars (0 keeps all)",
		},
		&cli.TimestampFlag{
			Name:  "start",
			Usage: "Start date in `YYYY-MM-DD` format",
			Config: cli.TimestampConfig{
				Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"},
			},
		},
		&cli.TimestampFlag{
			Name:  "end",
			Usage: "End date in `YYYY-MM-DD` format",
			Config: cli.TimestampConfig{
				Layouts: []string{"2006-01-02", "2006-01-02T15:04:05Z07:00"},
			},
		},
	}
}

// loadConfig reads --config and applies --log-level.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg, err := config.Load(cmd.Root().String("config"))
	if err != nil {
		return config.Config{}, err
	}

	if level := cmd.Root().String("log-level"); level != "" {
		cfg.LogLevel = level
	}

	return cfg, nil
}

// newLogger logs to stderr so command output on stdout stays parseable.
func newLogger(cfg config.Config) (*logger.Logger, error) {
	return logger.NewLoggerWithOutput(cfg.LogLevel, "stderr")
}

func optionalTime(t time.Time) optional.Option[time.Time] {
	return optional.Some(t)
}

// loadSeries opens the data file named by --data and reads one series from it.
func loadSeries(ctx context.Context, cmd *cli.Command, log *logger.Logger) (types.Series, error) {
	timeframe, err := types.ParseTimeframe(cmd.String("timeframe"))
	if err != nil {
		return types.Series{}, err
	}

	period := datasource.AllTime()
	period.Limit = int(cmd.Int("bars"))

	if cmd.IsSet("start") {
		period.Start = optionalTime(cmd.Timestamp("start"))
	}

	if cmd.IsSet("end") {
		period.End = optionalTime(cmd.Timestamp("end"))
	}

	provider, err := datasource.NewDuckDBProvider("", log.Named("datasource"))
	if err != nil {
		return types.Series{}, err
	}
	defer provider.Close()

	if err := provider.Initialize(cmd.String("data")); err != nil {
		return types.Series{}, err
	}

	symbol := cmd.String("symbol")

	rows, err := provider.Count(ctx, symbol, period)
	if err != nil {
		return types.Series{}, err
	}

	if rows == 0 {
		return types.Series{}, errors.Newf(errors.ErrCodeDataNotFound, "no rows for symbol %s in the requested period", symbol)
	}

	last, err := provider.LastTime(ctx, symbol)
	if err != nil {
		return types.Series{}, err
	}

	log.Info("Loading series",
		zap.String("symbol", symbol),
		zap.Int("rows", rows),
		zap.Time("last", last),
	)

	series, err := provider.GetSeries(ctx, symbol, timeframe, period)
	if err != nil {
		return types.Series{}, err
	}

	if period.Limit > 0 && series.Len() < period.Limit {
		log.Warn("Fewer bars available than requested",
			zap.Int("requested", period.Limit),
			zap.Int("available", series.Len()),
		)
	}

	return series, nil
}

func requireOutputFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unsupported output format: %s", format)
	}
}
