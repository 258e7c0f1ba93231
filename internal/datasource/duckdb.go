package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBProvider reads bars from parquet or CSV files through an embedded
// DuckDB. The files need time, symbol, open, high, low, close and volume columns.
type DuckDBProvider struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBProvider opens a DuckDB database at dbPath. An empty path opens an
// in-memory database. Market data is attached later with Initialize.
func NewDuckDBProvider(dbPath string, log *logger.Logger) (*DuckDBProvider, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`SET threads=4;`)
	if err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to configure duckdb", err)
	}

	return &DuckDBProvider{
		db:     db,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize points the market_data view at a parquet or CSV file. Glob
// patterns are passed through to DuckDB.
func (d *DuckDBProvider) Initialize(path string) error {
	d.logger.Debug("Initializing duckdb provider", zap.String("path", path))

	reader, err := readerFor(path)
	if err != nil {
		return err
	}

	if _, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	// squirrel has no CREATE VIEW support
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT
			CAST(time AS TIMESTAMP) AS time,
			CAST(symbol AS VARCHAR) AS symbol,
			CAST(open AS DOUBLE) AS open,
			CAST(high AS DOUBLE) AS high,
			CAST(low AS DOUBLE) AS low,
			CAST(close AS DOUBLE) AS close,
			CAST(volume AS DOUBLE) AS volume
		FROM %s('%s');
	`, reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read market data from %s", path)
	}

	return nil
}

func readerFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return "read_parquet", nil
	case ".csv":
		return "read_csv_auto", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported market data file: %s", path)
	}
}

// GetSeries implements Provider.
func (d *DuckDBProvider) GetSeries(ctx context.Context, symbol string, timeframe types.Timeframe, period Period) (types.Series, error) {
	query, args, err := d.buildSeriesQuery(symbol, timeframe, period)
	if err != nil {
		return types.Series{}, err
	}

	d.logger.Debug("Querying series",
		zap.String("symbol", symbol),
		zap.String("timeframe", string(timeframe)),
		zap.Int("limit", period.Limit),
	)

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	bars := make([]types.Bar, 0, max(period.Limit, 256))

	for rows.Next() {
		var bar types.Bar

		if err := rows.Scan(&bar.Time, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return types.Series{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return types.Series{}, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	if len(bars) == 0 {
		return types.Series{}, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
	}

	// a limited query reads newest first
	if period.Limit > 0 {
		for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
			bars[i], bars[j] = bars[j], bars[i]
		}
	}

	return types.Series{
		Symbol:    symbol,
		Timeframe: timeframe,
		Bars:      bars,
	}, nil
}

// buildSeriesQuery aggregates raw rows into timeframe buckets.
func (d *DuckDBProvider) buildSeriesQuery(symbol string, timeframe types.Timeframe, period Period) (string, []any, error) {
	minutes, err := timeframe.Minutes()
	if err != nil {
		return "", nil, err
	}

	bucket := fmt.Sprintf("time_bucket(INTERVAL '%d minutes', time)", minutes)

	builder := d.sq.
		Select(
			bucket+" AS bucket_time",
			"arg_min(open, time) AS open",
			"max(high) AS high",
			"min(low) AS low",
			"arg_max(close, time) AS close",
			"sum(volume) AS volume",
		).
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		GroupBy("bucket_time")

	if period.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": period.Start.Unwrap()})
	}

	if period.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": period.End.Unwrap()})
	}

	if period.Limit > 0 {
		builder = builder.OrderBy("bucket_time DESC").Limit(uint64(period.Limit))
	} else {
		builder = builder.OrderBy("bucket_time ASC")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	return query, args, nil
}

// Symbols implements Provider.
func (d *DuckDBProvider) Symbols(ctx context.Context) ([]string, error) {
	query, args, err := d.sq.
		Select("DISTINCT symbol").
		From("market_data").
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	symbols := make([]string, 0)

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	return symbols, nil
}

// Count returns the number of raw rows for symbol inside period.
func (d *DuckDBProvider) Count(ctx context.Context, symbol string, period Period) (int, error) {
	builder := d.sq.
		Select("COUNT(*)").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol})

	if period.Start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": period.Start.Unwrap()})
	}

	if period.End.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": period.End.Unwrap()})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count rows", err)
	}

	return count, nil
}

// Close implements Provider.
func (d *DuckDBProvider) Close() error {
	if d.db != nil {
		return d.db.Close()
	}

	return nil
}

// LastTime returns the time of the newest raw row for symbol.
func (d *DuckDBProvider) LastTime(ctx context.Context, symbol string) (time.Time, error) {
	query, args, err := d.sq.
		Select("max(time)").
		From("market_data").
		Where(squirrel.Eq{"symbol": symbol}).
		ToSql()
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var last sql.NullTime
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&last); err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query last time", err)
	}

	if !last.Valid {
		return time.Time{}, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
	}

	return last.Time, nil
}
