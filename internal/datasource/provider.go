// Package datasource loads bar series for the analysis pipeline. It sits
// outside the pure core: engines only ever see the returned types.Series.
package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// Period bounds a series request. Start and End are inclusive. A positive
// Limit keeps only the most recent Limit bars of the range.
type Period struct {
	Start optional.Option[time.Time]
	End   optional.Option[time.Time]
	Limit int
}

// AllTime is the unbounded period.
func AllTime() Period {
	return Period{
		Start: optional.None[time.Time](),
		End:   optional.None[time.Time](),
	}
}

// LastBars requests the most recent count bars.
func LastBars(count int) Period {
	period := AllTime()
	period.Limit = count

	return period
}

// Contains reports whether t falls inside the period bounds.
func (p Period) Contains(t time.Time) bool {
	if p.Start.IsSome() && t.Before(p.Start.Unwrap()) {
		return false
	}

	if p.End.IsSome() && t.After(p.End.Unwrap()) {
		return false
	}

	return true
}

// Provider returns bars for one symbol aggregated to a timeframe.
type Provider interface {
	// GetSeries returns the bars of symbol inside period, aggregated to timeframe
	// and sorted by time. A symbol without bars yields ErrCodeDataNotFound.
	GetSeries(ctx context.Context, symbol string, timeframe types.Timeframe, period Period) (types.Series, error)
	// Symbols lists the symbols the provider holds.
	Symbols(ctx context.Context) ([]string, error)
	// Close releases any resources.
	Close() error
}
