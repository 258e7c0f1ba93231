package datasource

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-chart/internal/types"
	"github.com/rxtech-lab/argo-chart/pkg/errors"
)

// MemoryProvider serves series held in memory. Bars are stored at their
// original resolution and aggregated on request.
type MemoryProvider struct {
	mu   sync.RWMutex
	bars map[string][]types.Bar
}

func NewMemoryProvider(series ...types.Series) (*MemoryProvider, error) {
	provider := &MemoryProvider{
		bars: make(map[string][]types.Bar),
	}

	for _, s := range series {
		if err := provider.Add(s); err != nil {
			return nil, err
		}
	}

	return provider, nil
}

// Add validates series and replaces any bars held for its symbol.
func (m *MemoryProvider) Add(series types.Series) error {
	if series.Symbol == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "series symbol is required")
	}

	if err := series.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.bars[series.Symbol] = slices.Clone(series.Bars)

	return nil
}

// GetSeries implements Provider.
func (m *MemoryProvider) GetSeries(ctx context.Context, symbol string, timeframe types.Timeframe, period Period) (types.Series, error) {
	if err := ctx.Err(); err != nil {
		return types.Series{}, err
	}

	minutes, err := timeframe.Minutes()
	if err != nil {
		return types.Series{}, err
	}

	m.mu.RLock()
	stored, ok := m.bars[symbol]
	m.mu.RUnlock()

	if !ok {
		return types.Series{}, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol: %s", symbol)
	}

	selected := make([]types.Bar, 0, len(stored))
	for _, b := range stored {
		if period.Contains(b.Time) {
			selected = append(selected, b)
		}
	}

	bars := Resample(selected, time.Duration(minutes)*time.Minute)
	if period.Limit > 0 && len(bars) > period.Limit {
		bars = bars[len(bars)-period.Limit:]
	}

	if len(bars) == 0 {
		return types.Series{}, errors.Newf(errors.ErrCodeDataNotFound, "no data found for symbol %s in the requested period", symbol)
	}

	return types.Series{
		Symbol:    symbol,
		Timeframe: timeframe,
		Bars:      bars,
	}, nil
}

// Symbols implements Provider.
func (m *MemoryProvider) Symbols(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbols := make([]string, 0, len(m.bars))
	for symbol := range m.bars {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Close implements Provider.
func (m *MemoryProvider) Close() error {
	return nil
}
