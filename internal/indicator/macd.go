package indicator

import "github.com/rxtech-lab/argo-chart/internal/config"

// macdLines returns MACD = EMA(fast) - EMA(slow), the signal line as the EMA of
// the defined MACD values, and the histogram MACD - signal.
func macdLines(closes []float64, cfg config.MACDConfig, k kernels, cache *Cache) (macd, signal, histogram Line) {
	fast := cache.Line(cacheKey("close", "ema", cfg.Fast), func() Line { return k.ema(closes, cfg.Fast) })
	slow := cache.Line(cacheKey("close", "ema", cfg.Slow), func() Line { return k.ema(closes, cfg.Slow) })

	macd = make(Line, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}

	signal = onRuns(macd, func(values []float64) Line { return k.ema(values, cfg.Signal) })

	histogram = make(Line, len(closes))
	for i := range closes {
		histogram[i] = macd[i] - signal[i]
	}

	return macd, signal, histogram
}
