// Package pattern detects chart formations in a price series.
//
// Each pattern kind has one handler, run in a fixed order. Candidates that fail
// a geometric rule are dropped and logged at debug level; every accepted
// candidate is returned with its confidence, the detector never filters on it.
package pattern

import (
	"math"
	"sort"

	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/indicator"
	"github.com/rxtech-lab/argo-chart/internal/logger"
	"github.com/rxtech-lab/argo-chart/internal/types"
	"go.uber.org/zap"
)

// handler finds every pattern of one kind.
type handler func(ctx *detectContext) []types.Pattern

// Detector runs the pattern handlers over a series.
type Detector struct {
	cfg      config.PatternConfig
	log      *logger.Logger
	handlers []kindHandler
}

type kindHandler struct {
	kinds  []types.PatternKind
	detect handler
}

// NewDetector creates a detector. A nil logger discards output.
func NewDetector(cfg config.PatternConfig, log *logger.Logger) *Detector {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Detector{
		cfg: cfg,
		log: log,
		handlers: []kindHandler{
			{kinds: []types.PatternKind{types.PatternDoubleTop, types.PatternDoubleBottom}, detect: detectDoubles},
			{kinds: []types.PatternKind{types.PatternHeadAndShoulders}, detect: detectHeadAndShoulders},
			{kinds: []types.PatternKind{types.PatternTriangle}, detect: detectTriangle},
			{kinds: []types.PatternKind{types.PatternBreakout}, detect: detectBreakouts},
			{kinds: []types.PatternKind{types.PatternTrendChannel}, detect: detectTrendChannels},
		},
	}
}

// Detect returns every pattern found in the series ordered by kind and start bar.
// A series shorter than the configured minimum yields no patterns.
func (d *Detector) Detect(series types.Series, set *indicator.IndicatorSet) ([]types.Pattern, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	if series.Len() < d.cfg.MinBars {
		d.log.Debug("Series too short for pattern detection",
			zap.String("symbol", series.Symbol),
			zap.Int("bars", series.Len()),
			zap.Int("min_bars", d.cfg.MinBars),
		)

		return []types.Pattern{}, nil
	}

	ctx := newDetectContext(series, set, d.cfg, d.log)
	patterns := make([]types.Pattern, 0)

	for _, h := range d.handlers {
		found := h.detect(ctx)
		if len(found) > 0 {
			d.log.Debug("Handler matched", zap.Any("kinds", h.kinds), zap.Int("count", len(found)))
		}

		patterns = append(patterns, found...)
	}

	order := make(map[types.PatternKind]int, len(types.PatternKinds))
	for i, kind := range types.PatternKinds {
		order[kind] = i
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		if patterns[i].Kind != patterns[j].Kind {
			return order[patterns[i].Kind] < order[patterns[j].Kind]
		}

		return patterns[i].Start < patterns[j].Start
	})

	for i := range patterns {
		patterns[i].StartTime = series.Bars[patterns[i].Start].Time
		patterns[i].EndTime = series.Bars[patterns[i].End].Time
	}

	d.log.Debug("Patterns detected", zap.String("symbol", series.Symbol), zap.Int("count", len(patterns)))

	return patterns, nil
}

type detectContext struct {
	cfg     config.PatternConfig
	log     *logger.Logger
	set     *indicator.IndicatorSet
	n       int
	highs   []float64
	lows    []float64
	closes  []float64
	volumes []float64
	peaks   []int
	troughs []int
}

func newDetectContext(series types.Series, set *indicator.IndicatorSet, cfg config.PatternConfig, log *logger.Logger) *detectContext {
	highs := series.Highs()
	lows := series.Lows()

	return &detectContext{
		cfg:     cfg,
		log:     log,
		set:     set,
		n:       series.Len(),
		highs:   highs,
		lows:    lows,
		closes:  series.Closes(),
		volumes: series.Volumes(),
		peaks:   FindPeaks(highs, cfg.ExtremaWindow),
		troughs: FindTroughs(lows, cfg.ExtremaWindow),
	}
}

// reject logs a dropped candidate.
func (c *detectContext) reject(kind types.PatternKind, start, end int, reason string) {
	c.log.Debug("Pattern candidate rejected",
		zap.String("kind", string(kind)),
		zap.Int("start", start),
		zap.Int("end", end),
		zap.String("reason", reason),
	)
}

// volumeRatio is the mean volume over [start, end] relative to the mean volume
// of the whole series. It prefers the volume_ratio indicator where defined.
func (c *detectContext) volumeRatio(start, end int) float64 {
	if c.set != nil {
		if line, ok := c.set.Line(types.IndicatorVolumeRatio); ok {
			sum, count := 0.0, 0
			for i := start; i <= end; i++ {
				if line.Defined(i) {
					sum += line[i]
					count++
				}
			}

			if count > 0 {
				return sum / float64(count)
			}
		}
	}

	overall := mean(c.volumes)
	if overall <= 0 {
		return 0
	}

	return mean(c.volumes[start:end+1]) / overall
}

func (c *detectContext) meanAbsClose(start, end int) float64 {
	return math.Abs(mean(c.closes[start : end+1]))
}

// relativeDiff is |a-b| / max(|a|, |b|), 0 when both are 0.
func relativeDiff(a, b float64) float64 {
	denominator := math.Max(math.Abs(a), math.Abs(b))
	if denominator == 0 {
		return 0
	}

	return math.Abs(a-b) / denominator
}

func minIndex(values []float64, from, to int) int {
	best := from
	for i := from + 1; i <= to; i++ {
		if values[i] < values[best] {
			best = i
		}
	}

	return best
}

func maxIndex(values []float64, from, to int) int {
	best := from
	for i := from + 1; i <= to; i++ {
		if values[i] > values[best] {
			best = i
		}
	}

	return best
}
