package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// PatternKind is the closed set of chart formations the detector recognizes.
type PatternKind string

const (
	PatternDoubleTop        PatternKind = "double_top"
	PatternDoubleBottom     PatternKind = "double_bottom"
	PatternHeadAndShoulders PatternKind = "head_and_shoulders"
	PatternTriangle         PatternKind = "triangle"
	PatternBreakout         PatternKind = "breakout"
	PatternTrendChannel     PatternKind = "trend_channel"
)

// PatternKinds lists every kind in detection order.
var PatternKinds = []PatternKind{
	PatternDoubleTop,
	PatternDoubleBottom,
	PatternHeadAndShoulders,
	PatternTriangle,
	PatternBreakout,
	PatternTrendChannel,
}

// PatternVariant refines a kind.
type PatternVariant string

const (
	VariantNone               PatternVariant = ""
	VariantInverse            PatternVariant = "inverse"
	VariantAscending          PatternVariant = "ascending"
	VariantDescending         PatternVariant = "descending"
	VariantSymmetrical        PatternVariant = "symmetrical"
	VariantConsolidation      PatternVariant = "consolidation"
	VariantResistanceBreakout PatternVariant = "resistance_breakout"
	VariantSupportBreakdown   PatternVariant = "support_breakdown"
	VariantUp                 PatternVariant = "up"
	VariantDown               PatternVariant = "down"
	VariantHorizontal         PatternVariant = "horizontal"
	VariantWeakening          PatternVariant = "weakening"
)

// Bias is the directional implication of a pattern.
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// Sign returns +1 for bullish, -1 for bearish and 0 for neutral.
func (b Bias) Sign() float64 {
	switch b {
	case BiasBullish:
		return 1
	case BiasBearish:
		return -1
	default:
		return 0
	}
}

// KeyLevels are the price levels a pattern implies. Any of them may be absent.
type KeyLevels struct {
	Support      optional.Option[float64] `json:"support"`
	Resistance   optional.Option[float64] `json:"resistance"`
	Neckline     optional.Option[float64] `json:"neckline"`
	Target       optional.Option[float64] `json:"target"`
	Invalidation optional.Option[float64] `json:"invalidation"`
}

// ConfidenceBreakdown keeps the factor scores that produced a pattern's confidence.
type ConfidenceBreakdown struct {
	Fit      float64 `json:"fit"`
	Symmetry float64 `json:"symmetry"`
	Volume   float64 `json:"volume"`
	Duration float64 `json:"duration"`
}

// Pattern is one detected chart formation over bars [Start, End].
type Pattern struct {
	Kind        PatternKind         `json:"kind"`
	Variant     PatternVariant      `json:"variant,omitempty"`
	Start       int                 `json:"start"`
	End         int                 `json:"end"`
	StartTime   time.Time           `json:"start_time"`
	EndTime     time.Time           `json:"end_time"`
	Direction   Bias                `json:"direction"`
	Confidence  float64             `json:"confidence"`
	Levels      KeyLevels           `json:"levels"`
	Score       ConfidenceBreakdown `json:"score"`
	Description string              `json:"description"`
}

// Name returns the kind with its variant, e.g. "triangle/ascending".
func (p Pattern) Name() string {
	if p.Variant == VariantNone {
		return string(p.Kind)
	}

	return string(p.Kind) + "/" + string(p.Variant)
}
