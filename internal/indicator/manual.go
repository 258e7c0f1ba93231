package indicator

import (
	"github.com/rxtech-lab/argo-chart/internal/config"
	"github.com/rxtech-lab/argo-chart/internal/types"
)

// ManualCalculator computes every indicator from its textbook formula.
type ManualCalculator struct{}

// NewManualCalculator creates the formula based calculator.
func NewManualCalculator() Calculator {
	return &ManualCalculator{}
}

// Name implements Calculator.
func (m *ManualCalculator) Name() CalculatorType {
	return CalculatorManual
}

// Compute implements Calculator.
func (m *ManualCalculator) Compute(series types.Series, cfg config.IndicatorConfig) (*IndicatorSet, error) {
	return compute(series, cfg, m)
}
