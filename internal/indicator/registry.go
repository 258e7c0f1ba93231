package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-chart/pkg/errors"
)

// CalculatorRegistry manages the available calculator strategies.
type CalculatorRegistry interface {
	RegisterCalculator(calculator Calculator) error
	GetCalculator(name CalculatorType) (Calculator, error)
	ListCalculators() []CalculatorType
	RemoveCalculator(name CalculatorType) error
}

// CalculatorRegistryV1 manages the available calculator strategies.
type CalculatorRegistryV1 struct {
	calculators map[CalculatorType]Calculator
	mu          sync.RWMutex
}

// NewCalculatorRegistry creates an empty registry.
func NewCalculatorRegistry() CalculatorRegistry {
	return &CalculatorRegistryV1{
		calculators: make(map[CalculatorType]Calculator),
		mu:          sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding the talib and manual calculators.
func NewDefaultRegistry() CalculatorRegistry {
	registry := NewCalculatorRegistry()
	_ = registry.RegisterCalculator(NewTalibCalculator())
	_ = registry.RegisterCalculator(NewManualCalculator())

	return registry
}

// RegisterCalculator adds a calculator to the registry.
func (r *CalculatorRegistryV1) RegisterCalculator(calculator Calculator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := calculator.Name()
	if _, exists := r.calculators[name]; exists {
		return errors.Newf(errors.ErrCodeCalculatorAlreadyExists, "calculator with name %s already registered", name)
	}

	r.calculators[name] = calculator

	return nil
}

// GetCalculator retrieves a calculator by name.
func (r *CalculatorRegistryV1) GetCalculator(name CalculatorType) (Calculator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	calculator, exists := r.calculators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeCalculatorNotFound, "calculator with name %s not found", name)
	}

	return calculator, nil
}

// ListCalculators returns the registered calculator names in sorted order.
func (r *CalculatorRegistryV1) ListCalculators() []CalculatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]CalculatorType, 0, len(r.calculators))
	for name := range r.calculators {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// RemoveCalculator removes a calculator from the registry.
func (r *CalculatorRegistryV1) RemoveCalculator(name CalculatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calculators[name]; !exists {
		return errors.Newf(errors.ErrCodeCalculatorNotFound, "calculator with name %s not found", name)
	}

	delete(r.calculators, name)

	return nil
}
