package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/catalogrecon/backend/internal/domain/shared"
	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
)

// table holds the strategies of one type and the name of its default.
// Callers hold the registry lock.
type table[S strategy.Strategy] struct {
	kind     strategy.StrategyType
	byName   map[string]S
	fallback string
}

func newTable[S strategy.Strategy](kind strategy.StrategyType) *table[S] {
	return &table[S]{kind: kind, byName: make(map[string]S)}
}

func (t *table[S]) add(s S) error {
	name := s.Name()
	if _, exists := t.byName[name]; exists {
		return fmt.Errorf("%w: %s strategy '%s' already registered", shared.ErrAlreadyExists, t.kind, name)
	}
	t.byName[name] = s
	return nil
}

// get resolves name, or the default when name is empty
func (t *table[S]) get(name string) (S, error) {
	var zero S
	if name == "" {
		if t.fallback == "" {
			return zero, fmt.Errorf("%w: no default %s strategy set", shared.ErrNotFound, t.kind)
		}
		name = t.fallback
	}
	s, exists := t.byName[name]
	if !exists {
		return zero, fmt.Errorf("%w: %s strategy '%s' not found", shared.ErrNotFound, t.kind, name)
	}
	return s, nil
}

func (t *table[S]) remove(name string) error {
	if _, exists := t.byName[name]; !exists {
		return fmt.Errorf("%w: %s strategy '%s' not found", shared.ErrNotFound, t.kind, name)
	}
	delete(t.byName, name)
	if t.fallback == name {
		t.fallback = ""
	}
	return nil
}

func (t *table[S]) names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *table[S]) describe() []strategy.Info {
	infos := make([]strategy.Info, 0, len(t.byName))
	for _, name := range t.names() {
		infos = append(infos, strategy.InfoOf(t.byName[name], name == t.fallback))
	}
	return infos
}

// StrategyRegistry holds the price selection and order allocation
// strategies a pipeline can be configured with. Safe for concurrent use.
type StrategyRegistry struct {
	mu         sync.RWMutex
	pricing    *table[strategy.PriceSelectionStrategy]
	allocation *table[strategy.OrderAllocationStrategy]
}

// NewStrategyRegistry creates an empty registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		pricing:    newTable[strategy.PriceSelectionStrategy](strategy.StrategyTypePricing),
		allocation: newTable[strategy.OrderAllocationStrategy](strategy.StrategyTypeAllocation),
	}
}

// RegisterPricingStrategy registers a price selection strategy
func (r *StrategyRegistry) RegisterPricingStrategy(s strategy.PriceSelectionStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pricing.add(s)
}

// GetPricingStrategy returns a pricing strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetPricingStrategy(name string) (strategy.PriceSelectionStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pricing.get(name)
}

// GetPricingStrategyOrDefault falls back to the default for unknown names.
// It returns nil only when no default is set.
func (r *StrategyRegistry) GetPricingStrategyOrDefault(name string) strategy.PriceSelectionStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, err := r.pricing.get(name); err == nil {
		return s
	}
	s, _ := r.pricing.get("")
	return s
}

// ListPricingStrategies returns the registered pricing strategy names, sorted
func (r *StrategyRegistry) ListPricingStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pricing.names()
}

// UnregisterPricingStrategy removes a pricing strategy, clearing the default if it was this one
func (r *StrategyRegistry) UnregisterPricingStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pricing.remove(name)
}

// RegisterAllocationStrategy registers an order allocation strategy
func (r *StrategyRegistry) RegisterAllocationStrategy(s strategy.OrderAllocationStrategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocation.add(s)
}

// GetAllocationStrategy returns an allocation strategy by name, or the default if name is empty
func (r *StrategyRegistry) GetAllocationStrategy(name string) (strategy.OrderAllocationStrategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allocation.get(name)
}

// GetAllocationStrategyOrDefault falls back to the default for unknown names.
func (r *StrategyRegistry) GetAllocationStrategyOrDefault(name string) strategy.OrderAllocationStrategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if s, err := r.allocation.get(name); err == nil {
		return s
	}
	s, _ := r.allocation.get("")
	return s
}

// ListAllocationStrategies returns the registered allocation strategy names, sorted
func (r *StrategyRegistry) ListAllocationStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allocation.names()
}

// UnregisterAllocationStrategy removes an allocation strategy
func (r *StrategyRegistry) UnregisterAllocationStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocation.remove(name)
}

// SetDefault makes name the strategy used when a pipeline names none
func (r *StrategyRegistry) SetDefault(strategyType strategy.StrategyType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch strategyType {
	case strategy.StrategyTypePricing:
		if _, ok := r.pricing.byName[name]; ok {
			r.pricing.fallback = name
			return nil
		}
	case strategy.StrategyTypeAllocation:
		if _, ok := r.allocation.byName[name]; ok {
			r.allocation.fallback = name
			return nil
		}
	}
	return fmt.Errorf("%w: strategy '%s' of type '%s' not found", shared.ErrNotFound, name, strategyType)
}

// GetDefault returns the default strategy name for a strategy type
func (r *StrategyRegistry) GetDefault(strategyType strategy.StrategyType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch strategyType {
	case strategy.StrategyTypePricing:
		return r.pricing.fallback
	case strategy.StrategyTypeAllocation:
		return r.allocation.fallback
	}
	return ""
}

// HasDefault returns true if a default is set for the strategy type
func (r *StrategyRegistry) HasDefault(strategyType strategy.StrategyType) bool {
	return r.GetDefault(strategyType) != ""
}

// IsRegistered returns true if a strategy with the given name is registered for the type
func (r *StrategyRegistry) IsRegistered(strategyType strategy.StrategyType, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch strategyType {
	case strategy.StrategyTypePricing:
		_, ok := r.pricing.byName[name]
		return ok
	case strategy.StrategyTypeAllocation:
		_, ok := r.allocation.byName[name]
		return ok
	}
	return false
}

// Stats returns registration counts for each strategy type
func (r *StrategyRegistry) Stats() map[strategy.StrategyType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[strategy.StrategyType]int{
		strategy.StrategyTypePricing:    len(r.pricing.byName),
		strategy.StrategyTypeAllocation: len(r.allocation.byName),
	}
}

// Describe lists every registered strategy, grouped by type and sorted by name
func (r *StrategyRegistry) Describe() map[strategy.StrategyType][]strategy.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[strategy.StrategyType][]strategy.Info{
		strategy.StrategyTypePricing:    r.pricing.describe(),
		strategy.StrategyTypeAllocation: r.allocation.describe(),
	}
}
