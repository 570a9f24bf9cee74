package strategy

import (
	"fmt"

	"github.com/catalogrecon/backend/internal/infrastructure/strategy/allocation"
	"github.com/catalogrecon/backend/internal/infrastructure/strategy/pricing"
)

// NewRegistryWithDefaults returns a registry holding the built-in
// strategies. Profit is computed from the Buy Box waterfall and orders
// are filled greedily unless configured otherwise.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	buyBox := pricing.NewBuyBoxWaterfallStrategy()
	for _, s := range []*pricing.WaterfallStrategy{buyBox, pricing.NewSalePriceWaterfallStrategy()} {
		if err := r.RegisterPricingStrategy(s); err != nil {
			return nil, fmt.Errorf("register %s: %w", s.Name(), err)
		}
	}
	greedy := allocation.NewGreedyBudgetStrategy()
	if err := r.RegisterAllocationStrategy(greedy); err != nil {
		return nil, fmt.Errorf("register %s: %w", greedy.Name(), err)
	}

	// Both names were registered above, so neither call can fail.
	_ = r.SetDefault(buyBox.Type(), buyBox.Name())
	_ = r.SetDefault(greedy.Type(), greedy.Name())
	return r, nil
}
