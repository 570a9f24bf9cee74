package pricing

import (
	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
)

// Strategy names
const (
	BuyBoxWaterfallName    = "buybox-waterfall"
	SalePriceWaterfallName = "sale-price-waterfall"
)

// WaterfallStrategy walks the Buy Box signals from the current price to the
// 180-day average and returns the first strictly positive one. When
// includeMSRP is set, a positive MSRP is the last resort.
type WaterfallStrategy struct {
	strategy.BaseStrategy
	includeMSRP bool
}

// NewBuyBoxWaterfallStrategy creates the Buy-Box-only waterfall used for
// profit and margin math
func NewBuyBoxWaterfallStrategy() *WaterfallStrategy {
	return &WaterfallStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			BuyBoxWaterfallName,
			strategy.StrategyTypePricing,
			"Buy Box, then 30/90/180-day Buy Box averages",
		),
	}
}

// NewSalePriceWaterfallStrategy creates the general sale price waterfall
// that falls back to MSRP
func NewSalePriceWaterfallStrategy() *WaterfallStrategy {
	return &WaterfallStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			SalePriceWaterfallName,
			strategy.StrategyTypePricing,
			"Buy Box, then 30/90/180-day Buy Box averages, then MSRP",
		),
		includeMSRP: true,
	}
}

// SelectPrice returns the first positive price of the waterfall
func (s *WaterfallStrategy) SelectPrice(r *catalog.ProductRecord) (float64, bool) {
	for _, p := range []float64{r.BuyBox, r.BuyBox30, r.BuyBox90, r.BuyBox180} {
		if p > 0 {
			return p, true
		}
	}
	if s.includeMSRP && r.MSRP > 0 {
		return r.MSRP, true
	}
	return 0, false
}

// IncludesMSRP returns true if MSRP is the last fallback
func (s *WaterfallStrategy) IncludesMSRP() bool {
	return s.includeMSRP
}
