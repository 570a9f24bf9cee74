package analysis

import (
	"context"
	"strconv"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
	"github.com/catalogrecon/backend/internal/infrastructure/strategy/pricing"
)

// ProfitCalculator derives profit and margin metrics for a record.
// Profit and ROI use the configured price strategy; Buy Box margins and
// the MSRP difference always use the Buy-Box-only waterfall.
type ProfitCalculator struct {
	profitPrice strategy.PriceSelectionStrategy
	buyBox      strategy.PriceSelectionStrategy
}

// NewProfitCalculator creates a calculator. A nil strategy selects the
// Buy-Box-only waterfall.
func NewProfitCalculator(profitPrice strategy.PriceSelectionStrategy) *ProfitCalculator {
	buyBox := pricing.NewBuyBoxWaterfallStrategy()
	if profitPrice == nil {
		profitPrice = buyBox
	}
	return &ProfitCalculator{profitPrice: profitPrice, buyBox: buyBox}
}

func profitAt(r *catalog.ProductRecord, price float64) float64 {
	return price*(1-r.ReferralFeePct) - (r.Cost + r.PickPackFee)
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Apply computes and stores the profitability fields of r
func (c *ProfitCalculator) Apply(r *catalog.ProductRecord) {
	price, hasPrice := c.profitPrice.SelectPrice(r)
	if hasPrice {
		r.Profit = profitAt(r, price)
		r.PriceUsedForProfit = formatPrice(price)
	} else {
		r.Profit = -(r.Cost + r.PickPackFee)
		r.PriceUsedForProfit = catalog.LabelNoBuybox
	}

	r.ROI = 0
	if r.Cost > 0 {
		r.ROI = 100 * r.Profit / r.Cost
	}

	bb, hasBB := c.buyBox.SelectPrice(r)
	if hasBB {
		r.MarginBuybox = catalog.MetricValue(100 * profitAt(r, bb) / bb)
	} else {
		r.MarginBuybox = catalog.MetricLabel(catalog.LabelNoBuybox)
	}

	switch {
	case r.MSRP <= 0:
		r.MarginMSRP = catalog.MetricLabel(catalog.LabelNA)
		r.MSRPDifference = catalog.MetricLabel(catalog.LabelNA)
	case !hasBB:
		r.MarginMSRP = catalog.MetricValue(100 * profitAt(r, r.MSRP) / r.MSRP)
		r.MSRPDifference = catalog.MetricLabel(catalog.LabelNoBuybox)
	default:
		r.MarginMSRP = catalog.MetricValue(100 * profitAt(r, r.MSRP) / r.MSRP)
		r.MSRPDifference = catalog.MetricValue(bb - r.MSRP)
	}

	r.MarginDiv = 0
	if hasPrice && r.Cost > 0 {
		r.MarginDiv = 100 * price / r.Cost
	}
}

// ApplyProfitability runs the calculator over all records in chunks and
// returns how many ended up with a positive profit
func ApplyProfitability(
	ctx context.Context,
	records []*catalog.ProductRecord,
	calc *ProfitCalculator,
	chunkSize int,
	onChunk func(done int),
) (int, error) {
	profitable := 0
	err := forEachChunk(ctx, len(records), chunkSize, func(start, end int) {
		for _, r := range records[start:end] {
			calc.Apply(r)
			if r.Profit > 0 {
				profitable++
			}
		}
		if onChunk != nil {
			onChunk(end)
		}
	})
	return profitable, err
}
