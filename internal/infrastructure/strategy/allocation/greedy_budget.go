package allocation

import (
	"context"
	"sort"
	"strings"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
	"github.com/shopspring/decimal"
)

// GreedyBudgetName is the registry name of the greedy allocator
const GreedyBudgetName = "greedy-budget"

// Scoring and unit cap constants. Changing any of them changes the
// proposed orders.
const (
	BadgeBonus      = 10000.0
	RankCeiling     = 500000.0
	MissingRank     = 1000000.0
	ReviewCap       = 1000.0
	BadgedUnitCap   = 8
	FastRankUnitCap = 4
	DefaultUnitCap  = 2
	FastRankLimit   = 100000.0
)

// GreedyBudgetStrategy ranks profitable records and buys them in score
// order until the budget runs out. It makes a single pass with no
// backtracking.
type GreedyBudgetStrategy struct {
	strategy.BaseStrategy
}

// NewGreedyBudgetStrategy creates a new greedy budget allocator
func NewGreedyBudgetStrategy() *GreedyBudgetStrategy {
	return &GreedyBudgetStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			GreedyBudgetName,
			strategy.StrategyTypeAllocation,
			"Buy the best-scoring profitable items first, capped per item",
		),
	}
}

// Eligible reports whether a record may be ordered at all. Items Amazon
// itself has in stock, and anything without a positive cost, profit or
// ROI, are excluded.
func Eligible(r *catalog.ProductRecord) bool {
	avail := strings.ToLower(r.AmazonAvailability)
	if strings.Contains(avail, "in stock") && strings.Contains(avail, "shippable") {
		return false
	}
	return r.ROI > 0 && r.Profit > 0 && r.Cost > 0
}

// Score ranks a record: a sales badge dominates, then sales rank, then a
// capped review count as tie-breaker.
func Score(r *catalog.ProductRecord) float64 {
	score := 0.0
	if hasBadge(r) {
		score += BadgeBonus
	}
	score += max(0, RankCeiling-rankOf(r)) / 100
	reviews := r.RatingCount + r.RatingCountChild
	score += min(reviews, ReviewCap) / 10
	return score
}

// UnitCap returns the maximum units bought of one record
func UnitCap(r *catalog.ProductRecord) int64 {
	switch {
	case hasBadge(r):
		return BadgedUnitCap
	case rankOf(r) < FastRankLimit:
		return FastRankUnitCap
	default:
		return DefaultUnitCap
	}
}

func hasBadge(r *catalog.ProductRecord) bool {
	return strings.TrimSpace(r.SalesBadge) != ""
}

func rankOf(r *catalog.ProductRecord) float64 {
	if r.SalesRank <= 0 {
		return MissingRank
	}
	return r.SalesRank
}

type candidate struct {
	record *catalog.ProductRecord
	score  float64
}

// Allocate builds the order. Candidates with equal scores keep their input order.
func (s *GreedyBudgetStrategy) Allocate(
	ctx context.Context,
	orderCtx strategy.OrderContext,
	records []*catalog.ProductRecord,
) (*catalog.Order, error) {
	candidates := make([]candidate, 0, len(records))
	for _, r := range records {
		if Eligible(r) {
			candidates = append(candidates, candidate{record: r, score: Score(r)})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	order := &catalog.Order{
		Budget:    orderCtx.Budget,
		Spent:     decimal.Zero,
		EstProfit: decimal.Zero,
		Items:     make([]catalog.OrderItem, 0),
	}
	remaining := orderCtx.Budget

	for _, c := range candidates {
		if !remaining.IsPositive() {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unitCost := decimal.NewFromFloat(c.record.Cost)
		if unitCost.GreaterThan(remaining) {
			continue
		}

		units := remaining.Div(unitCost).Floor().IntPart()
		if limit := UnitCap(c.record); units > limit {
			units = limit
		}
		// Div rounds to a fixed precision; never let that overspend
		for units > 0 && unitCost.Mul(decimal.NewFromInt(units)).GreaterThan(remaining) {
			units--
		}
		if units <= 0 {
			continue
		}

		qty := decimal.NewFromInt(units)
		totalCost := unitCost.Mul(qty)
		estProfit := decimal.NewFromFloat(c.record.Profit).Mul(qty)

		order.Items = append(order.Items, catalog.OrderItem{
			Record:    c.record,
			Score:     c.score,
			Units:     units,
			UnitCost:  unitCost,
			TotalCost: totalCost,
			EstProfit: estProfit,
		})
		order.TotalUnits += units
		order.Spent = order.Spent.Add(totalCost)
		order.EstProfit = order.EstProfit.Add(estProfit)
		remaining = remaining.Sub(totalCost)
	}

	order.Remaining = remaining
	return order, nil
}
