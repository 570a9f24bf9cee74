package analysis

import (
	"context"
	"fmt"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/catalogrecon/backend/internal/domain/shared"
	"github.com/catalogrecon/backend/internal/domain/shared/strategy"
	"github.com/catalogrecon/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BuildOrder proposes a purchase order for fully computed records. It
// never modifies the records and only runs for a positive budget.
func (p *Pipeline) BuildOrder(
	ctx context.Context,
	records []*catalog.ProductRecord,
	budget decimal.Decimal,
) (*catalog.Order, error) {
	if !budget.IsPositive() {
		return nil, shared.Invalidf("budget must be positive")
	}

	allocator := p.strategies.GetAllocationStrategyOrDefault(p.allocationStrategy)
	if allocator == nil {
		return nil, shared.Invalidf("allocation strategy %q is not registered", p.allocationStrategy)
	}

	order, err := allocator.Allocate(ctx, strategy.OrderContext{Budget: budget}, records)
	if err != nil {
		return nil, fmt.Errorf("allocate order: %w", err)
	}

	p.metrics.ObserveOrder(order)
	logger.FromContext(ctx).Info("Order built",
		zap.String("strategy", allocator.Name()),
		zap.String("budget", budget.StringFixed(2)),
		zap.String("spent", order.Spent.StringFixed(2)),
		zap.Int("items", len(order.Items)),
		zap.Int64("units", order.TotalUnits),
	)
	return order, nil
}
