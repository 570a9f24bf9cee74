package strategy

import (
	"context"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// OrderContext provides the inputs of an order allocation
type OrderContext struct {
	Budget decimal.Decimal
}

// OrderAllocationStrategy turns scored records into a budget-bound purchase order
type OrderAllocationStrategy interface {
	Strategy
	// Allocate proposes units per record without exceeding the budget
	Allocate(ctx context.Context, orderCtx OrderContext, records []*catalog.ProductRecord) (*catalog.Order, error)
}
