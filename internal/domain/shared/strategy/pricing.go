package strategy

import "github.com/catalogrecon/backend/internal/domain/catalog"

// PriceSelectionStrategy picks the sale price of a record from the price
// signals it carries
type PriceSelectionStrategy interface {
	Strategy
	// SelectPrice returns the chosen price, or false when no usable price exists
	SelectPrice(record *catalog.ProductRecord) (float64, bool)
	// IncludesMSRP returns true if MSRP is used as a last resort
	IncludesMSRP() bool
}
