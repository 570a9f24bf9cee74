package catalog

import "github.com/shopspring/decimal"

// CostEntry is one supplier cost row, keyed by its cleaned product code
type CostEntry struct {
	Code   string
	Cost   float64
	MSRP   float64
	Extras map[string]string
}

// StockEntry is one stock/sales row, keyed by its normalized product code.
// A nil value means the stock file has no such column.
type StockEntry struct {
	Code    string
	InStock *float64
	Sales   *float64
}

// OrderItem is a purchase proposal for one record. It is produced by the
// order builder and is read-only afterwards.
type OrderItem struct {
	Record    *ProductRecord  `json:"record"`
	Score     float64         `json:"score"`
	Units     int64           `json:"units"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
	EstProfit decimal.Decimal `json:"est_profit"`
}

// Order is the outcome of one allocation run
type Order struct {
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Remaining  decimal.Decimal `json:"remaining"`
	TotalUnits int64           `json:"total_units"`
	EstProfit  decimal.Decimal `json:"est_profit"`
	Items      []OrderItem     `json:"items"`
}
