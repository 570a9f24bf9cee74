package catalog

import (
	"strconv"

	"github.com/google/uuid"
)

// ProductRecord is one catalog row in the normalized schema together with
// everything the pipeline derives for it. Stages add or overwrite fields
// but never clear what an earlier stage wrote.
type ProductRecord struct {
	ID     uuid.UUID `json:"id"`
	Source string    `json:"source,omitempty"`
	Line   int       `json:"line,omitempty"`

	Brand              string   `json:"brand,omitempty"`
	Parent             string   `json:"parent,omitempty"`
	ASIN               string   `json:"asin,omitempty"`
	ImportedCode       string   `json:"imported_code,omitempty"`
	Title              string   `json:"title,omitempty"`
	Color              string   `json:"color,omitempty"`
	Size               string   `json:"size,omitempty"`
	SalesBadge         string   `json:"sales_badge,omitempty"`
	RatingCount        float64  `json:"rating_count"`
	RatingCountChild   float64  `json:"rating_count_child"`
	SalesRank          float64  `json:"sales_rank"`
	SalesRank30        float64  `json:"sales_rank_30"`
	SalesRank90        float64  `json:"sales_rank_90"`
	BuyBox             float64  `json:"buy_box"`
	BuyBox30           float64  `json:"buy_box_30"`
	BuyBox90           float64  `json:"buy_box_90"`
	BuyBox180          float64  `json:"buy_box_180"`
	AmzInStockPct      float64  `json:"amz_in_stock_pct"`
	AmazonAvailability string   `json:"amazon_availability,omitempty"`
	FBA                string   `json:"fba,omitempty"`
	FBM                string   `json:"fbm,omitempty"`
	PickPackFee        float64  `json:"pick_pack_fee"`
	ReferralFeePct     float64  `json:"referral_fee_pct"`
	InStock            *float64 `json:"in_stock,omitempty"`
	Sales              *float64 `json:"sales,omitempty"`
	Cost               float64  `json:"cost"`
	MSRP               float64  `json:"msrp"`

	// Extras holds pass-through columns from the cost file
	Extras map[string]string `json:"extras,omitempty"`

	PriceUsedForProfit string  `json:"price_used_for_profit,omitempty"`
	Profit             float64 `json:"profit"`
	ROI                float64 `json:"roi"`
	MarginBuybox       Metric  `json:"margin_buybox"`
	MarginMSRP         Metric  `json:"margin_msrp"`
	MSRPDifference     Metric  `json:"msrp_difference"`
	MarginDiv          float64 `json:"margin_div"`

	TotalParentRatings      float64 `json:"total_parent_ratings"`
	TotalParentColorRatings float64 `json:"total_parent_color_ratings"`
	TotalColorRatings       float64 `json:"total_color_ratings"`
	IsBestVariant           bool    `json:"is_best_variant"`
	IsBestColor             bool    `json:"is_best_color"`

	CostMatched          bool `json:"cost_matched"`
	PickPackDefaulted    bool `json:"pick_pack_defaulted"`
	ReferralFeeDefaulted bool `json:"referral_fee_defaulted"`
}

// NewProductRecord returns an empty record with a fresh identity.
// COST and MSRP start at zero.
func NewProductRecord(source string, line int) *ProductRecord {
	return &ProductRecord{
		ID:     uuid.New(),
		Source: source,
		Line:   line,
	}
}

// JoinCode returns the identifier used for side-table joins: the imported
// code when present, otherwise the ASIN.
func (r *ProductRecord) JoinCode() string {
	if r.ImportedCode != "" {
		return r.ImportedCode
	}
	return r.ASIN
}

// IsNoise returns true when the row carries none of the identifying fields
func (r *ProductRecord) IsNoise() bool {
	return r.Brand == "" && r.Parent == "" && r.ASIN == "" && r.Title == ""
}

// SetText assigns a raw string to a text field. Non-text fields are ignored.
func (r *ProductRecord) SetText(f StandardField, v string) {
	switch f {
	case FieldBrand:
		r.Brand = v
	case FieldParent:
		r.Parent = v
	case FieldASIN:
		r.ASIN = v
	case FieldImportedCode:
		r.ImportedCode = v
	case FieldTitle:
		r.Title = v
	case FieldColor:
		r.Color = v
	case FieldSize:
		r.Size = v
	case FieldSalesBadge:
		r.SalesBadge = v
	case FieldAmazonAvailability:
		r.AmazonAvailability = v
	case FieldFBA:
		r.FBA = v
	case FieldFBM:
		r.FBM = v
	}
}

// SetNumber assigns a coerced value to a numeric field. Text fields are ignored.
func (r *ProductRecord) SetNumber(f StandardField, v float64) {
	switch f {
	case FieldRatingCount:
		r.RatingCount = v
	case FieldRatingCountChild:
		r.RatingCountChild = v
	case FieldSalesRank:
		r.SalesRank = v
	case FieldSalesRank30:
		r.SalesRank30 = v
	case FieldSalesRank90:
		r.SalesRank90 = v
	case FieldBuyBox:
		r.BuyBox = v
	case FieldBuyBox30:
		r.BuyBox30 = v
	case FieldBuyBox90:
		r.BuyBox90 = v
	case FieldBuyBox180:
		r.BuyBox180 = v
	case FieldAmzInStockPct:
		r.AmzInStockPct = v
	case FieldPickPackFee:
		r.PickPackFee = v
	case FieldReferralFeePct:
		r.ReferralFeePct = v
	case FieldInStock:
		r.InStock = &v
	case FieldSales:
		r.Sales = &v
	case FieldCost:
		r.Cost = v
	case FieldMSRP:
		r.MSRP = v
	}
}

// Set stores a raw cell into f, coercing numeric and percentage fields
func (r *ProductRecord) Set(f StandardField, raw string) {
	if f.Kind() == KindText {
		r.SetText(f, raw)
		return
	}
	r.SetNumber(f, ParseFieldValue(f, raw))
}

// Value renders field f as text for report output
func (r *ProductRecord) Value(f StandardField) string {
	switch f {
	case FieldBrand:
		return r.Brand
	case FieldParent:
		return r.Parent
	case FieldASIN:
		return r.ASIN
	case FieldImportedCode:
		return r.ImportedCode
	case FieldTitle:
		return r.Title
	case FieldColor:
		return r.Color
	case FieldSize:
		return r.Size
	case FieldSalesBadge:
		return r.SalesBadge
	case FieldAmazonAvailability:
		return r.AmazonAvailability
	case FieldFBA:
		return r.FBA
	case FieldFBM:
		return r.FBM
	case FieldInStock:
		return formatOptional(r.InStock)
	case FieldSales:
		return formatOptional(r.Sales)
	}
	return formatNumber(r.number(f))
}

func (r *ProductRecord) number(f StandardField) float64 {
	switch f {
	case FieldRatingCount:
		return r.RatingCount
	case FieldRatingCountChild:
		return r.RatingCountChild
	case FieldSalesRank:
		return r.SalesRank
	case FieldSalesRank30:
		return r.SalesRank30
	case FieldSalesRank90:
		return r.SalesRank90
	case FieldBuyBox:
		return r.BuyBox
	case FieldBuyBox30:
		return r.BuyBox30
	case FieldBuyBox90:
		return r.BuyBox90
	case FieldBuyBox180:
		return r.BuyBox180
	case FieldAmzInStockPct:
		return r.AmzInStockPct
	case FieldPickPackFee:
		return r.PickPackFee
	case FieldReferralFeePct:
		return r.ReferralFeePct
	case FieldCost:
		return r.Cost
	case FieldMSRP:
		return r.MSRP
	}
	return 0
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatNumber(*v)
}
