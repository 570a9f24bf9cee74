package catalog

import "strings"

// StandardField identifies one column of the normalized catalog schema.
// The value doubles as the column label used in reports.
type StandardField string

const (
	FieldBrand              StandardField = "Brand"
	FieldParent             StandardField = "Parent"
	FieldASIN               StandardField = "ASIN"
	FieldImportedCode       StandardField = "Imported by Code"
	FieldTitle              StandardField = "Title"
	FieldColor              StandardField = "Color"
	FieldSize               StandardField = "Size"
	FieldSalesBadge         StandardField = "Sales Badge"
	FieldRatingCount        StandardField = "Rating Count"
	FieldRatingCountChild   StandardField = "Rating Count (Child)"
	FieldSalesRank          StandardField = "Sales Rank"
	FieldSalesRank30        StandardField = "Sales Rank 30"
	FieldSalesRank90        StandardField = "Sales Rank 90"
	FieldBuyBox             StandardField = "Buy Box"
	FieldBuyBox30           StandardField = "Buy Box 30"
	FieldBuyBox90           StandardField = "Buy Box 90"
	FieldBuyBox180          StandardField = "Buy Box 180"
	FieldAmzInStockPct      StandardField = "Amz In Stock %"
	FieldAmazonAvailability StandardField = "Amazon Availability"
	FieldFBA                StandardField = "FBA"
	FieldFBM                StandardField = "FBM"
	FieldPickPackFee        StandardField = "Pick & Pack"
	FieldReferralFeePct     StandardField = "Referral Fee %"
	FieldInStock            StandardField = "In Stock"
	FieldSales              StandardField = "Sales"
	FieldCost               StandardField = "COST"
	FieldMSRP               StandardField = "MSRP"
)

// FieldKind describes how a raw cell is coerced during ingestion
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	// KindPercent values are stored as a fraction in [0,1]
	KindPercent
)

type fieldInfo struct {
	key  string
	kind FieldKind
}

var fieldTable = map[StandardField]fieldInfo{
	FieldBrand:              {"brand", KindText},
	FieldParent:             {"parent", KindText},
	FieldASIN:               {"asin", KindText},
	FieldImportedCode:       {"imported_code", KindText},
	FieldTitle:              {"title", KindText},
	FieldColor:              {"color", KindText},
	FieldSize:               {"size", KindText},
	FieldSalesBadge:         {"sales_badge", KindText},
	FieldRatingCount:        {"rating_count", KindNumber},
	FieldRatingCountChild:   {"rating_count_child", KindNumber},
	FieldSalesRank:          {"sales_rank", KindNumber},
	FieldSalesRank30:        {"sales_rank_30", KindNumber},
	FieldSalesRank90:        {"sales_rank_90", KindNumber},
	FieldBuyBox:             {"buy_box", KindNumber},
	FieldBuyBox30:           {"buy_box_30", KindNumber},
	FieldBuyBox90:           {"buy_box_90", KindNumber},
	FieldBuyBox180:          {"buy_box_180", KindNumber},
	FieldAmzInStockPct:      {"amz_in_stock_pct", KindPercent},
	FieldAmazonAvailability: {"amazon_availability", KindText},
	FieldFBA:                {"fba", KindText},
	FieldFBM:                {"fbm", KindText},
	FieldPickPackFee:        {"pick_pack_fee", KindNumber},
	FieldReferralFeePct:     {"referral_fee_pct", KindPercent},
	FieldInStock:            {"in_stock", KindNumber},
	FieldSales:              {"sales", KindNumber},
	FieldCost:               {"cost", KindNumber},
	FieldMSRP:               {"msrp", KindNumber},
}

// AllFields returns every standard field in report column order
func AllFields() []StandardField {
	return []StandardField{
		FieldBrand, FieldParent, FieldASIN, FieldImportedCode, FieldTitle,
		FieldColor, FieldSize, FieldSalesBadge, FieldRatingCount, FieldRatingCountChild,
		FieldSalesRank, FieldSalesRank30, FieldSalesRank90,
		FieldBuyBox, FieldBuyBox30, FieldBuyBox90, FieldBuyBox180,
		FieldAmzInStockPct, FieldAmazonAvailability, FieldFBA, FieldFBM,
		FieldPickPackFee, FieldReferralFeePct, FieldInStock, FieldSales,
		FieldCost, FieldMSRP,
	}
}

// String returns the field label
func (f StandardField) String() string {
	return string(f)
}

// Key returns the snake_case key used in configuration files
func (f StandardField) Key() string {
	return fieldTable[f].key
}

// Kind returns the coercion kind of the field
func (f StandardField) Kind() FieldKind {
	return fieldTable[f].kind
}

// IsValid returns true if f is one of the standard fields
func (f StandardField) IsValid() bool {
	_, ok := fieldTable[f]
	return ok
}

// ParseField resolves a config key or label to a standard field.
// Matching ignores case and punctuation.
func ParseField(s string) (StandardField, bool) {
	want := Canonicalize(strings.TrimSpace(s))
	if want == "" {
		return "", false
	}
	for _, f := range AllFields() {
		if Canonicalize(f.Key()) == want || Canonicalize(string(f)) == want {
			return f, true
		}
	}
	return "", false
}
