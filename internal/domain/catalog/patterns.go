package catalog

// DefaultMainPatterns returns the header aliases for catalog exports.
// A fresh table is built on every call so callers may modify it freely.
func DefaultMainPatterns() PatternTable {
	return PatternTable{
		{FieldBrand, []string{"Brand", "Manufacturer"}},
		{FieldParent, []string{"Parent", "Parent ASIN", "Variation Parent"}},
		{FieldASIN, []string{"ASIN", "Child ASIN"}},
		{FieldImportedCode, []string{"Imported by Code", "UPC", "EAN", "GTIN", "Product Codes: UPC", "Product Codes: EAN"}},
		{FieldTitle, []string{"Title", "Product Name", "Item Name"}},
		{FieldColor, []string{"Color", "Colour", "Variation Color"}},
		{FieldSize, []string{"Size", "Variation Size"}},
		{FieldSalesBadge, []string{"Sales Badge", "Bought in past month", "Badge"}},
		{FieldRatingCount, []string{"Reviews: Rating Count", "Rating Count", "Ratings", "Review Count"}},
		{FieldRatingCountChild, []string{"Reviews: Rating Count (Child)", "Rating Count (Child)", "Child Ratings"}},
		{FieldSalesRank, []string{"Sales Rank: Current", "Sales Rank", "BSR", "Current Sales Rank"}},
		{FieldSalesRank30, []string{"Sales Rank: 30 days avg.", "Sales Rank 30"}},
		{FieldSalesRank90, []string{"Sales Rank: 90 days avg.", "Sales Rank 90"}},
		{FieldBuyBox, []string{"Buy Box: Current", "Buy Box", "Buy Box Price"}},
		{FieldBuyBox30, []string{"Buy Box: 30 days avg.", "Buy Box 30"}},
		{FieldBuyBox90, []string{"Buy Box: 90 days avg.", "Buy Box 90"}},
		{FieldBuyBox180, []string{"Buy Box: 180 days avg.", "Buy Box 180"}},
		{FieldAmzInStockPct, []string{"Amz In Stock %", "Amazon In Stock %", "Amazon: In Stock %"}},
		{FieldAmazonAvailability, []string{"Amazon: Availability of the Amazon offer", "Amazon Availability"}},
		{FieldFBA, []string{"FBA", "New FBA Offer Count", "FBA Offers"}},
		{FieldFBM, []string{"FBM", "New FBM Offer Count", "FBM Offers"}},
		{FieldPickPackFee, []string{"FBA Pick&Pack Fee", "Pick & Pack", "Pick and Pack Fee"}},
		{FieldReferralFeePct, []string{"Referral Fee %", "Referral Fee Percentage", "Referral Fee"}},
		{FieldCost, []string{"COST", "Unit Cost"}},
		{FieldMSRP, []string{"MSRP", "List Price"}},
	}
}

// DefaultCostPatterns returns the header aliases for supplier cost files
func DefaultCostPatterns() PatternTable {
	return PatternTable{
		{FieldImportedCode, []string{"UPC", "EAN", "GTIN", "Code", "SKU", "Item Code", "Product Code", "Barcode", "ASIN"}},
		{FieldCost, []string{"Cost", "Unit Cost", "Wholesale", "Wholesale Price", "Net Cost"}},
		{FieldMSRP, []string{"MSRP", "Retail", "Retail Price", "List Price", "SRP"}},
	}
}

// DefaultStockPatterns returns the header aliases for stock and sales files
func DefaultStockPatterns() PatternTable {
	return PatternTable{
		{FieldImportedCode, []string{"UPC", "EAN", "GTIN", "Code", "SKU", "Item Code", "Barcode", "ASIN"}},
		{FieldInStock, []string{"In Stock", "Stock", "Qty", "Quantity", "On Hand", "Available"}},
		{FieldSales, []string{"Sales", "Units Sold", "Sold", "Sales Qty"}},
	}
}
