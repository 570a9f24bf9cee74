package analysis

import (
	"time"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	csvimport "github.com/catalogrecon/backend/internal/infrastructure/import"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func testSnapshot(created time.Time) *Snapshot {
	rec := catalog.NewProductRecord("main.csv", 2)
	rec.ASIN = "B000TEST01"
	rec.Cost = 10
	rec.Profit = 17
	rec.ROI = 1.7
	rec.MarginBuybox = catalog.MetricValue(0.425)
	rec.MarginMSRP = catalog.MetricLabel(catalog.LabelNA)

	ann := catalog.NewAnnotations()
	ann.Add(rec.ID, catalog.FieldCost, catalog.HighlightCostMissing)
	ann.Add(rec.ID, "", catalog.HighlightBestVariant)

	return &Snapshot{
		Result: &Result{
			ID:          uuid.New(),
			Records:     []*catalog.ProductRecord{rec},
			Annotations: ann,
			Stats:       LiveStats{RowsRead: 1, Records: 1, Profitable: 1},
			FileErrors: []*csvimport.FileError{
				csvimport.NewFileError("broken.csv", csvimport.ErrEmptyFile),
			},
			Duration: 250 * time.Millisecond,
		},
		Order: &catalog.Order{
			Budget:     decimal.NewFromInt(25),
			Spent:      decimal.NewFromInt(20),
			Remaining:  decimal.NewFromInt(5),
			TotalUnits: 2,
			EstProfit:  decimal.NewFromInt(34),
			Items: []catalog.OrderItem{{
				Record:    rec,
				Units:     2,
				UnitCost:  decimal.NewFromInt(10),
				TotalCost: decimal.NewFromInt(20),
				EstProfit: decimal.NewFromInt(34),
			}},
		},
		CreatedAt: created,
	}
}
