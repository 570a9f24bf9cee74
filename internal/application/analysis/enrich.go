package analysis

import (
	"context"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	csvimport "github.com/catalogrecon/backend/internal/infrastructure/import"
)

// CostLookup is the read-only cost side-table of one run
type CostLookup struct {
	entries map[string]catalog.CostEntry
	// Extras lists unmapped cost-file headers in first-seen order
	Extras []string
}

// Len returns the number of distinct cost codes
func (l *CostLookup) Len() int {
	return len(l.entries)
}

// Get returns the entry for a cleaned code
func (l *CostLookup) Get(code string) (catalog.CostEntry, bool) {
	if code == "" {
		return catalog.CostEntry{}, false
	}
	e, ok := l.entries[code]
	return e, ok
}

// BuildCostLookup indexes a cost table by CleanProductCode of its code
// column. A later row with the same code replaces an earlier one. Every
// column the mapping does not claim is carried as an extra.
func BuildCostLookup(table *csvimport.Table, mapping catalog.ColumnMapping) *CostLookup {
	lookup := &CostLookup{entries: make(map[string]catalog.CostEntry, table.Len())}

	codeIdx, hasCode := indexOf(table, mapping, catalog.FieldImportedCode)
	costIdx, hasCost := indexOf(table, mapping, catalog.FieldCost)
	msrpIdx, hasMSRP := indexOf(table, mapping, catalog.FieldMSRP)

	mapped := mapping.MappedHeaders()
	var extraIdx []int
	for i, h := range table.Headers {
		if !mapped[h] {
			extraIdx = append(extraIdx, i)
		}
	}

	seenExtra := make(map[string]bool, len(extraIdx))
	for _, row := range table.Rows {
		for _, i := range extraIdx {
			if h := table.Headers[i]; !seenExtra[h] {
				seenExtra[h] = true
				lookup.Extras = append(lookup.Extras, h)
			}
		}
		if !hasCode {
			continue
		}
		code := catalog.CleanProductCode(cell(row, codeIdx))
		if code == "" {
			continue
		}

		entry := catalog.CostEntry{Code: code}
		if hasCost {
			entry.Cost = catalog.ParseNumber(cell(row, costIdx))
		}
		if hasMSRP {
			entry.MSRP = catalog.ParseNumber(cell(row, msrpIdx))
		}
		if len(extraIdx) > 0 {
			entry.Extras = make(map[string]string, len(extraIdx))
			for _, i := range extraIdx {
				entry.Extras[table.Headers[i]] = cell(row, i)
			}
		}
		lookup.entries[code] = entry
	}
	return lookup
}

func indexOf(table *csvimport.Table, mapping catalog.ColumnMapping, f catalog.StandardField) (int, bool) {
	h, ok := mapping.Header(f)
	if !ok {
		return -1, false
	}
	return table.Index(h)
}

// JoinStats counts side-table join outcomes
type JoinStats struct {
	Matched int
	Missed  int
}

// ApplyCost adds landed cost to every record. Shipping and misc are added
// whether or not the record matches. A nil lookup means no cost file was
// supplied: costs still receive shipping and misc, but nothing is flagged.
func ApplyCost(
	ctx context.Context,
	records []*catalog.ProductRecord,
	lookup *CostLookup,
	shippingPerUnit, miscPerUnit float64,
	annotations *catalog.Annotations,
	chunkSize int,
) (JoinStats, error) {
	var stats JoinStats
	surcharge := shippingPerUnit + miscPerUnit

	err := forEachChunk(ctx, len(records), chunkSize, func(start, end int) {
		for _, r := range records[start:end] {
			if lookup == nil {
				r.Cost += surcharge
				continue
			}
			entry, ok := lookup.Get(catalog.CleanProductCode(r.JoinCode()))
			if !ok {
				r.Cost += surcharge
				r.CostMatched = false
				annotations.Add(r.ID, catalog.FieldCost, catalog.HighlightCostMissing)
				stats.Missed++
				continue
			}
			r.Cost = entry.Cost + surcharge
			r.MSRP = entry.MSRP
			r.CostMatched = true
			if len(entry.Extras) > 0 {
				if r.Extras == nil {
					r.Extras = make(map[string]string, len(entry.Extras))
				}
				for k, v := range entry.Extras {
					r.Extras[k] = v
				}
			}
			stats.Matched++
		}
	})
	return stats, err
}

// StockLookup is the read-only stock side-table of one run
type StockLookup struct {
	entries map[string]catalog.StockEntry
}

// Len returns the number of distinct stock codes
func (l *StockLookup) Len() int {
	return len(l.entries)
}

// Get returns the entry for a raw code, normalizing it first
func (l *StockLookup) Get(code string) (catalog.StockEntry, bool) {
	key, ok := catalog.NormalizeCode(code)
	if !ok {
		return catalog.StockEntry{}, false
	}
	e, found := l.entries[key]
	return e, found
}

// BuildStockLookup indexes a stock table by NormalizeCode of its code
// column. Unlike the cost join, keys are upper-case alphanumerics only.
func BuildStockLookup(table *csvimport.Table, mapping catalog.ColumnMapping) *StockLookup {
	lookup := &StockLookup{entries: make(map[string]catalog.StockEntry, table.Len())}

	codeIdx, hasCode := indexOf(table, mapping, catalog.FieldImportedCode)
	if !hasCode {
		return lookup
	}
	stockIdx, hasStock := indexOf(table, mapping, catalog.FieldInStock)
	salesIdx, hasSales := indexOf(table, mapping, catalog.FieldSales)

	for _, row := range table.Rows {
		key, ok := catalog.NormalizeCode(cell(row, codeIdx))
		if !ok {
			continue
		}
		entry := catalog.StockEntry{Code: key}
		if hasStock {
			v := catalog.ParseNumber(cell(row, stockIdx))
			entry.InStock = &v
		}
		if hasSales {
			v := catalog.ParseNumber(cell(row, salesIdx))
			entry.Sales = &v
		}
		lookup.entries[key] = entry
	}
	return lookup
}

// ApplyStock copies stock and sales onto matching records. Misses leave
// both fields unset.
func ApplyStock(ctx context.Context, records []*catalog.ProductRecord, lookup *StockLookup, chunkSize int) (JoinStats, error) {
	var stats JoinStats
	err := forEachChunk(ctx, len(records), chunkSize, func(start, end int) {
		for _, r := range records[start:end] {
			entry, ok := lookup.Get(r.JoinCode())
			if !ok {
				stats.Missed++
				continue
			}
			if entry.InStock != nil {
				v := *entry.InStock
				r.InStock = &v
			}
			if entry.Sales != nil {
				v := *entry.Sales
				r.Sales = &v
			}
			stats.Matched++
		}
	})
	return stats, err
}
