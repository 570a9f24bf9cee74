package analysis

import (
	"context"
	"fmt"

	"github.com/catalogrecon/backend/internal/domain/catalog"
	csvimport "github.com/catalogrecon/backend/internal/infrastructure/import"
)

// DefaultChunkSize is the number of rows processed between yields
const DefaultChunkSize = 2000

type boundColumn struct {
	field catalog.StandardField
	index int
}

func bindColumns(table *csvimport.Table, mapping catalog.ColumnMapping) []boundColumn {
	cols := make([]boundColumn, 0, len(mapping))
	for _, f := range mapping.SortedFields() {
		if idx, ok := table.Index(mapping[f]); ok {
			cols = append(cols, boundColumn{field: f, index: idx})
		}
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}

// Ingest converts the rows of one main table into records. Each row gets
// a fresh record with COST and MSRP at zero; mapped cells are coerced by
// field kind and both identifiers pass through CleanProductCode. onChunk,
// if set, is called with the number of rows done after every chunk.
func Ingest(
	ctx context.Context,
	table *csvimport.Table,
	mapping catalog.ColumnMapping,
	chunkSize int,
	onChunk func(done int),
) ([]*catalog.ProductRecord, error) {
	cols := bindColumns(table, mapping)
	records := make([]*catalog.ProductRecord, table.Len())

	err := forEachChunk(ctx, table.Len(), chunkSize, func(start, end int) {
		for i := start; i < end; i++ {
			row := table.Rows[i]
			rec := catalog.NewProductRecord(table.Name, table.Line(i))
			for _, c := range cols {
				rec.Set(c.field, cell(row, c.index))
			}
			rec.ImportedCode = catalog.CleanProductCode(rec.ImportedCode)
			rec.ASIN = catalog.CleanProductCode(rec.ASIN)
			records[i] = rec
		}
		if onChunk != nil {
			onChunk(end)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("ingest %s: %w", table.Name, err)
	}
	return records, nil
}
