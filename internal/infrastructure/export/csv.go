// Package export renders analysis results as CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/catalogrecon/backend/internal/domain/catalog"
)

// Derived column labels, written after the standard fields
const (
	ColPriceUsed          = "Price Used For Profit"
	ColProfit             = "Profit"
	ColROI                = "ROI"
	ColMarginBuybox       = "Margin Buybox"
	ColMarginMSRP         = "Margin MSRP"
	ColMSRPDifference     = "MSRP Difference"
	ColMarginDiv          = "Margin Div"
	ColTotalParentRatings = "Total Parent Ratings"
	ColTotalParentColor   = "Total Parent Color Ratings"
	ColTotalColorRatings  = "Total Color Ratings"
	ColBestVariant        = "Best Variant"
	ColBestColor          = "Best Color"
	ColHighlights         = "Highlights"
)

// flushEvery bounds how many rows are buffered before the context is checked
const flushEvery = 1000

// CSVWriter writes records and orders as CSV. It implements catalog.ReportWriter.
type CSVWriter struct {
	records io.Writer
	orders  io.Writer
	comma   rune
}

// Option configures a CSVWriter
type Option func(*CSVWriter)

// WithOrderWriter sets the destination of WriteOrder. Without it orders go
// to the records destination.
func WithOrderWriter(w io.Writer) Option {
	return func(c *CSVWriter) {
		c.orders = w
	}
}

// WithComma sets the field delimiter
func WithComma(r rune) Option {
	return func(c *CSVWriter) {
		c.comma = r
	}
}

// NewCSVWriter creates a writer for records
func NewCSVWriter(records io.Writer, opts ...Option) *CSVWriter {
	w := &CSVWriter{records: records, comma: ','}
	for _, opt := range opts {
		opt(w)
	}
	if w.orders == nil {
		w.orders = records
	}
	return w
}

var _ catalog.ReportWriter = (*CSVWriter)(nil)

func (w *CSVWriter) newCSV(dst io.Writer) *csv.Writer {
	cw := csv.NewWriter(dst)
	cw.Comma = w.comma
	return cw
}

// RecordHeader returns the column labels of a records report
func RecordHeader(extraColumns []string) []string {
	fields := catalog.AllFields()
	header := make([]string, 0, len(fields)+13+len(extraColumns))
	for _, f := range fields {
		header = append(header, f.String())
	}
	header = append(header,
		ColPriceUsed, ColProfit, ColROI,
		ColMarginBuybox, ColMarginMSRP, ColMSRPDifference, ColMarginDiv,
		ColTotalParentRatings, ColTotalParentColor, ColTotalColorRatings,
		ColBestVariant, ColBestColor,
	)
	header = append(header, extraColumns...)
	return append(header, ColHighlights)
}

// WriteRecords writes one row per record. Numbers are written as computed;
// highlights are flattened into the last column as field:highlight pairs.
func (w *CSVWriter) WriteRecords(ctx context.Context, records []*catalog.ProductRecord, extraColumns []string, annotations *catalog.Annotations) error {
	cw := w.newCSV(w.records)
	if err := cw.Write(RecordHeader(extraColumns)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		if i%flushEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := cw.Write(recordRow(r, extraColumns, annotations)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func recordRow(r *catalog.ProductRecord, extraColumns []string, annotations *catalog.Annotations) []string {
	fields := catalog.AllFields()
	row := make([]string, 0, len(fields)+13+len(extraColumns))
	for _, f := range fields {
		row = append(row, r.Value(f))
	}
	row = append(row,
		r.PriceUsedForProfit,
		formatMoney(r.Profit),
		formatMoney(r.ROI),
		r.MarginBuybox.String(),
		r.MarginMSRP.String(),
		r.MSRPDifference.String(),
		formatMoney(r.MarginDiv),
		formatCount(r.TotalParentRatings),
		formatCount(r.TotalParentColorRatings),
		formatCount(r.TotalColorRatings),
		strconv.FormatBool(r.IsBestVariant),
		strconv.FormatBool(r.IsBestColor),
	)
	for _, col := range extraColumns {
		row = append(row, r.Extras[col])
	}
	return append(row, highlights(r, annotations))
}

func highlights(r *catalog.ProductRecord, annotations *catalog.Annotations) string {
	if annotations == nil {
		return ""
	}
	list := annotations.For(r.ID)
	if len(list) == 0 {
		return ""
	}
	parts := make([]string, 0, len(list))
	for _, a := range list {
		if a.Field == "" {
			parts = append(parts, string(a.Highlight))
			continue
		}
		parts = append(parts, a.Field.String()+":"+string(a.Highlight))
	}
	return strings.Join(parts, "; ")
}

// OrderHeader is the column row of an order report
var OrderHeader = []string{"ASIN", "Imported by Code", "Title", "Score", "Units", "Unit Cost", "Total Cost", "Est. Profit"}

// WriteOrder writes one row per order line followed by a totals row
func (w *CSVWriter) WriteOrder(ctx context.Context, order *catalog.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cw := w.newCSV(w.orders)
	if err := cw.Write(OrderHeader); err != nil {
		return fmt.Errorf("write order header: %w", err)
	}
	for _, item := range order.Items {
		err := cw.Write([]string{
			item.Record.ASIN,
			item.Record.ImportedCode,
			item.Record.Title,
			formatMoney(item.Score),
			strconv.FormatInt(item.Units, 10),
			item.UnitCost.StringFixed(2),
			item.TotalCost.StringFixed(2),
			item.EstProfit.StringFixed(2),
		})
		if err != nil {
			return fmt.Errorf("write order line: %w", err)
		}
	}
	err := cw.Write([]string{
		"TOTAL", "", "Budget " + order.Budget.StringFixed(2) + ", remaining " + order.Remaining.StringFixed(2), "",
		strconv.FormatInt(order.TotalUnits, 10), "",
		order.Spent.StringFixed(2),
		order.EstProfit.StringFixed(2),
	})
	if err != nil {
		return fmt.Errorf("write order totals: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
