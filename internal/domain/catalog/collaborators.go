package catalog

import "context"

// ReportWriter renders analysis output. It owns formatting, highlighting
// and serialization and must not change the numbers it is given.
type ReportWriter interface {
	WriteRecords(ctx context.Context, records []*ProductRecord, extraColumns []string, annotations *Annotations) error
	WriteOrder(ctx context.Context, order *Order) error
}

// InvoiceGenerator renders a purchase order as an invoice document.
// No implementation ships with this module.
type InvoiceGenerator interface {
	GenerateInvoice(ctx context.Context, order *Order) ([]byte, error)
}

// EmailExtractor collects contact addresses from a storefront page.
// No implementation ships with this module.
type EmailExtractor interface {
	ExtractEmails(ctx context.Context, url string) ([]string, error)
}
