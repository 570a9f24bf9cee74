package csvimport

import (
	"io"
)

// DefaultMaxRowErrors bounds the skipped-line details kept per table
const DefaultMaxRowErrors = 50

// Table is an in-memory source table: ordered headers and data rows of
// raw string cells aligned with them.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
	// Lines holds the 1-based source line of each row
	Lines []int
	// Skipped lists lines the CSV reader could not parse
	Skipped []RowError
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the column position of header
func (t *Table) Index(header string) (int, bool) {
	for i, h := range t.Headers {
		if h == header {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the value at row i under header, or "" if absent
func (t *Table) Cell(i int, header string) string {
	idx, ok := t.Index(header)
	if !ok || i < 0 || i >= len(t.Rows) || idx >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][idx]
}

// Line returns the source line of row i, or 0 when unknown
func (t *Table) Line(i int) int {
	if i < 0 || i >= len(t.Lines) {
		return 0
	}
	return t.Lines[i]
}

// NewTable builds a table from already-split data, mainly for callers
// that do not read CSV.
func NewTable(name string, headers []string, rows [][]string) *Table {
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 2
	}
	return &Table{Name: name, Headers: headers, Rows: rows, Lines: lines}
}

// ReadTable parses a whole CSV source. Any failure is returned as a
// *FileError naming the source.
func ReadTable(name string, src io.Reader, opts ...ReadOption) (*Table, error) {
	r, err := NewReader(src, opts...)
	if err != nil {
		return nil, NewFileError(name, err)
	}
	if err := r.ReadHeader(); err != nil {
		return nil, NewFileError(name, err)
	}

	errs := NewErrorCollection(DefaultMaxRowErrors)
	rows, err := r.ReadRows(errs)
	if err != nil {
		return nil, NewFileError(name, err)
	}

	table := &Table{
		Name:    name,
		Headers: r.Headers(),
		Rows:    make([][]string, len(rows)),
		Lines:   make([]int, len(rows)),
		Skipped: errs.Errors(),
	}
	for i, row := range rows {
		table.Rows[i] = row.Fields
		table.Lines[i] = row.Line
	}
	return table, nil
}
