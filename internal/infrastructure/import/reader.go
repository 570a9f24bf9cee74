package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// encodingWindow is how much of the source is checked for valid UTF-8
const encodingWindow = 4096

type readerConfig struct {
	comma      rune
	lazyQuotes bool
	trim       bool
	maxBytes   int64
}

// ReadOption configures a Reader
type ReadOption func(*readerConfig)

// WithDelimiter sets the field separator. Default is ','.
func WithDelimiter(d rune) ReadOption {
	return func(c *readerConfig) { c.comma = d }
}

// WithLazyQuotes controls tolerance of bare quotes inside fields. On by default.
func WithLazyQuotes(lazy bool) ReadOption {
	return func(c *readerConfig) { c.lazyQuotes = lazy }
}

// WithTrimSpace controls whitespace trimming of headers and cells. On by default.
func WithTrimSpace(trim bool) ReadOption {
	return func(c *readerConfig) { c.trim = trim }
}

// WithMaxBytes caps how much of the source may be read. Zero means no limit.
func WithMaxBytes(n int64) ReadOption {
	return func(c *readerConfig) { c.maxBytes = n }
}

// Reader streams rows out of a catalog export. Header names keep their
// file order; a repeated name gets a ".N" suffix so every column stays
// addressable.
type Reader struct {
	cfg     readerConfig
	csv     *csv.Reader
	headers []string
	index   map[string]int
	line    int
	count   int
}

// Row is one data line. Fields is aligned with the headers: short lines
// are padded with "" and surplus cells are dropped.
type Row struct {
	Line   int
	Fields []string
}

// Blank reports whether every cell is empty
func (r Row) Blank() bool {
	for _, v := range r.Fields {
		if v != "" {
			return false
		}
	}
	return true
}

// NewReader checks the start of src (empty, encoding, size) and returns
// a Reader positioned at the header line.
func NewReader(src io.Reader, opts ...ReadOption) (*Reader, error) {
	cfg := readerConfig{comma: ',', lazyQuotes: true, trim: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.maxBytes > 0 {
		src = &limitedReader{r: src, remaining: cfg.maxBytes}
	}
	buf := bufio.NewReaderSize(src, encodingWindow)
	if err := skipBOM(buf); err != nil {
		return nil, err
	}
	if err := checkEncoding(buf); err != nil {
		return nil, err
	}

	cr := csv.NewReader(buf)
	cr.Comma = cfg.comma
	cr.LazyQuotes = cfg.lazyQuotes
	cr.TrimLeadingSpace = cfg.trim
	cr.FieldsPerRecord = -1

	return &Reader{cfg: cfg, csv: cr, index: make(map[string]int)}, nil
}

func skipBOM(buf *bufio.Reader) error {
	head, err := buf.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read file: %w", err)
	}
	if bytes.Equal(head, utf8BOM) {
		_, _ = buf.Discard(len(utf8BOM))
	}
	return nil
}

func checkEncoding(buf *bufio.Reader) error {
	head, err := buf.Peek(encodingWindow)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("read file: %w", err)
	}
	if len(head) == 0 {
		return ErrEmptyFile
	}
	// A full window may end inside a multi-byte rune
	if len(head) == encodingWindow {
		for i := 0; i < utf8.UTFMax-1 && !utf8.Valid(head); i++ {
			head = head[:len(head)-1]
		}
	}
	if !utf8.Valid(head) {
		return ErrInvalidEncoding
	}
	return nil
}

// limitedReader fails with ErrFileTooLarge instead of truncating
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// One more byte means the source is over the limit, not at it
		var probe [1]byte
		n, err := l.r.Read(probe[:])
		if n > 0 {
			return 0, ErrFileTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	return n, err
}

// ReadHeader consumes the header line
func (r *Reader) ReadHeader() error {
	record, err := r.csv.Read()
	switch {
	case errors.Is(err, io.EOF):
		return ErrMissingHeader
	case errors.Is(err, ErrFileTooLarge):
		return ErrFileTooLarge
	case err != nil:
		return fmt.Errorf("read header: %w", err)
	}
	r.line, _ = r.csv.FieldPos(0)

	r.headers = make([]string, 0, len(record))
	for _, h := range record {
		name := r.dedupe(r.clean(h))
		r.index[name] = len(r.headers)
		r.headers = append(r.headers, name)
	}
	if len(r.headers) == 1 && r.headers[0] == "" {
		return ErrMissingHeader
	}
	return nil
}

func (r *Reader) clean(s string) string {
	if !r.cfg.trim {
		return s
	}
	return strings.TrimFunc(s, unicode.IsSpace)
}

func (r *Reader) dedupe(name string) string {
	if _, taken := r.index[name]; !taken {
		return name
	}
	for n := 1; ; n++ {
		candidate := name + "." + strconv.Itoa(n)
		if _, taken := r.index[candidate]; !taken {
			return candidate
		}
	}
}

// Next returns the following row, or io.EOF at the end of the source.
// A record the CSV reader rejects yields a *csv.ParseError and the
// caller may keep reading. Row.Line is where the record starts, so
// quoted multi-line cells do not shift later line numbers.
func (r *Reader) Next() (Row, error) {
	record, err := r.csv.Read()
	var perr *csv.ParseError
	switch {
	case errors.As(err, &perr):
		r.line = perr.StartLine
		return Row{}, err
	case err != nil:
		return Row{}, err
	}
	r.line, _ = r.csv.FieldPos(0)
	r.count++

	fields := make([]string, len(r.headers))
	for i := range fields {
		if i < len(record) {
			fields[i] = r.clean(record[i])
		}
	}
	return Row{Line: r.line, Fields: fields}, nil
}

// ReadRows drains the source. Rejected lines are recorded in errs (which
// may be nil) and skipped, as are blank lines. ErrFileTooLarge aborts.
func (r *Reader) ReadRows(errs *ErrorCollection) ([]Row, error) {
	var rows []Row
	for {
		row, err := r.Next()
		switch {
		case errors.Is(err, io.EOF):
			return rows, nil
		case errors.Is(err, ErrFileTooLarge):
			return rows, err
		case err != nil:
			if errs != nil {
				errs.Add(NewRowError(r.line, "", ErrCodeMalformedRow, err.Error()))
			}
			continue
		}
		if !row.Blank() {
			rows = append(rows, row)
		}
	}
}

// Headers returns the header names in file order
func (r *Reader) Headers() []string { return r.headers }

// Index returns the position of a header
func (r *Reader) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Line is the start line of the last record read, 1 being the header
func (r *Reader) Line() int { return r.line }

// Count is the number of data rows read so far, blank ones included
func (r *Reader) Count() int { return r.count }
