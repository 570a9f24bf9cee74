package csvimport

import (
	"errors"
	"fmt"
)

// Import error codes
const (
	ErrCodeUnknown         = "ERR_IMPORT_UNKNOWN"
	ErrCodeEmptyFile       = "ERR_IMPORT_EMPTY_FILE"
	ErrCodeFileTooLarge    = "ERR_IMPORT_FILE_TOO_LARGE"
	ErrCodeInvalidEncoding = "ERR_IMPORT_INVALID_ENCODING"
	ErrCodeMissingHeader   = "ERR_IMPORT_MISSING_HEADER"
	ErrCodeMalformedRow    = "ERR_IMPORT_MALFORMED_ROW"
)

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("invalid file encoding")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
)

// fileCauses pairs each file-level sentinel with its stable code
var fileCauses = []struct {
	err  error
	code string
}{
	{ErrEmptyFile, ErrCodeEmptyFile},
	{ErrFileTooLarge, ErrCodeFileTooLarge},
	{ErrInvalidEncoding, ErrCodeInvalidEncoding},
	{ErrMissingHeader, ErrCodeMissingHeader},
}

// FileError reports that one input file could not be read. The other
// files of a run are unaffected.
type FileError struct {
	File string
	Err  error
}

func NewFileError(file string, err error) *FileError {
	return &FileError{File: file, Err: err}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Code maps the cause to a stable import error code
func (e *FileError) Code() string {
	for _, fc := range fileCauses {
		if errors.Is(e.Err, fc.err) {
			return fc.code
		}
	}
	return ErrCodeUnknown
}

// RestoreFileError rebuilds a FileError from its reported file, code and
// message, e.g. when loading a stored run. Code() of the result matches
// the original.
func RestoreFileError(file, code, message string) *FileError {
	var cause error
	for _, fc := range fileCauses {
		if fc.code == code {
			cause = fc.err
			break
		}
	}
	return &FileError{File: file, Err: &restoredError{msg: message, cause: cause}}
}

type restoredError struct {
	msg   string
	cause error
}

func (e *restoredError) Error() string { return e.msg }
func (e *restoredError) Unwrap() error { return e.cause }

// RowError describes one line of a file that was skipped
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ErrorCollection keeps the first limit row errors and counts the rest
type ErrorCollection struct {
	errors []RowError
	limit  int
	total  int
}

// NewErrorCollection returns a collection keeping at most limit errors;
// limit <= 0 means 100.
func NewErrorCollection(limit int) *ErrorCollection {
	if limit <= 0 {
		limit = 100
	}
	return &ErrorCollection{limit: limit}
}

func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	if len(ec.errors) < ec.limit {
		ec.errors = append(ec.errors, err)
	}
}

// Errors returns the kept errors
func (ec *ErrorCollection) Errors() []RowError { return ec.errors }

// Count is the number of kept errors
func (ec *ErrorCollection) Count() int { return len(ec.errors) }

// TotalCount includes errors dropped over the limit
func (ec *ErrorCollection) TotalCount() int { return ec.total }

func (ec *ErrorCollection) Truncated() bool { return ec.total > ec.limit }
