package shared

import "fmt"

// Codes carried by DomainError
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeNoMainTables  = "NO_MAIN_TABLES"
	CodeCancelled     = "CANCELLED"
)

// DomainError is an error the interfaces layer can map to a client
// response by Code. Message is safe to show to clients.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches by code, so any INVALID_INPUT error satisfies
// errors.Is(err, ErrInvalidInput).
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Invalidf builds an INVALID_INPUT error with a formatted message
func Invalidf(format string, args ...any) *DomainError {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf(format, args...))
}

var (
	ErrNotFound      = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput  = NewDomainError(CodeInvalidInput, "Invalid input provided")
	// ErrNoMainTables means none of the catalog files could be read
	ErrNoMainTables = NewDomainError(CodeNoMainTables, "No catalog file could be read")
	ErrCancelled    = NewDomainError(CodeCancelled, "Analysis was cancelled")
)
