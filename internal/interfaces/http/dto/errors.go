package dto

import (
	"net/http"

	"github.com/catalogrecon/backend/internal/domain/shared"
)

// API error codes, ERR_<CATEGORY>_<DESCRIPTION>
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation      = "ERR_VALIDATION"
	ErrCodeBadRequest      = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput    = "ERR_INVALID_INPUT"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"

	// ErrCodeNoMainTables means none of the uploaded catalogs parsed
	ErrCodeNoMainTables = "ERR_NO_MAIN_TABLES"
	// ErrCodeCancelled means the run stopped before completion, usually on timeout
	ErrCodeCancelled = "ERR_CANCELLED"
	ErrCodeNotFound  = "ERR_NOT_FOUND"
	ErrCodeConflict  = "ERR_CONFLICT"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeNoMainTables: http.StatusUnprocessableEntity,
	ErrCodeCancelled:    http.StatusRequestTimeout,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
}

// GetHTTPStatus returns the status for code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps shared.DomainError codes to API codes
var DomainErrorCodeMapping = map[string]string{
	shared.CodeNotFound:      ErrCodeNotFound,
	shared.CodeAlreadyExists: ErrCodeConflict,
	shared.CodeInvalidInput:  ErrCodeInvalidInput,
	shared.CodeNoMainTables:  ErrCodeNoMainTables,
	shared.CodeCancelled:     ErrCodeCancelled,
}

// NormalizeErrorCode converts a domain code to its API form. Anything
// else, including codes already in API form, is returned unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
