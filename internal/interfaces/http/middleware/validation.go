package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/catalogrecon/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var setupOnce sync.Once

// SetupValidator makes gin's validator report form and JSON field names
// and registers the "decimal" tag for money fields sent as text. Safe to
// call more than once.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("decimal", isDecimal)
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// isDecimal accepts strings shopspring/decimal can parse, e.g. "1500" or "99.95"
func isDecimal(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

var validationMessages = map[string]func(param string) string{
	"required": func(string) string { return "This field is required" },
	"min":      func(p string) string { return "Must be at least " + p },
	"max":      func(p string) string { return "Must be at most " + p },
	"oneof":    func(p string) string { return "Must be one of: " + p },
	"gte":      func(p string) string { return "Must be greater than or equal to " + p },
	"gt":       func(p string) string { return "Must be greater than " + p },
	"numeric":  func(string) string { return "Must be numeric" },
	"decimal":  func(string) string { return "Must be a decimal amount, e.g. 1500 or 99.95" },
}

// FormatValidationErrors formats validation errors into a standard response
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			msg := "Invalid value"
			if f, ok := validationMessages[e.Tag()]; ok {
				msg = f(e.Param())
			}
			details = append(details, dto.ValidationDetail{Field: e.Field(), Message: msg})
		}
	}

	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError returns a validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}
