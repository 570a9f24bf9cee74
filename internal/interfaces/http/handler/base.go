package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/catalogrecon/backend/internal/domain/shared"
	csvimport "github.com/catalogrecon/backend/internal/infrastructure/import"
	"github.com/catalogrecon/backend/internal/infrastructure/logger"
	"github.com/catalogrecon/backend/internal/interfaces/http/dto"
	"github.com/catalogrecon/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BaseHandler writes the standard response envelope
type BaseHandler struct{}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error writes an error envelope echoing the request ID
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode derives the status from an API error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// HandleError writes the response for an error returned by the
// analysis service. A nil error writes nothing.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)

	status, code, message := classify(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Unhandled error", zap.Error(err))
	}
	h.Error(c, status, code, message)
}

// classify maps err to a status, an API code and a client-safe message
func classify(err error) (int, string, string) {
	var (
		maxBytesErr *http.MaxBytesError
		domainErr   *shared.DomainError
		fileErr     *csvimport.FileError
	)
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
			"Request body exceeds maximum allowed size"

	case errors.As(err, &domainErr):
		code := dto.NormalizeErrorCode(domainErr.Code)
		message := domainErr.Message
		if errors.Is(err, shared.ErrNoMainTables) {
			// File errors are joined onto it, one per line
			message = strings.ReplaceAll(err.Error(), "\n", "; ")
		}
		return dto.GetHTTPStatus(code), code, message

	case errors.As(err, &fileErr):
		status := http.StatusUnprocessableEntity
		if errors.Is(err, csvimport.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		return status, fileErr.Code(), fileErr.Error()
	}
	return http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred"
}
