package middleware

import (
	"fmt"
	"net/http"

	"github.com/catalogrecon/backend/internal/interfaces/http/dto"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// BodyLimit rejects uploads whose declared size exceeds maxBytes and caps
// streamed bodies at the same size. maxBytes <= 0 disables the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	msg := fmt.Sprintf("Request body exceeds the %s upload limit", humanize.IBytes(uint64(maxBytes)))

	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRequestTooLarge, msg, GetRequestID(c)))
			return
		}
		// Chunked uploads carry no length; the reader fails once they pass the cap
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
