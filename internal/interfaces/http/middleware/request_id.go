package middleware

import (
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the header carrying the request ID
const RequestIDKey = "X-Request-ID"

// MaxRequestIDLength caps client supplied request IDs
const MaxRequestIDLength = 128

// requestIDContextKey is where RequestID stores the ID in the gin
// context; the access log middleware reads it from there.
const requestIDContextKey = "request_id"

// RequestID propagates the client's X-Request-ID or assigns a UUID, and
// echoes it on the response. Client IDs are stripped of control
// characters and truncated to MaxRequestIDLength.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := cleanRequestID(c.GetHeader(RequestIDKey))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDContextKey, id)
		c.Writer.Header().Set(RequestIDKey, id)
		c.Next()
	}
}

func cleanRequestID(raw string) string {
	id := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
	if len(id) > MaxRequestIDLength {
		id = strings.ToValidUTF8(id[:MaxRequestIDLength], "")
	}
	return id
}

// GetRequestID returns the ID assigned by RequestID, falling back to the header
func GetRequestID(c *gin.Context) string {
	if id := c.GetString(requestIDContextKey); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}
