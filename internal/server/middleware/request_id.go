package middleware

import (
	"github.com/gin-gonic/gin"

	"shopmate/internal/pkg/id"
)

const requestIDKey = "request_id"

// RequestID attaches a request id, honoring one supplied by an upstream
// proxy.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = id.New()
		}

		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}
