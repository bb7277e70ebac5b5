package middleware

import (
	"github.com/gin-gonic/gin"

	"balcao/internal/core/appctx"
	"balcao/internal/core/id"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an id, honoring one supplied by the client.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(requestIDHeader)
		if reqID == "" {
			reqID = id.New().String()
		}

		ctx := appctx.WithRequestID(c.Request.Context(), reqID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, reqID)

		c.Next()
	}
}
