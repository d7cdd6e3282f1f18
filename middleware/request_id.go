package middleware

import (
	"context"

	"github.com/Brianwan04/PixBackend/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestId tags every request with an id that rides in the gin context,
// the request context, and the response header.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(logger.RequestIdKey, id)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIdKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(logger.RequestIdKey, id)
		c.Next()
	}
}
