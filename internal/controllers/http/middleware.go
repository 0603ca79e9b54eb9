package http

import (
	"net/http"
	"strconv"
	"time"

	"order-saga/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderRequestID = "X-Request-Id"
)

// Principal attaches the customer the gateway authenticated to the request
// context. Requests without it reach the service unauthenticated and are
// refused there.
func Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			c.Next()
			return
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + HeaderUserID})
			return
		}
		c.Request = c.Request.WithContext(services.WithPrincipal(c.Request.Context(), id))
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(HeaderRequestID, reqID)

		start := time.Now()
		c.Next()

		log.Info("request",
			zap.String("request_id", reqID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
