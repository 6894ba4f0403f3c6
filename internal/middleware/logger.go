package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/careconnect/api/pkg/logger"
)

// Logger emits one structured access-log line per request and surfaces any
// errors handlers attached to the context.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
			"request_id": c.GetString("requestID"),
		}

		if len(c.Errors) > 0 {
			log.Error(c.Errors.Last().Err, "request failed", fields)
			return
		}
		if c.Writer.Status() >= 500 {
			log.Error(nil, "request failed", fields)
			return
		}
		log.Info("request", fields)
	}
}
