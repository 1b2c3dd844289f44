package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/soundclip-go/pkg/logger"
	"go.uber.org/zap"
)

// Logger returns a gin middleware for request logging. Server errors are
// also recorded in the error category.
func Logger(logAdapter *logger.LoggerAdapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		logAdapter.General().Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("client_ip", clientIP),
		)

		if statusCode >= 500 {
			logAdapter.Error().Error("HTTP error response",
				zap.String("method", method),
				zap.String("path", path),
				zap.Int("status", statusCode),
				zap.Strings("errors", c.Errors.Errors()),
			)
		}
	}
}
