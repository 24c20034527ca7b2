package server

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/innerlog/internal/logger"
)

// requestLogger logs one line per request through the application logger
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"user", c.GetString(userIDKey),
		}
		switch {
		case status >= 500:
			logger.Error("Request failed", append(keyvals, "errors", c.Errors.String())...)
		case status >= 400:
			logger.Warn("Request rejected", keyvals...)
		default:
			logger.Info("Request handled", keyvals...)
		}
	}
}
