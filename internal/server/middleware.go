package server

import (
	"net/http"
	"strconv"
	"time"

	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
	"gymdesk/internal/statscache"

	"github.com/gin-gonic/gin"
)

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}

// StatsInvalidationMiddleware drops the cached payment statistics after any
// successful write, so the next read recomputes them.
func StatsInvalidationMiddleware(cache *statscache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		if err := cache.Invalidate(c.Request.Context()); err != nil {
			logger.Warn("statistics cache invalidation failed", "path", c.FullPath(), "error", err)
		}
	}
}
