package middleware

import (
	"github.com/gin-gonic/gin"

	"qurux/internal/metrics"
)

// Metrics counts requests by matched route template and status.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTP(route, c.Writer.Status())
	}
}
