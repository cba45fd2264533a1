package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/exam-seating-api/internal/service"
)

// Metrics records one duration sample and one counter increment per request.
// The route template from FullPath keeps label cardinality bounded; raw URL
// paths with embedded IDs are only used for unmatched routes.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
