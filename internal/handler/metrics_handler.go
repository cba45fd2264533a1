package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seatwise/exam-seating-api/internal/service"
)

// MetricsHandler serves the liveness probe and the Prometheus scrape endpoint.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler builds the handler. A nil metrics service leaves the
// scrape endpoint answering 503 while the probe keeps working.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Prometheus exposes the registry in text exposition format.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health is the liveness probe. Readiness, which also checks the database,
// lives on /ready.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
