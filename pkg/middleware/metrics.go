package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/metrics"
)

// MetricsMiddleware records request count, duration, and in-flight
// gauge for every request. The metrics endpoint itself is skipped so
// scrapes do not feed back into the numbers.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()
		c.Next()

		// Label by route pattern so path parameters do not explode
		// the cardinality; fall back to the raw path for unmatched
		// routes.
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		m.RecordHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

// MetricsEndpoint serves the Prometheus scrape endpoint.
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// BusinessMetrics is the narrow recording surface handed to handlers
// and the application service, so they do not depend on the full
// metrics registry.
type BusinessMetrics struct {
	metrics *metrics.Metrics
}

// NewBusinessMetrics creates a new BusinessMetrics helper
func NewBusinessMetrics(m *metrics.Metrics) *BusinessMetrics {
	return &BusinessMetrics{metrics: m}
}

// RecordPriceCalculation records a price calculation outcome
func (b *BusinessMetrics) RecordPriceCalculation(serviceType string, success bool, duration time.Duration) {
	b.metrics.RecordPriceCalculation(serviceType, success, duration)
}

// RecordRuleCreated records a pricing rule creation event
func (b *BusinessMetrics) RecordRuleCreated(pricingType string) {
	b.metrics.RecordRuleCreated(pricingType)
}

// RecordRuleMatched records a successful rule match during calculation
func (b *BusinessMetrics) RecordRuleMatched(pricingType string) {
	b.metrics.RecordRuleMatched(pricingType)
}

// RecordDiscountApplied records a discount applied to a breakdown
func (b *BusinessMetrics) RecordDiscountApplied(discountType string) {
	b.metrics.RecordDiscountApplied(discountType)
}

// RecordDiscountRedemption records a discount redemption outcome
func (b *BusinessMetrics) RecordDiscountRedemption(status string) {
	b.metrics.RecordDiscountRedemption(status)
}
