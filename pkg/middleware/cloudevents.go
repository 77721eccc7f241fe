package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
)

// CloudEvents ERP extension context keys
const (
	ContextKeyERPCorrelationID = "erpCorrelationId"
	ContextKeyERPShipmentID    = "erpShipmentId"
	ContextKeyERPCustomerID    = "erpCustomerId"
	ContextKeyERPRuleCode      = "erpRuleCode"
)

// CloudEvents ERP extension HTTP header names
const (
	HeaderERPCorrelationID = "X-ERP-Correlation-ID"
	HeaderERPShipmentID    = "X-ERP-Shipment-ID"
	HeaderERPCustomerID    = "X-ERP-Customer-ID"
	HeaderERPRuleCode      = "X-ERP-Rule-Code"
)

// CloudEvents lifts the ERP CloudEvents extension headers into the Gin
// and request contexts and echoes them on the response. The same
// attribute set travels as ce-* headers on Kafka messages, so a
// request and the events it causes share one correlation trail.
func CloudEvents() gin.HandlerFunc {
	headerKeys := []struct {
		header     string
		contextKey string
	}{
		{HeaderERPCorrelationID, ContextKeyERPCorrelationID},
		{HeaderERPShipmentID, ContextKeyERPShipmentID},
		{HeaderERPCustomerID, ContextKeyERPCustomerID},
		{HeaderERPRuleCode, ContextKeyERPRuleCode},
	}

	return func(c *gin.Context) {
		values := make(map[string]string, len(headerKeys))
		for _, hk := range headerKeys {
			value := c.GetHeader(hk.header)
			if value == "" {
				continue
			}
			values[hk.header] = value
			c.Set(hk.contextKey, value)
			c.Header(hk.header, value)
		}

		if len(values) > 0 {
			ctx := logging.ContextWithCloudEventExtensions(
				c.Request.Context(),
				values[HeaderERPCorrelationID],
				values[HeaderERPShipmentID],
				values[HeaderERPCustomerID],
				values[HeaderERPRuleCode],
			)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}
