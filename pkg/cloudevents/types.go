package cloudevents

import (
	"time"
)

// EventType constants for pricing domain events
const (
	// Rule lifecycle events
	RuleCreated     = "pricing.rule.created"
	RuleActivated   = "pricing.rule.activated"
	RuleDeactivated = "pricing.rule.deactivated"

	// Tier events
	TierAdded   = "pricing.tier.added"
	TierRemoved = "pricing.tier.removed"

	// Special service events
	ServiceAdded   = "pricing.service.added"
	ServiceRemoved = "pricing.service.removed"

	// Discount events
	DiscountAdded    = "pricing.discount.added"
	DiscountRemoved  = "pricing.discount.removed"
	DiscountRedeemed = "pricing.discount.redeemed"

	// Shipment events published by the shipment service and consumed here
	ShipmentCreated   = "shipment.created"
	ShipmentCancelled = "shipment.cancelled"
)

// Source constants for event sources
const (
	SourcePricing  = "/samudra/pricing-service"
	SourceShipment = "/samudra/shipment-service"
)

// PricingCloudEvent represents a CloudEvents v1.0 compliant event
type PricingCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// ERP-specific extensions
	CorrelationID string `json:"erpcorrelationid,omitempty"`
	ShipmentID    string `json:"erpshipmentid,omitempty"`
	CustomerID    string `json:"erpcustomerid,omitempty"`
	RuleCode      string `json:"erprulecode,omitempty"`

	// W3C trace context carried in message headers
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// ShipmentCreatedData represents the data payload for ShipmentCreated event
type ShipmentCreatedData struct {
	ShipmentID   string  `json:"shipmentId"`
	CustomerID   string  `json:"customerId"`
	CustomerType string  `json:"customerType"`
	ServiceType  string  `json:"serviceType"`
	RuleCode     string  `json:"ruleCode"`
	DiscountID   string  `json:"discountId,omitempty"`
	DiscountCode string  `json:"discountCode,omitempty"`
	Total        float64 `json:"total"`
}

// ShipmentCancelledData represents the data payload for ShipmentCancelled event
type ShipmentCancelledData struct {
	ShipmentID string `json:"shipmentId"`
	RuleCode   string `json:"ruleCode,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
