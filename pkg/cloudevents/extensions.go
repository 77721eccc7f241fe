package cloudevents

// CloudEvents extension attribute names for ERP correlation context
const (
	ExtCorrelationID = "erpcorrelationid"
	ExtShipmentID    = "erpshipmentid"
	ExtCustomerID    = "erpcustomerid"
	ExtRuleCode      = "erprulecode"
)

// HTTP header names for ERP correlation context
const (
	HeaderCorrelationID = "X-ERP-Correlation-ID"
	HeaderShipmentID    = "X-ERP-Shipment-ID"
	HeaderCustomerID    = "X-ERP-Customer-ID"
	HeaderRuleCode      = "X-ERP-Rule-Code"
)

// WithCorrelation sets the correlation ID and returns the event
func (e *PricingCloudEvent) WithCorrelation(correlationID string) *PricingCloudEvent {
	e.CorrelationID = correlationID
	return e
}

// WithShipment sets shipment context fields and returns the event
func (e *PricingCloudEvent) WithShipment(shipmentID, customerID string) *PricingCloudEvent {
	e.ShipmentID = shipmentID
	e.CustomerID = customerID
	return e
}

// WithRuleCode sets the pricing rule code and returns the event
func (e *PricingCloudEvent) WithRuleCode(ruleCode string) *PricingCloudEvent {
	e.RuleCode = ruleCode
	return e
}

// ExtensionAttributes returns the non-empty extension attributes as a map,
// keyed by their CloudEvents attribute names
func (e *PricingCloudEvent) ExtensionAttributes() map[string]string {
	attrs := make(map[string]string)
	if e.CorrelationID != "" {
		attrs[ExtCorrelationID] = e.CorrelationID
	}
	if e.ShipmentID != "" {
		attrs[ExtShipmentID] = e.ShipmentID
	}
	if e.CustomerID != "" {
		attrs[ExtCustomerID] = e.CustomerID
	}
	if e.RuleCode != "" {
		attrs[ExtRuleCode] = e.RuleCode
	}
	return attrs
}
