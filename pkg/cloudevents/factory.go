package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for pricing domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new PricingCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *PricingCloudEvent {
	event := &PricingCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	return event
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
	ruleCode string,
) *PricingCloudEvent {
	return f.CreateEvent(ctx, eventType, subject, data).
		WithCorrelation(correlationID).
		WithRuleCode(ruleCode)
}

// CreateShipmentCreatedEvent creates a ShipmentCreated event
func (f *EventFactory) CreateShipmentCreatedEvent(
	ctx context.Context,
	shipmentID string,
	customerID string,
	customerType string,
	serviceType string,
	ruleCode string,
	discountCode string,
	total float64,
) *PricingCloudEvent {
	data := ShipmentCreatedData{
		ShipmentID:   shipmentID,
		CustomerID:   customerID,
		CustomerType: customerType,
		ServiceType:  serviceType,
		RuleCode:     ruleCode,
		DiscountCode: discountCode,
		Total:        total,
	}
	return f.CreateEvent(ctx, ShipmentCreated, "shipment/"+shipmentID, data).
		WithShipment(shipmentID, customerID).
		WithRuleCode(ruleCode)
}

// CreateShipmentCancelledEvent creates a ShipmentCancelled event
func (f *EventFactory) CreateShipmentCancelledEvent(
	ctx context.Context,
	shipmentID string,
	ruleCode string,
	reason string,
) *PricingCloudEvent {
	data := ShipmentCancelledData{
		ShipmentID: shipmentID,
		RuleCode:   ruleCode,
		Reason:     reason,
	}
	event := f.CreateEvent(ctx, ShipmentCancelled, "shipment/"+shipmentID, data)
	event.ShipmentID = shipmentID
	event.RuleCode = ruleCode
	return event
}
