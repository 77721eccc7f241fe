// Package events consumes shipment lifecycle events from Kafka and keeps
// discount usage counters in sync with actual bookings. Quotes never touch
// usage; a discount is only consumed when the shipment service reports a
// booking that carried one. Consumption is deduplicated, so a redelivered
// event cannot redeem the same discount twice.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/internal/application"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/cloudevents"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/errors"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/idempotency"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/kafka"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
)

// eventSubscriber is the consumer surface required here. The plain,
// instrumented and circuit-breaker kafka consumers all satisfy it.
type eventSubscriber interface {
	Subscribe(topic string, eventType string, handler kafka.EventHandler)
	Start(ctx context.Context) error
	Close() error
}

// ShipmentConsumer subscribes to shipment events and redeems discount
// usage for shipments booked with a discount.
type ShipmentConsumer struct {
	subscriber eventSubscriber
	service    *application.PricingService
	dedup      *idempotency.ConsumerConfig
	logger     *logging.Logger
}

// NewShipmentConsumer creates a new ShipmentConsumer. A nil dedup config
// disables message deduplication.
func NewShipmentConsumer(subscriber eventSubscriber, service *application.PricingService, dedup *idempotency.ConsumerConfig, logger *logging.Logger) *ShipmentConsumer {
	return &ShipmentConsumer{
		subscriber: subscriber,
		service:    service,
		dedup:      dedup,
		logger:     logger,
	}
}

// Register subscribes the shipment event handlers
func (sc *ShipmentConsumer) Register() {
	sc.subscriber.Subscribe(kafka.Topics.ShipmentEvents, cloudevents.ShipmentCreated, sc.handler(sc.HandleShipmentCreated))
	sc.subscriber.Subscribe(kafka.Topics.ShipmentEvents, cloudevents.ShipmentCancelled, sc.handler(sc.HandleShipmentCancelled))
}

// handler applies message deduplication when configured. Kafka delivers
// at least once; without the guard a redelivered shipment.created would
// redeem its discount a second time.
func (sc *ShipmentConsumer) handler(h idempotency.EventHandler) kafka.EventHandler {
	if sc.dedup == nil {
		return kafka.EventHandler(h)
	}
	return kafka.EventHandler(idempotency.DeduplicatingHandler(sc.dedup, h))
}

// Start registers the handlers and consumes until the context is done
func (sc *ShipmentConsumer) Start(ctx context.Context) error {
	sc.Register()
	return sc.subscriber.Start(ctx)
}

// Close closes the underlying consumer
func (sc *ShipmentConsumer) Close() error {
	return sc.subscriber.Close()
}

// eventLogger returns a logger carrying the event's correlation
// extensions so every line written while handling it links back to
// the originating request.
func (sc *ShipmentConsumer) eventLogger(event *cloudevents.PricingCloudEvent) *logging.Logger {
	return sc.logger.WithCloudEventContext(logging.CloudEventContext{
		CorrelationID: event.CorrelationID,
		ShipmentID:    event.ShipmentID,
		CustomerID:    event.CustomerID,
		RuleCode:      event.RuleCode,
	})
}

// HandleShipmentCreated redeems the discount a new shipment was booked
// with. Events without a discount are ignored; malformed events and
// business rejections are logged and skipped so the partition keeps
// moving. Only infrastructure failures are returned for redelivery.
func (sc *ShipmentConsumer) HandleShipmentCreated(ctx context.Context, event *cloudevents.PricingCloudEvent) error {
	logger := sc.eventLogger(event)

	var data cloudevents.ShipmentCreatedData
	if err := decodeEventData(event.Data, &data); err != nil {
		logger.WithError(err).Warn("Skipping malformed shipment.created event", "eventId", event.ID)
		return nil
	}

	discountKey := data.DiscountID
	if discountKey == "" {
		discountKey = data.DiscountCode
	}
	if discountKey == "" {
		// Shipment booked without a discount, nothing to redeem
		return nil
	}

	if data.RuleCode == "" {
		logger.Warn("Skipping discount redemption without rule code",
			"eventId", event.ID,
			"shipmentId", data.ShipmentID,
		)
		return nil
	}

	redeemedAt := event.Time
	if redeemedAt.IsZero() {
		redeemedAt = time.Now().UTC()
	}

	if _, err := sc.service.RedeemDiscount(ctx, data.RuleCode, discountKey, redeemedAt); err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Code != errors.CodeInternalError {
			logger.WithError(err).Warn("Discount redemption rejected",
				"ruleCode", data.RuleCode,
				"discount", discountKey,
				"shipmentId", data.ShipmentID,
			)
			return nil
		}
		return fmt.Errorf("failed to redeem discount for shipment %s: %w", data.ShipmentID, err)
	}

	logger.Info("Discount redeemed for shipment",
		"ruleCode", data.RuleCode,
		"discount", discountKey,
		"shipmentId", data.ShipmentID,
	)
	return nil
}

// HandleShipmentCancelled records the cancellation. Redeemed usage stays
// consumed; tariff terms treat a booked discount as spent even when the
// shipment is later cancelled.
func (sc *ShipmentConsumer) HandleShipmentCancelled(ctx context.Context, event *cloudevents.PricingCloudEvent) error {
	logger := sc.eventLogger(event)

	var data cloudevents.ShipmentCancelledData
	if err := decodeEventData(event.Data, &data); err != nil {
		logger.WithError(err).Warn("Skipping malformed shipment.cancelled event", "eventId", event.ID)
		return nil
	}

	logger.Info("Shipment cancelled",
		"shipmentId", data.ShipmentID,
		"ruleCode", data.RuleCode,
		"reason", data.Reason,
	)
	return nil
}

// decodeEventData converts the generic event payload into a typed one.
// Consumed events carry their data as map[string]interface{} after JSON
// parsing, so a marshal round trip is the conversion.
func decodeEventData(data interface{}, out interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode event data: %w", err)
	}
	return nil
}
