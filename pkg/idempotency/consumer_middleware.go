package idempotency

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/cloudevents"
)

// EventHandler is a function that handles a CloudEvent
// This mirrors the kafka.EventHandler type
type EventHandler func(ctx context.Context, event *cloudevents.PricingCloudEvent) error

// DeduplicatingHandler wraps an event handler with deduplication logic.
// A message is marked processed only after the handler succeeds, so
// failed messages stay eligible for redelivery while successful ones
// are skipped when Kafka delivers them again.
func DeduplicatingHandler(config *ConsumerConfig, handler EventHandler) EventHandler {
	return func(ctx context.Context, event *cloudevents.PricingCloudEvent) error {
		processed, err := config.Repository.IsProcessed(
			ctx,
			event.ID,
			config.Topic,
			config.ConsumerGroup,
		)

		if err != nil {
			slog.Error("Failed to check if message is processed",
				"error", err,
				"messageId", event.ID,
				"topic", config.Topic,
				"eventType", event.Type,
				"service", config.ServiceName,
			)
			return err
		}

		if processed {
			slog.Info("Duplicate message skipped",
				"messageId", event.ID,
				"topic", config.Topic,
				"eventType", event.Type,
				"service", config.ServiceName,
			)
			return nil
		}

		if err := handler(ctx, event); err != nil {
			// Don't mark as processed on error - allow retry
			return err
		}

		msg := &ProcessedMessage{
			MessageID:     event.ID,
			Topic:         config.Topic,
			EventType:     event.Type,
			ConsumerGroup: config.ConsumerGroup,
			ServiceID:     config.ServiceName,
			ProcessedAt:   time.Now().UTC(),
			ExpiresAt:     time.Now().UTC().Add(config.RetentionPeriod),
			CorrelationID: event.CorrelationID,
		}

		if err := config.Repository.MarkProcessed(ctx, msg); err != nil {
			if errors.Is(err, ErrMessageAlreadyProcessed) {
				// Another consumer won the race; the message was
				// still processed exactly once.
				slog.Warn("Message was processed concurrently",
					"messageId", event.ID,
					"topic", config.Topic,
					"eventType", event.Type,
					"service", config.ServiceName,
				)
				return nil
			}

			slog.Error("Failed to mark message as processed",
				"error", err,
				"messageId", event.ID,
				"topic", config.Topic,
				"eventType", event.Type,
				"service", config.ServiceName,
			)
			return err
		}

		return nil
	}
}
