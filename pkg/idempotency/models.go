package idempotency

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProcessedMessage represents a deduplicated Kafka message
// Used to track which CloudEvents have been consumed so redelivered
// messages are not processed twice
type ProcessedMessage struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	MessageID     string             `bson:"messageId"`     // CloudEvent.ID
	Topic         string             `bson:"topic"`         // Kafka topic
	EventType     string             `bson:"eventType"`     // CloudEvent.Type
	ConsumerGroup string             `bson:"consumerGroup"` // Kafka consumer group
	ServiceID     string             `bson:"serviceId"`     // Service name

	// Processing metadata
	ProcessedAt time.Time `bson:"processedAt"`
	ExpiresAt   time.Time `bson:"expiresAt"` // For TTL index (24 hours default)

	// Optional: correlation data for debugging
	CorrelationID string `bson:"correlationId,omitempty"`
}
