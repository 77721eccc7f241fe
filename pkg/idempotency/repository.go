package idempotency

import (
	"context"
	"time"
)

// MessageRepository manages processed messages for Kafka consumers
// Implementations must ensure the mark operation is atomic
type MessageRepository interface {
	// MarkProcessed marks a message as processed
	// Returns ErrMessageAlreadyProcessed if the message was already marked
	MarkProcessed(ctx context.Context, msg *ProcessedMessage) error

	// IsProcessed checks if a message has been processed
	IsProcessed(ctx context.Context, messageID, topic, consumerGroup string) (bool, error)

	// Clean removes expired processed messages
	// Returns the number of messages deleted
	Clean(ctx context.Context, before time.Time) (int64, error)

	// EnsureIndexes ensures that all required indexes are created
	// Should be called on service startup
	EnsureIndexes(ctx context.Context) error
}
