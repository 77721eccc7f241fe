package outbox

import "context"

// Repository persists outbox events. The rule repository stages events
// with SaveAll inside the same transaction that writes the pricing
// rule; the publisher drains them with FindUnpublished and marks or
// retries each one individually.
type Repository interface {
	// Save stages a single outbox event
	Save(ctx context.Context, event *OutboxEvent) error

	// SaveAll stages a batch of events, atomic with the caller's
	// session when invoked inside a transaction
	SaveAll(ctx context.Context, events []*OutboxEvent) error

	// FindUnpublished returns staged events oldest first, up to limit
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	// MarkPublished records that an event reached the broker
	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry bumps the retry counter and stores the last
	// publish error for inspection
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// DeletePublished prunes published events older than the given
	// age in seconds
	DeletePublished(ctx context.Context, olderThan int64) error

	// GetByID returns one event by its identifier
	GetByID(ctx context.Context, eventID string) (*OutboxEvent, error)

	// FindByAggregateID returns every event staged for one rule
	FindByAggregateID(ctx context.Context, aggregateID string) ([]*OutboxEvent, error)
}
