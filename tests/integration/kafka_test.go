package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/cloudevents"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/kafka"
	sharedtesting "github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/testing"
)

func setupKafka(t *testing.T) (*kafka.Config, func()) {
	ctx := context.Background()

	kafkaContainer, err := sharedtesting.NewKafkaContainer(ctx)
	require.NoError(t, err)

	config := kafka.DefaultConfig()
	config.Brokers = kafkaContainer.Brokers
	config.ConsumerGroup = "pricing-service-test"

	cleanup := func() {
		if err := kafkaContainer.Close(ctx); err != nil {
			t.Logf("Failed to close Kafka container: %v", err)
		}
	}

	return config, cleanup
}

func TestProducerConsumerRoundTrip(t *testing.T) {
	config, cleanup := setupKafka(t)
	defer cleanup()

	producer := kafka.NewProducer(config)
	defer producer.Close()

	consumer := kafka.NewConsumer(config, nil)
	defer consumer.Close()

	var (
		mu       sync.Mutex
		received []*cloudevents.PricingCloudEvent
	)
	consumer.Subscribe(kafka.Topics.ShipmentEvents, cloudevents.ShipmentCreated, func(ctx context.Context, event *cloudevents.PricingCloudEvent) error {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		_ = consumer.Start(ctx)
	}()

	factory := cloudevents.NewEventFactory(cloudevents.SourceShipment)
	event := factory.CreateShipmentCreatedEvent(ctx,
		"ship-001", "cust-42", "corporate", "regular",
		"PR-20260101-001", "", 125000,
	)
	event.CorrelationID = "corr-roundtrip-1"

	require.NoError(t, producer.PublishEvent(ctx, kafka.Topics.ShipmentEvents, event))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 45*time.Second, 250*time.Millisecond, "event not consumed")

	mu.Lock()
	got := received[0]
	mu.Unlock()

	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, cloudevents.ShipmentCreated, got.Type)
	assert.Equal(t, cloudevents.SourceShipment, got.Source)
	assert.Equal(t, "shipment/ship-001", got.Subject)

	// ERP extensions travel as CloudEvents binary-mode headers and are
	// restored by the consumer.
	assert.Equal(t, "corr-roundtrip-1", got.CorrelationID)
	assert.Equal(t, "ship-001", got.ShipmentID)
	assert.Equal(t, "PR-20260101-001", got.RuleCode)

	cancel()
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}
}

func TestConsumerSkipsUnroutedEventTypes(t *testing.T) {
	config, cleanup := setupKafka(t)
	defer cleanup()

	producer := kafka.NewProducer(config)
	defer producer.Close()

	consumer := kafka.NewConsumer(config, nil)
	defer consumer.Close()

	var (
		mu      sync.Mutex
		handled []string
	)
	consumer.Subscribe(kafka.Topics.ShipmentEvents, cloudevents.ShipmentCancelled, func(ctx context.Context, event *cloudevents.PricingCloudEvent) error {
		mu.Lock()
		handled = append(handled, event.ID)
		mu.Unlock()
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	go func() { _ = consumer.Start(ctx) }()

	factory := cloudevents.NewEventFactory(cloudevents.SourceShipment)

	// An event type without a handler is committed and dropped.
	created := factory.CreateShipmentCreatedEvent(ctx,
		"ship-002", "cust-1", "regular", "regular", "PR-20260101-002", "", 50000,
	)
	require.NoError(t, producer.PublishEvent(ctx, kafka.Topics.ShipmentEvents, created))

	cancelled := factory.CreateShipmentCancelledEvent(ctx, "ship-002", "PR-20260101-002", "customer request")
	require.NoError(t, producer.PublishEvent(ctx, kafka.Topics.ShipmentEvents, cancelled))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 1
	}, 45*time.Second, 250*time.Millisecond, "cancelled event not consumed")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{cancelled.ID}, handled)
}
