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
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/outbox"
	outboxstore "github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/outbox/mongodb"
	sharedtesting "github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/testing"
)

// TestOutboxPublisherEndToEnd stages a rule event in the MongoDB outbox
// and verifies the publisher drains it to Kafka, marks it published, and
// eventually prunes it once the retention window has passed.
func TestOutboxPublisherEndToEnd(t *testing.T) {
	ctx := context.Background()

	env, err := sharedtesting.NewTestEnvironment(ctx, true)
	require.NoError(t, err)
	defer env.Close(ctx)

	client, err := env.MongoDB.GetClient(ctx)
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	repo := outboxstore.NewOutboxRepository(client.Database("test_pricing_db"))
	require.NoError(t, repo.EnsureIndexes(ctx))

	// Stage the event the way the rule repository does after a
	// transactional write.
	factory := cloudevents.NewEventFactory(cloudevents.SourcePricing)
	event := factory.CreateEventWithCorrelation(ctx,
		cloudevents.RuleCreated,
		"pricing-rule/PR-20260301-001",
		map[string]interface{}{"ruleCode": "PR-20260301-001"},
		"corr-outbox-1",
		"PR-20260301-001",
	)
	staged, err := outbox.NewOutboxEventFromCloudEvent("PR-20260301-001", "PricingRule", kafka.Topics.PricingEvents, event)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, staged))

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = env.Kafka.Brokers
	kafkaConfig.ConsumerGroup = "pricing-outbox-test"

	producer := kafka.NewProducer(kafkaConfig)
	defer producer.Close()

	consumer := kafka.NewConsumer(kafkaConfig, nil)
	defer consumer.Close()

	var (
		mu       sync.Mutex
		received []*cloudevents.PricingCloudEvent
	)
	consumer.Subscribe(kafka.Topics.PricingEvents, cloudevents.RuleCreated, func(ctx context.Context, event *cloudevents.PricingCloudEvent) error {
		mu.Lock()
		received = append(received, event)
		mu.Unlock()
		return nil
	})

	runCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		_ = consumer.Start(runCtx)
	}()

	logger := logging.New(logging.DefaultConfig("pricing-outbox-test"))
	publisher := outbox.NewPublisher(repo, producer, logger, nil, &outbox.PublisherConfig{
		PollInterval:     250 * time.Millisecond,
		BatchSize:        10,
		CleanupInterval:  time.Hour,
		RetentionSeconds: 7 * 24 * 60 * 60,
	})
	require.NoError(t, publisher.Start(runCtx))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, 60*time.Second, 250*time.Millisecond, "outbox event not delivered to Kafka")

	mu.Lock()
	got := received[0]
	mu.Unlock()

	assert.Equal(t, event.ID, got.ID)
	assert.Equal(t, cloudevents.RuleCreated, got.Type)
	assert.Equal(t, cloudevents.SourcePricing, got.Source)
	assert.Equal(t, "corr-outbox-1", got.CorrelationID)
	assert.Equal(t, "PR-20260301-001", got.RuleCode)

	// The published timestamp must be recorded before the event can be
	// considered for pruning.
	require.Eventually(t, func() bool {
		stored, err := repo.GetByID(ctx, staged.ID)
		return err == nil && stored != nil && stored.IsPublished()
	}, 10*time.Second, 100*time.Millisecond, "event not marked published")

	require.NoError(t, publisher.Stop())

	// A second publisher with a zero retention window sweeps the
	// published event away.
	sweeper := outbox.NewPublisher(repo, producer, logger, nil, &outbox.PublisherConfig{
		PollInterval:     time.Hour,
		BatchSize:        10,
		CleanupInterval:  200 * time.Millisecond,
		RetentionSeconds: 0,
	})
	require.NoError(t, sweeper.Start(runCtx))

	require.Eventually(t, func() bool {
		stored, err := repo.GetByID(ctx, staged.ID)
		return err == nil && stored == nil
	}, 10*time.Second, 100*time.Millisecond, "published event not pruned")

	require.NoError(t, sweeper.Stop())

	cancel()
	select {
	case <-consumerDone:
	case <-time.After(10 * time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}
}
