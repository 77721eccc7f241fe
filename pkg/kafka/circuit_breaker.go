package kafka

import (
	"context"
	"log/slog"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/cloudevents"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/metrics"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/resilience"
)

// CircuitBreakerProducer wraps InstrumentedProducer with circuit breaker protection
type CircuitBreakerProducer struct {
	producer       *InstrumentedProducer
	circuitBreaker *resilience.CircuitBreaker
	logger         *logging.Logger
}

// NewCircuitBreakerProducer creates a new circuit breaker protected Kafka producer
func NewCircuitBreakerProducer(producer *InstrumentedProducer, logger *logging.Logger) *CircuitBreakerProducer {
	config := resilience.DefaultCircuitBreakerConfig(resilience.BreakerKafkaProducer)
	config.MaxRequests = 5
	if producer.metrics != nil {
		config.StateListener = resilience.MetricsStateListener(producer.metrics.SetCircuitBreakerState, producer.metrics.RecordCircuitBreakerTrip)
	}

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	cb := resilience.NewCircuitBreaker(config, slogLogger)

	return &CircuitBreakerProducer{
		producer:       producer,
		circuitBreaker: cb,
		logger:         logger,
	}
}

// PublishEvent publishes a CloudEvent with circuit breaker protection
func (p *CircuitBreakerProducer) PublishEvent(ctx context.Context, topic string, event *cloudevents.PricingCloudEvent) error {
	_, err := p.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, p.producer.PublishEvent(ctx, topic, event)
	})
	return err
}

// Close closes the underlying producer
// Breaker exposes the producer's circuit breaker for status reporting.
func (p *CircuitBreakerProducer) Breaker() *resilience.CircuitBreaker {
	return p.circuitBreaker
}

func (p *CircuitBreakerProducer) Close() error {
	return p.producer.Close()
}

// CircuitBreakerConsumer wraps InstrumentedConsumer with circuit breaker protection
type CircuitBreakerConsumer struct {
	consumer       *InstrumentedConsumer
	circuitBreaker *resilience.CircuitBreaker
	logger         *logging.Logger
}

// NewCircuitBreakerConsumer creates a new circuit breaker protected Kafka consumer
func NewCircuitBreakerConsumer(consumer *InstrumentedConsumer, logger *logging.Logger) *CircuitBreakerConsumer {
	// Higher thresholds for consumers so transient handler errors do not trip the breaker
	config := resilience.DefaultCircuitBreakerConfig(resilience.BreakerKafkaConsumer)
	config.MaxRequests = 5
	config.FailureThreshold = 10
	config.SuccessThreshold = 3
	config.FailureRatioThreshold = 0.7
	config.MinRequestsToTrip = 20
	if consumer.metrics != nil {
		config.StateListener = resilience.MetricsStateListener(consumer.metrics.SetCircuitBreakerState, consumer.metrics.RecordCircuitBreakerTrip)
	}

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	cb := resilience.NewCircuitBreaker(config, slogLogger)

	return &CircuitBreakerConsumer{
		consumer:       consumer,
		circuitBreaker: cb,
		logger:         logger,
	}
}

// Subscribe subscribes to a topic with circuit breaker protected handler
func (c *CircuitBreakerConsumer) Subscribe(topic string, eventType string, handler EventHandler) {
	wrappedHandler := func(ctx context.Context, event *cloudevents.PricingCloudEvent) error {
		_, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
			return nil, handler(ctx, event)
		})
		return err
	}

	c.consumer.Subscribe(topic, eventType, wrappedHandler)
}

// Start starts the circuit breaker protected consumer
func (c *CircuitBreakerConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// Close closes the underlying consumer
// Breaker exposes the consumer's circuit breaker for status reporting.
func (c *CircuitBreakerConsumer) Breaker() *resilience.CircuitBreaker {
	return c.circuitBreaker
}

func (c *CircuitBreakerConsumer) Close() error {
	return c.consumer.Close()
}

// NewProductionProducer creates a fully configured Kafka producer with instrumentation and circuit breaker
func NewProductionProducer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerProducer {
	baseProducer := NewProducer(config)
	instrumentedProducer := NewInstrumentedProducer(baseProducer, m, logger)
	return NewCircuitBreakerProducer(instrumentedProducer, logger)
}

// NewProductionConsumer creates a fully configured Kafka consumer with instrumentation and circuit breaker
func NewProductionConsumer(config *Config, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerConsumer {
	baseConsumer := NewConsumer(config, logger.Logger)
	instrumentedConsumer := NewInstrumentedConsumer(baseConsumer, m, logger)
	return NewCircuitBreakerConsumer(instrumentedConsumer, logger)
}
