package mongodb

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/metrics"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/resilience"
)

// CircuitBreakerClient guards the health-check path with a breaker so
// readiness probes fail fast while MongoDB is down instead of piling
// up ping timeouts.
type CircuitBreakerClient struct {
	client         *InstrumentedClient
	circuitBreaker *resilience.CircuitBreaker
	logger         *logging.Logger
}

// NewCircuitBreakerClient creates a new circuit breaker protected MongoDB client
func NewCircuitBreakerClient(client *InstrumentedClient, m *metrics.Metrics, logger *logging.Logger) *CircuitBreakerClient {
	config := resilience.DefaultCircuitBreakerConfig(resilience.BreakerMongoDB)
	config.MaxRequests = 5
	if m != nil {
		config.StateListener = resilience.MetricsStateListener(m.SetCircuitBreakerState, m.RecordCircuitBreakerTrip)
	}

	var slogLogger *slog.Logger
	if logger != nil && logger.Logger != nil {
		slogLogger = logger.Logger
	} else {
		slogLogger = slog.Default()
	}

	return &CircuitBreakerClient{
		client:         client,
		circuitBreaker: resilience.NewCircuitBreaker(config, slogLogger),
		logger:         logger,
	}
}

// Database returns the underlying database handle for repositories.
// Repository operations are instrumented through the command monitor
// rather than wrapped per call.
func (c *CircuitBreakerClient) Database() *mongo.Database {
	return c.client.Database()
}

// Breaker exposes the client's circuit breaker for status reporting.
func (c *CircuitBreakerClient) Breaker() *resilience.CircuitBreaker {
	return c.circuitBreaker
}

// Close disconnects the client
func (c *CircuitBreakerClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings through the breaker.
func (c *CircuitBreakerClient) HealthCheck(ctx context.Context) error {
	_, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return nil, c.client.HealthCheck(ctx)
	})
	return err
}

// NewProductionClient connects to MongoDB with the full production
// setup: pool and command monitors feeding metrics and logs, tracing
// on the health path, and a breaker in front of it.
func NewProductionClient(ctx context.Context, config *Config, m *metrics.Metrics, logger *logging.Logger) (*CircuitBreakerClient, error) {
	if config.PoolMonitor == nil {
		config.PoolMonitor = NewConnectionPoolMonitor(m).PoolMonitor()
	}
	if config.CommandMonitor == nil {
		config.CommandMonitor = NewCommandMonitor(m, logger).Monitor()
	}

	// Connecting races service startup against MongoDB startup in
	// container environments, so the initial connect retries.
	retryConfig := resilience.DefaultRetryConfig()
	retryConfig.MaxAttempts = 5
	retryConfig.RetryableErrors = func(error) bool { return true }

	baseClient, err := resilience.RetryWithResult(ctx, retryConfig, func() (*Client, error) {
		return NewClient(ctx, config)
	})
	if err != nil {
		return nil, err
	}

	return NewCircuitBreakerClient(NewInstrumentedClient(baseClient), m, logger), nil
}
