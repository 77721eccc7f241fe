package mongodb

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/logging"
	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/metrics"
)

// InstrumentedClient adds tracing around client-level operations.
// Per-command metrics come from the CommandMonitor attached to the
// driver, so repositories can work with plain collections.
type InstrumentedClient struct {
	client *Client
	tracer trace.Tracer
}

// NewInstrumentedClient wraps an existing client.
func NewInstrumentedClient(client *Client) *InstrumentedClient {
	return &InstrumentedClient{
		client: client,
		tracer: otel.Tracer("mongodb"),
	}
}

// Database returns the underlying database handle
func (c *InstrumentedClient) Database() *mongo.Database {
	return c.client.Database()
}

// Close disconnects the client
func (c *InstrumentedClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// HealthCheck pings the primary, recording the outcome on a span.
func (c *InstrumentedClient) HealthCheck(ctx context.Context) error {
	ctx, span := c.tracer.Start(ctx, "mongodb.ping",
		trace.WithAttributes(
			semconv.DBSystemMongoDB,
			semconv.DBNameKey.String(c.client.config.Database),
		),
	)
	defer span.End()

	err := c.client.HealthCheck(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return err
}

// slowCommandThreshold is the duration above which a successful
// command is logged.
const slowCommandThreshold = 100 * time.Millisecond

// commandsNotRecorded are driver housekeeping commands that would
// drown out the operations we care about.
var commandsNotRecorded = map[string]struct{}{
	"ping":         {},
	"hello":        {},
	"isMaster":     {},
	"endSessions":  {},
	"saslStart":    {},
	"saslContinue": {},
	"buildInfo":    {},
}

// CommandMonitor feeds per-command metrics and slow-query logs from
// driver events. One monitor instruments every collection the client
// touches, including the outbox and idempotency collections.
type CommandMonitor struct {
	metrics  *metrics.Metrics
	logger   *logging.Logger
	inflight sync.Map // request ID -> collection name
}

// NewCommandMonitor creates a monitor backed by the given metrics
// registry and logger. Either may be nil.
func NewCommandMonitor(m *metrics.Metrics, logger *logging.Logger) *CommandMonitor {
	return &CommandMonitor{metrics: m, logger: logger}
}

// Monitor returns the driver event hooks. Pass the result to
// Config.CommandMonitor before connecting.
func (m *CommandMonitor) Monitor() *event.CommandMonitor {
	return &event.CommandMonitor{
		Started:   m.started,
		Succeeded: m.succeeded,
		Failed:    m.failed,
	}
}

func (m *CommandMonitor) started(_ context.Context, evt *event.CommandStartedEvent) {
	if _, skip := commandsNotRecorded[evt.CommandName]; skip {
		return
	}
	m.inflight.Store(evt.RequestID, collectionForCommand(evt))
}

func (m *CommandMonitor) succeeded(ctx context.Context, evt *event.CommandSucceededEvent) {
	collection, ok := m.take(evt.RequestID)
	if !ok {
		return
	}

	if m.metrics != nil {
		m.metrics.RecordMongoDBOperation(collection, evt.CommandName, true, evt.Duration)
	}
	if m.logger != nil && evt.Duration > slowCommandThreshold {
		m.logger.DatabaseQuery(ctx, collection, evt.CommandName, evt.Duration, true, 0)
	}
}

func (m *CommandMonitor) failed(ctx context.Context, evt *event.CommandFailedEvent) {
	collection, ok := m.take(evt.RequestID)
	if !ok {
		return
	}

	if m.metrics != nil {
		m.metrics.RecordMongoDBOperation(collection, evt.CommandName, false, evt.Duration)
	}
	if m.logger != nil {
		m.logger.DatabaseQuery(ctx, collection, evt.CommandName, evt.Duration, false, 0)
	}
}

func (m *CommandMonitor) take(requestID int64) (string, bool) {
	value, ok := m.inflight.LoadAndDelete(requestID)
	if !ok {
		return "", false
	}
	return value.(string), true
}

// collectionForCommand extracts the target collection from a CRUD
// command document, where it is the value of the first element, e.g.
// {"find": "pricing_rules", ...}. Commands without a collection
// (commitTransaction and friends) report under "-".
func collectionForCommand(evt *event.CommandStartedEvent) string {
	if value := evt.Command.Lookup(evt.CommandName); value.Type == bson.TypeString {
		return value.StringValue()
	}
	return "-"
}

// ConnectionPoolMonitor tracks the number of open driver connections.
type ConnectionPoolMonitor struct {
	metrics *metrics.Metrics
	open    atomic.Int64
}

// NewConnectionPoolMonitor creates a new connection pool monitor
func NewConnectionPoolMonitor(m *metrics.Metrics) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{metrics: m}
}

// PoolMonitor returns a driver pool monitor that feeds the connection gauge
func (m *ConnectionPoolMonitor) PoolMonitor() *event.PoolMonitor {
	return &event.PoolMonitor{
		Event: func(evt *event.PoolEvent) {
			switch evt.Type {
			case event.ConnectionCreated:
				m.update(m.open.Add(1))
			case event.ConnectionClosed:
				m.update(m.open.Add(-1))
			}
		},
	}
}

// OpenConnections returns the current number of open connections
func (m *ConnectionPoolMonitor) OpenConnections() int64 {
	return m.open.Load()
}

func (m *ConnectionPoolMonitor) update(count int64) {
	if m.metrics != nil {
		m.metrics.SetMongoDBConnections(int(count))
	}
}
