package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/event"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/metrics"
)

func startedEvent(t *testing.T, requestID int64, commandName string, command bson.D) *event.CommandStartedEvent {
	t.Helper()
	raw, err := bson.Marshal(command)
	require.NoError(t, err)

	return &event.CommandStartedEvent{
		Command:      raw,
		DatabaseName: "samudra",
		CommandName:  commandName,
		RequestID:    requestID,
	}
}

func TestCollectionForCommand(t *testing.T) {
	evt := startedEvent(t, 1, "find", bson.D{
		{Key: "find", Value: "pricing_rules"},
		{Key: "filter", Value: bson.D{{Key: "isActive", Value: true}}},
	})
	assert.Equal(t, "pricing_rules", collectionForCommand(evt))

	evt = startedEvent(t, 2, "commitTransaction", bson.D{
		{Key: "commitTransaction", Value: 1},
	})
	assert.Equal(t, "-", collectionForCommand(evt))
}

func TestCommandMonitorRecordsOutcomes(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("mongodb-test"))
	monitor := NewCommandMonitor(m, nil)
	hooks := monitor.Monitor()
	ctx := context.Background()

	hooks.Started(ctx, startedEvent(t, 10, "find", bson.D{
		{Key: "find", Value: "pricing_rules"},
	}))
	hooks.Succeeded(ctx, &event.CommandSucceededEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{
			Duration:    5 * time.Millisecond,
			CommandName: "find",
			RequestID:   10,
		},
	})

	hooks.Started(ctx, startedEvent(t, 11, "insert", bson.D{
		{Key: "insert", Value: "outbox_events"},
	}))
	hooks.Failed(ctx, &event.CommandFailedEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{
			Duration:    2 * time.Millisecond,
			CommandName: "insert",
			RequestID:   11,
		},
		Failure: "duplicate key",
	})

	success := m.MongoDBOperations.WithLabelValues("mongodb-test", "pricing_rules", "find", "success")
	assert.Equal(t, 1.0, testutil.ToFloat64(success))

	failure := m.MongoDBOperations.WithLabelValues("mongodb-test", "outbox_events", "insert", "error")
	assert.Equal(t, 1.0, testutil.ToFloat64(failure))
}

func TestCommandMonitorSkipsHousekeeping(t *testing.T) {
	monitor := NewCommandMonitor(nil, nil)
	hooks := monitor.Monitor()
	ctx := context.Background()

	hooks.Started(ctx, startedEvent(t, 20, "ping", bson.D{{Key: "ping", Value: 1}}))

	_, tracked := monitor.inflight.Load(int64(20))
	assert.False(t, tracked)
}

func TestCommandMonitorIgnoresUnknownRequestID(t *testing.T) {
	monitor := NewCommandMonitor(nil, nil)
	hooks := monitor.Monitor()

	// Succeeded without a matching Started must not panic.
	hooks.Succeeded(context.Background(), &event.CommandSucceededEvent{
		CommandFinishedEvent: event.CommandFinishedEvent{
			CommandName: "find",
			RequestID:   99,
		},
	})
}

func TestConnectionPoolMonitorCounts(t *testing.T) {
	monitor := NewConnectionPoolMonitor(nil)
	pm := monitor.PoolMonitor()

	pm.Event(&event.PoolEvent{Type: event.ConnectionCreated})
	pm.Event(&event.PoolEvent{Type: event.ConnectionCreated})
	pm.Event(&event.PoolEvent{Type: event.ConnectionClosed})

	assert.Equal(t, int64(1), monitor.OpenConnections())
}
