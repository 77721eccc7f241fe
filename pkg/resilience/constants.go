package resilience

import "time"

// Well-known breaker names, shared so the circuit-breaker state
// metrics stay consistently labelled across clients.
const (
	BreakerMongoDB       = "mongodb"
	BreakerKafkaProducer = "kafka-producer"
	BreakerKafkaConsumer = "kafka-consumer"
)

// Circuit breaker defaults. MongoDB and Kafka sit on the same network
// segment as the service, so a failure ratio above half over ten
// requests means the dependency is down, not slow.
const (
	DefaultMaxRequests           uint32        = 3
	DefaultInterval              time.Duration = 60 * time.Second
	DefaultTimeout               time.Duration = 30 * time.Second
	DefaultFailureThreshold      uint32        = 5
	DefaultSuccessThreshold      uint32        = 2
	DefaultFailureRatioThreshold float64       = 0.5
	DefaultMinRequestsToTrip     uint32        = 10
)

// Retry defaults, used where no operation-specific config applies.
// Rule mutation retries override these with tighter bounds because a
// version conflict resolves on the next read, not after a backoff.
const (
	DefaultRetryMaxAttempts   int           = 3
	DefaultRetryInitialDelay  time.Duration = 100 * time.Millisecond
	DefaultRetryMaxDelay      time.Duration = 5 * time.Second
	DefaultRetryBackoffFactor float64       = 2.0
)
