// Package logging provides the structured JSON logger shared by every
// component of the pricing service. Log lines carry the service
// identity plus whatever correlation attributes the context holds, so
// a quote request, its rule lookups, and the events it produces can be
// stitched together from the logs alone.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel represents logging levels
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

var slogLevels = map[LogLevel]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// Config holds logger configuration
type Config struct {
	Level       LogLevel
	ServiceName string
	Environment string
	Version     string
	Output      io.Writer
	AddSource   bool
}

// DefaultConfig returns a default logger configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		Level:       LevelInfo,
		ServiceName: serviceName,
		Environment: getEnv("ENVIRONMENT", "development"),
		Version:     getEnv("VERSION", "unknown"),
		Output:      os.Stdout,
		AddSource:   false,
	}
}

// Logger wraps slog.Logger with pricing domain log helpers.
type Logger struct {
	*slog.Logger
	serviceName string
	environment string
	version     string
}

// New creates a JSON logger stamped with the service identity.
func New(config *Config) *Logger {
	level, ok := slogLevels[config.Level]
	if !ok {
		level = slog.LevelInfo
	}

	output := config.Output
	if output == nil {
		output = os.Stdout
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Timestamps in UTC RFC3339, matching the rest of the ERP
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339Nano))
				}
			}
			return a
		},
	})

	base := slog.New(handler).With(
		"service", config.ServiceName,
		"environment", config.Environment,
		"version", config.Version,
	)

	return &Logger{
		Logger:      base,
		serviceName: config.ServiceName,
		environment: config.Environment,
		version:     config.Version,
	}
}

// clone derives a logger with extra attributes attached.
func (l *Logger) clone(attrs ...any) *Logger {
	if len(attrs) == 0 {
		return l
	}
	return &Logger{
		Logger:      l.Logger.With(attrs...),
		serviceName: l.serviceName,
		environment: l.environment,
		version:     l.version,
	}
}

// WithContext creates a logger carrying the correlation attributes
// stored in ctx.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.clone(extractContextAttrs(ctx)...)
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.clone("error", err.Error())
}

// WithComponent tags a logger with the background component writing
// through it, such as the outbox publisher or the shipment consumer.
func (l *Logger) WithComponent(component string) *Logger {
	return l.clone("component", component)
}

// DatabaseQuery logs a database command outcome. Successful commands
// log at debug; the command monitor only calls this for slow ones.
func (l *Logger) DatabaseQuery(ctx context.Context, collection, operation string, duration time.Duration, success bool, rowsAffected int64) {
	level := slog.LevelDebug
	if !success {
		level = slog.LevelError
	}

	l.WithContext(ctx).Log(ctx, level, "Database query",
		"collection", collection,
		"operation", operation,
		"durationMs", duration.Milliseconds(),
		"success", success,
		"rowsAffected", rowsAffected,
	)
}

// KafkaPublish logs a Kafka publish event
func (l *Logger) KafkaPublish(ctx context.Context, topic, eventType string, success bool, duration time.Duration) {
	level := slog.LevelDebug
	if !success {
		level = slog.LevelError
	}

	l.WithContext(ctx).Log(ctx, level, "Kafka publish",
		"topic", topic,
		"eventType", eventType,
		"success", success,
		"durationMs", duration.Milliseconds(),
	)
}

// KafkaConsume logs a Kafka consume event
func (l *Logger) KafkaConsume(ctx context.Context, topic, eventType string, partition int, offset int64) {
	l.WithContext(ctx).Debug("Kafka consume",
		"topic", topic,
		"eventType", eventType,
		"partition", partition,
		"offset", offset,
	)
}

// PriceCalculation logs the outcome of a price calculation
func (l *Logger) PriceCalculation(ctx context.Context, ruleCode, serviceType string, total float64, duration time.Duration, success bool) {
	level := slog.LevelInfo
	if !success {
		level = slog.LevelWarn
	}

	l.WithContext(ctx).Log(ctx, level, "Price calculation",
		"ruleCode", ruleCode,
		"serviceType", serviceType,
		"total", total,
		"durationMs", duration.Milliseconds(),
		"success", success,
	)
}

// RuleChange logs a pricing rule mutation
func (l *Logger) RuleChange(ctx context.Context, ruleCode, action string, version int64) {
	l.WithContext(ctx).Info("Pricing rule change",
		"ruleCode", ruleCode,
		"action", action,
		"version", version,
	)
}

// SetDefault sets this logger as the default slog logger
func (l *Logger) SetDefault() {
	slog.SetDefault(l.Logger)
}

// Context keys for correlation attributes
type contextKey string

const (
	RequestIDKey     contextKey = "requestId"
	CorrelationIDKey contextKey = "correlationId"
	TraceIDKey       contextKey = "traceId"
	UserIDKey        contextKey = "userId"
	ShipmentIDKey    contextKey = "shipmentId"
	CustomerIDKey    contextKey = "customerId"
	RuleCodeKey      contextKey = "ruleCode"
)

// contextAttrKeys fixes the attribute order on log lines.
var contextAttrKeys = []contextKey{
	RequestIDKey,
	CorrelationIDKey,
	TraceIDKey,
	UserIDKey,
	ShipmentIDKey,
	CustomerIDKey,
	RuleCodeKey,
}

func extractContextAttrs(ctx context.Context) []any {
	var attrs []any
	for _, key := range contextAttrKeys {
		if v := ctx.Value(key); v != nil {
			attrs = append(attrs, string(key), v)
		}
	}
	return attrs
}

// ContextWithRequestID adds request ID to context
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// ContextWithCorrelationID adds correlation ID to context
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, CorrelationIDKey, correlationID)
}

// ContextWithTraceID adds trace ID to context
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// ContextWithUserID adds the acting user to context
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// ContextWithShipmentID adds shipment ID to context
func ContextWithShipmentID(ctx context.Context, shipmentID string) context.Context {
	return context.WithValue(ctx, ShipmentIDKey, shipmentID)
}

// ContextWithCustomerID adds customer ID to context
func ContextWithCustomerID(ctx context.Context, customerID string) context.Context {
	return context.WithValue(ctx, CustomerIDKey, customerID)
}

// ContextWithRuleCode adds a pricing rule code to context
func ContextWithRuleCode(ctx context.Context, ruleCode string) context.Context {
	return context.WithValue(ctx, RuleCodeKey, ruleCode)
}

// CloudEventContext carries the CloudEvents extension attributes used
// for correlation across services
type CloudEventContext struct {
	CorrelationID string
	ShipmentID    string
	CustomerID    string
	RuleCode      string
}

func (cec CloudEventContext) attrs() []any {
	var attrs []any
	for _, pair := range [][2]string{
		{"correlationId", cec.CorrelationID},
		{"shipmentId", cec.ShipmentID},
		{"customerId", cec.CustomerID},
		{"ruleCode", cec.RuleCode},
	} {
		if pair[1] != "" {
			attrs = append(attrs, pair[0], pair[1])
		}
	}
	return attrs
}

// WithCloudEventContext creates a logger enriched with CloudEvents
// extension attributes. Empty values are skipped.
func (l *Logger) WithCloudEventContext(cec CloudEventContext) *Logger {
	return l.clone(cec.attrs()...)
}

// ContextWithCloudEventExtensions enriches a context with the
// CloudEvents extension attributes of a consumed event so downstream
// log lines carry the same correlation fields the event did
func ContextWithCloudEventExtensions(ctx context.Context, correlationID, shipmentID, customerID, ruleCode string) context.Context {
	if correlationID != "" {
		ctx = ContextWithCorrelationID(ctx, correlationID)
	}
	if shipmentID != "" {
		ctx = ContextWithShipmentID(ctx, shipmentID)
	}
	if customerID != "" {
		ctx = ContextWithCustomerID(ctx, customerID)
	}
	if ruleCode != "" {
		ctx = ContextWithRuleCode(ctx, ruleCode)
	}
	return ctx
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
