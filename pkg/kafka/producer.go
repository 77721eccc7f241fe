package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/muhammadhilmi007/Samudra-ERP-sub002/pkg/cloudevents"
	"github.com/segmentio/kafka-go"
)

// Producer handles publishing messages to Kafka topics
type Producer struct {
	writers   map[string]*kafka.Writer
	config    *Config
	transport *kafka.Transport
	setupErr  error
}

// NewProducer creates a new Kafka producer. A TLS or SASL
// misconfiguration is reported on the first publish.
func NewProducer(config *Config) *Producer {
	p := &Producer{
		writers: make(map[string]*kafka.Writer),
		config:  config,
	}

	tlsConfig, err := config.buildTLS()
	if err != nil {
		p.setupErr = err
		return p
	}
	mechanism, err := config.buildSASL()
	if err != nil {
		p.setupErr = err
		return p
	}

	if tlsConfig != nil || mechanism != nil || config.ClientID != "" {
		p.transport = &kafka.Transport{
			TLS:      tlsConfig,
			SASL:     mechanism,
			ClientID: config.ClientID,
		}
	}

	return p
}

// getWriter returns a writer for the specified topic, creating one if necessary
func (p *Producer) getWriter(topic string) *kafka.Writer {
	if writer, exists := p.writers[topic]; exists {
		return writer
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    p.config.BatchSize,
		BatchTimeout: p.config.BatchTimeout,
		RequiredAcks: kafka.RequiredAcks(p.config.RequiredAcks),
		Async:        false,
	}
	if p.transport != nil {
		writer.Transport = p.transport
	}

	p.writers[topic] = writer
	return writer
}

// eventHeaders builds the CloudEvents binary-mode headers for a message
func eventHeaders(event *cloudevents.PricingCloudEvent) []kafka.Header {
	headers := []kafka.Header{
		{Key: "ce-specversion", Value: []byte(event.SpecVersion)},
		{Key: "ce-type", Value: []byte(event.Type)},
		{Key: "ce-source", Value: []byte(event.Source)},
		{Key: "ce-id", Value: []byte(event.ID)},
		{Key: "ce-time", Value: []byte(event.Time.Format(time.RFC3339))},
		{Key: "content-type", Value: []byte(event.DataContentType)},
	}

	// ERP extension attributes, prefixed per CloudEvents binary content mode
	for name, value := range event.ExtensionAttributes() {
		headers = append(headers, kafka.Header{Key: "ce-" + name, Value: []byte(value)})
	}

	// W3C Trace Context headers
	if event.TraceParent != "" {
		headers = append(headers, kafka.Header{Key: "ce-traceparent", Value: []byte(event.TraceParent)})
	}
	if event.TraceState != "" {
		headers = append(headers, kafka.Header{Key: "ce-tracestate", Value: []byte(event.TraceState)})
	}

	return headers
}

// PublishEvent publishes a CloudEvent to the specified topic
func (p *Producer) PublishEvent(ctx context.Context, topic string, event *cloudevents.PricingCloudEvent) error {
	if p.setupErr != nil {
		return p.setupErr
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	writer := p.getWriter(topic)

	msg := kafka.Message{
		Key:     []byte(event.Subject),
		Value:   data,
		Headers: eventHeaders(event),
		Time:    event.Time,
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}

	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	var lastErr error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			lastErr = fmt.Errorf("failed to close writer for topic %s: %w", topic, err)
		}
	}
	return lastErr
}
