package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "activityboard/pkg/platform/audit"
	"activityboard/pkg/platform/circuit"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Publisher sends audit events to a Kafka topic, keyed by activity name so
// all events for one activity stay ordered within a partition.
type Publisher struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
	timeout  time.Duration
}

// DefaultProduceTimeout bounds a single produce when no option overrides it.
const DefaultProduceTimeout = 2 * time.Second

// Option configures a Publisher.
type Option func(*Publisher)

// WithBreaker short-circuits Publish with circuit.ErrOpen while the broker is
// failing.
func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) { p.breaker = b }
}

// New dials the brokers with franz-go.
func New(brokers []string, topic string, opts ...Option) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka audit publisher requires at least one broker")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(5*time.Millisecond),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return NewWithProducer(client, topic, opts...), nil
}

// WithProduceTimeout sets how long Publish waits for the broker to ack.
func WithProduceTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewWithProducer wraps an existing producer.
func NewWithProducer(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{producer: producer, topic: topic, timeout: DefaultProduceTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish produces event synchronously. The produce runs detached from ctx's
// cancellation under its own timeout, so a client hanging up neither aborts
// the write nor counts against the breaker; only broker errors and broker
// timeouts do.
func (p *Publisher) Publish(ctx context.Context, event audit.Event) error {
	if p.breaker != nil && !p.breaker.Allow() {
		return fmt.Errorf("kafka audit publisher: %w", circuit.ErrOpen)
	}
	event = event.Normalize(time.Now())
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Activity),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}
	produceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.producer.ProduceSync(produceCtx, record).FirstErr(); err != nil {
		if p.breaker != nil {
			p.breaker.RecordFailure()
		}
		return fmt.Errorf("produce audit event %s: %w", event.ID, err)
	}
	if p.breaker != nil {
		p.breaker.RecordSuccess()
	}
	return nil
}

// Close flushes and closes the underlying client.
func (p *Publisher) Close() {
	p.producer.Close()
}
