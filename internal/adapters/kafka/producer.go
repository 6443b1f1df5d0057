package kafka

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/segmentio/kafka-go"

	"revshare/pkg/errors"
	"revshare/pkg/logger"
)

// messageWriter is the part of *kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON events, one writer per topic
type Producer struct {
	mu        sync.Mutex
	writers   map[string]messageWriter
	newWriter func(topic string) messageWriter
	log       *logger.Logger
}

// ProducerConfig holds producer configuration
type ProducerConfig struct {
	Brokers []string
	Async   bool
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig) *Producer {
	return &Producer{
		writers: make(map[string]messageWriter),
		newWriter: func(topic string) messageWriter {
			return &kafka.Writer{
				Addr:     kafka.TCP(cfg.Brokers...),
				Topic:    topic,
				Balancer: &kafka.Hash{}, // same delegator, same partition
				Async:    cfg.Async,
			}
		},
		log: logger.Get().With("component", "kafka_producer"),
	}
}

// getWriter returns or creates a writer for a topic
func (p *Producer) getWriter(topic string) messageWriter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := p.newWriter(topic)
	p.writers[topic] = w
	return w
}

// Publish sends one JSON-encoded event to a topic
func (p *Producer) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal event for %s", topic)
	}

	return p.write(ctx, topic, kafka.Message{Key: []byte(key), Value: data})
}

// PublishBatch sends several JSON-encoded events to a topic in one write
func (p *Producer) PublishBatch(ctx context.Context, topic string, keys []string, events []interface{}) error {
	if len(keys) != len(events) {
		return errors.Wrapf(errors.ErrInvalidInput, "batch has %d keys for %d events", len(keys), len(events))
	}
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for i, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return errors.Wrapf(err, "failed to marshal event %d for %s", i, topic)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(keys[i]), Value: data})
	}

	return p.write(ctx, topic, msgs...)
}

func (p *Producer) write(ctx context.Context, topic string, msgs ...kafka.Message) error {
	if err := p.getWriter(topic).WriteMessages(ctx, msgs...); err != nil {
		p.log.Errorf("Failed to publish to %s: %v", topic, err)
		return errors.Wrapf(errors.ErrPublishFailed, "topic %s: %v", topic, err)
	}

	p.log.Debugf("Published %d messages to %s", len(msgs), topic)
	return nil
}

// Close closes all writers
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs errors.MultiError
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs.Add(errors.Wrapf(err, "failed to close writer for %s", topic))
		}
	}
	return errs.ToError()
}
