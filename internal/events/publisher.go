// Package events publishes alert events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"audio-sentinel-service/internal/observability/metrics"
)

// Publisher publishes per-chunk alerts and violence events to separate
// Kafka topics. When disabled it degrades to log-only mode so the pipeline
// behaves identically with or without a broker.
type Publisher struct {
	writerChunk *kafka.Writer
	writerEvent *kafka.Writer
	principal   string
	topicChunk  string
	topicEvent  string
	enabled     bool
	metrics     *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers    []string
	TopicChunk string
	TopicEvent string
	Principal  string
	Enabled    bool
}

// New creates a new Kafka publisher with separate topics for per-chunk
// alerts and violence events.
func New(cfg *Config) *Publisher {
	m := metrics.Default

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{enabled: false, metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:  cfg.Principal,
			topicChunk: cfg.TopicChunk,
			topicEvent: cfg.TopicEvent,
			enabled:    false,
			metrics:    m,
		}
	}

	// Longer dial timeouts for DNS resolution in Kubernetes.
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicChunk", cfg.TopicChunk).
		Str("topicEvent", cfg.TopicEvent).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerChunk: newWriter(cfg.TopicChunk),
		writerEvent: newWriter(cfg.TopicEvent),
		principal:   cfg.Principal,
		topicChunk:  cfg.TopicChunk,
		topicEvent:  cfg.TopicEvent,
		enabled:     true,
		metrics:     m,
	}
}

// PublishChunk publishes a per-chunk alert message, keyed by session id.
func (p *Publisher) PublishChunk(ctx context.Context, sessionID string, msg any) error {
	return p.publish(ctx, p.writerChunk, p.topicChunk, sessionID, msg)
}

// PublishEvent publishes a violence event, keyed by session id.
func (p *Publisher) PublishEvent(ctx context.Context, sessionID string, event any) error {
	return p.publish(ctx, p.writerEvent, p.topicEvent, sessionID, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(topic)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerChunk != nil {
		if e := p.writerChunk.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing chunk writer")
			err = e
		}
	}
	if p.writerEvent != nil {
		if e := p.writerEvent.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing event writer")
			err = e
		}
	}
	return err
}
