package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/InstallBase-Insight/internal/config"
	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// ErrProducerClosed is returned by Publish after Close.
var ErrProducerClosed = errors.New(errors.ErrCodeMessageQueueError, "producer closed")

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerMetrics tracks publish outcomes.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
}

// Producer writes envelopes to Kafka.  Messages are keyed so that events for
// one account stay ordered within a partition.
type Producer struct {
	writer  WriterInterface
	logger  logging.Logger
	closed  atomic.Bool
	metrics ProducerMetrics
}

// NewProducer builds a producer from the shared Kafka configuration.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "kafka brokers required")
	}

	maxAttempts := cfg.ProducerRetries + 1
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		WriteTimeout: timeout,
		RequiredAcks: kafka.RequireAll,
	}
	return &Producer{writer: writer, logger: log.Named("kafka_producer")}, nil
}

// NewProducerWithWriter wraps an existing writer, for tests.
func NewProducerWithWriter(w WriterInterface, log logging.Logger) *Producer {
	return &Producer{writer: w, logger: log.Named("kafka_producer")}
}

// Publish writes one envelope to the given topic.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, env *EventEnvelope) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	if topic == "" {
		return errors.New(errors.ErrCodeValidation, "topic required")
	}

	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding event envelope")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
		Time:  env.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "schema_version", Value: []byte(env.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "publishing to "+topic)
	}
	p.metrics.MessagesSent.Add(1)
	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("event_type", env.EventType))
	return nil
}

// Sent returns the number of successfully published messages.
func (p *Producer) Sent() int64 { return p.metrics.MessagesSent.Load() }

// Close flushes and closes the writer exactly once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed",
		logging.Int64("sent", p.metrics.MessagesSent.Load()))
	return err
}

const eventSource = "installbase-insight"

// EventPublisher adapts the producer to the pipeline's event contract.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher wraps a producer for pipeline use.
func NewEventPublisher(p *Producer) *EventPublisher {
	return &EventPublisher{producer: p}
}

// LeadGenerated publishes one lead summary, keyed by account so downstream
// consumers see an account's leads in order.
func (ep *EventPublisher) LeadGenerated(ctx context.Context, l *lead.Lead) error {
	env, err := NewEventEnvelope(EventLeadGenerated, eventSource, LeadGeneratedPayload{
		LeadID:      string(l.ID),
		RunID:       string(l.RunID),
		AccountID:   string(l.AccountID),
		LeadType:    string(l.Type),
		Priority:    string(l.Priority),
		Overall:     l.Overall,
		GeneratedAt: l.CreatedAt,
	})
	if err != nil {
		return err
	}
	return ep.producer.Publish(ctx, TopicLeadGenerated, []byte(l.AccountID), env)
}

// RunCompleted publishes the run summary.
func (ep *EventPublisher) RunCompleted(ctx context.Context, run *lead.Run) error {
	env, err := NewEventEnvelope(EventRunCompleted, eventSource, RunCompletedPayload{
		RunID:        string(run.ID),
		Status:       string(run.Status),
		LeadCount:    run.LeadCount,
		InsightCount: run.InsightCount,
		StartedAt:    run.StartedAt,
		FinishedAt:   run.FinishedAt,
	})
	if err != nil {
		return err
	}
	return ep.producer.Publish(ctx, TopicRunCompleted, []byte(run.ID), env)
}
