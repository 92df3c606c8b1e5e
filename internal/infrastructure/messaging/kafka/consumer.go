package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/InstallBase-Insight/internal/config"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

var (
	// ErrAlreadyRunning is returned when Start is called twice.
	ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")
	// ErrConsumerClosed is returned when starting a closed consumer.
	ErrConsumerClosed = errors.New(errors.ErrCodeMessageQueueError, "consumer closed")
)

// HandlerFunc processes one decoded event.  A returned error is logged and
// the message is still committed; the pipeline tolerates dropped triggers
// because the next snapshot fires a fresh run anyway.
type HandlerFunc func(ctx context.Context, env *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads event envelopes and dispatches them by event type.  The
// worker subscribes it to the snapshot-ready topic to trigger pipeline runs.
type Consumer struct {
	reader ReaderInterface
	logger logging.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	running atomic.Bool
	closed  atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewConsumer builds a group consumer over the given topics.
func NewConsumer(cfg config.KafkaConfig, topics []string, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "kafka brokers required")
	}
	if len(topics) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "topics required")
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
		MaxWait:     time.Second,
	})
	return &Consumer{
		reader:   reader,
		logger:   log.Named("kafka_consumer"),
		handlers: make(map[string]HandlerFunc),
	}, nil
}

// NewConsumerWithReader wraps an existing reader, for tests.
func NewConsumerWithReader(r ReaderInterface, log logging.Logger) *Consumer {
	return &Consumer{
		reader:   r,
		logger:   log.Named("kafka_consumer"),
		handlers: make(map[string]HandlerFunc),
	}
}

// Subscribe registers the handler for an event type.  Later registrations
// replace earlier ones.
func (c *Consumer) Subscribe(eventType string, h HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[eventType] = h
}

// Start launches the consume loop.  It returns immediately; processing runs
// until the context is cancelled or Close is called.
func (c *Consumer) Start(ctx context.Context) error {
	if c.closed.Load() {
		return ErrConsumerClosed
	}
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consumeLoop(runCtx)
	}()
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetching message failed", logging.Err(err))
			return
		}

		c.dispatch(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("committing offset failed", logging.Err(err),
				logging.String("topic", msg.Topic))
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, msg kafka.Message) {
	env, err := DecodeEnvelope(msg.Value)
	if err != nil {
		c.logger.Warn("skipping undecodable message", logging.Err(err),
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset))
		return
	}

	c.mu.RLock()
	handler, ok := c.handlers[env.EventType]
	c.mu.RUnlock()
	if !ok {
		c.logger.Debug("no handler for event type",
			logging.String("event_type", env.EventType))
		return
	}

	if err := handler(ctx, env); err != nil {
		c.logger.Error("event handler failed", logging.Err(err),
			logging.String("event_type", env.EventType),
			logging.String("event_id", env.EventID))
	}
}

// Close stops the consume loop and closes the reader.
func (c *Consumer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed")
	return err
}
