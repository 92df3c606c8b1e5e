// Package kafka carries the engine's event plumbing: snapshot-ready triggers
// consumed by the worker, and lead/run events published after each pipeline
// run.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

const (
	// TopicSnapshotReady signals that a fresh install-base snapshot has
	// landed and the pipeline should run.
	TopicSnapshotReady = "inventory.snapshot.ready"
	// TopicLeadGenerated carries one event per lead produced by a run.
	TopicLeadGenerated = "lead.generated"
	// TopicRunCompleted carries the run summary once a batch finishes.
	TopicRunCompleted = "pipeline.completed"
)

// Event types carried inside envelopes.
const (
	EventSnapshotReady = "snapshot.ready"
	EventLeadGenerated = "lead.generated"
	EventRunCompleted  = "run.completed"
)

// EventEnvelope standardizes event messages across topics.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// SnapshotReadyPayload triggers a pipeline run.
type SnapshotReadyPayload struct {
	SnapshotID  string    `json:"snapshot_id"`
	RecordCount int       `json:"record_count"`
	RequestedBy string    `json:"requested_by,omitempty"`
	ReadyAt     time.Time `json:"ready_at"`
}

// LeadGeneratedPayload summarizes one lead for downstream consumers (CRM
// sync, notification fan-out).
type LeadGeneratedPayload struct {
	LeadID      string    `json:"lead_id"`
	RunID       string    `json:"run_id"`
	AccountID   string    `json:"account_id"`
	LeadType    string    `json:"lead_type"`
	Priority    string    `json:"priority"`
	Overall     float64   `json:"overall"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RunCompletedPayload summarizes a finished pipeline run.
type RunCompletedPayload struct {
	RunID        string     `json:"run_id"`
	Status       string     `json:"status"`
	LeadCount    int        `json:"lead_count"`
	InsightCount int        `json:"insight_count"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// NewEventEnvelope wraps a payload in a versioned envelope.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "encoding event payload")
	}
	return &EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: "v1",
		Payload:       data,
	}, nil
}

// DecodePayload unmarshals the envelope payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return errors.New(errors.ErrCodeValidation, "event payload is empty")
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "decoding event payload")
	}
	return nil
}

// DecodeEnvelope parses a raw message value into an envelope.
func DecodeEnvelope(value []byte) (*EventEnvelope, error) {
	if len(value) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "empty message value")
	}
	var env EventEnvelope
	if err := json.Unmarshal(value, &env); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding event envelope")
	}
	return &env, nil
}

// TopicConfig describes one topic to ensure at startup.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

// DefaultTopics lists the topics the engine needs, with retention tuned to
// each topic's role: triggers are short-lived, lead events feed slower CRM
// consumers.
func DefaultTopics(numPartitions int) []TopicConfig {
	if numPartitions <= 0 {
		numPartitions = 3
	}
	return []TopicConfig{
		{Name: TopicSnapshotReady, NumPartitions: numPartitions, ReplicationFactor: 1, RetentionMs: 24 * 3600 * 1000},
		{Name: TopicLeadGenerated, NumPartitions: numPartitions, ReplicationFactor: 1, RetentionMs: 7 * 24 * 3600 * 1000},
		{Name: TopicRunCompleted, NumPartitions: 1, ReplicationFactor: 1, RetentionMs: 30 * 24 * 3600 * 1000},
	}
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager creates the engine's topics when auto-creation is enabled.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker for admin operations.
func NewTopicManager(brokers []string, log logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMessageQueueError, "dialing kafka broker")
	}
	return &TopicManager{conn: conn, logger: log.Named("topic_manager")}, nil
}

// NewTopicManagerWithConn wraps an existing connection, for tests.
func NewTopicManagerWithConn(conn ConnInterface, log logging.Logger) *TopicManager {
	return &TopicManager{conn: conn, logger: log.Named("topic_manager")}
}

// EnsureTopics creates each topic, tolerating ones that already exist.
func (m *TopicManager) EnsureTopics(ctx context.Context, topics []TopicConfig) error {
	for _, t := range topics {
		if err := m.ensureTopic(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func (m *TopicManager) ensureTopic(_ context.Context, cfg TopicConfig) error {
	if cfg.Name == "" {
		return errors.New(errors.ErrCodeValidation, "topic name required")
	}
	kCfg := kafka.TopicConfig{
		Topic:             cfg.Name,
		NumPartitions:     cfg.NumPartitions,
		ReplicationFactor: cfg.ReplicationFactor,
	}
	if cfg.RetentionMs > 0 {
		kCfg.ConfigEntries = append(kCfg.ConfigEntries, kafka.ConfigEntry{
			ConfigName: "retention.ms", ConfigValue: fmt.Sprintf("%d", cfg.RetentionMs),
		})
	}

	if err := m.conn.CreateTopics(kCfg); err != nil {
		if exists, _ := m.topicExists(cfg.Name); exists {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeMessageQueueError, "creating topic "+cfg.Name)
	}
	m.logger.Info("topic ensured", logging.String("topic", cfg.Name))
	return nil
}

func (m *TopicManager) topicExists(name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, err
	}
	return len(partitions) > 0, nil
}

// Close releases the admin connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}
