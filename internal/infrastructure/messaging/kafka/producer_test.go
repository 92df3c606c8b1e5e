package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

type fakeWriter struct {
	messages []kafka.Message
	writeErr error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishWritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())

	env, err := NewEventEnvelope(EventSnapshotReady, "test", SnapshotReadyPayload{
		SnapshotID:  "snap-1",
		RecordCount: 42,
		ReadyAt:     time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), TopicSnapshotReady, []byte("snap-1"), env))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicSnapshotReady, msg.Topic)
	assert.Equal(t, []byte("snap-1"), msg.Key)

	decoded, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, EventSnapshotReady, decoded.EventType)
	assert.Equal(t, "v1", decoded.SchemaVersion)

	var payload SnapshotReadyPayload
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, "snap-1", payload.SnapshotID)
	assert.Equal(t, 42, payload.RecordCount)

	assert.Equal(t, int64(1), p.Sent())
}

func TestProducer_PublishAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, logging.NewNopLogger())
	require.NoError(t, p.Close())
	assert.True(t, w.closed)

	env, err := NewEventEnvelope(EventSnapshotReady, "test", SnapshotReadyPayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), TopicSnapshotReady, nil, env), ErrProducerClosed)
}

func TestEventPublisher_LeadGenerated(t *testing.T) {
	w := &fakeWriter{}
	ep := NewEventPublisher(NewProducerWithWriter(w, logging.NewNopLogger()))

	l := &lead.Lead{
		ID:        common.NewID(),
		RunID:     common.NewID(),
		AccountID: "ACME",
		Type:      leadtypes.TypeRenewal,
		Priority:  leadtypes.PriorityHigh,
		Overall:   68.5,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, ep.LeadGenerated(context.Background(), l))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicLeadGenerated, msg.Topic)
	assert.Equal(t, []byte("ACME"), msg.Key)

	env, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, EventLeadGenerated, env.EventType)

	var payload LeadGeneratedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, string(l.ID), payload.LeadID)
	assert.Equal(t, "renewal", payload.LeadType)
	assert.Equal(t, "HIGH", payload.Priority)
	assert.Equal(t, 68.5, payload.Overall)
}

func TestEventPublisher_RunCompleted(t *testing.T) {
	w := &fakeWriter{}
	ep := NewEventPublisher(NewProducerWithWriter(w, logging.NewNopLogger()))

	run := lead.NewRun(100, 12, time.Now().UTC())
	run.Complete(nil, nil, time.Now().UTC())
	require.NoError(t, ep.RunCompleted(context.Background(), run))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicRunCompleted, msg.Topic)
	assert.Equal(t, []byte(run.ID), msg.Key)

	env, err := DecodeEnvelope(msg.Value)
	require.NoError(t, err)

	var payload RunCompletedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, string(run.ID), payload.RunID)
	assert.Equal(t, "completed", payload.Status)
	assert.NotNil(t, payload.FinishedAt)
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	_, err := DecodeEnvelope(nil)
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte("{not json"))
	assert.Error(t, err)
}

func TestDecodePayload_Empty(t *testing.T) {
	env := &EventEnvelope{Payload: json.RawMessage("null")}
	var payload SnapshotReadyPayload
	assert.Error(t, env.DecodePayload(&payload))
}
