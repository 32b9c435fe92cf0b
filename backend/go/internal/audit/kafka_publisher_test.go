package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiben-mcp/backend/go/internal/config"
	"tiben-mcp/backend/go/internal/models"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Record(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w}

	entry := &models.ToolCallLogEntry{
		ServiceName: "tiben-mcp",
		TraceID:     "trace-1",
		Tool:        "find_similar_problems",
		Outcome:     "upstream_error",
		Error:       &models.ErrorInfo{Message: "Backend API error: 500 - boom", Type: "upstream_error"},
		DurationMS:  12,
	}
	require.NoError(t, p.Record(context.Background(), entry))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "trace-1", string(w.msgs[0].Key))

	var got models.ToolCallLogEntry
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, *entry, got)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := &KafkaPublisher{writer: &fakeWriter{err: errors.New("broker down")}}
	err := p.Record(context.Background(), &models.ToolCallLogEntry{TraceID: "t"})
	assert.ErrorContains(t, err, "broker down")
}

func TestNewSink(t *testing.T) {
	sink, err := NewSink(config.AuditConfig{})
	require.NoError(t, err)
	assert.IsType(t, NopSink{}, sink)

	_, err = NewSink(config.AuditConfig{Kafka: config.KafkaConfig{Enabled: true, Topic: "t"}})
	assert.Error(t, err)

	sink, err = NewSink(config.AuditConfig{Kafka: config.KafkaConfig{Enabled: true, Brokers: []string{"localhost:9092"}, Topic: "t"}})
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, sink)
	assert.NoError(t, sink.Close())
}
