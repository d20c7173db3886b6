package kafka

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/edgarlens/edgarlens/pkg/errors"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	written   []kafka.Message
	closed    bool
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.written = append(m.written, msgs...)
	if m.writeFunc != nil {
		return m.writeFunc(ctx, msgs...)
	}
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closed = true
	return nil
}

func (m *mockKafkaWriter) Stats() kafka.WriterStats { return kafka.WriterStats{} }

func newTestProducer(w WriterInterface) *Producer {
	return &Producer{
		writer:  w,
		config:  ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 1024 * 1024},
		logger:  logging.NewNopLogger(),
		metrics: &ProducerMetrics{},
	}
}

func alertMessage() *ProducerMessage {
	return &ProducerMessage{
		Topic: TopicAlerts,
		Key:   []byte("nikola"),
		Value: []byte(`{"alert_type":"filing_signal"}`),
		Headers: map[string]string{
			"event_type": EventAlertRaised,
		},
	}
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
}

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Publish(context.Background(), alertMessage()))
	require.Len(t, w.written, 1)

	sent := w.written[0]
	assert.Equal(t, TopicAlerts, sent.Topic)
	assert.Equal(t, []byte("nikola"), sent.Key)
	assert.False(t, sent.Time.IsZero())
	require.Len(t, sent.Headers, 1)
	assert.Equal(t, "event_type", sent.Headers[0].Key)

	assert.Equal(t, int64(1), p.GetMetrics().MessagesSent)
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, &ProducerMessage{Value: []byte("v")}))
	assert.Error(t, p.Publish(ctx, &ProducerMessage{Topic: TopicAlerts}))

	big := &ProducerMessage{Topic: TopicAlerts, Value: make([]byte, 2*1024*1024)}
	assert.Error(t, p.Publish(ctx, big))
}

func TestPublish_WriterError(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return assert.AnError
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), alertMessage())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrCodeMessageQueue, pkgerrors.GetCode(err))
	assert.Equal(t, int64(1), p.GetMetrics().MessagesFailed)
}

func TestPublish_AfterClose(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), alertMessage()), ErrProducerClosed)

	// Close is idempotent.
	assert.NoError(t, p.Close())
}

func TestPublishBatch_PartialFailure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return kafka.WriteErrors{nil, assert.AnError, nil}
	}}
	p := newTestProducer(w)

	msgs := []*ProducerMessage{alertMessage(), alertMessage(), alertMessage()}
	res, err := p.PublishBatch(context.Background(), msgs)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
}

func TestPublishBatch_TotalFailure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return assert.AnError
	}}
	p := newTestProducer(w)

	res, err := p.PublishBatch(context.Background(), []*ProducerMessage{alertMessage(), alertMessage()})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Succeeded)
	assert.Equal(t, 2, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, -1, res.Errors[0].Index)
}

func TestPublishBatch_Empty(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	_, err := p.PublishBatch(context.Background(), nil)
	assert.Error(t, err)
}
