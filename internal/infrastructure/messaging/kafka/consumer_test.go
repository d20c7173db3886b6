package kafka

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/infrastructure/monitoring/logging"
)

type mockKafkaReader struct {
	messages []kafka.Message
	pos      int
	commits  []kafka.Message
	closed   bool
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if m.pos >= len(m.messages) {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := m.messages[m.pos]
	m.pos++
	return msg, nil
}

func (m *mockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.commits = append(m.commits, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.closed = true
	return nil
}

func (m *mockKafkaReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func newTestConsumer(r ReaderInterface, cfg ConsumerConfig) *Consumer {
	return &Consumer{
		reader:   r,
		config:   cfg,
		logger:   logging.NewNopLogger(),
		handlers: make(map[string]MessageHandler),
		metrics:  &ConsumerMetrics{},
	}
}

func filingMessage(offset int64) kafka.Message {
	return kafka.Message{
		Topic:  TopicFilingReceived,
		Offset: offset,
		Key:    []byte("nikola"),
		Value:  []byte(`{"event_type":"filing.received","payload":{"company_id":"nikola"}}`),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventFilingReceived)},
		},
		Time: time.Now(),
	}
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	reader := &mockKafkaReader{messages: []kafka.Message{filingMessage(1), filingMessage(2)}}
	c := newTestConsumer(reader, ConsumerConfig{
		Brokers: []string{"b:9092"},
		GroupID: "edgarlens-worker",
	})

	var handled atomic.Int64
	c.Subscribe(TopicFilingReceived, func(ctx context.Context, msg *Message) error {
		assert.Equal(t, TopicFilingReceived, msg.Topic)
		assert.Equal(t, EventFilingReceived, msg.Headers["event_type"])
		handled.Add(1)
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	waitFor(t, func() bool { return handled.Load() == 2 })
	require.NoError(t, c.Close())

	assert.True(t, reader.closed)
	assert.Len(t, reader.commits, 2)
	assert.Equal(t, int64(2), c.GetMetrics().MessagesProcessed)
}

func TestConsumer_NoHandlerStillCommits(t *testing.T) {
	reader := &mockKafkaReader{messages: []kafka.Message{filingMessage(1)}}
	c := newTestConsumer(reader, ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "g"})

	require.NoError(t, c.Start(context.Background()))
	waitFor(t, func() bool { return c.GetMetrics().MessagesConsumed == 1 })
	require.NoError(t, c.Close())

	assert.Len(t, reader.commits, 1)
	assert.Zero(t, c.GetMetrics().MessagesProcessed)
}

func TestConsumer_RetriesThenFails(t *testing.T) {
	reader := &mockKafkaReader{messages: []kafka.Message{filingMessage(1)}}
	c := newTestConsumer(reader, ConsumerConfig{
		Brokers: []string{"b:9092"},
		GroupID: "g",
		RetryConfig: RetryConfig{
			MaxRetries:   2,
			RetryBackoff: time.Millisecond,
		},
	})

	var attempts atomic.Int64
	c.Subscribe(TopicFilingReceived, func(ctx context.Context, msg *Message) error {
		attempts.Add(1)
		return assert.AnError
	})

	require.NoError(t, c.Start(context.Background()))
	waitFor(t, func() bool { return c.GetMetrics().MessagesFailed == 1 })
	require.NoError(t, c.Close())

	// First attempt plus two retries; the offset still advances.
	assert.Equal(t, int64(3), attempts.Load())
	assert.Equal(t, int64(2), c.GetMetrics().MessagesRetried)
	assert.Len(t, reader.commits, 1)
}

func TestConsumer_RetrySucceeds(t *testing.T) {
	reader := &mockKafkaReader{messages: []kafka.Message{filingMessage(1)}}
	c := newTestConsumer(reader, ConsumerConfig{
		Brokers:     []string{"b:9092"},
		GroupID:     "g",
		RetryConfig: RetryConfig{MaxRetries: 3, RetryBackoff: time.Millisecond},
	})

	var attempts atomic.Int64
	c.Subscribe(TopicFilingReceived, func(ctx context.Context, msg *Message) error {
		if attempts.Add(1) < 2 {
			return assert.AnError
		}
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	waitFor(t, func() bool { return c.GetMetrics().MessagesProcessed == 1 })
	require.NoError(t, c.Close())

	assert.Equal(t, int64(2), attempts.Load())
}

func TestConsumer_StartTwice(t *testing.T) {
	reader := &mockKafkaReader{}
	c := newTestConsumer(reader, ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "g"})

	require.NoError(t, c.Start(context.Background()))
	assert.ErrorIs(t, c.Start(context.Background()), ErrAlreadyRunning)
	require.NoError(t, c.Close())
}

func TestValidateConsumerConfig(t *testing.T) {
	valid := ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "g"}
	assert.NoError(t, ValidateConsumerConfig(valid))

	assert.Error(t, ValidateConsumerConfig(ConsumerConfig{GroupID: "g"}))
	assert.Error(t, ValidateConsumerConfig(ConsumerConfig{Brokers: []string{"b"}}))
	assert.Error(t, ValidateConsumerConfig(ConsumerConfig{
		Brokers: []string{"b"}, GroupID: "g", AutoOffsetReset: "middle",
	}))
	assert.Error(t, ValidateConsumerConfig(ConsumerConfig{
		Brokers: []string{"b"}, GroupID: "g", SASLEnabled: true,
	}))
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
