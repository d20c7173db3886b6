package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgarlens/edgarlens/internal/application/alert"
	pkgerrors "github.com/edgarlens/edgarlens/pkg/errors"
)

func sampleRaisedAlert() alert.Alert {
	return alert.Alert{
		ID:              "a-1",
		EntityID:        "0001326801",
		AlertType:       alert.TypeFilingSignal,
		Severity:        alert.SeverityCritical,
		Title:           "Critical filing signal",
		AccessionNumber: "0001326801-24-000012",
		CreatedAt:       time.Date(2024, 3, 1, 16, 30, 0, 0, time.UTC),
	}
}

func TestAlertPublisher_Publish(t *testing.T) {
	writer := &mockKafkaWriter{}
	pub := NewAlertPublisher(newTestProducer(writer))

	require.NoError(t, pub.Publish(context.Background(), sampleRaisedAlert()))
	require.Len(t, writer.written, 1)

	sent := writer.written[0]
	assert.Equal(t, TopicAlerts, sent.Topic)
	assert.Equal(t, []byte("0001326801"), sent.Key)

	env, err := MessageToEventEnvelope(&Message{Topic: sent.Topic, Value: sent.Value})
	require.NoError(t, err)
	assert.Equal(t, EventAlertRaised, env.EventType)

	var got alert.Alert
	require.NoError(t, env.DecodePayload(&got))
	assert.Equal(t, "a-1", got.ID)
	assert.Equal(t, alert.SeverityCritical, got.Severity)
}

func TestAlertPublisher_ProducerFailure(t *testing.T) {
	writer := &mockKafkaWriter{
		writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
			return assert.AnError
		},
	}
	pub := NewAlertPublisher(newTestProducer(writer))

	err := pub.Publish(context.Background(), sampleRaisedAlert())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrCodeAlertPublishFailed, pkgerrors.GetCode(err))
}
