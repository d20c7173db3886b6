package kafka

import (
	"context"

	"github.com/edgarlens/edgarlens/internal/application/alert"
	"github.com/edgarlens/edgarlens/pkg/errors"
)

// AlertPublisher pushes raised alerts onto the alert topic, keyed by
// entity so one entity's alerts stay ordered.
type AlertPublisher struct {
	producer *Producer
	topic    string
}

var _ alert.Publisher = (*AlertPublisher)(nil)

func NewAlertPublisher(producer *Producer) *AlertPublisher {
	return &AlertPublisher{producer: producer, topic: TopicAlerts}
}

func (p *AlertPublisher) Publish(ctx context.Context, a alert.Alert) error {
	env, err := NewEventEnvelope(EventAlertRaised, "edgarlens", a)
	if err != nil {
		return err
	}
	msg, err := env.ToMessage(p.topic)
	if err != nil {
		return err
	}
	msg.Key = []byte(a.EntityID)

	if err := p.producer.Publish(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeAlertPublishFailed, "failed to publish alert event")
	}
	return nil
}
