package rabbitmq

import (
	"context"

	"github.com/pkg/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Publisher publishes persistent messages to the durable queue using
// publisher confirms. A channel is opened and closed per call, matching
// the low publish volume of the ingestion boundary; what matters is the
// confirm, not channel reuse.
type Publisher struct {
	conn *Connection
	cfg  Config
	log  *logrus.Entry
}

func NewPublisher(conn *Connection, cfg Config, log *logrus.Entry) *Publisher {
	return &Publisher{conn: conn, cfg: cfg, log: log}
}

// Publish sends one message. messageID carries the registration's event id
// so the consumer can track redelivery attempts per message.
func (p *Publisher) Publish(ctx context.Context, body []byte, messageID string) error {
	ch, err := p.conn.conn.Channel()
	if err != nil {
		return errors.Wrap(ErrQueueUnavailable, err.Error())
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Confirm(false); err != nil {
		return errors.Wrap(ErrQueueUnavailable, err.Error())
	}
	if err := declareTopology(ch, p.cfg); err != nil {
		return errors.Wrap(ErrQueueUnavailable, err.Error())
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", p.cfg.QueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Body:         body,
	})
	if err != nil {
		return errors.Wrap(ErrQueueUnavailable, err.Error())
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return errors.Wrap(ErrQueueUnavailable, err.Error())
	}
	if !acked {
		return errors.Wrap(ErrQueueUnavailable, "broker rejected publish")
	}

	p.log.WithField("queue", p.cfg.QueueName).Debug("message published")
	return nil
}
