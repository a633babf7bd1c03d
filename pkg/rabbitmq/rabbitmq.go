// Package rabbitmq wraps the AMQP transport used by the parcel pipeline:
// a confirm-mode publisher and a manual-ack consumer loop over a durable
// queue with a dead-letter companion.
package rabbitmq

import (
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/swiftparcel/parceld/pkg/serrors"
)

var (
	// ErrQueueUnavailable signals a publish-time transport failure. Every
	// successful Publish return corresponds to a broker-confirmed message.
	ErrQueueUnavailable = serrors.NewError("QUEUE_UNAVAILABLE", "message queue unavailable", "")

	// ErrPermanentFailure marks a message as unprocessable: it is rejected
	// without requeue and routes to the dead-letter queue instead of
	// looping through redelivery.
	ErrPermanentFailure = serrors.NewError("QUEUE_PERMANENT_FAILURE", "permanent failure processing message", "")
)

type Config struct {
	URL             string
	QueueName       string
	DeadQueueName   string
	PublishTimeout  time.Duration
	MaxRedeliveries int
	Prefetch        int
}

type Connection struct {
	conn *amqp.Connection
}

func Dial(url string) (*Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &Connection{conn: conn}, nil
}

func (c *Connection) Close() error {
	return c.conn.Close()
}

// declareTopology declares the durable main queue and its dead-letter
// companion. Declaration is idempotent; publisher and consumer both call
// it so either side can start first.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	if _, err := ch.QueueDeclare(cfg.DeadQueueName, true, false, false, false, nil); err != nil {
		return err
	}
	args := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.DeadQueueName,
	}
	_, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, args)
	return err
}
