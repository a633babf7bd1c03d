package rabbitmq

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Handler processes one delivery body. Returning nil acknowledges the
// message; wrapping ErrPermanentFailure dead-letters it; any other error
// requeues it for broker-driven redelivery until the attempt bound.
type Handler func(ctx context.Context, body []byte) error

// Consumer is the long-lived manual-ack loop. One failing message never
// blocks the stream: every failure is handled at message granularity and
// the loop moves on.
type Consumer struct {
	conn     *Connection
	cfg      Config
	handler  Handler
	attempts *attemptTracker
	m        *metrics
	log      *logrus.Entry
}

func NewConsumer(conn *Connection, cfg Config, handler Handler, log *logrus.Entry) *Consumer {
	return &Consumer{
		conn:     conn,
		cfg:      cfg,
		handler:  handler,
		attempts: newAttemptTracker(),
		m:        getMetrics(),
		log:      log,
	}
}

// Run consumes until ctx is canceled or the channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	ch, err := c.conn.conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := declareTopology(ch, c.cfg); err != nil {
		return err
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.ConsumeWithContext(ctx, c.cfg.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}
	c.log.WithField("queue", c.cfg.QueueName).Info("consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	key := deliveryKey(d)
	log := c.log.WithFields(logrus.Fields{
		"message_id":  d.MessageId,
		"redelivered": d.Redelivered,
	})

	start := time.Now()
	err := c.handler(ctx, d.Body)
	latency := time.Since(start)

	if err == nil {
		c.attempts.reset(key)
		c.m.observe("ack", latency)
		if ackErr := d.Ack(false); ackErr != nil {
			log.WithError(ackErr).Warn("consumer: ack failed, message will be redelivered")
		}
		return
	}

	if errors.Is(err, ErrPermanentFailure) {
		c.attempts.reset(key)
		c.m.observe("dead", latency)
		log.WithError(err).Error("consumer: permanent failure, dead-lettering message")
		if rejErr := d.Reject(false); rejErr != nil {
			log.WithError(rejErr).Warn("consumer: reject failed")
		}
		return
	}

	n := c.attempts.inc(key)
	if n >= c.cfg.MaxRedeliveries {
		c.attempts.reset(key)
		c.m.observe("dead", latency)
		log.WithError(err).WithField("attempts", n).Error("consumer: attempt bound reached, dead-lettering message")
		if rejErr := d.Reject(false); rejErr != nil {
			log.WithError(rejErr).Warn("consumer: reject failed")
		}
		return
	}

	c.m.observe("requeue", latency)
	log.WithError(err).WithField("attempts", n).Warn("consumer: processing failed, requeueing")
	if nackErr := d.Nack(false, true); nackErr != nil {
		log.WithError(nackErr).Warn("consumer: nack failed")
	}
}

func deliveryKey(d amqp.Delivery) string {
	if d.MessageId != "" {
		return d.MessageId
	}
	return string(d.Body)
}
