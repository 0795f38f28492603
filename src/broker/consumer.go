package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	logger "github.com/sirupsen/logrus"
)

// Verdict is a handler's decision for one delivery.
type Verdict int

const (
	// Ack confirms successful processing.
	Ack Verdict = iota
	// RejectRequeue redelivers after a transient failure, up to the
	// configured attempt bound.
	RejectRequeue
	// RejectDrop discards permanently failed messages (validation
	// failures, malformed payloads) so they cannot poison the queue.
	RejectDrop
)

// Handler processes one delivery. Handlers run concurrently up to the
// prefetch count and must be safe to run in parallel.
type Handler func(ctx context.Context, d amqp.Delivery) Verdict

// attemptsHeader tracks how many times a message has been handed to a
// consumer. Requeues republish with this header bumped; the broker's
// own requeue flag cannot bound the count.
const attemptsHeader = "x-attempts"

// Consume delivers messages from queue to handler until ctx is
// cancelled, reconnecting with backoff when the connection drops.
// Unacknowledged in-flight messages are redelivered by the broker after
// reconnect (at-least-once).
func (c *Client) Consume(ctx context.Context, queue string, handler Handler) error {
	for {
		err := c.consumeOnce(ctx, queue, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.WithError(err).WithField("queue", queue).Warn("consumer interrupted, reconnecting")
		if derr := c.dial(ctx); derr != nil {
			return derr
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, queue string, handler Handler) error {
	conn, _, err := c.live(ctx)
	if err != nil {
		return err
	}

	// Consuming gets a dedicated channel; Qos applies per channel.
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	logger.WithFields(logger.Fields{
		"queue":    queue,
		"prefetch": c.cfg.Prefetch,
	}).Info("consumer started")

	// Bounded-concurrent dispatch: at most prefetch handlers in
	// flight, which the broker already guarantees via Qos. The
	// WaitGroup lets in-flight handlers finish on shutdown.
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			wg.Add(1)
			go func(d amqp.Delivery) {
				defer wg.Done()
				verdict := handler(ctx, d)
				c.settle(ctx, queue, d, verdict)
			}(d)
		}
	}
}

func (c *Client) settle(ctx context.Context, queue string, d amqp.Delivery, verdict Verdict) {
	settle(ctx, queue, d, verdict, c.cfg.MaxMessageAttempts, c.republish)
}

// settle applies a verdict. Requeues are implemented as
// republish-with-bumped-attempts followed by an ack of the original, so
// the attempt count survives broker restarts; if the republish itself
// fails the original is nacked back to the broker to preserve
// at-least-once delivery.
func settle(ctx context.Context, queue string, d amqp.Delivery, verdict Verdict, maxAttempts int,
	republish func(ctx context.Context, queue string, d amqp.Delivery, attempts int32) error) {

	switch verdict {
	case Ack:
		if err := d.Ack(false); err != nil {
			logger.WithError(err).WithField("queue", queue).Warn("ack failed")
		}

	case RejectDrop:
		logger.WithFields(logger.Fields{
			"queue":      queue,
			"message_id": d.MessageId,
		}).Warn("dropping message after permanent failure")
		if err := d.Nack(false, false); err != nil {
			logger.WithError(err).WithField("queue", queue).Warn("nack failed")
		}

	case RejectRequeue:
		attempts := deliveryAttempts(d)
		if int(attempts) >= maxAttempts {
			logger.WithFields(logger.Fields{
				"queue":      queue,
				"message_id": d.MessageId,
				"attempts":   attempts,
			}).Error("poison message dropped after exhausting attempts")
			if err := d.Nack(false, false); err != nil {
				logger.WithError(err).WithField("queue", queue).Warn("nack failed")
			}
			return
		}

		if err := republish(ctx, queue, d, attempts+1); err != nil {
			logger.WithError(err).WithField("queue", queue).Warn("requeue republish failed, returning message to broker")
			if err := d.Nack(false, true); err != nil {
				logger.WithError(err).WithField("queue", queue).Warn("nack failed")
			}
			return
		}
		if err := d.Ack(false); err != nil {
			logger.WithError(err).WithField("queue", queue).Warn("ack after requeue failed")
		}
	}
}

func (c *Client) republish(ctx context.Context, queue string, d amqp.Delivery, attempts int32) error {
	headers := amqp.Table{}
	for k, v := range d.Headers {
		headers[k] = v
	}
	headers[attemptsHeader] = attempts

	return c.publishBody(ctx, queue, amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    time.Now().UTC(),
		Headers:      headers,
		Body:         d.Body,
	})
}

// deliveryAttempts reads the attempt counter, counting the current
// delivery as the first.
func deliveryAttempts(d amqp.Delivery) int32 {
	v, ok := d.Headers[attemptsHeader]
	if !ok {
		return 1
	}
	switch n := v.(type) {
	case int32:
		return n
	case int64:
		return int32(n)
	case int:
		return int32(n)
	default:
		return 1
	}
}
