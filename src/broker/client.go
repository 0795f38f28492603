// Package broker wraps the AMQP message broker used between pipeline
// stages: durable queues, at-least-once delivery, bounded channel
// pooling and reconnect with exponential backoff.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"sentimentpipeline/src/backoff"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	logger "github.com/sirupsen/logrus"
)

// ErrBrokerUnavailable is returned once connection retries are
// exhausted. Callers decide whether that is fatal for them.
var ErrBrokerUnavailable = errors.New("broker unavailable")

type Client struct {
	cfg Config

	mu   sync.Mutex
	conn *amqp.Connection
	pool *channelPool
}

// Connect dials the broker, retrying with exponential backoff. On
// exhaustion it surfaces ErrBrokerUnavailable instead of retrying
// forever.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	c := &Client{cfg: cfg}
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) dial(ctx context.Context) error {
	err := backoff.Retry(ctx, c.cfg.RetryPolicy(), func() error {
		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			logger.WithError(err).Warn("broker dial failed, will retry")
			return err
		}

		c.mu.Lock()
		if c.pool != nil {
			c.pool.close()
		}
		c.conn = conn
		c.pool = newChannelPool(conn, c.cfg.ChannelPoolSize)
		c.mu.Unlock()

		logger.WithField("url", redactURL(c.cfg.URL)).Info("broker connection established")
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	return nil
}

// live returns the current connection and pool, redialing first if the
// connection has been lost.
func (c *Client) live(ctx context.Context) (*amqp.Connection, *channelPool, error) {
	c.mu.Lock()
	conn, pool := c.conn, c.pool
	c.mu.Unlock()

	if conn != nil && !conn.IsClosed() {
		return conn, pool, nil
	}

	logger.Warn("broker connection lost, reconnecting")
	if err := c.dial(ctx); err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn, c.pool, nil
}

// DeclareQueue idempotently declares a durable queue that survives
// broker restarts.
func (c *Client) DeclareQueue(ctx context.Context, name string) error {
	_, pool, err := c.live(ctx)
	if err != nil {
		return err
	}

	ch, err := pool.get(ctx)
	if err != nil {
		return err
	}

	_, err = ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		pool.discard(ch)
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	pool.put(ch)
	return nil
}

// Publish serializes message to JSON and publishes it persistently to
// queue. It returns an error if the broker is unreachable; the caller
// decides between retry and drop based on criticality.
func (c *Client) Publish(ctx context.Context, queue string, message any) error {
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message for %s: %w", queue, err)
	}
	return c.publishBody(ctx, queue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (c *Client) publishBody(ctx context.Context, queue string, pub amqp.Publishing) error {
	_, pool, err := c.live(ctx)
	if err != nil {
		return err
	}

	ch, err := pool.get(ctx)
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		pool.discard(ch)
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	pool.put(ch)
	return nil
}

// Close shuts the pooled channels and the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pool != nil {
		c.pool.close()
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}
	return nil
}

// redactURL hides credentials in connection logs.
func redactURL(raw string) string {
	u, err := amqp.ParseURI(raw)
	if err != nil {
		return "amqp://<unparsed>"
	}
	return fmt.Sprintf("amqp://%s:%d%s", u.Host, u.Port, u.Vhost)
}
