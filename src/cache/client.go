// Package cache wraps the low-latency key-value store holding the
// latest per-instrument sentiment entry.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sentimentpipeline/src/model"

	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no entry exists for an instrument.
var ErrNotFound = errors.New("cache entry not found")

type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New builds a pooled client and validates connectivity with a ping,
// failing fast if the store is unreachable rather than deferring the
// error to the first operation.
func New(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache unreachable at %s: %w", cfg.Addr, err)
	}

	logger.WithField("addr", cfg.Addr).Info("cache connection established")
	return &Client{rdb: rdb, ttl: cfg.EntryTTL}, nil
}

// NewWithRedis wraps an existing redis client; used by tests.
func NewWithRedis(rdb *redis.Client, ttl time.Duration) *Client {
	return &Client{rdb: rdb, ttl: ttl}
}

func signalKey(pair string) string {
	return "sentiment:" + pair
}

// SetSignal overwrites the entry for pair in a single SET, refreshing
// the TTL. The TTL only bounds cache growth; staleness for trading is
// the reader's rule.
func (c *Client) SetSignal(ctx context.Context, pair string, entry model.SentimentEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal sentiment entry: %w", err)
	}
	if err := c.rdb.Set(ctx, signalKey(pair), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", signalKey(pair), err)
	}
	return nil
}

// GetSignal returns the entry for pair or ErrNotFound.
func (c *Client) GetSignal(ctx context.Context, pair string) (*model.SentimentEntry, error) {
	data, err := c.rdb.Get(ctx, signalKey(pair)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cache get %s: %w", signalKey(pair), err)
	}

	var entry model.SentimentEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("unmarshal sentiment entry for %s: %w", pair, err)
	}
	return &entry, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
