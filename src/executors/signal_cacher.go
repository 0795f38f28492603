package executors

import (
	"context"
	"errors"

	"sentimentpipeline/src/broker"
	"sentimentpipeline/src/cache"
	"sentimentpipeline/src/metrics"
	"sentimentpipeline/src/model"
	"sentimentpipeline/src/schema"

	amqp "github.com/rabbitmq/amqp091-go"
	logger "github.com/sirupsen/logrus"
)

const cacherComponent = "signal_cacher"

// SignalStore is the slice of the cache client the cacher uses.
type SignalStore interface {
	SetSignal(ctx context.Context, pair string, entry model.SentimentEntry) error
	GetSignal(ctx context.Context, pair string) (*model.SentimentEntry, error)
}

// SignalArchiver persists the append-only signal history.
type SignalArchiver interface {
	Insert(ctx context.Context, sig model.SentimentSignalMessage) error
}

// SignalCacher consumes sentiment signals and writes the latest one
// per instrument into the cache.
type SignalCacher struct {
	Store   SignalStore
	Archive SignalArchiver // optional

	Log *logger.Entry
}

func (c *SignalCacher) log() *logger.Entry {
	if c.Log == nil {
		c.Log = logger.WithField("component", cacherComponent)
	}
	return c.Log
}

// Handle processes one sentiment_signals delivery.
//
// A signal older than the entry already cached for its pair is
// acknowledged without writing, so a delayed redelivery cannot roll
// the cache backwards. Signals with the same timestamp overwrite:
// last delivered wins.
func (c *SignalCacher) Handle(ctx context.Context, delivery amqp.Delivery) broker.Verdict {
	sig, err := schema.DecodeSignal(delivery.Body)
	if err != nil {
		c.log().WithError(err).Warn("dropping unprocessable signal message")
		return broker.RejectDrop
	}

	existing, err := c.Store.GetSignal(ctx, sig.Pair)
	switch {
	case err == nil:
		if sig.Timestamp.Before(existing.Timestamp) {
			c.log().WithFields(logger.Fields{
				"pair":   sig.Pair,
				"signal": sig.Timestamp,
				"cached": existing.Timestamp,
			}).Debug("skipping signal older than cached entry")
			return broker.Ack
		}
	case errors.Is(err, cache.ErrNotFound):
		// first signal for this pair
	default:
		c.log().WithError(err).WithField("pair", sig.Pair).Warn("cache read failed, requeueing signal")
		return broker.RejectRequeue
	}

	if err := c.Store.SetSignal(ctx, sig.Pair, model.NewSentimentEntry(*sig)); err != nil {
		c.log().WithError(err).WithField("pair", sig.Pair).Warn("cache write failed, requeueing signal")
		return broker.RejectRequeue
	}
	metrics.SignalsCached.WithLabelValues(sig.Pair).Inc()

	if c.Archive != nil {
		// history is best effort; the cache write already succeeded
		if err := c.Archive.Insert(ctx, *sig); err != nil {
			c.log().WithError(err).WithField("pair", sig.Pair).Warn("signal archive insert failed")
		}
	}

	return broker.Ack
}
