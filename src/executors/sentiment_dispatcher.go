package executors

import (
	"context"

	"sentimentpipeline/src/broker"
	"sentimentpipeline/src/matching"
	"sentimentpipeline/src/metrics"
	"sentimentpipeline/src/model"
	"sentimentpipeline/src/schema"
	"sentimentpipeline/src/scorer"

	amqp "github.com/rabbitmq/amqp091-go"
	logger "github.com/sirupsen/logrus"
)

const dispatcherComponent = "sentiment_dispatcher"

// SentimentDispatcher consumes raw news, matches instruments, scores
// the text through the fallback chain and publishes one signal per
// matched instrument.
type SentimentDispatcher struct {
	Scorer  scorer.Scorer
	Matcher matching.Matcher
	Broker  Publisher

	Log *logger.Entry
}

func (d *SentimentDispatcher) log() *logger.Entry {
	if d.Log == nil {
		d.Log = logger.WithField("component", dispatcherComponent)
	}
	return d.Log
}

// Handle processes one raw_news_data delivery.
//
// Validation failures are dropped rather than requeued so a malformed
// article cannot loop forever; scorer failures are requeued up to the
// broker's attempt bound. A missing signal is preferable to a crashed
// pipeline.
func (d *SentimentDispatcher) Handle(ctx context.Context, delivery amqp.Delivery) broker.Verdict {
	article, err := schema.DecodeNews(delivery.Body)
	if err != nil {
		d.log().WithError(err).Warn("dropping unprocessable news message")
		return broker.RejectDrop
	}

	pairs := d.Matcher.Match(article.Title, article.Body)
	if len(pairs) == 0 {
		return broker.Ack
	}

	text := article.Title
	if article.Body != "" {
		text = article.Title + "\n\n" + article.Body
	}

	result, err := d.Scorer.Score(ctx, text)
	if err != nil {
		d.log().WithError(err).WithField("headline", article.Title).Warn("scoring failed, requeueing")
		metrics.ScoringFailures.Inc()
		return broker.RejectRequeue
	}

	for _, pair := range pairs {
		signal := model.SentimentSignalMessage{
			Timestamp:  article.Timestamp,
			Pair:       pair,
			Score:      result.Value,
			Headline:   article.Title,
			Source:     article.Source,
			Confidence: result.Confidence,
			Model:      result.Model,
		}

		// no code path may publish a message bypassing validation
		if err := schema.ValidateSignal(signal); err != nil {
			d.log().WithError(err).WithField("pair", pair).Error("scorer produced invalid signal, skipping")
			continue
		}

		if err := d.Broker.Publish(ctx, broker.QueueSentimentSignals, signal); err != nil {
			// a redelivery may duplicate already published pairs;
			// the cache overwrite absorbs the duplicates
			d.log().WithError(err).WithField("pair", pair).Warn("signal publish failed, requeueing article")
			return broker.RejectRequeue
		}
		metrics.SignalsPublished.WithLabelValues(pair, result.Model).Inc()
	}

	return broker.Ack
}
