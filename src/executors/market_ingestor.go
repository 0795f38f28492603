// Package executors holds the four long-lived pipeline components.
// Components share nothing except the broker and the cache; each runs
// its own loop against a shutdown context.
package executors

import (
	"context"
	"time"

	"sentimentpipeline/src/backoff"
	"sentimentpipeline/src/broker"
	"sentimentpipeline/src/metrics"
	"sentimentpipeline/src/model"
	"sentimentpipeline/src/ops"
	"sentimentpipeline/src/repository"
	"sentimentpipeline/src/schema"

	logger "github.com/sirupsen/logrus"
)

// Publisher is the slice of the broker client the producers need.
type Publisher interface {
	Publish(ctx context.Context, queue string, message any) error
}

// CandleSource pulls candles from the exchange REST feed.
type CandleSource interface {
	FetchCandles(ctx context.Context, pair string, limit int, since time.Time) ([]model.RawMarketDataMessage, error)
}

// CandleStream pushes candles from the exchange websocket feed.
type CandleStream interface {
	Run(ctx context.Context, out chan<- model.RawMarketDataMessage) error
}

const marketComponent = "market_ingestor"

// MarketIngestor pulls candles, validates them and publishes the valid
// ones to raw_market_data. Invalid candles are logged and dropped so
// corrupt data never reaches the execution engine.
type MarketIngestor struct {
	Config  MarketIngestorConfig
	Source  CandleSource
	Stream  CandleStream
	Broker  Publisher
	Health  *ops.Health
	Archive *repository.CandleRepository

	Log      *logger.Entry
	lastSeen map[string]time.Time
}

func (m *MarketIngestor) Start(ctx context.Context) error {
	if m.Log == nil {
		m.Log = logger.WithField("component", marketComponent)
	}
	m.lastSeen = make(map[string]time.Time, len(m.Config.Pairs))

	if m.Config.Stream && m.Stream != nil {
		return m.runStream(ctx)
	}
	return m.runPoll(ctx)
}

func (m *MarketIngestor) runPoll(ctx context.Context) error {
	m.Log.WithField("pairs", m.Config.Pairs).Info("market ingestor polling")

	ticker := time.NewTicker(m.Config.PollPeriod)
	defer ticker.Stop()

	m.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			m.Log.Info("market ingestor stopped")
			return nil
		case <-ticker.C:
			m.pollOnce(ctx)
		}
	}
}

func (m *MarketIngestor) runStream(ctx context.Context) error {
	m.Log.WithField("pairs", m.Config.Pairs).Info("market ingestor streaming")

	candles := make(chan model.RawMarketDataMessage, 64)

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.Stream.Run(ctx, candles)
	}()

	for {
		select {
		case <-ctx.Done():
			m.Log.Info("market ingestor stopped")
			return nil
		case err := <-errCh:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case candle := <-candles:
			m.publishCandle(ctx, candle)
		}
	}
}

func (m *MarketIngestor) pollOnce(ctx context.Context) {
	for _, pair := range m.Config.Pairs {
		since := m.sinceFor(pair)

		var candles []model.RawMarketDataMessage
		err := backoff.Retry(ctx, m.Config.FeedRetryPolicy(), func() error {
			var ferr error
			candles, ferr = m.Source.FetchCandles(ctx, pair, m.Config.CandleLimit, since)
			return ferr
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// keep running degraded, never crash on a broken feed
			m.Log.WithError(err).WithField("pair", pair).Error("exchange feed failed after retries")
			metrics.FeedFailures.WithLabelValues("exchange").Inc()
			if m.Health != nil {
				m.Health.SetDegraded(marketComponent, "exchange feed unreachable")
			}
			continue
		}
		if m.Health != nil {
			m.Health.SetHealthy(marketComponent)
		}

		for _, candle := range candles {
			m.publishCandle(ctx, candle)
		}
	}
}

// sinceFor avoids refetching the whole lookback window once a pair has
// published at least one candle.
func (m *MarketIngestor) sinceFor(pair string) time.Time {
	if last, ok := m.lastSeen[pair]; ok {
		return last
	}
	return time.Now().Add(-m.Config.Lookback).UTC()
}

func (m *MarketIngestor) publishCandle(ctx context.Context, candle model.RawMarketDataMessage) {
	if err := schema.ValidateMarketData(candle); err != nil {
		m.Log.WithError(err).WithField("pair", candle.Pair).Warn("dropping invalid candle")
		metrics.CandlesRejected.Inc()
		return
	}

	if last, ok := m.lastSeen[candle.Pair]; ok && !candle.Timestamp.After(last) {
		return
	}

	err := backoff.Retry(ctx, m.Config.FeedRetryPolicy(), func() error {
		return m.Broker.Publish(ctx, broker.QueueRawMarketData, candle)
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.Log.WithError(err).WithField("pair", candle.Pair).Error("failed to publish candle after retries")
		if m.Health != nil {
			m.Health.SetDegraded(marketComponent, "broker publish failing")
		}
		return
	}

	m.lastSeen[candle.Pair] = candle.Timestamp
	metrics.CandlesPublished.WithLabelValues(candle.Pair).Inc()

	if m.Archive != nil {
		if err := m.Archive.Upsert(ctx, candle); err != nil {
			m.Log.WithError(err).Warn("candle archive write failed")
		}
	}
}
