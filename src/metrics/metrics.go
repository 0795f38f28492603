// Package metrics registers the pipeline's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CandlesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "candles_published_total", Help: "Valid candles published to raw_market_data"},
		[]string{"pair"},
	)
	CandlesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "candles_rejected_total", Help: "Candles dropped by schema validation"},
	)
	ArticlesPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "articles_published_total", Help: "Articles published to raw_news_data"},
		[]string{"source"},
	)
	ArticlesDeduplicated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "articles_deduplicated_total", Help: "Articles skipped as recent duplicates"},
		[]string{"source"},
	)
	ArticlesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "articles_rejected_total", Help: "Articles dropped by schema validation"},
		[]string{"source"},
	)
	SignalsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_published_total", Help: "Sentiment signals published per instrument and model"},
		[]string{"pair", "model"},
	)
	SignalsCached = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_cached_total", Help: "Sentiment entries written to the cache"},
		[]string{"pair"},
	)
	ScoringFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scoring_failures_total", Help: "News messages whose entire scorer chain failed"},
	)
	FeedFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "feed_failures_total", Help: "Failed feed poll rounds"},
		[]string{"feed"},
	)
)

func init() {
	prometheus.MustRegister(
		CandlesPublished,
		CandlesRejected,
		ArticlesPublished,
		ArticlesDeduplicated,
		ArticlesRejected,
		SignalsPublished,
		SignalsCached,
		ScoringFailures,
		FeedFailures,
	)
}
