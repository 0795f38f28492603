package executors

import (
	"fmt"
	"time"

	"sentimentpipeline/src/backoff"

	"github.com/kelseyhightower/envconfig"
)

type MarketIngestorConfig struct {
	Pairs       []string      `envconfig:"MARKET_PAIRS" default:"BTC/USDT,ETH/USDT"`
	PollPeriod  time.Duration `envconfig:"MARKET_POLL_PERIOD" default:"1m"`
	CandleLimit int           `envconfig:"MARKET_CANDLE_LIMIT" default:"60"`
	Lookback    time.Duration `envconfig:"MARKET_LOOKBACK" default:"1h"`
	Stream      bool          `envconfig:"MARKET_STREAM" default:"false"`

	FeedRetryBaseDelay   time.Duration `envconfig:"FEED_RETRY_BASE_DELAY" default:"1s"`
	FeedRetryMultiplier  float64       `envconfig:"FEED_RETRY_MULTIPLIER" default:"2"`
	FeedRetryMaxDelay    time.Duration `envconfig:"FEED_RETRY_MAX_DELAY" default:"30s"`
	FeedRetryMaxAttempts int           `envconfig:"FEED_RETRY_MAX_ATTEMPTS" default:"4"`
}

func GetMarketIngestorConfig() MarketIngestorConfig {
	var config MarketIngestorConfig
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

func (c MarketIngestorConfig) FeedRetryPolicy() backoff.Policy {
	return backoff.Policy{
		BaseDelay:   c.FeedRetryBaseDelay,
		Multiplier:  c.FeedRetryMultiplier,
		MaxDelay:    c.FeedRetryMaxDelay,
		MaxAttempts: c.FeedRetryMaxAttempts,
	}
}

type NewsIngestorConfig struct {
	// Feeds maps a whitelisted source name to its feed endpoint.
	Feeds map[string]string `envconfig:"NEWS_FEEDS" default:"coindesk:https://www.coindesk.com/feed/articles.json,cointelegraph:https://cointelegraph.com/feed/articles.json"`
	PollPeriod    time.Duration `envconfig:"NEWS_POLL_PERIOD" default:"2m"`
	FetchTimeout  time.Duration `envconfig:"NEWS_FETCH_TIMEOUT" default:"15s"`
	DedupCapacity int           `envconfig:"NEWS_DEDUP_CAPACITY" default:"10000"`

	FeedRetryBaseDelay   time.Duration `envconfig:"FEED_RETRY_BASE_DELAY" default:"1s"`
	FeedRetryMultiplier  float64       `envconfig:"FEED_RETRY_MULTIPLIER" default:"2"`
	FeedRetryMaxDelay    time.Duration `envconfig:"FEED_RETRY_MAX_DELAY" default:"30s"`
	FeedRetryMaxAttempts int           `envconfig:"FEED_RETRY_MAX_ATTEMPTS" default:"4"`
}

func GetNewsIngestorConfig() NewsIngestorConfig {
	var config NewsIngestorConfig
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

func (c NewsIngestorConfig) FeedRetryPolicy() backoff.Policy {
	return backoff.Policy{
		BaseDelay:   c.FeedRetryBaseDelay,
		Multiplier:  c.FeedRetryMultiplier,
		MaxDelay:    c.FeedRetryMaxDelay,
		MaxAttempts: c.FeedRetryMaxAttempts,
	}
}

type DispatcherConfig struct {
	// BackendURLs maps whitelisted scorer model ids to their
	// endpoints, tried in ScorerOrder.
	BackendURLs  map[string]string `envconfig:"SCORER_BACKEND_URLS" default:"finbert:http://localhost:8001,distilbert:http://localhost:8002,remote-llm:http://localhost:8003"`
	ScorerOrder  []string          `envconfig:"SCORER_ORDER" default:"finbert,distilbert,remote-llm"`
	ScoreTimeout time.Duration     `envconfig:"SCORER_TIMEOUT" default:"10s"`
}

func GetDispatcherConfig() DispatcherConfig {
	var config DispatcherConfig
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
