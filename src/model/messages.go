package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawMarketDataMessage is one OHLCV candle as it travels on the
// raw_market_data queue. Timestamp is the candle close time.
type RawMarketDataMessage struct {
	Timestamp time.Time       `json:"timestamp"`
	Pair      string          `json:"pair"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// RawNewsMessage is one deduplicated news article on the raw_news_data
// queue. Timestamp is the publish time reported by the source.
type RawNewsMessage struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Body      string    `json:"body"`
}

// SentimentSignalMessage is one scored (article, instrument) pair on the
// sentiment_signals queue.
type SentimentSignalMessage struct {
	Timestamp  time.Time `json:"timestamp"`
	Pair       string    `json:"pair"`
	Score      float64   `json:"score"`
	Headline   string    `json:"headline"`
	Source     string    `json:"source"`
	Confidence *float64  `json:"confidence,omitempty"`
	Model      string    `json:"model"`
}

const (
	LabelBullish = "bullish"
	LabelBearish = "bearish"
	LabelNeutral = "neutral"
)

// labelBand is the score magnitude below which a signal is considered neutral.
const labelBand = 0.15

// Label maps the numeric score onto the coarse label stored in the cache.
func (m SentimentSignalMessage) Label() string {
	switch {
	case m.Score > labelBand:
		return LabelBullish
	case m.Score < -labelBand:
		return LabelBearish
	default:
		return LabelNeutral
	}
}
