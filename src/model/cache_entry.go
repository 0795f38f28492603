package model

import "time"

// SentimentEntry is the per-instrument cache value under sentiment:{PAIR}.
// It is overwritten on every accepted signal; no history is kept here.
type SentimentEntry struct {
	Label     string    `json:"label"`
	Score     float64   `json:"score"`
	Headline  string    `json:"headline"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSentimentEntry builds the cache value for a validated signal.
func NewSentimentEntry(sig SentimentSignalMessage) SentimentEntry {
	return SentimentEntry{
		Label:     sig.Label(),
		Score:     sig.Score,
		Headline:  sig.Headline,
		Source:    sig.Source,
		Timestamp: sig.Timestamp.UTC(),
	}
}

// IsStale reports whether the entry is too old to trust for trading
// decisions. The TTL on the cache key only bounds memory growth; this
// is the business rule the reader applies.
func (e SentimentEntry) IsStale(now time.Time, threshold time.Duration) bool {
	return now.Sub(e.Timestamp) > threshold
}
