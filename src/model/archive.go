package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CandleArchive is the optional Postgres copy of every published candle.
type CandleArchive struct {
	ID        uint            `gorm:"primaryKey"`
	Pair      string          `json:"pair"     gorm:"type:varchar(20);not null;uniqueIndex:ux_candle_archive_pair_timestamp,priority:1"`
	Timestamp time.Time       `json:"timestamp" gorm:"not null;uniqueIndex:ux_candle_archive_pair_timestamp,priority:2;index:idx_candle_archive_timestamp"`
	Open      decimal.Decimal `json:"open"   gorm:"type:double precision;not null"`
	High      decimal.Decimal `json:"high"   gorm:"type:double precision;not null"`
	Low       decimal.Decimal `json:"low"    gorm:"type:double precision;not null"`
	Close     decimal.Decimal `json:"close"  gorm:"type:double precision;not null"`
	Volume    decimal.Decimal `json:"volume" gorm:"type:double precision;not null"`
}

func (CandleArchive) TableName() string {
	return "candle_archive"
}

// NewCandleArchiveFromMessage converts a queue message into the DB row.
func NewCandleArchiveFromMessage(m RawMarketDataMessage) CandleArchive {
	return CandleArchive{
		Pair:      m.Pair,
		Timestamp: m.Timestamp.UTC(),
		Open:      m.Open,
		High:      m.High,
		Low:       m.Low,
		Close:     m.Close,
		Volume:    m.Volume,
	}
}

// SignalArchive keeps an append-only history of cached signals. The
// cache itself is last-write-wins; this table is where history lives.
type SignalArchive struct {
	ID         uint      `gorm:"primaryKey"`
	Pair       string    `gorm:"column:pair;type:varchar(20);not null;index:idx_signal_archive_pair_signal_at,priority:1"`
	Score      float64   `gorm:"column:score;not null"`
	Label      string    `gorm:"column:label;type:varchar(10);not null"`
	Headline   string    `gorm:"column:headline"`
	Source     string    `gorm:"column:source;index"`
	Confidence *float64  `gorm:"column:confidence"`
	Model      string    `gorm:"column:model"`
	SignalAt   time.Time `gorm:"column:signal_at;not null;index:idx_signal_archive_pair_signal_at,priority:2"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (SignalArchive) TableName() string {
	return "signal_archive"
}

// NewSignalArchiveFromMessage converts a queue message into the DB row.
func NewSignalArchiveFromMessage(sig SentimentSignalMessage) SignalArchive {
	return SignalArchive{
		Pair:       sig.Pair,
		Score:      sig.Score,
		Label:      sig.Label(),
		Headline:   sig.Headline,
		Source:     sig.Source,
		Confidence: sig.Confidence,
		Model:      sig.Model,
		SignalAt:   sig.Timestamp.UTC(),
	}
}
