package schema

import (
	"errors"
	"testing"
	"time"

	"sentimentpipeline/src/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func floatPtr(f float64) *float64 { return &f }

func validCandle() model.RawMarketDataMessage {
	return model.RawMarketDataMessage{
		Timestamp: time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		Pair:      "BTC/USDT",
		Open:      dec(100),
		High:      dec(105),
		Low:       dec(99),
		Close:     dec(103),
		Volume:    dec(10),
	}
}

func TestValidateMarketData(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.RawMarketDataMessage)
		wantErr bool
		field   string
	}{
		{
			name:   "valid candle",
			mutate: func(*model.RawMarketDataMessage) {},
		},
		{
			name:    "high below close",
			mutate:  func(m *model.RawMarketDataMessage) { m.High = dec(101); m.Close = dec(103) },
			wantErr: true,
			field:   "high",
		},
		{
			name:    "low above open",
			mutate:  func(m *model.RawMarketDataMessage) { m.Low = dec(101); m.Open = dec(100) },
			wantErr: true,
			field:   "low",
		},
		{
			name:    "price above sanity band",
			mutate:  func(m *model.RawMarketDataMessage) { m.High = dec(2e6) },
			wantErr: true,
			field:   "high",
		},
		{
			name:    "zero open is below band",
			mutate:  func(m *model.RawMarketDataMessage) { m.Open = decimal.Zero },
			wantErr: true,
			field:   "open",
		},
		{
			name:    "negative volume",
			mutate:  func(m *model.RawMarketDataMessage) { m.Volume = dec(-1) },
			wantErr: true,
			field:   "volume",
		},
		{
			name:    "lowercase pair",
			mutate:  func(m *model.RawMarketDataMessage) { m.Pair = "btc/usdt" },
			wantErr: true,
			field:   "pair",
		},
		{
			name:    "missing separator",
			mutate:  func(m *model.RawMarketDataMessage) { m.Pair = "BTCUSDT" },
			wantErr: true,
			field:   "pair",
		},
		{
			name:    "zero timestamp",
			mutate:  func(m *model.RawMarketDataMessage) { m.Timestamp = time.Time{} },
			wantErr: true,
			field:   "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validCandle()
			tt.mutate(&m)

			err := ValidateMarketData(m)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assertViolated(t, err, tt.field)
		})
	}
}

func TestValidateMarketDataCollectsAllViolations(t *testing.T) {
	m := validCandle()
	m.Pair = "nope"
	m.Volume = dec(-5)
	m.High = dec(90) // below open and close

	err := ValidateMarketData(m)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.GreaterOrEqual(t, len(verr.Violations), 3)
}

func validNews() model.RawNewsMessage {
	return model.RawNewsMessage{
		Timestamp: time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		Source:    "coindesk",
		Title:     "Bitcoin climbs after ETF inflows",
		URL:       "https://www.coindesk.com/markets/2026/02/03/bitcoin-climbs",
		Body:      "Bitcoin rose 4% on Tuesday.",
	}
}

func TestValidateNews(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.RawNewsMessage)
		wantErr bool
		field   string
	}{
		{
			name:   "valid article",
			mutate: func(*model.RawNewsMessage) {},
		},
		{
			name:   "subdomain of registered domain",
			mutate: func(m *model.RawNewsMessage) { m.URL = "https://feeds.coindesk.com/x" },
		},
		{
			name:    "spoofed domain for whitelisted source",
			mutate:  func(m *model.RawNewsMessage) { m.URL = "https://evil.example.com/x" },
			wantErr: true,
			field:   "url",
		},
		{
			name: "suffix trick does not match",
			mutate: func(m *model.RawNewsMessage) {
				m.URL = "https://notcoindesk.com/x"
			},
			wantErr: true,
			field:   "url",
		},
		{
			name:    "unknown source",
			mutate:  func(m *model.RawNewsMessage) { m.Source = "randomblog" },
			wantErr: true,
			field:   "source",
		},
		{
			name:    "empty title",
			mutate:  func(m *model.RawNewsMessage) { m.Title = "" },
			wantErr: true,
			field:   "title",
		},
		{
			name: "oversized title",
			mutate: func(m *model.RawNewsMessage) {
				for len(m.Title) <= maxTitleLen {
					m.Title += m.Title
				}
			},
			wantErr: true,
			field:   "title",
		},
		{
			name:    "missing url",
			mutate:  func(m *model.RawNewsMessage) { m.URL = "" },
			wantErr: true,
			field:   "url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validNews()
			tt.mutate(&m)

			err := ValidateNews(m)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assertViolated(t, err, tt.field)
		})
	}
}

func validSignal() model.SentimentSignalMessage {
	return model.SentimentSignalMessage{
		Timestamp:  time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC),
		Pair:       "BTC/USDT",
		Score:      0.85,
		Headline:   "Bitcoin climbs after ETF inflows",
		Source:     "coindesk",
		Confidence: floatPtr(0.9),
		Model:      "finbert",
	}
}

func TestValidateSignal(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.SentimentSignalMessage)
		wantErr bool
		field   string
	}{
		{
			name:   "valid signal",
			mutate: func(*model.SentimentSignalMessage) {},
		},
		{
			name:   "confidence absent is fine",
			mutate: func(m *model.SentimentSignalMessage) { m.Confidence = nil },
		},
		{
			name:    "score above range",
			mutate:  func(m *model.SentimentSignalMessage) { m.Score = 1.5 },
			wantErr: true,
			field:   "score",
		},
		{
			name:    "score below range",
			mutate:  func(m *model.SentimentSignalMessage) { m.Score = -1.01 },
			wantErr: true,
			field:   "score",
		},
		{
			name:    "confidence above range",
			mutate:  func(m *model.SentimentSignalMessage) { m.Confidence = floatPtr(1.2) },
			wantErr: true,
			field:   "confidence",
		},
		{
			name:    "model not whitelisted",
			mutate:  func(m *model.SentimentSignalMessage) { m.Model = "mystery-model" },
			wantErr: true,
			field:   "model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validSignal()
			tt.mutate(&m)

			err := ValidateSignal(m)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assertViolated(t, err, tt.field)
		})
	}
}

func TestDecodeMarketDataMalformedJSON(t *testing.T) {
	_, err := DecodeMarketData([]byte(`{"pair": `))
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "market_data", verr.Kind)
}

func TestDecodeSignalRoundTrip(t *testing.T) {
	payload := []byte(`{
		"timestamp": "2026-02-03T12:00:00Z",
		"pair": "ETH/USDT",
		"score": -0.4,
		"headline": "Ethereum slides",
		"source": "cointelegraph",
		"model": "distilbert"
	}`)

	sig, err := DecodeSignal(payload)
	require.NoError(t, err)
	assert.Equal(t, "ETH/USDT", sig.Pair)
	assert.InDelta(t, -0.4, sig.Score, 1e-9)
	assert.Nil(t, sig.Confidence)
	assert.Equal(t, model.LabelBearish, sig.Label())
}

// assertViolated checks the error names the expected field.
func assertViolated(t *testing.T, err error, field string) {
	t.Helper()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)

	for _, v := range verr.Violations {
		if v.Field == field {
			return
		}
	}
	t.Fatalf("expected violation on field %q, got %v", field, verr.Violations)
}
