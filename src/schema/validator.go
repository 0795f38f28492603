// Package schema validates every externally received payload before any
// business logic touches it. Validation is pure: no I/O, no clocks.
package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"

	"sentimentpipeline/src/model"

	"github.com/shopspring/decimal"
)

var pairPattern = regexp.MustCompile(`^[A-Z]{3,5}/[A-Z]{3,5}$`)

// Price sanity band. Anything outside is treated as feed corruption.
var (
	minPrice = decimal.NewFromFloat(1e-6)
	maxPrice = decimal.NewFromFloat(1e6)
)

const (
	maxTitleLen = 512
	maxBodyLen  = 65536
)

// AllowedNewsDomains maps each whitelisted source identifier to the
// domains its article URLs may resolve to. Subdomains are accepted.
var AllowedNewsDomains = map[string][]string{
	"coindesk":      {"coindesk.com"},
	"cointelegraph": {"cointelegraph.com"},
	"decrypt":       {"decrypt.co"},
	"theblock":      {"theblock.co"},
}

// AllowedScorerModels is the whitelist of known scorer backend ids.
var AllowedScorerModels = map[string]struct{}{
	"finbert":    {},
	"distilbert": {},
	"remote-llm": {},
}

// DecodeMarketData unmarshals and validates a raw_market_data payload.
func DecodeMarketData(payload []byte) (*model.RawMarketDataMessage, error) {
	var m model.RawMarketDataMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, &ValidationError{
			Kind:       "market_data",
			Violations: []Violation{{Field: "payload", Rule: fmt.Sprintf("malformed json: %v", err)}},
		}
	}
	if err := ValidateMarketData(m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ValidateMarketData checks format, price bounds and OHLC ordering.
func ValidateMarketData(m model.RawMarketDataMessage) error {
	verr := &ValidationError{Kind: "market_data"}

	if m.Timestamp.IsZero() {
		verr.add("timestamp", "required")
	}
	if !pairPattern.MatchString(m.Pair) {
		verr.addValue("pair", "must match BASE/QUOTE with 3-5 letter uppercase codes", m.Pair)
	}

	prices := []struct {
		field string
		value decimal.Decimal
	}{
		{"open", m.Open},
		{"high", m.High},
		{"low", m.Low},
		{"close", m.Close},
	}
	for _, p := range prices {
		if p.value.LessThan(minPrice) || p.value.GreaterThan(maxPrice) {
			verr.addValue(p.field, "outside sanity band [1e-6, 1e6]", p.value.String())
		}
	}
	if m.Volume.IsNegative() {
		verr.addValue("volume", "must be non-negative", m.Volume.String())
	}

	if m.High.LessThan(m.Open) || m.High.LessThan(m.Close) || m.High.LessThan(m.Low) {
		verr.add("high", "must be >= open, close and low")
	}
	if m.Low.GreaterThan(m.Open) || m.Low.GreaterThan(m.Close) {
		verr.add("low", "must be <= open and close")
	}

	return verr.orNil()
}

// DecodeNews unmarshals and validates a raw_news_data payload.
func DecodeNews(payload []byte) (*model.RawNewsMessage, error) {
	var m model.RawNewsMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, &ValidationError{
			Kind:       "news",
			Violations: []Violation{{Field: "payload", Rule: fmt.Sprintf("malformed json: %v", err)}},
		}
	}
	if err := ValidateNews(m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ValidateNews checks the source whitelist and that the article URL
// belongs to a domain registered for the claimed source, so a payload
// cannot spoof a trusted source with a foreign link.
func ValidateNews(m model.RawNewsMessage) error {
	verr := &ValidationError{Kind: "news"}

	if m.Timestamp.IsZero() {
		verr.add("timestamp", "required")
	}
	domains, knownSource := AllowedNewsDomains[m.Source]
	if !knownSource {
		verr.addValue("source", "not in source whitelist", m.Source)
	}
	if m.Title == "" {
		verr.add("title", "required")
	} else if len(m.Title) > maxTitleLen {
		verr.add("title", fmt.Sprintf("longer than %d characters", maxTitleLen))
	}
	if len(m.Body) > maxBodyLen {
		verr.add("body", fmt.Sprintf("longer than %d characters", maxBodyLen))
	}

	if m.URL == "" {
		verr.add("url", "required")
	} else if knownSource {
		if !urlMatchesDomains(m.URL, domains) {
			verr.addValue("url", "domain not registered for source "+m.Source, m.URL)
		}
	}

	return verr.orNil()
}

// DecodeSignal unmarshals and validates a sentiment_signals payload.
func DecodeSignal(payload []byte) (*model.SentimentSignalMessage, error) {
	var m model.SentimentSignalMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return nil, &ValidationError{
			Kind:       "sentiment_signal",
			Violations: []Violation{{Field: "payload", Rule: fmt.Sprintf("malformed json: %v", err)}},
		}
	}
	if err := ValidateSignal(m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ValidateSignal range-checks score and confidence and enforces the
// scorer model whitelist.
func ValidateSignal(m model.SentimentSignalMessage) error {
	verr := &ValidationError{Kind: "sentiment_signal"}

	if m.Timestamp.IsZero() {
		verr.add("timestamp", "required")
	}
	if !pairPattern.MatchString(m.Pair) {
		verr.addValue("pair", "must match BASE/QUOTE with 3-5 letter uppercase codes", m.Pair)
	}
	if math.IsNaN(m.Score) || m.Score < -1.0 || m.Score > 1.0 {
		verr.addValue("score", "must be within [-1.0, 1.0]", fmt.Sprintf("%v", m.Score))
	}
	if m.Confidence != nil {
		if c := *m.Confidence; math.IsNaN(c) || c < 0 || c > 1 {
			verr.addValue("confidence", "must be within [0, 1]", fmt.Sprintf("%v", c))
		}
	}
	if m.Headline == "" {
		verr.add("headline", "required")
	}
	if m.Source == "" {
		verr.add("source", "required")
	}
	if _, ok := AllowedScorerModels[m.Model]; !ok {
		verr.addValue("model", "not in scorer model whitelist", m.Model)
	}

	return verr.orNil()
}

func urlMatchesDomains(raw string, domains []string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
