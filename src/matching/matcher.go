// Package matching decides which instruments a news article is relevant
// to. The keyword matcher here is deliberately simple; it sits behind
// an interface so an entity-recognition step can replace it.
package matching

import (
	"regexp"
	"sort"
	"strings"
)

// Matcher maps article text onto the instruments it mentions.
type Matcher interface {
	Match(title, body string) []string
}

// KeywordMatcher matches case-insensitive whole words per instrument.
type KeywordMatcher struct {
	patterns map[string]*regexp.Regexp
}

// DefaultKeywords covers the instruments the pipeline trades against.
func DefaultKeywords() map[string][]string {
	return map[string][]string{
		"BTC/USDT": {"bitcoin", "btc", "satoshi"},
		"ETH/USDT": {"ethereum", "eth", "ether", "vitalik"},
		"SOL/USDT": {"solana", "sol"},
	}
}

// NewKeywordMatcher compiles one word-boundary pattern per instrument.
func NewKeywordMatcher(keywords map[string][]string) *KeywordMatcher {
	patterns := make(map[string]*regexp.Regexp, len(keywords))
	for pair, words := range keywords {
		if len(words) == 0 {
			continue
		}
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(w))
		}
		patterns[pair] = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return &KeywordMatcher{patterns: patterns}
}

// Match returns the matched instruments sorted for deterministic
// output. An empty result means the article is not relevant.
func (m *KeywordMatcher) Match(title, body string) []string {
	text := strings.ToLower(title + "\n" + body)

	var pairs []string
	for pair, pattern := range m.patterns {
		if pattern.MatchString(text) {
			pairs = append(pairs, pair)
		}
	}
	sort.Strings(pairs)
	return pairs
}
