package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordMatcher(t *testing.T) {
	m := NewKeywordMatcher(DefaultKeywords())

	tests := []struct {
		name  string
		title string
		body  string
		want  []string
	}{
		{
			name:  "single instrument in title",
			title: "Bitcoin climbs past resistance",
			want:  []string{"BTC/USDT"},
		},
		{
			name:  "case insensitive",
			title: "BITCOIN CLIMBS",
			want:  []string{"BTC/USDT"},
		},
		{
			name:  "multiple instruments sorted",
			title: "Ethereum outpaces Bitcoin in weekly gains",
			want:  []string{"BTC/USDT", "ETH/USDT"},
		},
		{
			name:  "keyword in body only",
			title: "Altcoin roundup",
			body:  "Solana led the session with a 12% move.",
			want:  []string{"SOL/USDT"},
		},
		{
			name:  "no whole-word match inside other words",
			title: "New solution for ethanol producers",
			want:  nil,
		},
		{
			name:  "irrelevant article",
			title: "Fed leaves rates unchanged",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.title, tt.body))
		})
	}
}

func TestKeywordMatcherCustomTable(t *testing.T) {
	m := NewKeywordMatcher(map[string][]string{
		"XRP/USDT": {"ripple", "xrp"},
	})

	assert.Equal(t, []string{"XRP/USDT"}, m.Match("Ripple settles with regulator", ""))
	assert.Nil(t, m.Match("Bitcoin hits new high", ""))
}
