package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"articles": [
				{
					"title": "Bitcoin climbs after ETF inflows",
					"url": "https://www.coindesk.com/markets/btc-climbs",
					"published_at": "2026-02-03T12:00:00Z",
					"summary": "Bitcoin rose 4% on Tuesday."
				},
				{
					"title": "Miners expand capacity",
					"url": "https://www.coindesk.com/tech/miners-expand",
					"published_at": "2026-02-03T11:30:00Z",
					"summary": ""
				}
			]
		}`))
	}))
	defer srv.Close()

	client := NewNewsClient(5 * time.Second)

	articles, err := client.FetchArticles(context.Background(), NewsSource{Name: "coindesk", FeedURL: srv.URL})
	require.NoError(t, err)
	require.Len(t, articles, 2)

	assert.Equal(t, "coindesk", articles[0].Source)
	assert.Equal(t, "Bitcoin climbs after ETF inflows", articles[0].Title)
	assert.Equal(t, "https://www.coindesk.com/markets/btc-climbs", articles[0].URL)
	assert.Equal(t, time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC), articles[0].Timestamp)
	assert.Equal(t, "Bitcoin rose 4% on Tuesday.", articles[0].Body)
}

func TestFetchArticlesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewNewsClient(5 * time.Second)

	_, err := client.FetchArticles(context.Background(), NewsSource{Name: "coindesk", FeedURL: srv.URL})
	assert.Error(t, err)
}

func TestFetchArticlesBadStatusField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "rate_limited", "articles": []}`))
	}))
	defer srv.Close()

	client := NewNewsClient(5 * time.Second)

	_, err := client.FetchArticles(context.Background(), NewsSource{Name: "coindesk", FeedURL: srv.URL})
	assert.Error(t, err)
}

func TestSplitPair(t *testing.T) {
	base, quote, err := splitPair("BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "BTC", base)
	assert.Equal(t, "USDT", quote)

	_, _, err = splitPair("BTCUSDT")
	assert.Error(t, err)
}

func TestParseKlineEmitsOnlyClosedCandles(t *testing.T) {
	s := NewKlineStream([]string{"BTC/USDT"})

	openFrame := []byte(`{"stream":"btcusdt@kline_1m","data":{"s":"BTCUSDT","k":{"T":1770120059999,"o":"100","h":"105","l":"99","c":"103","v":"10","x":false}}}`)
	_, ok := s.parseKline(openFrame)
	assert.False(t, ok, "in-progress candles must not be emitted")

	closedFrame := []byte(`{"stream":"btcusdt@kline_1m","data":{"s":"BTCUSDT","k":{"T":1770120059999,"o":"100","h":"105","l":"99","c":"103","v":"10","x":true}}}`)
	candle, ok := s.parseKline(closedFrame)
	require.True(t, ok)
	assert.Equal(t, "BTC/USDT", candle.Pair)
	assert.Equal(t, "105", candle.High.String())
	assert.Equal(t, time.UnixMilli(1770120060000).UTC(), candle.Timestamp)
}

func TestParseKlineUnknownSymbolSkipped(t *testing.T) {
	s := NewKlineStream([]string{"BTC/USDT"})

	frame := []byte(`{"stream":"dogeusdt@kline_1m","data":{"s":"DOGEUSDT","k":{"T":1770120059999,"o":"1","h":"1","l":"1","c":"1","v":"1","x":true}}}`)
	_, ok := s.parseKline(frame)
	assert.False(t, ok)
}
