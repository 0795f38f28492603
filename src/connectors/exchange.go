package connectors

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sentimentpipeline/src/model"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
)

// candleInterval is the only resolution the pipeline ingests.
const candleInterval = time.Minute

// ExchangeClient pulls 1m OHLCV candles from the exchange REST API.
type ExchangeClient struct {
	api goex.API
}

func NewExchangeClient() *ExchangeClient {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}
	return &ExchangeClient{api: binance.NewWithConfig(apiConfig)}
}

// FetchCandles returns up to limit candles for pair since the given
// time, newest last. Candles are raw; the caller validates them.
func (c *ExchangeClient) FetchCandles(ctx context.Context, pair string, limit int, since time.Time) ([]model.RawMarketDataMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, quote, err := splitPair(pair)
	if err != nil {
		return nil, err
	}
	currencyPair := goex.NewCurrencyPair(goex.Currency{Symbol: base}, goex.Currency{Symbol: quote})

	const millis = 1000
	klines, err := c.api.GetKlineRecords(
		currencyPair,
		goex.KLINE_PERIOD_1MIN,
		limit,
		goex.OptionalParameter{}.Optional("startTime", since.Unix()*millis),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch klines for %s: %w", pair, err)
	}

	out := make([]model.RawMarketDataMessage, 0, len(klines))
	for _, k := range klines {
		out = append(out, model.RawMarketDataMessage{
			// kline timestamps are candle open time; the message
			// carries the close time
			Timestamp: time.Unix(k.Timestamp, 0).UTC().Add(candleInterval),
			Pair:      pair,
			Open:      decimal.NewFromFloat(k.Open),
			High:      decimal.NewFromFloat(k.High),
			Low:       decimal.NewFromFloat(k.Low),
			Close:     decimal.NewFromFloat(k.Close),
			Volume:    decimal.NewFromFloat(k.Vol),
		})
	}
	return out, nil
}

func splitPair(pair string) (base, quote string, err error) {
	parts := strings.Split(pair, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed instrument pair %q", pair)
	}
	return parts[0], parts[1], nil
}
