package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sentimentpipeline/src/backoff"
	"sentimentpipeline/src/model"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const defaultStreamEndpoint = "wss://stream.binance.com:9443/stream"

// KlineStream subscribes to the exchange's combined 1m kline stream and
// emits one message per closed candle.
type KlineStream struct {
	endpoint string
	pairs    []string
	symbols  map[string]string // BTCUSDT -> BTC/USDT
	log      *logger.Entry
}

func NewKlineStream(pairs []string) *KlineStream {
	symbols := make(map[string]string, len(pairs))
	for _, p := range pairs {
		symbols[strings.ToUpper(strings.ReplaceAll(p, "/", ""))] = p
	}
	return &KlineStream{
		endpoint: defaultStreamEndpoint,
		pairs:    pairs,
		symbols:  symbols,
		log:      logger.WithField("connector", "kline_stream"),
	}
}

type klineEnvelope struct {
	Stream string    `json:"stream"`
	Data   klineData `json:"data"`
}

type klineData struct {
	Symbol string   `json:"s"`
	Kline  rawKline `json:"k"`
}

type rawKline struct {
	CloseTime int64  `json:"T"`
	Open      string `json:"o"`
	High      string `json:"h"`
	Low       string `json:"l"`
	Close     string `json:"c"`
	Volume    string `json:"v"`
	Closed    bool   `json:"x"`
}

// Run streams candles into out until ctx is cancelled, reconnecting
// with backoff after disconnects.
func (s *KlineStream) Run(ctx context.Context, out chan<- model.RawMarketDataMessage) error {
	if len(s.pairs) == 0 {
		return fmt.Errorf("kline stream requires at least one pair")
	}

	streams := make([]string, len(s.pairs))
	for i, p := range s.pairs {
		streams[i] = strings.ToLower(strings.ReplaceAll(p, "/", "")) + "@kline_1m"
	}
	url := fmt.Sprintf("%s?streams=%s", s.endpoint, strings.Join(streams, "/"))

	policy := backoff.Policy{
		BaseDelay:  time.Second,
		Multiplier: 2,
		MaxDelay:   30 * time.Second,
	}

	attempt := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.consumeStream(ctx, url, out)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.log.WithError(err).Warn("kline stream disconnected, retrying")
		if err := backoff.Sleep(ctx, policy.Delay(attempt)); err != nil {
			return err
		}
		attempt++
	}
}

func (s *KlineStream) consumeStream(ctx context.Context, url string, out chan<- model.RawMarketDataMessage) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	s.log.WithField("pairs", s.pairs).Info("connected kline stream")

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					s.log.WithError(err).Warn("kline stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		candle, ok := s.parseKline(message)
		if !ok {
			continue
		}

		select {
		case out <- candle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseKline decodes one stream frame; only closed candles for known
// symbols are emitted.
func (s *KlineStream) parseKline(message []byte) (model.RawMarketDataMessage, bool) {
	var env klineEnvelope
	if err := json.Unmarshal(message, &env); err != nil {
		s.log.WithError(err).Warn("failed to decode kline frame")
		return model.RawMarketDataMessage{}, false
	}
	if !env.Data.Kline.Closed {
		return model.RawMarketDataMessage{}, false
	}
	pair, ok := s.symbols[strings.ToUpper(env.Data.Symbol)]
	if !ok {
		return model.RawMarketDataMessage{}, false
	}

	k := env.Data.Kline
	open, err1 := decimal.NewFromString(k.Open)
	high, err2 := decimal.NewFromString(k.High)
	low, err3 := decimal.NewFromString(k.Low)
	closePx, err4 := decimal.NewFromString(k.Close)
	volume, err5 := decimal.NewFromString(k.Volume)
	for _, err := range []error{err1, err2, err3, err4, err5} {
		if err != nil {
			s.log.WithError(err).Warn("unparseable price in kline frame")
			return model.RawMarketDataMessage{}, false
		}
	}

	return model.RawMarketDataMessage{
		// CloseTime is the last millisecond inside the candle
		Timestamp: time.UnixMilli(k.CloseTime + 1).UTC(),
		Pair:      pair,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePx,
		Volume:    volume,
	}, true
}
