package cache

import (
	"context"
	"testing"
	"time"

	"sentimentpipeline/src/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestCache starts a miniredis instance and wraps it in a Client.
func setupTestCache(t *testing.T, ttl time.Duration) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return NewWithRedis(rdb, ttl), mr
}

func testEntry(ts time.Time) model.SentimentEntry {
	return model.SentimentEntry{
		Label:     model.LabelBullish,
		Score:     0.85,
		Headline:  "Bitcoin climbs after ETF inflows",
		Source:    "coindesk",
		Timestamp: ts,
	}
}

func TestSetAndGetSignal(t *testing.T) {
	c, _ := setupTestCache(t, 4*time.Hour)
	ctx := context.Background()

	ts := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.SetSignal(ctx, "BTC/USDT", testEntry(ts)))

	got, err := c.GetSignal(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, model.LabelBullish, got.Label)
	assert.InDelta(t, 0.85, got.Score, 1e-9)
	assert.True(t, got.Timestamp.Equal(ts))
}

func TestGetSignalNotFound(t *testing.T) {
	c, _ := setupTestCache(t, 4*time.Hour)

	_, err := c.GetSignal(context.Background(), "DOGE/USDT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetSignalOverwriteIsIdempotent(t *testing.T) {
	c, _ := setupTestCache(t, 4*time.Hour)
	ctx := context.Background()

	entry := testEntry(time.Now().UTC())
	require.NoError(t, c.SetSignal(ctx, "BTC/USDT", entry))
	require.NoError(t, c.SetSignal(ctx, "BTC/USDT", entry))

	got, err := c.GetSignal(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, entry.Headline, got.Headline)
	assert.InDelta(t, entry.Score, got.Score, 1e-9)
}

func TestSetSignalLastWriteWins(t *testing.T) {
	c, _ := setupTestCache(t, 4*time.Hour)
	ctx := context.Background()

	first := testEntry(time.Now().UTC())
	second := first
	second.Score = -0.3
	second.Label = model.LabelBearish
	second.Headline = "Bitcoin slides on outflows"

	require.NoError(t, c.SetSignal(ctx, "BTC/USDT", first))
	require.NoError(t, c.SetSignal(ctx, "BTC/USDT", second))

	got, err := c.GetSignal(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin slides on outflows", got.Headline)
	assert.Equal(t, model.LabelBearish, got.Label)
}

func TestEntryExpiresWithTTL(t *testing.T) {
	c, mr := setupTestCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.SetSignal(ctx, "BTC/USDT", testEntry(time.Now().UTC())))

	mr.FastForward(2 * time.Minute)

	_, err := c.GetSignal(ctx, "BTC/USDT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReaderStalenessPolicy(t *testing.T) {
	c, _ := setupTestCache(t, 24*time.Hour)
	ctx := context.Background()

	now := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	reader := NewReader(c, 4*time.Hour)
	reader.now = func() time.Time { return now }

	// 3h old: fresh
	require.NoError(t, c.SetSignal(ctx, "BTC/USDT", testEntry(now.Add(-3*time.Hour))))
	got, err := reader.Fresh(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, model.LabelBullish, got.Label)

	// 5h old: stale, must look absent
	require.NoError(t, c.SetSignal(ctx, "ETH/USDT", testEntry(now.Add(-5*time.Hour))))
	_, err = reader.Fresh(ctx, "ETH/USDT")
	assert.ErrorIs(t, err, ErrNotFound)
}
