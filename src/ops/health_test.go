package ops

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthTransitions(t *testing.T) {
	h := NewHealth()
	assert.True(t, h.Healthy(), "empty tracker is healthy")

	h.SetDegraded("market_ingestor", "feed unreachable")
	assert.False(t, h.Healthy())

	snap := h.Snapshot()
	require.Contains(t, snap, "market_ingestor")
	assert.True(t, snap["market_ingestor"].Degraded)
	assert.Equal(t, "feed unreachable", snap["market_ingestor"].Reason)

	h.SetHealthy("market_ingestor")
	assert.True(t, h.Healthy())
}

func TestHealthzEndpoint(t *testing.T) {
	h := NewHealth()
	h.SetDegraded("news_ingestor", "feed timeout")

	srv := StartServer("127.0.0.1:0", h)
	t.Cleanup(func() { _ = srv.Close() })

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]ComponentState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body["news_ingestor"].Degraded)

	h.SetHealthy("news_ingestor")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
