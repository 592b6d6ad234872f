package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newGeckoServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestSimplePrices(t *testing.T) {
	var gotPath, gotKey string
	srv := newGeckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ethereum":{"usd":3150.25},"binancecoin":{"usd":590.0}}`))
	})

	c := NewCoinGeckoClient(srv.URL, "demo-key", 5*time.Second, 100, 10, zap.NewNop())
	prices, err := c.SimplePrices(context.Background(), []string{"ethereum", "binancecoin"})
	require.NoError(t, err)
	require.Equal(t, "/simple/price", gotPath)
	require.Equal(t, "demo-key", gotKey)
	require.InDelta(t, 3150.25, prices["ethereum"], 1e-9)
	require.InDelta(t, 590.0, prices["binancecoin"], 1e-9)
}

func TestSimplePricesEmptyInput(t *testing.T) {
	c := NewCoinGeckoClient("http://127.0.0.1:1", "", time.Second, 100, 10, zap.NewNop())
	prices, err := c.SimplePrices(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, prices)
}

func TestTokenPricesLowercasesAddresses(t *testing.T) {
	srv := newGeckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48":{"usd":1.0}}`))
	})

	c := NewCoinGeckoClient(srv.URL, "", 5*time.Second, 100, 10, zap.NewNop())
	prices, err := c.TokenPrices(context.Background(), "ethereum",
		[]string{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"})
	require.NoError(t, err)
	require.InDelta(t, 1.0, prices["0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"], 1e-9)
}

func TestTokenPricesNoPlatform(t *testing.T) {
	c := NewCoinGeckoClient("http://127.0.0.1:1", "", time.Second, 100, 10, zap.NewNop())
	prices, err := c.TokenPrices(context.Background(), "", []string{"0xabc"})
	require.NoError(t, err)
	require.Empty(t, prices)
}

func TestGeckoHTTPErrorStatus(t *testing.T) {
	srv := newGeckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	c := NewCoinGeckoClient(srv.URL, "", 5*time.Second, 100, 10, zap.NewNop())
	_, err := c.SimplePrices(context.Background(), []string{"ethereum"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestPing(t *testing.T) {
	srv := newGeckoServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ping", r.URL.Path)
		_, _ = w.Write([]byte(`{"gecko_says":"(V3) To the Moon!"}`))
	})

	c := NewCoinGeckoClient(srv.URL, "", 5*time.Second, 100, 10, zap.NewNop())
	require.NoError(t, c.Ping(context.Background()))
}
