package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHostedGetQuote(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bridge/quote", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"estimatedOutputAmount":"0.995","estimatedGasUsd":4.2,"quoteId":"q-123"}`))
	}))
	defer srv.Close()

	c := NewHostedBridgeClient(srv.URL, 5*time.Second, zap.NewNop())
	quote, err := c.GetQuote(context.Background(), HostedQuoteRequest{
		FromChain: "ethereum", ToChain: "base", Token: "0xabc", Amount: "1.0", Recipient: "0xdef",
	})
	require.NoError(t, err)
	require.Equal(t, "q-123", quote.QuoteID)
	require.Equal(t, "0.995", quote.EstimatedOutputAmount)
	require.InDelta(t, 4.2, quote.EstimatedGasUSD, 1e-9)
	require.Contains(t, string(gotBody), `"fromChain":"ethereum"`)
}

func TestHostedQuoteMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"estimatedOutputAmount":"0.995","estimatedGasUsd":4.2}`))
	}))
	defer srv.Close()

	c := NewHostedBridgeClient(srv.URL, 5*time.Second, zap.NewNop())
	_, err := c.GetQuote(context.Background(), HostedQuoteRequest{FromChain: "ethereum", ToChain: "base"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "quoteId")
}

func TestHostedBridge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/bridge/execute", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), `"quoteId":"q-123"`)
		_, _ = w.Write([]byte(`{"trackingId":"trk-9"}`))
	}))
	defer srv.Close()

	c := NewHostedBridgeClient(srv.URL, 5*time.Second, zap.NewNop())
	res, err := c.Bridge(context.Background(), HostedBridgeRequest{
		HostedQuoteRequest: HostedQuoteRequest{FromChain: "ethereum", ToChain: "base"},
		QuoteID:            "q-123",
	})
	require.NoError(t, err)
	require.Equal(t, "trk-9", res.TrackingID)
}

func TestHostedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHostedBridgeClient(srv.URL, 5*time.Second, zap.NewNop())
	_, err := c.GetQuote(context.Background(), HostedQuoteRequest{FromChain: "ethereum", ToChain: "base"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}
