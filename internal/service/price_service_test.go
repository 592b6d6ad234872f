package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bridge_engine/internal/apperr"
	"bridge_engine/internal/registry"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGecko struct {
	mu          sync.Mutex
	simpleCalls int
	tokenCalls  int
	simple      map[string]float64
	tokens      map[string]float64
	err         error
	pingErr     error
}

func (f *fakeGecko) SimplePrices(ctx context.Context, coinIDs []string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simpleCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64)
	for _, id := range coinIDs {
		if p, ok := f.simple[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeGecko) TokenPrices(ctx context.Context, platform string, addresses []string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]float64)
	for _, a := range addresses {
		if p, ok := f.tokens[a]; ok {
			out[a] = p
		}
	}
	return out, nil
}

func (f *fakeGecko) Ping(ctx context.Context) error { return f.pingErr }

func newPriceService(gecko *fakeGecko) PriceService {
	return NewPriceService(gecko, registry.New(nil), time.Minute, zap.NewNop())
}

func TestNativePriceCached(t *testing.T) {
	gecko := &fakeGecko{simple: map[string]float64{"ethereum": 3000}}
	svc := newPriceService(gecko)

	price, err := svc.NativePrice(context.Background(), 1)
	require.NoError(t, err)
	require.InDelta(t, 3000.0, price, 1e-9)

	// Second lookup is served from cache; no extra upstream call.
	_, err = svc.NativePrice(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, gecko.simpleCalls)
}

func TestNativePricesBatchesMisses(t *testing.T) {
	gecko := &fakeGecko{simple: map[string]float64{"ethereum": 3000, "binancecoin": 600}}
	svc := newPriceService(gecko)

	prices, err := svc.NativePrices(context.Background(), []uint64{1, 10, 56})
	require.NoError(t, err)
	// 1 and 10 share the ethereum coin id; one upstream request covers all.
	require.Equal(t, 1, gecko.simpleCalls)
	require.InDelta(t, 3000.0, prices[1], 1e-9)
	require.InDelta(t, 3000.0, prices[10], 1e-9)
	require.InDelta(t, 600.0, prices[56], 1e-9)
}

func TestNativePriceUnmappedChainIsZero(t *testing.T) {
	gecko := &fakeGecko{simple: map[string]float64{}}
	svc := newPriceService(gecko)

	// 195 carries no CoinGecko mapping: zero without error, no upstream call.
	price, err := svc.NativePrice(context.Background(), 195)
	require.NoError(t, err)
	require.Zero(t, price)
	require.Equal(t, 0, gecko.simpleCalls)
}

func TestTokenPricesSingleBatch(t *testing.T) {
	usdc := "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	dai := "0x6b175474e89094c44da98b954eedeac495271d0f"
	gecko := &fakeGecko{tokens: map[string]float64{usdc: 1.0, dai: 0.999}}
	svc := newPriceService(gecko)

	prices, err := svc.TokenPrices(context.Background(), 1, []string{usdc, dai, "0x000000000000000000000000000000000000dead"})
	require.NoError(t, err)
	require.Equal(t, 1, gecko.tokenCalls)
	require.InDelta(t, 1.0, prices[usdc], 1e-9)
	require.InDelta(t, 0.999, prices[dai], 1e-9)
	// Unknown token resolves to zero rather than erroring.
	require.Zero(t, prices["0x000000000000000000000000000000000000dead"])

	// All three are now cached, misses included.
	_, err = svc.TokenPrices(context.Background(), 1, []string{usdc, dai, "0x000000000000000000000000000000000000dead"})
	require.NoError(t, err)
	require.Equal(t, 1, gecko.tokenCalls)
}

func TestTokenPricesUnmappedPlatform(t *testing.T) {
	gecko := &fakeGecko{}
	svc := newPriceService(gecko)

	prices, err := svc.TokenPrices(context.Background(), 195, []string{"0xabc"})
	require.NoError(t, err)
	require.Zero(t, prices["0xabc"])
	require.Equal(t, 0, gecko.tokenCalls)
}

func TestPriceFetchError(t *testing.T) {
	gecko := &fakeGecko{err: errors.New("rate limited")}
	svc := newPriceService(gecko)

	_, err := svc.NativePrice(context.Background(), 1)
	require.True(t, apperr.IsCode(err, apperr.CodePriceUnavailable))

	usdc := "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	_, err = svc.TokenPrices(context.Background(), 1, []string{usdc})
	require.True(t, apperr.IsCode(err, apperr.CodePriceUnavailable))
}
