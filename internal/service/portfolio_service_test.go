package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bridge_engine/internal/apperr"
	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/registry"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDiscovery struct {
	mu       sync.Mutex
	byChain  map[uint64]entity.ChainBalances
	failures map[uint64]error
	calls    []uint64
}

func (f *fakeDiscovery) DiscoverChain(ctx context.Context, chainID uint64, owner string) (entity.ChainBalances, error) {
	f.mu.Lock()
	f.calls = append(f.calls, chainID)
	f.mu.Unlock()
	if err, ok := f.failures[chainID]; ok {
		return entity.ChainBalances{}, err
	}
	if b, ok := f.byChain[chainID]; ok {
		return b, nil
	}
	return entity.ChainBalances{ChainID: chainID}, nil
}

func (f *fakeDiscovery) TokenList(ctx context.Context, chainID uint64) ([]entity.TokenInfo, error) {
	return nil, nil
}

func TestAggregateSelectedChains(t *testing.T) {
	disc := &fakeDiscovery{byChain: map[uint64]entity.ChainBalances{
		1:    {ChainID: 1, TotalUSD: 100},
		8453: {ChainID: 8453, TotalUSD: 50},
	}}
	svc := NewPortfolioService(registry.New(nil), disc, 4, zap.NewNop())

	p, err := svc.Aggregate(context.Background(), testOwner, []uint64{1, 8453})
	require.NoError(t, err)
	require.False(t, p.Partial)
	require.Len(t, p.ByChain, 2)
	require.InDelta(t, 150.0, p.TotalUSD, 1e-9)
	require.Equal(t, "0xab5801a7d398351b8be11c439e05c5b3259aec9b", p.Owner)
}

func TestAggregateDefaultsToAllChains(t *testing.T) {
	reg := registry.New(nil)
	disc := &fakeDiscovery{}
	svc := NewPortfolioService(reg, disc, 4, zap.NewNop())

	p, err := svc.Aggregate(context.Background(), testOwner, nil)
	require.NoError(t, err)
	require.Len(t, p.ByChain, len(reg.IDs()))
	require.Len(t, disc.calls, len(reg.IDs()))
}

func TestAggregatePartialOnChainFailure(t *testing.T) {
	disc := &fakeDiscovery{
		byChain:  map[uint64]entity.ChainBalances{1: {ChainID: 1, TotalUSD: 100}},
		failures: map[uint64]error{10: errors.New("rpc down")},
	}
	svc := NewPortfolioService(registry.New(nil), disc, 4, zap.NewNop())

	p, err := svc.Aggregate(context.Background(), testOwner, []uint64{1, 10})
	require.NoError(t, err)
	require.True(t, p.Partial)
	require.Equal(t, string(apperr.CodeDiscoveryPartial), p.Warning)
	require.Len(t, p.ByChain, 1)
	require.InDelta(t, 100.0, p.TotalUSD, 1e-9)
}

func TestAggregateInvalidOwner(t *testing.T) {
	svc := NewPortfolioService(registry.New(nil), &fakeDiscovery{}, 4, zap.NewNop())

	_, err := svc.Aggregate(context.Background(), "not-an-address", nil)
	require.Error(t, err)

	_, err = svc.Aggregate(context.Background(), "0x123", nil)
	require.Error(t, err)
}

func TestAggregateCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewPortfolioService(registry.New(nil), &fakeDiscovery{}, 4, zap.NewNop())
	_, err := svc.Aggregate(ctx, testOwner, []uint64{1})
	require.Error(t, err)
}
