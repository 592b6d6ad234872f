package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"bridge_engine/internal/client"
	"bridge_engine/internal/config"
	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/evm"
	"bridge_engine/internal/registry"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOwner = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

// discClient is a minimal read-only chain client for discovery tests.
type discClient struct {
	native *big.Int
}

func (c *discClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if c.native == nil {
		return big.NewInt(0), nil
	}
	return c.native, nil
}
func (c *discClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return nil, errors.New("unexpected direct call")
}
func (c *discClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 0, errors.New("unexpected estimate")
}
func (c *discClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return nil, errors.New("unexpected gas price")
}
func (c *discClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

type fakeChainClients struct {
	client evm.ChainClient
	err    error
}

func (f *fakeChainClients) Client(ctx context.Context, chainID uint64) (evm.ChainClient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.client, nil
}
func (f *fakeChainClients) CallTimeout() time.Duration { return 5 * time.Second }

type fakeSweeper struct {
	mu       sync.Mutex
	calls    int
	balances map[string]*big.Int
}

func (f *fakeSweeper) BalanceSweep(ctx context.Context, caller evm.ChainClient, chainID uint64,
	multicallAddr common.Address, owner common.Address, tokens []entity.TokenInfo) map[string]*big.Int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.balances == nil {
		return map[string]*big.Int{}
	}
	return f.balances
}

type fakeTokenLists struct {
	mu     sync.Mutex
	calls  int
	tokens []entity.TokenInfo
}

func (f *fakeTokenLists) Load(ctx context.Context, chainID uint64, urls []string) ([]entity.TokenInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.tokens, nil
}

type fakeIndexer struct {
	mu       sync.Mutex
	calls    int
	balances []client.IndexerBalance
	err      error
}

func (f *fakeIndexer) Balances(ctx context.Context, chainSlug, owner string) ([]client.IndexerBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.balances, nil
}

type fakePrices struct {
	native map[uint64]float64
	tokens map[string]float64
}

func (f *fakePrices) NativePrice(ctx context.Context, chainID uint64) (float64, error) {
	return f.native[chainID], nil
}
func (f *fakePrices) NativePrices(ctx context.Context, chainIDs []uint64) (map[uint64]float64, error) {
	out := make(map[uint64]float64)
	for _, id := range chainIDs {
		out[id] = f.native[id]
	}
	return out, nil
}
func (f *fakePrices) TokenPrices(ctx context.Context, chainID uint64, addresses []string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, a := range addresses {
		out[a] = f.tokens[a]
	}
	return out, nil
}
func (f *fakePrices) Ping(ctx context.Context) error { return nil }

type discFixture struct {
	clients *fakeChainClients
	sweeper *fakeSweeper
	lists   *fakeTokenLists
	indexer *fakeIndexer
	prices  *fakePrices
}

func newDiscovery(t *testing.T, mode string, fx *discFixture) DiscoveryService {
	t.Helper()
	cfg := config.DiscoveryConfig{
		Mode:               mode,
		CacheTTLSeconds:    60,
		TokenListTimeoutMs: 1000,
		DustThresholdUSD:   0.01,
	}
	if fx.prices == nil {
		fx.prices = &fakePrices{}
	}
	return NewDiscoveryService(registry.New(nil), fx.clients, fx.sweeper, fx.lists, fx.indexer, fx.prices, cfg, zap.NewNop())
}

const usdcAddr = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"

func usdcIndexerRow(balance string, quote float64) client.IndexerBalance {
	return client.IndexerBalance{
		Address: usdcAddr, Name: "USD Coin", Symbol: "USDC",
		Decimals: 6, Balance: balance, QuoteUSD: quote,
	}
}

func TestDiscoverZeroNativeWithIndexedToken(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{native: big.NewInt(0)}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{balances: []client.IndexerBalance{usdcIndexerRow("12500000", 12.5)}},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	got, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	// Zero native balance is dropped; the indexed USDC survives.
	require.Len(t, got.Entries, 1)
	require.Equal(t, "USDC", got.Entries[0].Symbol)
	require.Equal(t, "12500000", got.Entries[0].RawAmount)
	require.InDelta(t, 12.5, got.TotalUSD, 1e-9)
	require.Equal(t, entity.SourceIndexer, got.Entries[0].Source)
}

func TestDiscoverMergeDedupes(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{native: big.NewInt(0)}},
		sweeper: &fakeSweeper{balances: map[string]*big.Int{usdcAddr: big.NewInt(12500000)}},
		lists:   &fakeTokenLists{tokens: []entity.TokenInfo{{Address: usdcAddr, Symbol: "USDC", Decimals: 6}}},
		indexer: &fakeIndexer{balances: []client.IndexerBalance{usdcIndexerRow("12500000", 12.5)}},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	got, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	require.Equal(t, entity.SourceHybrid, got.Entries[0].Source)
	require.InDelta(t, 12.5, got.Entries[0].ValueUSD, 1e-9)
}

func TestDiscoverOnchainAmountWins(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{native: big.NewInt(0)}},
		sweeper: &fakeSweeper{balances: map[string]*big.Int{usdcAddr: big.NewInt(25000000)}},
		lists:   &fakeTokenLists{tokens: []entity.TokenInfo{{Address: usdcAddr, Symbol: "USDC", Decimals: 6}}},
		indexer: &fakeIndexer{balances: []client.IndexerBalance{usdcIndexerRow("12500000", 12.5)}},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	got, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	// Fresher on-chain amount, revalued at the indexer's unit price.
	require.Equal(t, "25000000", got.Entries[0].RawAmount)
	require.InDelta(t, 25.0, got.Entries[0].ValueUSD, 1e-6)
}

func TestDiscoverNativePricedViaOracle(t *testing.T) {
	oneEth := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{native: oneEth}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{},
		prices:  &fakePrices{native: map[uint64]float64{1: 3000}},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	got, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	require.True(t, got.Entries[0].IsNative)
	require.Equal(t, "ETH", got.Entries[0].Symbol)
	require.InDelta(t, 3000.0, got.Entries[0].ValueUSD, 1e-9)
}

func TestDiscoverResultCached(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{balances: []client.IndexerBalance{usdcIndexerRow("1000000", 1)}},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	_, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	_, err = svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	require.Equal(t, 1, fx.indexer.calls)
}

func TestTokenListLoadedOncePerChain(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{tokens: []entity.TokenInfo{{Address: usdcAddr, Symbol: "USDC", Decimals: 6}}},
		indexer: &fakeIndexer{},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	_, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	// Different owner misses the result cache but hits the token list cache.
	_, err = svc.DiscoverChain(context.Background(), 1, "0x1111111111111111111111111111111111111111")
	require.NoError(t, err)
	require.Equal(t, 1, fx.lists.calls)
}

func TestIndexerOnlyModeSkipsSweep(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{err: errors.New("no rpc expected")},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{balances: []client.IndexerBalance{usdcIndexerRow("1000000", 1)}},
	}
	svc := newDiscovery(t, ModeIndexerOnly, fx)

	got, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	require.Equal(t, 0, fx.sweeper.calls)
}

func TestOnchainOnlyModeSkipsIndexer(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{native: big.NewInt(1)}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{err: errors.New("indexer must not be called")},
	}
	svc := newDiscovery(t, ModeOnchainOnly, fx)

	got, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	require.Equal(t, 0, fx.indexer.calls)
	require.Len(t, got.Entries, 1)
}

func TestDiscoverChainWithoutRPCDegrades(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{err: errors.New("should not dial")},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{balances: []client.IndexerBalance{usdcIndexerRow("1000000", 1)}},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	// 195 has no RPC endpoint: the on-chain path contributes nothing and the
	// indexer result stands alone.
	got, err := svc.DiscoverChain(context.Background(), 195, testOwner)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
}

func TestDiscoverDustFlag(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{balances: []client.IndexerBalance{usdcIndexerRow("100", 0.0001)}},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	got, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	require.True(t, got.Entries[0].IsDust)
}

func TestDiscoverKeepsZeroBalancesFromIndexer(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{balances: []client.IndexerBalance{usdcIndexerRow("0", 0)}},
		prices:  &fakePrices{},
	}
	cfg := config.DiscoveryConfig{
		Mode:                 ModeHybrid,
		CacheTTLSeconds:      60,
		TokenListTimeoutMs:   1000,
		IncludeZeroFromIndex: true,
	}
	svc := NewDiscoveryService(registry.New(nil), fx.clients, fx.sweeper, fx.lists, fx.indexer, fx.prices, cfg, zap.NewNop())

	got, err := svc.DiscoverChain(context.Background(), 1, testOwner)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	require.Equal(t, "0", got.Entries[0].RawAmount)
	require.Equal(t, entity.SourceIndexer, got.Entries[0].Source)
	require.False(t, got.Entries[0].IsDust)
}

func TestTokenListReusesProcessCache(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{tokens: []entity.TokenInfo{{Address: usdcAddr, Symbol: "USDC", Decimals: 6}}},
		indexer: &fakeIndexer{},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	tokens, err := svc.TokenList(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, tokens, 1)

	_, err = svc.TokenList(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, 1, fx.lists.calls)

	_, err = svc.TokenList(context.Background(), 424242)
	require.Error(t, err)
}

func TestDiscoverUnregisteredChain(t *testing.T) {
	fx := &discFixture{
		clients: &fakeChainClients{client: &discClient{}},
		sweeper: &fakeSweeper{},
		lists:   &fakeTokenLists{},
		indexer: &fakeIndexer{},
	}
	svc := newDiscovery(t, ModeHybrid, fx)

	_, err := svc.DiscoverChain(context.Background(), 424242, testOwner)
	require.Error(t, err)
}
