package service

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"time"

	"bridge_engine/internal/client"
	"bridge_engine/internal/config"
	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/evm"
	"bridge_engine/internal/pkg/metrics"
	"bridge_engine/internal/pkg/utils"
	"bridge_engine/internal/registry"

	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Discovery modes. Hybrid runs both paths and merges; the others run exactly
// one path.
const (
	ModeHybrid      = "hybrid"
	ModeIndexerOnly = "indexer-only"
	ModeOnchainOnly = "onchain-only"
)

// DiscoveryService finds every asset an owner holds on one chain. Results are
// cached per (chain, owner) for a short TTL; token lists are cached for the
// process lifetime.
type DiscoveryService interface {
	DiscoverChain(ctx context.Context, chainID uint64, owner string) (entity.ChainBalances, error)
	// TokenList returns the chain's curated token list from the process cache,
	// loading it on first use.
	TokenList(ctx context.Context, chainID uint64) ([]entity.TokenInfo, error)
}

// ChainClients hands out per-chain RPC clients. *evm.ClientProvider satisfies
// it; tests substitute fakes.
type ChainClients interface {
	Client(ctx context.Context, chainID uint64) (evm.ChainClient, error)
	CallTimeout() time.Duration
}

// BalanceSweeper batches token balance reads on one chain.
type BalanceSweeper interface {
	BalanceSweep(ctx context.Context, caller evm.ChainClient, chainID uint64,
		multicallAddr common.Address, owner common.Address, tokens []entity.TokenInfo) map[string]*big.Int
}

type discoveryServiceImpl struct {
	reg        *registry.ChainRegistry
	provider   ChainClients
	multicall  BalanceSweeper
	tokenLists client.TokenListClient
	indexer    client.IndexerClient
	prices     PriceService
	cfg        config.DiscoveryConfig

	resultCache *cache.Cache // (chain, owner) -> entity.ChainBalances
	listCache   *cache.Cache // chainID -> []entity.TokenInfo
	logger      *zap.Logger
}

// NewDiscoveryService wires the discovery engine.
func NewDiscoveryService(
	reg *registry.ChainRegistry,
	provider ChainClients,
	multicall BalanceSweeper,
	tokenLists client.TokenListClient,
	indexer client.IndexerClient,
	prices PriceService,
	cfg config.DiscoveryConfig,
	logger *zap.Logger,
) DiscoveryService {
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return &discoveryServiceImpl{
		reg:         reg,
		provider:    provider,
		multicall:   multicall,
		tokenLists:  tokenLists,
		indexer:     indexer,
		prices:      prices,
		cfg:         cfg,
		resultCache: cache.New(ttl, 2*ttl),
		listCache:   cache.New(cache.NoExpiration, 0),
		logger:      logger.Named("DiscoveryService"),
	}
}

func resultKey(chainID uint64, owner string) string {
	return fmt.Sprintf("%d:%s", chainID, strings.ToLower(owner))
}

func (s *discoveryServiceImpl) DiscoverChain(ctx context.Context, chainID uint64, owner string) (entity.ChainBalances, error) {
	key := resultKey(chainID, owner)
	if cached, found := s.resultCache.Get(key); found {
		metrics.CacheHits.WithLabelValues("discovery", "hit").Inc()
		return cached.(entity.ChainBalances), nil
	}
	metrics.CacheHits.WithLabelValues("discovery", "miss").Inc()

	def, ok := s.reg.ByID(chainID)
	if !ok {
		return entity.ChainBalances{}, fmt.Errorf("chain %d is not registered", chainID)
	}

	start := time.Now()
	defer func() {
		metrics.DiscoveryDuration.WithLabelValues(fmt.Sprintf("%d", chainID)).Observe(time.Since(start).Seconds())
	}()

	var (
		onchain    map[string]entity.BalanceEntry
		indexed    map[string]entity.BalanceEntry
		onchainErr error
		indexedErr error
	)

	if s.cfg.Mode != ModeIndexerOnly {
		onchain, onchainErr = s.sweepOnchain(ctx, def, owner)
		if onchainErr != nil {
			s.logger.Warn("On-chain discovery failed",
				zap.Uint64("chainID", chainID), zap.Error(onchainErr))
		}
	}
	if s.cfg.Mode != ModeOnchainOnly {
		indexed, indexedErr = s.fetchIndexed(ctx, def, owner)
		if indexedErr != nil {
			s.logger.Warn("Indexer discovery failed",
				zap.Uint64("chainID", chainID), zap.Error(indexedErr))
		}
	}

	if onchainErr != nil && indexedErr != nil {
		return entity.ChainBalances{}, fmt.Errorf("discovery failed for chain %d: %w", chainID, onchainErr)
	}
	if s.cfg.Mode == ModeIndexerOnly && indexedErr != nil {
		return entity.ChainBalances{}, fmt.Errorf("discovery failed for chain %d: %w", chainID, indexedErr)
	}
	if s.cfg.Mode == ModeOnchainOnly && onchainErr != nil {
		return entity.ChainBalances{}, fmt.Errorf("discovery failed for chain %d: %w", chainID, onchainErr)
	}

	result := s.merge(ctx, chainID, onchain, indexed)
	s.resultCache.Set(key, result, cache.DefaultExpiration)
	s.logger.Debug("Discovered chain balances",
		zap.Uint64("chainID", chainID),
		zap.Int("entries", len(result.Entries)),
		zap.Float64("totalUsd", result.TotalUSD))
	return result, nil
}

// sweepOnchain reads the native balance and multicall-sweeps the chain's token
// list. A chain with no RPC contributes nothing rather than failing.
func (s *discoveryServiceImpl) sweepOnchain(ctx context.Context, def entity.ChainDefinition, owner string) (map[string]entity.BalanceEntry, error) {
	out := make(map[string]entity.BalanceEntry)
	if !def.HasRPC() {
		return out, nil
	}

	chainClient, err := s.provider.Client(ctx, def.ChainID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.provider.CallTimeout())
	defer cancel()

	ownerAddr := common.HexToAddress(owner)
	now := time.Now()

	nativeBal, err := chainClient.BalanceAt(callCtx, ownerAddr, nil)
	if err != nil {
		return nil, fmt.Errorf("native balance read failed: %w", err)
	}
	if nativeBal.Sign() > 0 {
		out[entity.ZeroAddress] = entity.BalanceEntry{
			ChainID:      def.ChainID,
			TokenAddress: entity.ZeroAddress,
			Symbol:       def.NativeSymbol,
			Name:         def.NativeName,
			Decimals:     def.NativeDecimals,
			IsNative:     true,
			Amount:       nativeBal,
			RawAmount:    nativeBal.String(),
			Source:       entity.SourceNative,
			FetchedAt:    now,
		}
	}

	if !def.HasMulticall() {
		return out, nil
	}

	tokens, err := s.loadTokenList(ctx, def)
	if err != nil || len(tokens) == 0 {
		return out, nil
	}

	byAddr := make(map[string]entity.TokenInfo, len(tokens))
	for _, t := range tokens {
		byAddr[strings.ToLower(t.Address)] = t
	}

	sweepCtx, cancelSweep := context.WithTimeout(ctx, s.provider.CallTimeout())
	defer cancelSweep()

	balances := s.multicall.BalanceSweep(sweepCtx, chainClient, def.ChainID,
		common.HexToAddress(def.MulticallAddress), ownerAddr, tokens)
	for addr, bal := range balances {
		tok := byAddr[addr]
		out[addr] = entity.BalanceEntry{
			ChainID:      def.ChainID,
			TokenAddress: addr,
			Symbol:       tok.Symbol,
			Name:         tok.Name,
			Decimals:     tok.Decimals,
			Amount:       bal,
			RawAmount:    bal.String(),
			Source:       entity.SourceMulticall,
			FetchedAt:    now,
		}
	}
	return out, nil
}

// loadTokenList fetches and caches the chain's token list. Lists are static
// enough that one load per process is plenty.
func (s *discoveryServiceImpl) loadTokenList(ctx context.Context, def entity.ChainDefinition) ([]entity.TokenInfo, error) {
	key := fmt.Sprintf("%d", def.ChainID)
	if cached, found := s.listCache.Get(key); found {
		metrics.CacheHits.WithLabelValues("tokenlist", "hit").Inc()
		return cached.([]entity.TokenInfo), nil
	}
	metrics.CacheHits.WithLabelValues("tokenlist", "miss").Inc()

	listCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TokenListTimeoutMs)*time.Millisecond)
	defer cancel()

	tokens, err := s.tokenLists.Load(listCtx, def.ChainID, def.TokenListURLs)
	if err != nil {
		return nil, err
	}
	s.listCache.Set(key, tokens, cache.NoExpiration)
	return tokens, nil
}

func (s *discoveryServiceImpl) TokenList(ctx context.Context, chainID uint64) ([]entity.TokenInfo, error) {
	def, ok := s.reg.ByID(chainID)
	if !ok {
		return nil, fmt.Errorf("chain %d is not registered", chainID)
	}
	return s.loadTokenList(ctx, def)
}

func (s *discoveryServiceImpl) fetchIndexed(ctx context.Context, def entity.ChainDefinition, owner string) (map[string]entity.BalanceEntry, error) {
	items, err := s.indexer.Balances(ctx, def.CovalentSlug, owner)
	if err != nil {
		return nil, err
	}

	out := make(map[string]entity.BalanceEntry, len(items))
	now := time.Now()
	for _, item := range items {
		amount, ok := new(big.Int).SetString(item.Balance, 10)
		if !ok {
			continue
		}
		if amount.Sign() == 0 && !s.cfg.IncludeZeroFromIndex {
			continue
		}
		addr := strings.ToLower(item.Address)
		if item.IsNative {
			addr = entity.ZeroAddress
		}
		out[addr] = entity.BalanceEntry{
			ChainID:      def.ChainID,
			TokenAddress: addr,
			Symbol:       item.Symbol,
			Name:         item.Name,
			Decimals:     item.Decimals,
			IsNative:     item.IsNative,
			Amount:       amount,
			RawAmount:    amount.String(),
			ValueUSD:     item.QuoteUSD,
			Source:       entity.SourceIndexer,
			FetchedAt:    now,
		}
	}
	return out, nil
}

// merge combines the two discovery paths. The on-chain amount is authoritative
// when both paths saw an asset; the indexer contributes display metadata and
// its USD valuation. Indexer-only entries survive as-is. Anything still
// unpriced afterwards goes through the price service.
func (s *discoveryServiceImpl) merge(ctx context.Context, chainID uint64, onchain, indexed map[string]entity.BalanceEntry) entity.ChainBalances {
	merged := make(map[string]entity.BalanceEntry, len(onchain)+len(indexed))

	for addr, e := range onchain {
		merged[addr] = e
	}
	for addr, idx := range indexed {
		base, seen := merged[addr]
		if !seen {
			merged[addr] = idx
			continue
		}
		// Both paths saw it: keep the fresher on-chain amount, take the
		// indexer's richer metadata and pricing.
		if idx.Name != "" {
			base.Name = idx.Name
		}
		if idx.Symbol != "" {
			base.Symbol = idx.Symbol
		}
		base.Decimals = idx.Decimals
		if base.Amount != nil && idx.Amount != nil && base.Amount.Cmp(idx.Amount) == 0 {
			base.ValueUSD = idx.ValueUSD
		} else if idx.ValueUSD > 0 && idx.Amount != nil && idx.Amount.Sign() > 0 {
			// Re-derive the unit price from the indexer's own quote so the
			// fresher on-chain amount is valued consistently.
			unit := idx.ValueUSD / unitsOf(idx.Amount, idx.Decimals)
			base.ValueUSD = unitsOf(base.Amount, base.Decimals) * unit
		}
		base.Source = entity.SourceHybrid
		merged[addr] = base
	}

	s.priceUnquoted(ctx, chainID, merged)

	result := entity.ChainBalances{ChainID: chainID}
	for _, e := range merged {
		if e.Amount == nil {
			continue
		}
		// Zero balances are noise, except when the indexer explicitly reported
		// one and the operator asked to keep those.
		if e.Amount.Sign() == 0 && !(s.cfg.IncludeZeroFromIndex && e.Source == entity.SourceIndexer) {
			continue
		}
		e.IsDust = s.cfg.DustThresholdUSD > 0 && e.ValueUSD > 0 && e.ValueUSD < s.cfg.DustThresholdUSD
		result.Entries = append(result.Entries, e)
		result.TotalUSD += e.ValueUSD
	}
	sortEntries(result.Entries)
	return result
}

// priceUnquoted values entries the indexer did not quote. Pricing failures
// degrade to zero valuations; they never fail a discovery.
func (s *discoveryServiceImpl) priceUnquoted(ctx context.Context, chainID uint64, merged map[string]entity.BalanceEntry) {
	var unpriced []string
	for addr, e := range merged {
		if e.ValueUSD != 0 || e.Amount == nil || e.Amount.Sign() == 0 {
			continue
		}
		if e.IsNative {
			price, err := s.prices.NativePrice(ctx, chainID)
			if err != nil {
				s.logger.Warn("Native price lookup failed", zap.Uint64("chainID", chainID), zap.Error(err))
				continue
			}
			e.ValueUSD = utils.ValueUSD(e.Amount, e.Decimals, price)
			merged[addr] = e
			continue
		}
		unpriced = append(unpriced, addr)
	}
	if len(unpriced) == 0 {
		return
	}

	prices, err := s.prices.TokenPrices(ctx, chainID, unpriced)
	if err != nil {
		s.logger.Warn("Token price lookup failed", zap.Uint64("chainID", chainID), zap.Error(err))
		return
	}
	for _, addr := range unpriced {
		e := merged[addr]
		e.ValueUSD = utils.ValueUSD(e.Amount, e.Decimals, prices[addr])
		merged[addr] = e
	}
}

func sortEntries(entries []entity.BalanceEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ValueUSD != entries[j].ValueUSD {
			return entries[i].ValueUSD > entries[j].ValueUSD
		}
		return entries[i].TokenAddress < entries[j].TokenAddress
	})
}

func unitsOf(amount *big.Int, decimals uint8) float64 {
	if amount == nil {
		return 0
	}
	v, err := strconv.ParseFloat(utils.FormatUnits(amount, decimals), 64)
	if err != nil {
		return 0
	}
	return v
}
