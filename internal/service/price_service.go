package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bridge_engine/internal/apperr"
	"bridge_engine/internal/client"
	"bridge_engine/internal/pkg/metrics"
	"bridge_engine/internal/registry"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// PriceService resolves USD prices for native coins and ERC-20 tokens. All
// results pass through a short-lived cache; concurrent misses for the same
// lookup are coalesced into a single upstream request. Assets with no price
// mapping resolve to zero, never to an error.
type PriceService interface {
	// NativePrice returns the USD price of one chain's native coin.
	NativePrice(ctx context.Context, chainID uint64) (float64, error)
	// NativePrices batches native coin prices for many chains in one request.
	NativePrices(ctx context.Context, chainIDs []uint64) (map[uint64]float64, error)
	// TokenPrices returns USD prices keyed by lowercase contract address for
	// tokens on one chain. Unpriced tokens map to zero.
	TokenPrices(ctx context.Context, chainID uint64, addresses []string) (map[string]float64, error)
	// Ping probes the upstream price API.
	Ping(ctx context.Context) error
}

type priceServiceImpl struct {
	gecko  client.CoinGeckoClient
	reg    *registry.ChainRegistry
	cache  *cache.Cache
	group  singleflight.Group
	ttl    time.Duration
	logger *zap.Logger
}

// NewPriceService creates a price service with the given cache TTL.
func NewPriceService(gecko client.CoinGeckoClient, reg *registry.ChainRegistry, ttl time.Duration, logger *zap.Logger) PriceService {
	return &priceServiceImpl{
		gecko:  gecko,
		reg:    reg,
		cache:  cache.New(ttl, 2*ttl),
		ttl:    ttl,
		logger: logger.Named("PriceService"),
	}
}

func nativeCacheKey(coinID string) string { return "native:" + coinID }

func tokenCacheKey(platform, addr string) string {
	return "token:" + platform + ":" + strings.ToLower(addr)
}

func (s *priceServiceImpl) NativePrice(ctx context.Context, chainID uint64) (float64, error) {
	prices, err := s.NativePrices(ctx, []uint64{chainID})
	if err != nil {
		return 0, err
	}
	return prices[chainID], nil
}

func (s *priceServiceImpl) NativePrices(ctx context.Context, chainIDs []uint64) (map[uint64]float64, error) {
	out := make(map[uint64]float64, len(chainIDs))
	coinByChain := make(map[uint64]string)
	missing := make(map[string]struct{})

	for _, id := range chainIDs {
		def, ok := s.reg.ByID(id)
		if !ok || def.CoinGeckoNativeID == "" {
			// No mapping: the native coin is simply unpriced.
			out[id] = 0
			continue
		}
		coinByChain[id] = def.CoinGeckoNativeID
		if cached, found := s.cache.Get(nativeCacheKey(def.CoinGeckoNativeID)); found {
			metrics.CacheHits.WithLabelValues("prices", "hit").Inc()
			out[id] = cached.(float64)
			continue
		}
		metrics.CacheHits.WithLabelValues("prices", "miss").Inc()
		missing[def.CoinGeckoNativeID] = struct{}{}
	}

	if len(missing) > 0 {
		ids := make([]string, 0, len(missing))
		for id := range missing {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		fetched, err := s.fetchNative(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, coinID := range ids {
			s.cache.Set(nativeCacheKey(coinID), fetched[coinID], s.ttl)
		}
	}

	for id, coinID := range coinByChain {
		if _, done := out[id]; done {
			continue
		}
		if cached, found := s.cache.Get(nativeCacheKey(coinID)); found {
			out[id] = cached.(float64)
		}
	}
	return out, nil
}

// fetchNative issues the upstream request, coalescing identical concurrent
// calls.
func (s *priceServiceImpl) fetchNative(ctx context.Context, coinIDs []string) (map[string]float64, error) {
	key := "native|" + strings.Join(coinIDs, ",")
	v, err, _ := s.group.Do(key, func() (any, error) {
		metrics.PriceLookups.Inc()
		return s.gecko.SimplePrices(ctx, coinIDs)
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodePriceUnavailable, "native price fetch failed", err)
	}
	return v.(map[string]float64), nil
}

func (s *priceServiceImpl) TokenPrices(ctx context.Context, chainID uint64, addresses []string) (map[string]float64, error) {
	out := make(map[string]float64, len(addresses))
	if len(addresses) == 0 {
		return out, nil
	}

	def, ok := s.reg.ByID(chainID)
	if !ok || def.CoinGeckoPlatform == "" {
		// Unmapped chain: every token is unpriced.
		for _, a := range addresses {
			out[strings.ToLower(a)] = 0
		}
		return out, nil
	}

	var missing []string
	for _, a := range addresses {
		addr := strings.ToLower(a)
		if cached, found := s.cache.Get(tokenCacheKey(def.CoinGeckoPlatform, addr)); found {
			metrics.CacheHits.WithLabelValues("prices", "hit").Inc()
			out[addr] = cached.(float64)
			continue
		}
		metrics.CacheHits.WithLabelValues("prices", "miss").Inc()
		missing = append(missing, addr)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		key := "token|" + def.CoinGeckoPlatform + "|" + strings.Join(missing, ",")
		v, err, _ := s.group.Do(key, func() (any, error) {
			metrics.PriceLookups.Inc()
			return s.gecko.TokenPrices(ctx, def.CoinGeckoPlatform, missing)
		})
		if err != nil {
			return nil, apperr.Wrap(apperr.CodePriceUnavailable,
				fmt.Sprintf("token price fetch for chain %d failed", chainID), err)
		}
		fetched := v.(map[string]float64)
		for _, addr := range missing {
			price := fetched[addr] // absent => 0, cached as 0 to stop refetch storms
			s.cache.Set(tokenCacheKey(def.CoinGeckoPlatform, addr), price, s.ttl)
			out[addr] = price
		}
	}
	return out, nil
}

func (s *priceServiceImpl) Ping(ctx context.Context) error {
	return s.gecko.Ping(ctx)
}
