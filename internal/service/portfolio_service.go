package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"bridge_engine/internal/apperr"
	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/registry"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// PortfolioService aggregates per-chain discoveries into one cross-chain view.
type PortfolioService interface {
	// Aggregate sweeps the given chains concurrently. A nil or empty chain
	// list means every registered chain. Failed chains are dropped and the
	// portfolio is marked partial; the call only errors when the owner is
	// invalid or the context dies.
	Aggregate(ctx context.Context, owner string, chainIDs []uint64) (entity.Portfolio, error)
}

type portfolioServiceImpl struct {
	reg           *registry.ChainRegistry
	discovery     DiscoveryService
	maxConcurrent int
	logger        *zap.Logger
}

// NewPortfolioService creates the aggregator with a chain-level concurrency cap.
func NewPortfolioService(reg *registry.ChainRegistry, discovery DiscoveryService, maxConcurrent int, logger *zap.Logger) PortfolioService {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &portfolioServiceImpl{
		reg:           reg,
		discovery:     discovery,
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("PortfolioService"),
	}
}

func (s *portfolioServiceImpl) Aggregate(ctx context.Context, owner string, chainIDs []uint64) (entity.Portfolio, error) {
	owner = strings.TrimSpace(owner)
	if !isHexAddress(owner) {
		return entity.Portfolio{}, fmt.Errorf("invalid owner address %q", owner)
	}
	if len(chainIDs) == 0 {
		chainIDs = s.reg.IDs()
	}

	portfolio := entity.Portfolio{
		Owner:   strings.ToLower(owner),
		ByChain: make(map[uint64]entity.ChainBalances, len(chainIDs)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for _, chainID := range chainIDs {
		g.Go(func() error {
			balances, err := s.discovery.DiscoverChain(gctx, chainID, owner)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("Chain dropped from portfolio",
					zap.Uint64("chainID", chainID), zap.Error(err))
				portfolio.Partial = true
				return nil
			}
			portfolio.ByChain[chainID] = balances
			portfolio.TotalUSD += balances.TotalUSD
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return entity.Portfolio{}, err
	}
	if err := ctx.Err(); err != nil {
		return entity.Portfolio{}, err
	}
	if portfolio.Partial {
		portfolio.Warning = string(apperr.CodeDiscoveryPartial)
	}
	return portfolio, nil
}

func isHexAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
