package evm

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"bridge_engine/internal/config"
	"bridge_engine/internal/registry"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// ChainClient is the subset of an RPC client the engine uses. ethclient.Client
// satisfies it; tests substitute fakes.
type ChainClient interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// ClientProvider lazily dials and caches one read-only RPC client per chain.
type ClientProvider struct {
	reg    *registry.ChainRegistry
	cfg    config.RPCConfig
	logger *zap.Logger

	mu      sync.Mutex
	clients map[uint64]ChainClient
}

// NewClientProvider creates a provider over the registry's RPC endpoints.
func NewClientProvider(reg *registry.ChainRegistry, cfg config.RPCConfig, logger *zap.Logger) *ClientProvider {
	return &ClientProvider{
		reg:     reg,
		cfg:     cfg,
		logger:  logger.Named("ClientProvider"),
		clients: make(map[uint64]ChainClient),
	}
}

// Client returns the cached client for a chain, dialing on first use.
// Chains without a configured RPC endpoint return an error; callers are
// expected to degrade rather than abort.
func (p *ClientProvider) Client(ctx context.Context, chainID uint64) (ChainClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}

	def, ok := p.reg.ByID(chainID)
	if !ok {
		return nil, fmt.Errorf("chain %d is not registered", chainID)
	}
	if !def.HasRPC() {
		return nil, fmt.Errorf("chain %d (%s) has no RPC endpoint configured", chainID, def.Name)
	}

	dialCtx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.DialTimeoutMs)*time.Millisecond)
	defer cancel()

	client, err := ethclient.DialContext(dialCtx, def.RPCURL)
	if err != nil {
		p.logger.Error("Failed to dial RPC", zap.Uint64("chainID", chainID), zap.String("url", def.RPCURL), zap.Error(err))
		return nil, fmt.Errorf("failed to dial RPC for chain %d: %w", chainID, err)
	}

	p.logger.Debug("Dialed RPC client", zap.Uint64("chainID", chainID), zap.String("url", def.RPCURL))
	p.clients[chainID] = client
	return client, nil
}

// CallTimeout returns the configured per-call deadline.
func (p *ClientProvider) CallTimeout() time.Duration {
	return time.Duration(p.cfg.CallTimeoutMs) * time.Millisecond
}
