package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/registry"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// LocalSource backs the wallet session with an in-process private key instead
// of an external wallet application. Approval is implicit, so Open is a no-op
// and Provider resolves on the first poll.
type LocalSource struct {
	reg            *registry.ChainRegistry
	key            *ecdsa.PrivateKey
	defaultChainID uint64
	logger         *zap.Logger

	mu       sync.Mutex
	provider *localProvider
}

// NewLocalSource parses a hex private key and creates the source. The key may
// carry an optional 0x prefix.
func NewLocalSource(privateKeyHex string, defaultChainID uint64, reg *registry.ChainRegistry, logger *zap.Logger) (*LocalSource, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid wallet private key: %w", err)
	}
	if defaultChainID == 0 {
		defaultChainID = 1
	}
	return &LocalSource{
		reg:            reg,
		key:            key,
		defaultChainID: defaultChainID,
		logger:         logger.Named("LocalSource"),
	}, nil
}

func (s *LocalSource) Open(ctx context.Context) error { return nil }

func (s *LocalSource) Provider(ctx context.Context) (Provider, error) {
	return s.acquire(), nil
}

func (s *LocalSource) Existing(ctx context.Context) (Provider, error) {
	return s.acquire(), nil
}

func (s *LocalSource) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	s.provider = nil
	s.mu.Unlock()
	return nil
}

func (s *LocalSource) acquire() Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider == nil {
		s.provider = &localProvider{
			reg:     s.reg,
			key:     s.key,
			address: crypto.PubkeyToAddress(s.key.PublicKey),
			chainID: s.defaultChainID,
			events:  make(chan Event, 8),
			clients: make(map[uint64]*ethclient.Client),
			logger:  s.logger,
		}
	}
	return s.provider
}

// localProvider signs with the configured key and broadcasts through the
// registry's RPC endpoints. It dials its own clients because it needs the
// write surface (nonce, send) that the read-only discovery clients do not
// expose.
type localProvider struct {
	reg     *registry.ChainRegistry
	key     *ecdsa.PrivateKey
	address common.Address
	logger  *zap.Logger

	mu      sync.Mutex
	chainID uint64
	events  chan Event
	clients map[uint64]*ethclient.Client
	closed  bool
}

func (p *localProvider) Accounts(ctx context.Context) ([]string, error) {
	return []string{p.address.Hex()}, nil
}

func (p *localProvider) ChainID(ctx context.Context) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chainID, nil
}

func (p *localProvider) SwitchChain(ctx context.Context, chainID uint64) error {
	def, ok := p.reg.ByID(chainID)
	if !ok || !def.HasRPC() {
		return ErrUnknownChain
	}
	p.mu.Lock()
	changed := p.chainID != chainID
	p.chainID = chainID
	events, closed := p.events, p.closed
	p.mu.Unlock()

	if changed && !closed {
		select {
		case events <- Event{Kind: EventChainChanged, ChainID: chainID}:
		default:
		}
	}
	return nil
}

// AddChain is a no-op: the registry is the single chain table, so anything it
// knows is already addable and anything else stays unknown.
func (p *localProvider) AddChain(ctx context.Context, def entity.ChainDefinition) error {
	if _, ok := p.reg.ByID(def.ChainID); !ok {
		return ErrUnknownChain
	}
	return nil
}

func (p *localProvider) SignMessage(ctx context.Context, account string, message []byte) ([]byte, error) {
	if !strings.EqualFold(account, p.address.Hex()) {
		return nil, fmt.Errorf("account %s is not managed by this wallet", account)
	}
	return crypto.Sign(accounts.TextHash(message), p.key)
}

func (p *localProvider) SendTransaction(ctx context.Context, tx TxRequest) (string, error) {
	p.mu.Lock()
	chainID := p.chainID
	p.mu.Unlock()

	client, err := p.client(ctx, chainID)
	if err != nil {
		return "", err
	}

	nonce, err := client.PendingNonceAt(ctx, p.address)
	if err != nil {
		return "", fmt.Errorf("nonce lookup failed: %w", err)
	}

	gasPrice := tx.GasPrice
	if gasPrice == nil {
		if gasPrice, err = client.SuggestGasPrice(ctx); err != nil {
			return "", fmt.Errorf("gas price lookup failed: %w", err)
		}
	}
	value := tx.Value
	if value == nil {
		value = big.NewInt(0)
	}

	to := common.HexToAddress(tx.To)
	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      tx.Gas,
		GasPrice: gasPrice,
		Data:     tx.Data,
	})

	signed, err := types.SignTx(unsigned, types.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), p.key)
	if err != nil {
		return "", fmt.Errorf("transaction signing failed: %w", err)
	}
	if err := client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("transaction broadcast failed: %w", err)
	}

	hash := signed.Hash().Hex()
	p.logger.Info("Transaction broadcast",
		zap.String("hash", hash),
		zap.Uint64("chainID", chainID),
		zap.String("to", tx.To))
	return hash, nil
}

func (p *localProvider) Events() <-chan Event {
	return p.events
}

func (p *localProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	close(p.events)
	for _, c := range p.clients {
		c.Close()
	}
	p.clients = make(map[uint64]*ethclient.Client)
	return nil
}

func (p *localProvider) client(ctx context.Context, chainID uint64) (*ethclient.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}
	def, ok := p.reg.ByID(chainID)
	if !ok || !def.HasRPC() {
		return nil, fmt.Errorf("chain %d has no RPC endpoint for broadcasting", chainID)
	}
	c, err := ethclient.DialContext(ctx, def.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC for chain %d: %w", chainID, err)
	}
	p.clients[chainID] = c
	return c, nil
}
