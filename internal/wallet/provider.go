package wallet

import (
	"context"
	"errors"
	"math/big"

	"bridge_engine/internal/domain/entity"
)

// ErrUnknownChain is returned by Provider.SwitchChain when the wallet does
// not know the target chain and needs it registered first.
var ErrUnknownChain = errors.New("chain unknown to provider")

// ErrRejected signals an explicit user or provider refusal.
var ErrRejected = errors.New("connection rejected")

// EventKind enumerates the provider events the session manager relays.
type EventKind int

const (
	EventAccountsChanged EventKind = iota
	EventChainChanged
	EventDisconnected
)

// Event is a typed wallet provider event.
type Event struct {
	Kind     EventKind
	Accounts []string
	ChainID  uint64
	Err      error
}

// TxRequest is a transaction submitted through the wallet's signer.
type TxRequest struct {
	From     string
	To       string
	Value    *big.Int
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
}

// Provider is the underlying wallet handle. It is owned exclusively by the
// SessionManager; no other component may hold or mutate it.
type Provider interface {
	// Accounts lists authorized accounts without prompting the user.
	Accounts(ctx context.Context) ([]string, error)
	ChainID(ctx context.Context) (uint64, error)
	// SwitchChain asks the wallet to change its active chain. It returns
	// ErrUnknownChain when the wallet has never seen the chain.
	SwitchChain(ctx context.Context, chainID uint64) error
	// AddChain registers a chain with the wallet using registry metadata.
	AddChain(ctx context.Context, def entity.ChainDefinition) error
	SignMessage(ctx context.Context, account string, message []byte) ([]byte, error)
	// SendTransaction signs and broadcasts, returning the transaction hash.
	SendTransaction(ctx context.Context, tx TxRequest) (string, error)
	// Events yields account/chain/disconnect notifications. The channel is
	// closed by Close.
	Events() <-chan Event
	Close() error
}

// NoopSource is the source used when no wallet is configured: every connect
// attempt is rejected and no session can ever be restored.
type NoopSource struct{}

func (NoopSource) Open(ctx context.Context) error                 { return nil }
func (NoopSource) Provider(ctx context.Context) (Provider, error) { return nil, ErrRejected }
func (NoopSource) Existing(ctx context.Context) (Provider, error) { return nil, nil }
func (NoopSource) Disconnect(ctx context.Context) error           { return nil }

// ProviderSource is the connection surface a wallet provider is acquired
// from (the connect-wallet flow in the original application).
type ProviderSource interface {
	// Open starts the interactive connection flow. It returns immediately;
	// the provider becomes available asynchronously.
	Open(ctx context.Context) error
	// Provider returns the handle once the user has approved, (nil, nil)
	// while still pending, or ErrRejected on refusal.
	Provider(ctx context.Context) (Provider, error)
	// Existing returns an already-authorized provider without any prompt,
	// or (nil, nil) when none exists.
	Existing(ctx context.Context) (Provider, error)
	// Disconnect tears down the surface's session state.
	Disconnect(ctx context.Context) error
}
