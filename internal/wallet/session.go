package wallet

import (
	"context"
	"errors"
	"sync"
	"time"

	"bridge_engine/internal/apperr"
	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/registry"

	"go.uber.org/zap"
)

// Listener receives wallet session events. Unset callbacks are skipped.
// Delivery is synchronous and at most once per state transition.
type Listener struct {
	OnAccountsChanged func(accounts []string)
	OnChainChanged    func(chainID uint64)
	OnDisconnected    func(err error)
}

// SessionManager owns the single active wallet connection and its lifecycle:
// Disconnected -> Connecting -> Connected -> Disconnected, with Connected
// self-transitions on account and chain changes.
type SessionManager struct {
	source         ProviderSource
	reg            *registry.ChainRegistry
	logger         *zap.Logger
	connectTimeout time.Duration
	pollInterval   time.Duration

	mu       sync.Mutex
	state    entity.SessionState
	provider Provider
	accounts []string
	chainID  uint64
	pumpStop chan struct{}

	subMu   sync.Mutex
	subs    map[int]Listener
	nextSub int
}

// NewSessionManager creates a disconnected session manager.
func NewSessionManager(source ProviderSource, reg *registry.ChainRegistry, connectTimeout, pollInterval time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		source:         source,
		reg:            reg,
		logger:         logger.Named("SessionManager"),
		connectTimeout: connectTimeout,
		pollInterval:   pollInterval,
		subs:           make(map[int]Listener),
	}
}

// Subscribe registers a listener for session events and returns an
// unsubscribe function. A listener registered twice fires twice; the manager
// itself never double-delivers a single transition.
func (m *SessionManager) Subscribe(l Listener) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = l
	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		delete(m.subs, id)
	}
}

// Info returns a read-only snapshot of the session.
func (m *SessionManager) Info() entity.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := entity.SessionInfo{
		State:    m.state,
		StateStr: m.state.String(),
		Accounts: append([]string(nil), m.accounts...),
		ChainID:  m.chainID,
	}
	if len(info.Accounts) > 0 {
		info.Address = info.Accounts[0]
	}
	return info
}

// Connected reports whether a session is established.
func (m *SessionManager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == entity.SessionConnected
}

// Address returns the active account, or empty when disconnected.
func (m *SessionManager) Address() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.accounts) == 0 {
		return ""
	}
	return m.accounts[0]
}

// ChainID returns the active chain id.
func (m *SessionManager) ChainID() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chainID
}

// Connect opens the connection surface and waits, bounded by the configured
// deadline, first for a provider handle and then for at least one account.
func (m *SessionManager) Connect(ctx context.Context) (entity.SessionInfo, error) {
	m.mu.Lock()
	if m.state == entity.SessionConnected {
		m.mu.Unlock()
		return m.Info(), nil
	}
	m.state = entity.SessionConnecting
	m.mu.Unlock()

	if err := m.source.Open(ctx); err != nil {
		m.resetToDisconnected()
		if errors.Is(err, ErrRejected) {
			return entity.SessionInfo{}, apperr.Wrap(apperr.CodeConnectRejected, "wallet connection rejected", err)
		}
		return entity.SessionInfo{}, apperr.Wrap(apperr.CodeConnectTimeout, "failed to open wallet connection surface", err)
	}

	deadline := time.Now().Add(m.connectTimeout)

	provider, err := m.waitForProvider(ctx, deadline)
	if err != nil {
		m.resetToDisconnected()
		return entity.SessionInfo{}, err
	}

	accounts, err := m.waitForAccounts(ctx, provider, deadline)
	if err != nil {
		_ = provider.Close()
		m.resetToDisconnected()
		return entity.SessionInfo{}, err
	}

	chainID, err := provider.ChainID(ctx)
	if err != nil {
		_ = provider.Close()
		m.resetToDisconnected()
		return entity.SessionInfo{}, apperr.Wrap(apperr.CodeConnectTimeout, "failed to read active chain id", err)
	}

	m.establish(provider, accounts, chainID)
	m.logger.Info("Wallet connected",
		zap.String("address", accounts[0]),
		zap.Uint64("chainID", chainID),
		zap.Int("accounts", len(accounts)))
	return m.Info(), nil
}

// RestoreSession checks non-interactively for an already-authorized session.
// It returns (nil, nil) when there is nothing to restore.
func (m *SessionManager) RestoreSession(ctx context.Context) (*entity.SessionInfo, error) {
	m.mu.Lock()
	if m.state != entity.SessionDisconnected {
		m.mu.Unlock()
		info := m.Info()
		return &info, nil
	}
	m.mu.Unlock()

	provider, err := m.source.Existing(ctx)
	if err != nil || provider == nil {
		return nil, nil
	}

	accounts, err := provider.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		_ = provider.Close()
		return nil, nil
	}

	chainID, err := provider.ChainID(ctx)
	if err != nil {
		_ = provider.Close()
		return nil, nil
	}

	m.establish(provider, accounts, chainID)
	m.logger.Info("Wallet session restored", zap.String("address", accounts[0]), zap.Uint64("chainID", chainID))
	info := m.Info()
	return &info, nil
}

// SwitchChain asks the provider to change its active chain, registering the
// chain from the registry when the provider does not know it.
func (m *SessionManager) SwitchChain(ctx context.Context, targetID uint64) error {
	m.mu.Lock()
	provider := m.provider
	connected := m.state == entity.SessionConnected
	m.mu.Unlock()

	if !connected || provider == nil {
		return apperr.New(apperr.CodeInvalidRequest, "wallet not connected")
	}

	err := provider.SwitchChain(ctx, targetID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUnknownChain) {
		return apperr.Wrap(apperr.CodeUnsupportedChain, "failed to switch chain", err)
	}

	def, ok := m.reg.ByID(targetID)
	if !ok {
		// Unknown to the registry too; the provider's add-chain flow is
		// never attempted.
		return apperr.New(apperr.CodeUnsupportedChain, "chain not in registry")
	}
	if err := provider.AddChain(ctx, def); err != nil {
		return apperr.Wrap(apperr.CodeUnsupportedChain, "failed to register chain with provider", err)
	}
	if err := provider.SwitchChain(ctx, targetID); err != nil {
		return apperr.Wrap(apperr.CodeUnsupportedChain, "failed to switch chain after registering", err)
	}
	return nil
}

// SignMessage signs with the active account.
func (m *SessionManager) SignMessage(ctx context.Context, message []byte) ([]byte, error) {
	m.mu.Lock()
	provider, addr := m.provider, ""
	if len(m.accounts) > 0 {
		addr = m.accounts[0]
	}
	connected := m.state == entity.SessionConnected
	m.mu.Unlock()

	if !connected || provider == nil || addr == "" {
		return nil, apperr.New(apperr.CodeInvalidRequest, "wallet not connected")
	}
	return provider.SignMessage(ctx, addr, message)
}

// SendTransaction signs and broadcasts through the session's provider.
func (m *SessionManager) SendTransaction(ctx context.Context, tx TxRequest) (string, error) {
	m.mu.Lock()
	provider := m.provider
	connected := m.state == entity.SessionConnected
	if tx.From == "" && len(m.accounts) > 0 {
		tx.From = m.accounts[0]
	}
	m.mu.Unlock()

	if !connected || provider == nil {
		return "", apperr.New(apperr.CodeInvalidRequest, "wallet not connected")
	}
	return provider.SendTransaction(ctx, tx)
}

// Disconnect tears the session down unconditionally. Safe from any state.
func (m *SessionManager) Disconnect() {
	m.mu.Lock()
	provider := m.provider
	stop := m.pumpStop
	wasConnected := m.state == entity.SessionConnected
	m.provider = nil
	m.pumpStop = nil
	m.accounts = nil
	m.chainID = 0
	m.state = entity.SessionDisconnected
	m.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if provider != nil {
		_ = provider.Close()
	}
	_ = m.source.Disconnect(context.Background())

	if wasConnected {
		m.notifyDisconnected(nil)
		m.logger.Info("Wallet disconnected")
	}
}

func (m *SessionManager) establish(provider Provider, accounts []string, chainID uint64) {
	stop := make(chan struct{})
	m.mu.Lock()
	m.provider = provider
	m.accounts = accounts
	m.chainID = chainID
	m.state = entity.SessionConnected
	m.pumpStop = stop
	m.mu.Unlock()
	go m.pump(provider, stop)
}

func (m *SessionManager) waitForProvider(ctx context.Context, deadline time.Time) (Provider, error) {
	for {
		provider, err := m.source.Provider(ctx)
		if err != nil {
			if errors.Is(err, ErrRejected) {
				return nil, apperr.Wrap(apperr.CodeConnectRejected, "wallet connection rejected", err)
			}
			return nil, apperr.Wrap(apperr.CodeConnectTimeout, "provider acquisition failed", err)
		}
		if provider != nil {
			return provider, nil
		}
		if time.Now().After(deadline) {
			return nil, apperr.New(apperr.CodeConnectTimeout, "timed out waiting for wallet provider")
		}
		select {
		case <-ctx.Done():
			return nil, apperr.Wrap(apperr.CodeConnectTimeout, "wallet connect canceled", ctx.Err())
		case <-time.After(m.pollInterval):
		}
	}
}

func (m *SessionManager) waitForAccounts(ctx context.Context, provider Provider, deadline time.Time) ([]string, error) {
	for {
		accounts, err := provider.Accounts(ctx)
		if err == nil && len(accounts) > 0 {
			return accounts, nil
		}
		if errors.Is(err, ErrRejected) {
			return nil, apperr.Wrap(apperr.CodeConnectRejected, "wallet account access rejected", err)
		}
		if time.Now().After(deadline) {
			return nil, apperr.New(apperr.CodeConnectTimeout, "timed out waiting for wallet accounts")
		}
		select {
		case <-ctx.Done():
			return nil, apperr.Wrap(apperr.CodeConnectTimeout, "wallet connect canceled", ctx.Err())
		case <-time.After(m.pollInterval):
		}
	}
}

func (m *SessionManager) resetToDisconnected() {
	m.mu.Lock()
	m.state = entity.SessionDisconnected
	m.mu.Unlock()
}

// pump relays provider events to subscribers. It is the only goroutine that
// dispatches callbacks, which keeps delivery at most once per transition.
func (m *SessionManager) pump(provider Provider, stop chan struct{}) {
	events := provider.Events()
	for {
		select {
		case <-stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.handleEvent(ev)
		}
	}
}

func (m *SessionManager) handleEvent(ev Event) {
	switch ev.Kind {
	case EventAccountsChanged:
		m.mu.Lock()
		m.accounts = append([]string(nil), ev.Accounts...)
		m.mu.Unlock()
		m.subMu.Lock()
		listeners := m.snapshotLocked()
		m.subMu.Unlock()
		for _, l := range listeners {
			if l.OnAccountsChanged != nil {
				l.OnAccountsChanged(ev.Accounts)
			}
		}
	case EventChainChanged:
		m.mu.Lock()
		m.chainID = ev.ChainID
		m.mu.Unlock()
		m.subMu.Lock()
		listeners := m.snapshotLocked()
		m.subMu.Unlock()
		for _, l := range listeners {
			if l.OnChainChanged != nil {
				l.OnChainChanged(ev.ChainID)
			}
		}
	case EventDisconnected:
		m.mu.Lock()
		m.provider = nil
		m.accounts = nil
		m.chainID = 0
		m.state = entity.SessionDisconnected
		stop := m.pumpStop
		m.pumpStop = nil
		m.mu.Unlock()
		if stop != nil {
			close(stop)
		}
		m.notifyDisconnected(ev.Err)
	}
}

func (m *SessionManager) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(m.subs))
	for _, l := range m.subs {
		out = append(out, l)
	}
	return out
}

func (m *SessionManager) notifyDisconnected(err error) {
	m.subMu.Lock()
	listeners := m.snapshotLocked()
	m.subMu.Unlock()
	for _, l := range listeners {
		if l.OnDisconnected != nil {
			l.OnDisconnected(err)
		}
	}
}
