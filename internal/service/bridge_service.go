package service

import (
	"context"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"bridge_engine/internal/apperr"
	"bridge_engine/internal/client"
	"bridge_engine/internal/config"
	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/evm"
	"bridge_engine/internal/pkg/metrics"
	"bridge_engine/internal/pkg/utils"
	"bridge_engine/internal/registry"
	"bridge_engine/internal/wallet"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// WalletSession is the slice of the session manager the orchestrator needs.
type WalletSession interface {
	Connected() bool
	Address() string
	ChainID() uint64
	SwitchChain(ctx context.Context, chainID uint64) error
	SendTransaction(ctx context.Context, tx wallet.TxRequest) (string, error)
}

// BridgeService quotes and executes cross-chain transfers. The hosted API is
// tried first; the on-chain router on the source chain is the fallback.
// Quotes carry a generation stamp: Invalidate bumps it, and Execute refuses a
// quote issued before the bump.
type BridgeService interface {
	GetQuote(ctx context.Context, req entity.BridgeRequest) (entity.BridgeQuote, error)
	Execute(ctx context.Context, quote entity.BridgeQuote) (entity.BridgeResult, error)
	// Invalidate discards all previously issued quotes. Call it whenever any
	// quote input changes.
	Invalidate()
}

type bridgeServiceImpl struct {
	reg      *registry.ChainRegistry
	session  WalletSession
	hosted   client.HostedBridgeClient
	provider ChainClients
	prices   PriceService
	cfg      config.BridgeConfig
	logger   *zap.Logger

	generation atomic.Uint64
}

// NewBridgeService wires the bridge orchestrator.
func NewBridgeService(
	reg *registry.ChainRegistry,
	session WalletSession,
	hosted client.HostedBridgeClient,
	provider ChainClients,
	prices PriceService,
	cfg config.BridgeConfig,
	logger *zap.Logger,
) BridgeService {
	return &bridgeServiceImpl{
		reg:      reg,
		session:  session,
		hosted:   hosted,
		provider: provider,
		prices:   prices,
		cfg:      cfg,
		logger:   logger.Named("BridgeService"),
	}
}

func (s *bridgeServiceImpl) Invalidate() {
	s.generation.Add(1)
}

// validate rejects malformed requests before any network traffic happens.
func (s *bridgeServiceImpl) validate(req *entity.BridgeRequest) (fromDef, toDef entity.ChainDefinition, err error) {
	if !s.session.Connected() {
		return fromDef, toDef, apperr.New(apperr.CodeInvalidRequest, "wallet not connected")
	}
	if req.FromChainID == req.ToChainID {
		return fromDef, toDef, apperr.New(apperr.CodeInvalidRequest, "source and destination chain are the same")
	}
	var ok bool
	if fromDef, ok = s.reg.ByID(req.FromChainID); !ok {
		return fromDef, toDef, apperr.New(apperr.CodeUnsupportedChain, "source chain not supported")
	}
	if toDef, ok = s.reg.ByID(req.ToChainID); !ok {
		return fromDef, toDef, apperr.New(apperr.CodeUnsupportedChain, "destination chain not supported")
	}
	if req.Token != entity.ZeroAddress && !isHexAddress(req.Token) {
		return fromDef, toDef, apperr.New(apperr.CodeInvalidRequest, "invalid token address")
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return fromDef, toDef, apperr.New(apperr.CodeInvalidRequest, "amount must be positive")
	}
	if req.Recipient == "" {
		req.Recipient = s.session.Address()
	}
	if !isHexAddress(req.Recipient) {
		return fromDef, toDef, apperr.New(apperr.CodeInvalidRequest, "invalid recipient address")
	}
	if req.AmountRaw == "" {
		req.AmountRaw = utils.FormatUnits(req.Amount, req.TokenDecimals)
	}
	return fromDef, toDef, nil
}

func (s *bridgeServiceImpl) GetQuote(ctx context.Context, req entity.BridgeRequest) (entity.BridgeQuote, error) {
	fromDef, toDef, err := s.validate(&req)
	if err != nil {
		metrics.BridgeOutcomes.WithLabelValues("quote", "none", "rejected").Inc()
		return entity.BridgeQuote{}, err
	}

	gen := s.generation.Load()

	hostedQuote, hostedErr := s.hosted.GetQuote(ctx, client.HostedQuoteRequest{
		FromChain: fromDef.Key,
		ToChain:   toDef.Key,
		Token:     strings.ToLower(req.Token),
		Amount:    req.AmountRaw,
		Recipient: req.Recipient,
	})
	if hostedErr == nil {
		metrics.BridgeOutcomes.WithLabelValues("quote", string(entity.PathHosted), "ok").Inc()
		return entity.BridgeQuote{
			Request:         req,
			EstimatedOutRaw: hostedQuote.EstimatedOutputAmount,
			EstimatedGasUSD: hostedQuote.EstimatedGasUSD,
			Path:            entity.PathHosted,
			QuoteID:         hostedQuote.QuoteID,
			Generation:      gen,
			IssuedAt:        time.Now(),
		}, nil
	}
	s.logger.Warn("Hosted quote failed, trying on-chain router",
		zap.Uint64("fromChainID", req.FromChainID),
		zap.Uint64("toChainID", req.ToChainID),
		zap.Error(hostedErr))

	if !fromDef.HasRouter() {
		metrics.BridgeOutcomes.WithLabelValues("quote", string(entity.PathOnchain), "error").Inc()
		return entity.BridgeQuote{}, apperr.Wrap(apperr.CodeNoRouterConfigured,
			"hosted quote failed and no on-chain router is configured for the source chain", hostedErr)
	}

	quote, err := s.routerQuote(ctx, fromDef, req)
	if err != nil {
		metrics.BridgeOutcomes.WithLabelValues("quote", string(entity.PathOnchain), "error").Inc()
		return entity.BridgeQuote{}, apperr.Wrap(apperr.CodeQuoteFailed, "both quote paths failed", err)
	}
	quote.Generation = gen
	metrics.BridgeOutcomes.WithLabelValues("quote", string(entity.PathOnchain), "ok").Inc()
	return quote, nil
}

func (s *bridgeServiceImpl) routerQuote(ctx context.Context, fromDef entity.ChainDefinition, req entity.BridgeRequest) (entity.BridgeQuote, error) {
	chainClient, err := s.provider.Client(ctx, req.FromChainID)
	if err != nil {
		return entity.BridgeQuote{}, err
	}

	router := evm.NewRouter(common.HexToAddress(fromDef.RouterAddress), s.logger)
	callCtx, cancel := context.WithTimeout(ctx, s.provider.CallTimeout())
	defer cancel()

	rq, err := router.QuoteBridge(callCtx, chainClient,
		common.HexToAddress(req.Token), req.Amount, req.ToChainID, common.HexToAddress(req.Recipient))
	if err != nil {
		return entity.BridgeQuote{}, err
	}

	return entity.BridgeQuote{
		Request:         req,
		EstimatedOutput: rq.DstAmount,
		EstimatedOutRaw: utils.FormatUnits(rq.DstAmount, req.TokenDecimals),
		EstimatedGasUSD: rq.GasUSD,
		Path:            entity.PathOnchain,
		IssuedAt:        time.Now(),
	}, nil
}

func (s *bridgeServiceImpl) Execute(ctx context.Context, quote entity.BridgeQuote) (entity.BridgeResult, error) {
	if !s.session.Connected() {
		return entity.BridgeResult{}, apperr.New(apperr.CodeInvalidRequest, "wallet not connected")
	}
	if quote.Generation != s.generation.Load() {
		metrics.BridgeOutcomes.WithLabelValues("execute", string(quote.Path), "stale").Inc()
		return entity.BridgeResult{}, apperr.New(apperr.CodeInvalidRequest, "quote is stale, request a new one")
	}

	// The source chain must be active in the wallet before anything is sent.
	if s.session.ChainID() != quote.Request.FromChainID {
		if err := s.session.SwitchChain(ctx, quote.Request.FromChainID); err != nil {
			metrics.BridgeOutcomes.WithLabelValues("execute", string(quote.Path), "error").Inc()
			return entity.BridgeResult{}, err
		}
	}

	var (
		result entity.BridgeResult
		err    error
	)
	switch quote.Path {
	case entity.PathHosted:
		result, err = s.executeHosted(ctx, quote)
		if err != nil {
			// Same fallback contract as quoting: a hosted failure falls
			// through to the source chain's router when one is configured.
			fromDef, _ := s.reg.ByID(quote.Request.FromChainID)
			if fromDef.HasRouter() {
				s.logger.Warn("Hosted execution failed, trying on-chain router",
					zap.Uint64("fromChainID", quote.Request.FromChainID),
					zap.Error(err))
				result, err = s.executeOnchain(ctx, quote)
			}
		}
	case entity.PathOnchain:
		result, err = s.executeOnchain(ctx, quote)
	default:
		err = apperr.New(apperr.CodeInvalidRequest, "quote has no execution path")
	}
	if err != nil {
		metrics.BridgeOutcomes.WithLabelValues("execute", string(quote.Path), "error").Inc()
		return entity.BridgeResult{}, err
	}
	metrics.BridgeOutcomes.WithLabelValues("execute", string(result.Path), "ok").Inc()
	s.logger.Info("Bridge transfer submitted",
		zap.String("trackingId", result.TrackingID),
		zap.String("path", string(result.Path)),
		zap.Uint64("fromChainID", quote.Request.FromChainID),
		zap.Uint64("toChainID", quote.Request.ToChainID))
	return result, nil
}

func (s *bridgeServiceImpl) executeHosted(ctx context.Context, quote entity.BridgeQuote) (entity.BridgeResult, error) {
	fromDef, _ := s.reg.ByID(quote.Request.FromChainID)
	toDef, _ := s.reg.ByID(quote.Request.ToChainID)

	res, err := s.hosted.Bridge(ctx, client.HostedBridgeRequest{
		HostedQuoteRequest: client.HostedQuoteRequest{
			FromChain: fromDef.Key,
			ToChain:   toDef.Key,
			Token:     strings.ToLower(quote.Request.Token),
			Amount:    quote.Request.AmountRaw,
			Recipient: quote.Request.Recipient,
		},
		QuoteID: quote.QuoteID,
	})
	if err != nil {
		return entity.BridgeResult{}, apperr.Wrap(apperr.CodeExecuteFailed, "hosted bridge execution failed", err)
	}
	return entity.BridgeResult{
		TrackingID: res.TrackingID,
		Path:       entity.PathHosted,
		Timestamp:  time.Now(),
	}, nil
}

func (s *bridgeServiceImpl) executeOnchain(ctx context.Context, quote entity.BridgeQuote) (entity.BridgeResult, error) {
	req := quote.Request
	fromDef, _ := s.reg.ByID(req.FromChainID)
	if !fromDef.HasRouter() {
		return entity.BridgeResult{}, apperr.New(apperr.CodeNoRouterConfigured, "no on-chain router configured for the source chain")
	}

	chainClient, err := s.provider.Client(ctx, req.FromChainID)
	if err != nil {
		return entity.BridgeResult{}, apperr.Wrap(apperr.CodeExecuteFailed, "no RPC client for source chain", err)
	}

	router := evm.NewRouter(common.HexToAddress(fromDef.RouterAddress), s.logger)
	calldata, err := router.PackBridgeToken(
		common.HexToAddress(req.Token), req.Amount, req.ToChainID, common.HexToAddress(req.Recipient))
	if err != nil {
		return entity.BridgeResult{}, apperr.Wrap(apperr.CodeExecuteFailed, "failed to encode bridge call", err)
	}

	value := big.NewInt(0)
	if req.Token == entity.ZeroAddress {
		value = req.Amount
	}

	gas, gasPrice, err := s.estimate(ctx, chainClient, router.Address(), calldata, value)
	if err != nil {
		return entity.BridgeResult{}, err
	}

	if err := s.checkGasFunds(ctx, chainClient, gas, gasPrice, value); err != nil {
		return entity.BridgeResult{}, err
	}

	routerAddr := router.Address().Hex()
	txHash, err := s.session.SendTransaction(ctx, wallet.TxRequest{
		To:       routerAddr,
		Value:    value,
		Data:     calldata,
		Gas:      gas,
		GasPrice: gasPrice,
	})
	if err != nil {
		return entity.BridgeResult{}, apperr.Wrap(apperr.CodeExecuteFailed, "transaction submission failed", err)
	}

	if err := s.waitReceipt(ctx, chainClient, txHash); err != nil {
		return entity.BridgeResult{}, err
	}

	return entity.BridgeResult{
		TrackingID: txHash,
		TxHash:     txHash,
		Path:       entity.PathOnchain,
		GasCostUSD: s.gasCostUSD(ctx, req.FromChainID, gas, gasPrice),
		Timestamp:  time.Now(),
	}, nil
}

// gasCostUSD values the worst-case gas spend in USD. Pricing failures are not
// fatal here: the transfer already happened, the valuation is informational.
func (s *bridgeServiceImpl) gasCostUSD(ctx context.Context, chainID uint64, gas uint64, gasPrice *big.Int) float64 {
	price, err := s.prices.NativePrice(ctx, chainID)
	if err != nil || price == 0 {
		if err != nil {
			s.logger.Warn("Native price lookup for gas valuation failed", zap.Uint64("chainID", chainID), zap.Error(err))
		}
		return 0
	}
	costWei := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)
	return utils.ValueUSD(costWei, 18, price)
}

// estimate runs gas estimation for the bridge call and applies the safety
// margin to the returned gas limit.
func (s *bridgeServiceImpl) estimate(ctx context.Context, chainClient evm.ChainClient, to common.Address, calldata []byte, value *big.Int) (uint64, *big.Int, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.provider.CallTimeout())
	defer cancel()

	from := common.HexToAddress(s.session.Address())
	gas, err := chainClient.EstimateGas(callCtx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: calldata})
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.CodeExecuteFailed, "gas estimation failed", err)
	}
	gas = uint64(float64(gas) * s.cfg.GasSafetyMargin)

	gasPrice, err := chainClient.SuggestGasPrice(callCtx)
	if err != nil {
		return 0, nil, apperr.Wrap(apperr.CodeExecuteFailed, "gas price lookup failed", err)
	}
	return gas, gasPrice, nil
}

// checkGasFunds verifies the active account can cover gas plus any attached
// native value before the wallet is asked to sign anything.
func (s *bridgeServiceImpl) checkGasFunds(ctx context.Context, chainClient evm.ChainClient, gas uint64, gasPrice, value *big.Int) error {
	callCtx, cancel := context.WithTimeout(ctx, s.provider.CallTimeout())
	defer cancel()

	balance, err := chainClient.BalanceAt(callCtx, common.HexToAddress(s.session.Address()), nil)
	if err != nil {
		return apperr.Wrap(apperr.CodeExecuteFailed, "native balance read failed", err)
	}

	needed := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)
	if value != nil {
		needed.Add(needed, value)
	}
	if balance.Cmp(needed) < 0 {
		return apperr.New(apperr.CodeInsufficientGasBalance, "insufficient native balance to cover gas")
	}
	return nil
}

// waitReceipt polls for the transaction receipt until it lands or the
// configured deadline passes. A mined-but-reverted transaction is a failure.
func (s *bridgeServiceImpl) waitReceipt(ctx context.Context, chainClient evm.ChainClient, txHash string) error {
	deadline := time.Now().Add(time.Duration(s.cfg.ReceiptTimeoutMs) * time.Millisecond)
	hash := common.HexToHash(txHash)

	for {
		receipt, err := chainClient.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status == 0 {
				return apperr.New(apperr.CodeExecuteFailed, "bridge transaction reverted")
			}
			return nil
		}
		if time.Now().After(deadline) {
			return apperr.New(apperr.CodeExecuteFailed, "timed out waiting for transaction receipt")
		}
		select {
		case <-ctx.Done():
			return apperr.Wrap(apperr.CodeExecuteFailed, "receipt wait canceled", ctx.Err())
		case <-time.After(3 * time.Second):
		}
	}
}
