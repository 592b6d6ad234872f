package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// routerABI is the fixed surface of the on-chain bridge router. quoteBridge is
// read-only; bridgeToken is payable and is only sent after gas estimation
// succeeds. gasUsd is reported by the contract in USD cents.
const routerABI = `[
  {"name":"quoteBridge","type":"function","stateMutability":"view",
   "inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"dstChainId","type":"uint256"},{"name":"recipient","type":"address"}],
   "outputs":[{"name":"dstAmount","type":"uint256"},{"name":"feeAmount","type":"uint256"},{"name":"gasUsd","type":"uint256"}]},
  {"name":"bridgeToken","type":"function","stateMutability":"payable",
   "inputs":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"},{"name":"dstChainId","type":"uint256"},{"name":"recipient","type":"address"}],
   "outputs":[]}
]`

var (
	routerOnce   sync.Once
	parsedRouter abi.ABI
)

func initRouterABI() {
	routerOnce.Do(func() {
		var err error
		parsedRouter, err = abi.JSON(strings.NewReader(routerABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse router ABI: %v", err))
		}
	})
}

// RouterQuote is the decoded result of quoteBridge.
type RouterQuote struct {
	DstAmount *big.Int
	FeeAmount *big.Int
	GasUSD    float64
}

// Router wraps the bridge router contract on one source chain.
type Router struct {
	addr   common.Address
	logger *zap.Logger
}

// NewRouter creates a wrapper for the router deployed at addr.
func NewRouter(addr common.Address, logger *zap.Logger) *Router {
	initRouterABI()
	return &Router{addr: addr, logger: logger.Named("Router")}
}

// Address returns the router contract address.
func (r *Router) Address() common.Address { return r.addr }

// QuoteBridge calls the read-only quoteBridge method.
func (r *Router) QuoteBridge(
	ctx context.Context,
	caller ChainClient,
	token common.Address,
	amount *big.Int,
	dstChainID uint64,
	recipient common.Address,
) (RouterQuote, error) {
	input, err := parsedRouter.Pack("quoteBridge", token, amount, new(big.Int).SetUint64(dstChainID), recipient)
	if err != nil {
		return RouterQuote{}, fmt.Errorf("failed to pack quoteBridge: %w", err)
	}

	raw, err := caller.CallContract(ctx, ethereum.CallMsg{To: &r.addr, Data: input}, nil)
	if err != nil {
		return RouterQuote{}, fmt.Errorf("quoteBridge call failed: %w", err)
	}

	vals, err := parsedRouter.Unpack("quoteBridge", raw)
	if err != nil || len(vals) < 3 {
		return RouterQuote{}, fmt.Errorf("failed to decode quoteBridge result: %w", err)
	}

	dstAmount, ok1 := vals[0].(*big.Int)
	feeAmount, ok2 := vals[1].(*big.Int)
	gasCents, ok3 := vals[2].(*big.Int)
	if !ok1 || !ok2 || !ok3 {
		return RouterQuote{}, fmt.Errorf("unexpected quoteBridge result types")
	}

	gasUSD, _ := new(big.Float).Quo(new(big.Float).SetInt(gasCents), big.NewFloat(100)).Float64()
	return RouterQuote{DstAmount: dstAmount, FeeAmount: feeAmount, GasUSD: gasUSD}, nil
}

// PackBridgeToken encodes calldata for the state-changing bridgeToken method.
func (r *Router) PackBridgeToken(token common.Address, amount *big.Int, dstChainID uint64, recipient common.Address) ([]byte, error) {
	input, err := parsedRouter.Pack("bridgeToken", token, amount, new(big.Int).SetUint64(dstChainID), recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to pack bridgeToken: %w", err)
	}
	return input, nil
}
