package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"bridge_engine/internal/domain/entity"
	"bridge_engine/internal/pkg/metrics"
	"bridge_engine/internal/pkg/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}]`

const multicallABI = `[{"name":"aggregate","type":"function","stateMutability":"payable","inputs":[{"name":"calls","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"callData","type":"bytes"}]}],"outputs":[{"name":"blockNumber","type":"uint256"},{"name":"returnData","type":"bytes[]"}]}]`

var (
	parsedOnce  sync.Once
	parsedERC20 abi.ABI
	parsedMC    abi.ABI
)

func initABIs() {
	parsedOnce.Do(func() {
		var err error
		parsedERC20, err = abi.JSON(strings.NewReader(erc20ABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
		}
		parsedMC, err = abi.JSON(strings.NewReader(multicallABI))
		if err != nil {
			panic(fmt.Sprintf("failed to parse multicall ABI: %v", err))
		}
	})
}

type mcCall struct {
	Target   common.Address
	CallData []byte
}

// Multicall batches balanceOf reads through a multicall3 aggregator,
// flushing in fixed-size chunks and indexing results back to the originating
// token.
type Multicall struct {
	chunkSize int
	logger    *zap.Logger
}

// NewMulticall creates a batch builder with the given chunk size.
func NewMulticall(chunkSize int, logger *zap.Logger) *Multicall {
	initABIs()
	if chunkSize <= 0 {
		chunkSize = 200
	}
	return &Multicall{chunkSize: chunkSize, logger: logger.Named("Multicall")}
}

// BalanceSweep issues balanceOf(owner) for every token and returns non-zero
// balances keyed by lowercase token address. A failed chunk is skipped and
// logged; it never aborts the sweep.
func (m *Multicall) BalanceSweep(
	ctx context.Context,
	caller ChainClient,
	chainID uint64,
	multicallAddr common.Address,
	owner common.Address,
	tokens []entity.TokenInfo,
) map[string]*big.Int {
	if len(tokens) == 0 {
		return map[string]*big.Int{}
	}

	calls := make([]mcCall, 0, len(tokens))
	swept := make([]entity.TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		data, err := parsedERC20.Pack("balanceOf", owner)
		if err != nil {
			m.logger.Warn("Failed to pack balanceOf call", zap.String("token", t.Address), zap.Error(err))
			continue
		}
		calls = append(calls, mcCall{Target: common.HexToAddress(t.Address), CallData: data})
		swept = append(swept, t)
	}

	out := make(map[string]*big.Int)
	chunks := utils.Chunk(calls, m.chunkSize)
	offset := 0

	for _, chunk := range chunks {
		metrics.RPCBatches.WithLabelValues(fmt.Sprintf("%d", chainID)).Inc()

		input, err := parsedMC.Pack("aggregate", chunk)
		if err != nil {
			m.logger.Warn("Failed to pack aggregate call", zap.Uint64("chainID", chainID), zap.Error(err))
			offset += len(chunk)
			continue
		}

		raw, err := caller.CallContract(ctx, ethereum.CallMsg{To: &multicallAddr, Data: input}, nil)
		if err != nil {
			m.logger.Warn("Multicall chunk failed",
				zap.Uint64("chainID", chainID),
				zap.Int("chunkSize", len(chunk)),
				zap.Error(err))
			offset += len(chunk)
			continue
		}

		unpacked, err := parsedMC.Unpack("aggregate", raw)
		if err != nil || len(unpacked) < 2 {
			m.logger.Warn("Failed to decode aggregate result", zap.Uint64("chainID", chainID), zap.Error(err))
			offset += len(chunk)
			continue
		}
		returnData, ok := unpacked[1].([][]byte)
		if !ok {
			m.logger.Warn("Unexpected aggregate returnData type", zap.Uint64("chainID", chainID))
			offset += len(chunk)
			continue
		}

		for j, ret := range returnData {
			if offset+j >= len(swept) {
				break
			}
			tok := swept[offset+j]
			if len(ret) == 0 {
				continue
			}
			vals, err := parsedERC20.Unpack("balanceOf", ret)
			if err != nil || len(vals) == 0 {
				m.logger.Debug("Skipping undecodable balanceOf result",
					zap.Uint64("chainID", chainID), zap.String("token", tok.Address))
				continue
			}
			bal, ok := vals[0].(*big.Int)
			if !ok || bal.Sign() <= 0 {
				continue
			}
			out[strings.ToLower(tok.Address)] = bal
		}
		offset += len(chunk)
	}

	return out
}
