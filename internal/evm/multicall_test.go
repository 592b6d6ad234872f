package evm

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"bridge_engine/internal/domain/entity"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubClient struct {
	call     func(call ethereum.CallMsg) ([]byte, error)
	balance  *big.Int
	gasPrice *big.Int
	calls    int
}

func (s *stubClient) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	if s.balance == nil {
		return big.NewInt(0), nil
	}
	return s.balance, nil
}

func (s *stubClient) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	s.calls++
	return s.call(msg)
}

func (s *stubClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}

func (s *stubClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if s.gasPrice == nil {
		return big.NewInt(1), nil
	}
	return s.gasPrice, nil
}

func (s *stubClient) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return nil, ethereum.NotFound
}

func packAggregateResult(t *testing.T, balances []*big.Int) []byte {
	t.Helper()
	returnData := make([][]byte, len(balances))
	for i, b := range balances {
		out, err := parsedERC20.Methods["balanceOf"].Outputs.Pack(b)
		require.NoError(t, err)
		returnData[i] = out
	}
	packed, err := parsedMC.Methods["aggregate"].Outputs.Pack(big.NewInt(1), returnData)
	require.NoError(t, err)
	return packed
}

func addrKey(tok entity.TokenInfo) string { return strings.ToLower(tok.Address) }

func sweepTokens(n int) []entity.TokenInfo {
	tokens := make([]entity.TokenInfo, n)
	for i := range tokens {
		addr := common.BigToAddress(big.NewInt(int64(i + 1)))
		tokens[i] = entity.TokenInfo{ChainID: 1, Address: addr.Hex(), Symbol: "TOK", Decimals: 18}
	}
	return tokens
}

func TestBalanceSweepFiltersZeroBalances(t *testing.T) {
	mc := NewMulticall(200, zap.NewNop())
	tokens := sweepTokens(3)

	client := &stubClient{call: func(msg ethereum.CallMsg) ([]byte, error) {
		return packAggregateResult(t, []*big.Int{big.NewInt(0), big.NewInt(5), big.NewInt(7)}), nil
	}}

	got := mc.BalanceSweep(context.Background(), client, 1,
		common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		common.HexToAddress("0xabc0000000000000000000000000000000000001"), tokens)

	require.Len(t, got, 2)
	require.Equal(t, int64(5), got[addrKey(tokens[1])].Int64())
	require.Equal(t, int64(7), got[addrKey(tokens[2])].Int64())
	require.Equal(t, 1, client.calls)
}

func TestBalanceSweepChunks(t *testing.T) {
	mc := NewMulticall(2, zap.NewNop())
	tokens := sweepTokens(5)

	client := &stubClient{}
	client.call = func(msg ethereum.CallMsg) ([]byte, error) {
		// Each chunk reports 1 wei per token; chunk sizes are 2, 2, 1.
		n := 2
		if client.calls == 3 {
			n = 1
		}
		balances := make([]*big.Int, n)
		for i := range balances {
			balances[i] = big.NewInt(1)
		}
		return packAggregateResult(t, balances), nil
	}

	got := mc.BalanceSweep(context.Background(), client, 1,
		common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		common.HexToAddress("0xabc0000000000000000000000000000000000001"), tokens)

	require.Equal(t, 3, client.calls)
	require.Len(t, got, 5)
}

func TestBalanceSweepSkipsFailedChunk(t *testing.T) {
	mc := NewMulticall(2, zap.NewNop())
	tokens := sweepTokens(4)

	client := &stubClient{}
	client.call = func(msg ethereum.CallMsg) ([]byte, error) {
		if client.calls == 1 {
			return nil, errors.New("rpc unavailable")
		}
		return packAggregateResult(t, []*big.Int{big.NewInt(3), big.NewInt(4)}), nil
	}

	got := mc.BalanceSweep(context.Background(), client, 1,
		common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		common.HexToAddress("0xabc0000000000000000000000000000000000001"), tokens)

	// First chunk (tokens 0,1) is dropped; second chunk still lands on the
	// right tokens.
	require.Len(t, got, 2)
	require.Equal(t, int64(3), got[addrKey(tokens[2])].Int64())
	require.Equal(t, int64(4), got[addrKey(tokens[3])].Int64())
}

func TestBalanceSweepEmptyTokens(t *testing.T) {
	mc := NewMulticall(200, zap.NewNop())
	client := &stubClient{call: func(msg ethereum.CallMsg) ([]byte, error) {
		t.Fatal("no RPC call expected for an empty token list")
		return nil, nil
	}}

	got := mc.BalanceSweep(context.Background(), client, 1,
		common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		common.HexToAddress("0xabc0000000000000000000000000000000000001"), nil)
	require.Empty(t, got)
	require.Equal(t, 0, client.calls)
}
