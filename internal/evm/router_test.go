package evm

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQuoteBridge(t *testing.T) {
	routerAddr := common.HexToAddress("0x2222222222222222222222222222222222222222")
	router := NewRouter(routerAddr, zap.NewNop())

	client := &stubClient{}
	client.call = func(msg ethereum.CallMsg) ([]byte, error) {
		require.Equal(t, routerAddr, *msg.To)
		// dstAmount, feeAmount, gasUsd in cents.
		out, err := parsedRouter.Methods["quoteBridge"].Outputs.Pack(
			big.NewInt(990), big.NewInt(10), big.NewInt(1234))
		require.NoError(t, err)
		return out, nil
	}

	quote, err := router.QuoteBridge(context.Background(), client,
		common.HexToAddress("0x3333333333333333333333333333333333333333"),
		big.NewInt(1000), 8453,
		common.HexToAddress("0x4444444444444444444444444444444444444444"))
	require.NoError(t, err)
	require.Equal(t, int64(990), quote.DstAmount.Int64())
	require.Equal(t, int64(10), quote.FeeAmount.Int64())
	require.InDelta(t, 12.34, quote.GasUSD, 1e-9)
}

func TestQuoteBridgeCallError(t *testing.T) {
	router := NewRouter(common.HexToAddress("0x2222222222222222222222222222222222222222"), zap.NewNop())
	client := &stubClient{call: func(msg ethereum.CallMsg) ([]byte, error) {
		return nil, context.DeadlineExceeded
	}}

	_, err := router.QuoteBridge(context.Background(), client,
		common.Address{}, big.NewInt(1), 10, common.Address{})
	require.Error(t, err)
}

func TestPackBridgeToken(t *testing.T) {
	router := NewRouter(common.HexToAddress("0x2222222222222222222222222222222222222222"), zap.NewNop())

	data, err := router.PackBridgeToken(
		common.HexToAddress("0x3333333333333333333333333333333333333333"),
		big.NewInt(1000), 8453,
		common.HexToAddress("0x4444444444444444444444444444444444444444"))
	require.NoError(t, err)
	require.NotEmpty(t, data)

	// Selector plus four 32-byte words.
	require.Len(t, data, 4+4*32)
	require.Equal(t, parsedRouter.Methods["bridgeToken"].ID, data[:4])
}
