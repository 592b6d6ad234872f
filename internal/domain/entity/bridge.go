package entity

import (
	"math/big"
	"time"
)

// BridgePath tags which route produced a quote or executed a transfer.
type BridgePath string

const (
	PathHosted  BridgePath = "hosted"
	PathOnchain BridgePath = "onchain"
)

// BridgeRequest is the exact input tuple a quote is computed for. Any change
// to it invalidates previously issued quotes.
type BridgeRequest struct {
	FromChainID   uint64   `json:"fromChainId"`
	ToChainID     uint64   `json:"toChainId"`
	Token         string   `json:"token"` // contract address on the source chain, ZeroAddress for native
	TokenDecimals uint8    `json:"tokenDecimals"`
	Amount        *big.Int `json:"-"`      // base units
	AmountRaw     string   `json:"amount"` // human-readable decimal amount
	Recipient     string   `json:"recipient"`
}

// BridgeQuote is a priced, time-bounded proposal for one transfer. It is
// consumed exactly once by Execute or discarded when inputs change.
type BridgeQuote struct {
	Request         BridgeRequest `json:"request"`
	EstimatedOutput *big.Int      `json:"-"`
	EstimatedOutRaw string        `json:"estimatedOutputAmount"`
	EstimatedGasUSD float64       `json:"estimatedGasUsd"`
	Path            BridgePath    `json:"path"`
	QuoteID         string        `json:"quoteId,omitempty"` // hosted path only
	Generation      uint64        `json:"-"`
	IssuedAt        time.Time     `json:"issuedAt"`
}

// BridgeResult is the terminal outcome of an executed transfer.
type BridgeResult struct {
	TrackingID string     `json:"trackingId"`
	TxHash     string     `json:"txHash,omitempty"`
	Path       BridgePath `json:"path"`
	GasCostUSD float64    `json:"gasCostUsd,omitempty"` // on-chain path only
	Timestamp  time.Time  `json:"timestamp"`
}
