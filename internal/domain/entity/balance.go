package entity

import (
	"math/big"
	"time"
)

// BalanceSource tags where a balance entry came from.
type BalanceSource string

const (
	SourceNative    BalanceSource = "native"
	SourceMulticall BalanceSource = "multicall"
	SourceIndexer   BalanceSource = "indexer"
	SourceHybrid    BalanceSource = "hybrid"
)

// BalanceEntry is one owner's holding of one asset on one chain. Entries are
// immutable snapshots: a new sweep produces new entries, it never mutates old
// ones.
type BalanceEntry struct {
	ChainID      uint64        `json:"chainId"`
	TokenAddress string        `json:"tokenAddress"`
	Symbol       string        `json:"symbol"`
	Name         string        `json:"name,omitempty"`
	Decimals     uint8         `json:"decimals"`
	IsNative     bool          `json:"isNative"`
	Amount       *big.Int      `json:"-"`
	RawAmount    string        `json:"rawAmount"`
	ValueUSD     float64       `json:"valueUsd"`
	IsDust       bool          `json:"isDust,omitempty"`
	Source       BalanceSource `json:"source"`
	FetchedAt    time.Time     `json:"fetchedAt"`
}

// ChainBalances groups the discovered entries of one chain.
type ChainBalances struct {
	ChainID  uint64         `json:"chainId"`
	Entries  []BalanceEntry `json:"entries"`
	TotalUSD float64        `json:"totalUsd"`
}

// Portfolio is the cross-chain aggregate for one owner.
type Portfolio struct {
	Owner    string                   `json:"owner"`
	ByChain  map[uint64]ChainBalances `json:"byChain"`
	TotalUSD float64                  `json:"totalUsd"`
	// Partial is true when at least one chain contributed no data due to a
	// failure. The aggregate is still usable. Warning carries the stable
	// error code for that condition.
	Partial bool   `json:"partial,omitempty"`
	Warning string `json:"warning,omitempty"`
}
