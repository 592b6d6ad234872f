package entity

// ZeroAddress marks the native asset in places where a contract address is
// expected.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// TokenInfo holds the details of one asset on one chain, as loaded from a
// token-list source.
type TokenInfo struct {
	ChainID         uint64 `json:"chainId"`
	Address         string `json:"address"`
	Name            string `json:"name,omitempty"`
	Symbol          string `json:"symbol"`
	Decimals        uint8  `json:"decimals"`
	IsNativeWrapped bool   `json:"isNativeWrapped,omitempty"`
	IsStablecoin    bool   `json:"isStablecoin,omitempty"`
}
