package entity

// ChainDefinition holds the static configuration for a supported blockchain
// network. Instances are loaded at process start and never mutated.
type ChainDefinition struct {
	ChainID          uint64 `json:"chainId" yaml:"chainId"`
	Key              string `json:"key" yaml:"key"` // hosted bridge API slug, e.g. "ethereum"
	Name             string `json:"name" yaml:"name"`
	NativeSymbol     string `json:"nativeSymbol" yaml:"nativeSymbol"`
	NativeName       string `json:"nativeName" yaml:"nativeName"`
	NativeDecimals   uint8  `json:"nativeDecimals" yaml:"nativeDecimals"`
	RPCURL           string `json:"rpcUrl" yaml:"rpcUrl"`
	MulticallAddress string `json:"multicallAddress,omitempty" yaml:"multicallAddress,omitempty"`
	RouterAddress    string `json:"routerAddress,omitempty" yaml:"routerAddress,omitempty"`
	BlockExplorerURL string `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`

	// Price-provider mappings. Empty values mean "no mapping": prices for the
	// affected assets degrade to zero instead of failing.
	CoinGeckoPlatform string `json:"coinGeckoPlatform,omitempty" yaml:"coinGeckoPlatform,omitempty"`
	CoinGeckoNativeID string `json:"coinGeckoNativeId,omitempty" yaml:"coinGeckoNativeId,omitempty"`

	// Covalent indexer slug; empty disables the indexer for this chain.
	CovalentSlug string `json:"covalentSlug,omitempty" yaml:"covalentSlug,omitempty"`

	// Token list URLs swept by the on-chain discovery path.
	TokenListURLs []string `json:"tokenListUrls,omitempty" yaml:"tokenListUrls,omitempty"`
}

// HasRPC reports whether the chain has a usable RPC endpoint configured.
func (c ChainDefinition) HasRPC() bool { return c.RPCURL != "" }

// HasMulticall reports whether a multicall3 aggregator is deployed on the chain.
func (c ChainDefinition) HasMulticall() bool { return c.MulticallAddress != "" }

// HasRouter reports whether a bridge router contract is configured.
func (c ChainDefinition) HasRouter() bool { return c.RouterAddress != "" }
