package registry

import "bridge_engine/internal/domain/entity"

// builtinChains returns the supported chain table. RPC endpoints are public
// defaults; RPC_<chainID> env vars override them at registry construction.
func builtinChains() []entity.ChainDefinition {
	return []entity.ChainDefinition{
		{
			ChainID: 1, Key: "ethereum", Name: "Ethereum Mainnet",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://eth.llamarpc.com", MulticallAddress: multicall3,
			BlockExplorerURL:  "https://etherscan.io",
			CoinGeckoPlatform: "ethereum", CoinGeckoNativeID: "ethereum",
			CovalentSlug: "eth-mainnet",
			TokenListURLs: []string{
				"https://tokens.uniswap.org",
				"https://api.1inch.io/v5.0/1/tokens",
			},
		},
		{
			ChainID: 10, Key: "optimism", Name: "OP Mainnet",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://optimism.llamarpc.com", MulticallAddress: multicall3,
			BlockExplorerURL:  "https://optimistic.etherscan.io",
			CoinGeckoPlatform: "optimistic-ethereum", CoinGeckoNativeID: "ethereum",
			CovalentSlug:  "optimism-mainnet",
			TokenListURLs: []string{"https://api.1inch.io/v5.0/10/tokens"},
		},
		{
			ChainID: 14, Key: "flare", Name: "Flare",
			NativeSymbol: "FLR", NativeName: "Flare", NativeDecimals: 18,
			RPCURL: "https://flare-api.flare.network/ext/C/rpc", MulticallAddress: multicall3,
			CoinGeckoPlatform: "flare", CoinGeckoNativeID: "flare-networks",
			TokenListURLs: []string{"https://raw.githubusercontent.com/flare-labs/token-list/main/flare.tokenlist.json"},
		},
		{
			ChainID: 40, Key: "telos", Name: "Telos EVM",
			NativeSymbol: "TLOS", NativeName: "Telos", NativeDecimals: 18,
			RPCURL: "https://mainnet.telos.net/evm", MulticallAddress: multicall3,
			CoinGeckoPlatform: "telos", CoinGeckoNativeID: "telos",
		},
		{
			ChainID: 50, Key: "xdc", Name: "XDC Network",
			NativeSymbol: "XDC", NativeName: "XDC Network", NativeDecimals: 18,
			RPCURL: "https://rpc.xinfin.network", MulticallAddress: multicall3,
			CoinGeckoPlatform: "xdc", CoinGeckoNativeID: "xdce-crowd-sale",
		},
		{
			ChainID: 56, Key: "bsc", Name: "BNB Smart Chain",
			NativeSymbol: "BNB", NativeName: "BNB", NativeDecimals: 18,
			RPCURL: "https://bsc-dataseed.binance.org", MulticallAddress: multicall3,
			BlockExplorerURL:  "https://bscscan.com",
			CoinGeckoPlatform: "binance-smart-chain", CoinGeckoNativeID: "binancecoin",
			CovalentSlug:  "bsc-mainnet",
			TokenListURLs: []string{"https://api.1inch.io/v5.0/56/tokens"},
		},
		{
			ChainID: 57, Key: "syscoin", Name: "Syscoin",
			NativeSymbol: "SYS", NativeName: "Syscoin", NativeDecimals: 18,
			RPCURL: "https://rpc.syscoin.org", MulticallAddress: multicall3,
			CoinGeckoPlatform: "syscoin", CoinGeckoNativeID: "syscoin",
		},
		{
			ChainID: 61, Key: "etc", Name: "Ethereum Classic",
			NativeSymbol: "ETC", NativeName: "Ethereum Classic", NativeDecimals: 18,
			RPCURL: "https://etc.rivet.link", MulticallAddress: multicall3,
			CoinGeckoPlatform: "ethereum-classic", CoinGeckoNativeID: "ethereum-classic",
		},
		{
			ChainID: 100, Key: "gnosis", Name: "Gnosis",
			NativeSymbol: "xDAI", NativeName: "Gnosis", NativeDecimals: 18,
			RPCURL: "https://rpc.gnosis.gateway.fm", MulticallAddress: multicall3,
			CoinGeckoPlatform: "xdai", CoinGeckoNativeID: "xdai",
			CovalentSlug:  "gnosis-mainnet",
			TokenListURLs: []string{"https://tokens.coingecko.com/xdai/all.json"},
		},
		{
			ChainID: 130, Key: "unichain", Name: "Unichain",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://rpc.unichain.org", MulticallAddress: multicall3,
			CoinGeckoNativeID: "ethereum",
			TokenListURLs:     []string{"https://raw.githubusercontent.com/unichain/token-list/main/unichain.tokenlist.json"},
		},
		{
			ChainID: 137, Key: "polygon", Name: "Polygon PoS",
			NativeSymbol: "MATIC", NativeName: "Polygon", NativeDecimals: 18,
			RPCURL: "https://polygon.llamarpc.com", MulticallAddress: multicall3,
			BlockExplorerURL:  "https://polygonscan.com",
			CoinGeckoPlatform: "polygon-pos", CoinGeckoNativeID: "matic-network",
			CovalentSlug:  "polygon-mainnet",
			TokenListURLs: []string{"https://api.1inch.io/v5.0/137/tokens"},
		},
		{
			// No standard multicall3 deployment; discovery degrades to the
			// indexer path on this chain.
			ChainID: 195, Key: "x1", Name: "X1",
			NativeSymbol: "X1", NativeName: "X1", NativeDecimals: 18,
			CovalentSlug: "x1-mainnet",
		},
		{
			ChainID: 250, Key: "fantom", Name: "Fantom Opera",
			NativeSymbol: "FTM", NativeName: "Fantom", NativeDecimals: 18,
			RPCURL: "https://rpc.fantom.network", MulticallAddress: multicall3,
			CoinGeckoPlatform: "fantom", CoinGeckoNativeID: "fantom",
			CovalentSlug:  "fantom-mainnet",
			TokenListURLs: []string{"https://tokens.coingecko.com/fantom/all.json"},
		},
		{
			ChainID: 1284, Key: "moonbeam", Name: "Moonbeam",
			NativeSymbol: "GLMR", NativeName: "Moonbeam", NativeDecimals: 18,
			RPCURL: "https://rpc.api.moonbeam.network", MulticallAddress: multicall3,
			CoinGeckoPlatform: "moonbeam", CoinGeckoNativeID: "moonbeam",
			TokenListURLs: []string{"https://raw.githubusercontent.com/moonbeam-foundation/moonbeam-token-list/main/tokens/moonbeam.json"},
		},
		{
			ChainID: 1285, Key: "moonriver", Name: "Moonriver",
			NativeSymbol: "MOVR", NativeName: "Moonriver", NativeDecimals: 18,
			RPCURL: "https://rpc.api.moonriver.moonbeam.network", MulticallAddress: multicall3,
			CoinGeckoPlatform: "moonriver", CoinGeckoNativeID: "moonriver",
			TokenListURLs: []string{"https://raw.githubusercontent.com/moonbeam-foundation/moonbeam-token-list/main/tokens/moonriver.json"},
		},
		{
			ChainID: 1329, Key: "sei", Name: "Sei EVM",
			NativeSymbol: "SEI", NativeName: "Sei", NativeDecimals: 18,
			RPCURL: "https://evm-rpc.sei-apis.com", MulticallAddress: multicall3,
			CoinGeckoPlatform: "sei-network", CoinGeckoNativeID: "sei-network",
			CovalentSlug:  "sei-mainnet",
			TokenListURLs: []string{"https://raw.githubusercontent.com/sei-protocol/token-list/main/sei.tokenlist.json"},
		},
		{
			ChainID: 5000, Key: "mantle", Name: "Mantle",
			NativeSymbol: "MNT", NativeName: "Mantle", NativeDecimals: 18,
			RPCURL: "https://rpc.mantle.xyz", MulticallAddress: multicall3,
			CoinGeckoPlatform: "mantle", CoinGeckoNativeID: "mantle",
			TokenListURLs: []string{"https://raw.githubusercontent.com/mantlenetworkio/mantle-token-list/main/mantle.tokenlist.json"},
		},
		{
			ChainID: 8453, Key: "base", Name: "Base",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://mainnet.base.org", MulticallAddress: multicall3,
			BlockExplorerURL:  "https://basescan.org",
			CoinGeckoPlatform: "base", CoinGeckoNativeID: "ethereum",
			CovalentSlug:  "base-mainnet",
			TokenListURLs: []string{"https://api.1inch.io/v5.0/8453/tokens"},
		},
		{
			ChainID: 9745, Key: "plasma", Name: "Plasma",
			NativeSymbol: "PLASMA", NativeName: "Plasma", NativeDecimals: 18,
			RPCURL: "https://rpc.plasma.xyz", MulticallAddress: multicall3,
			TokenListURLs: []string{"https://raw.githubusercontent.com/plasma-network/token-list/main/plasma.tokenlist.json"},
		},
		{
			ChainID: 34443, Key: "mode", Name: "Mode",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://mainnet.mode.network", MulticallAddress: multicall3,
			CoinGeckoPlatform: "mode", CoinGeckoNativeID: "ethereum",
			CovalentSlug:  "mode-mainnet",
			TokenListURLs: []string{"https://raw.githubusercontent.com/mode-network/asset-list/main/list.json"},
		},
		{
			ChainID: 42161, Key: "arbitrum", Name: "Arbitrum One",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://arb1.arbitrum.io/rpc", MulticallAddress: multicall3,
			BlockExplorerURL:  "https://arbiscan.io",
			CoinGeckoPlatform: "arbitrum-one", CoinGeckoNativeID: "ethereum",
			CovalentSlug:  "arbitrum-mainnet",
			TokenListURLs: []string{"https://api.1inch.io/v5.0/42161/tokens"},
		},
		{
			ChainID: 42220, Key: "celo", Name: "Celo",
			NativeSymbol: "CELO", NativeName: "Celo", NativeDecimals: 18,
			RPCURL: "https://forno.celo.org", MulticallAddress: multicall3,
			CoinGeckoPlatform: "celo", CoinGeckoNativeID: "celo",
			TokenListURLs: []string{"https://tokens.coingecko.com/celo/all.json"},
		},
		{
			ChainID: 43114, Key: "avalanche", Name: "Avalanche C-Chain",
			NativeSymbol: "AVAX", NativeName: "Avalanche", NativeDecimals: 18,
			RPCURL: "https://api.avax.network/ext/bc/C/rpc", MulticallAddress: multicall3,
			BlockExplorerURL:  "https://snowtrace.io",
			CoinGeckoPlatform: "avalanche", CoinGeckoNativeID: "avalanche-2",
			CovalentSlug:  "avalanche-mainnet",
			TokenListURLs: []string{"https://tokens.coingecko.com/avalanche/all.json"},
		},
		{
			ChainID: 57073, Key: "ink", Name: "Inkonchain",
			NativeSymbol: "INK", NativeName: "Inkonchain", NativeDecimals: 18,
			RPCURL: "https://rpc.inkonchain.com", MulticallAddress: multicall3,
			CoinGeckoPlatform: "inkonchain", CoinGeckoNativeID: "inkonchain",
		},
		{
			ChainID: 59144, Key: "linea", Name: "Linea",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://rpc.linea.build", MulticallAddress: multicall3,
			CoinGeckoPlatform: "linea", CoinGeckoNativeID: "ethereum",
			CovalentSlug:  "linea-mainnet",
			TokenListURLs: []string{"https://raw.githubusercontent.com/Consensys/linea-token-list/main/build/linea-mainnet.json"},
		},
		{
			ChainID: 80094, Key: "berachain", Name: "Berachain Bartio",
			NativeSymbol: "BERA", NativeName: "Berachain", NativeDecimals: 18,
			RPCURL: "https://bartio.rpc.berachain.com", MulticallAddress: multicall3,
			CovalentSlug:  "berachain-bartio",
			TokenListURLs: []string{"https://raw.githubusercontent.com/Berachain/token-list/main/bera.tokenlist.json"},
		},
		{
			ChainID: 7777777, Key: "zora", Name: "Zora",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://rpc.zora.energy", MulticallAddress: multicall3,
			CoinGeckoPlatform: "zora", CoinGeckoNativeID: "ethereum",
			CovalentSlug:  "zora-mainnet",
			TokenListURLs: []string{"https://raw.githubusercontent.com/zora-community/token-list/main/zora.tokenlist.json"},
		},
		{
			ChainID: 1313161554, Key: "aurora", Name: "Aurora",
			NativeSymbol: "ETH", NativeName: "Ether", NativeDecimals: 18,
			RPCURL: "https://mainnet.aurora.dev", MulticallAddress: multicall3,
			CoinGeckoPlatform: "aurora", CoinGeckoNativeID: "ethereum",
			TokenListURLs: []string{"https://raw.githubusercontent.com/aurora-is-near/bridge-assets/master/aurora.tokenlist.json"},
		},
	}
}
