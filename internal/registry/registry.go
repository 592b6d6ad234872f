package registry

import (
	"fmt"
	"os"
	"sort"

	"bridge_engine/internal/domain/entity"
)

// multicall3 is deployed at the same address on almost every EVM chain.
const multicall3 = "0xcA11bde05977b3631167028862bE2a173976CA11"

// ChainRegistry is a static table of supported chains. It is immutable after
// construction; lookups are safe for concurrent use.
type ChainRegistry struct {
	byID  map[uint64]entity.ChainDefinition
	order []uint64
}

// New builds the registry from the built-in chain table, applying RPC_<id>
// environment overrides and per-chain router addresses supplied by config.
func New(routerByChain map[uint64]string) *ChainRegistry {
	defs := builtinChains()
	r := &ChainRegistry{byID: make(map[uint64]entity.ChainDefinition, len(defs))}
	for _, def := range defs {
		if url := os.Getenv(fmt.Sprintf("RPC_%d", def.ChainID)); url != "" {
			def.RPCURL = url
		}
		if router, ok := routerByChain[def.ChainID]; ok {
			def.RouterAddress = router
		}
		r.byID[def.ChainID] = def
		r.order = append(r.order, def.ChainID)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	return r
}

// ByID returns the definition for a chain id.
func (r *ChainRegistry) ByID(chainID uint64) (entity.ChainDefinition, bool) {
	def, ok := r.byID[chainID]
	return def, ok
}

// ByKey returns the definition matching a hosted-API chain key.
func (r *ChainRegistry) ByKey(key string) (entity.ChainDefinition, bool) {
	for _, def := range r.byID {
		if def.Key == key {
			return def, true
		}
	}
	return entity.ChainDefinition{}, false
}

// All returns every registered chain, ordered by chain id.
func (r *ChainRegistry) All() []entity.ChainDefinition {
	out := make([]entity.ChainDefinition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns every registered chain id, ascending.
func (r *ChainRegistry) IDs() []uint64 {
	out := make([]uint64, len(r.order))
	copy(out, r.order)
	return out
}

// BridgeableTokens filters a chain's token list down to the assets offered in
// the bridge picker: wrapped natives, stablecoins and a few blue chips.
func BridgeableTokens(tokens []entity.TokenInfo) []entity.TokenInfo {
	blueChips := map[string]struct{}{"USDC": {}, "USDT": {}, "DAI": {}}
	out := make([]entity.TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		if t.IsNativeWrapped || t.IsStablecoin {
			out = append(out, t)
			continue
		}
		if _, ok := blueChips[t.Symbol]; ok {
			out = append(out, t)
		}
	}
	return out
}
