package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RPCBatches counts multicall sweeps issued per chain.
	RPCBatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_engine_rpc_batches_total",
		Help: "Number of batched RPC sweeps issued, per chain.",
	}, []string{"chain"})

	// CacheHits counts cache lookups by cache name and outcome.
	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_engine_cache_lookups_total",
		Help: "Cache lookups by cache name and hit/miss outcome.",
	}, []string{"cache", "outcome"})

	// PriceLookups counts outbound price service requests.
	PriceLookups = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bridge_engine_price_lookups_total",
		Help: "Outbound price API requests issued after cache and coalescing.",
	})

	// BridgeOutcomes counts quote/execute results by operation, path and status.
	BridgeOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_engine_bridge_outcomes_total",
		Help: "Bridge quote and execute outcomes by path.",
	}, []string{"op", "path", "status"})

	// DiscoveryDuration observes per-chain discovery latency.
	DiscoveryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bridge_engine_discovery_seconds",
		Help:    "Per-chain balance discovery duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"chain"})
)

// MustRegister registers every engine metric with the default registry.
// Call once from main.
func MustRegister() {
	prometheus.MustRegister(
		RPCBatches,
		CacheHits,
		PriceLookups,
		BridgeOutcomes,
		DiscoveryDuration,
	)
}
