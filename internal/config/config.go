package config

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds the overall configuration for the engine.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Prices      PricesConfig      `yaml:"prices"`
	Indexer     IndexerConfig     `yaml:"indexer"`
	Bridge      BridgeConfig      `yaml:"bridge"`
	Wallet      WalletConfig      `yaml:"wallet"`
	RPC         RPCConfig         `yaml:"rpc"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// DiscoveryConfig controls the balance discovery engine.
type DiscoveryConfig struct {
	Mode                 string  `yaml:"mode"` // hybrid | indexer-only | onchain-only
	CacheTTLSeconds      int     `yaml:"cacheTTLSeconds"`
	MulticallChunkSize   int     `yaml:"multicallChunkSize"`
	MaxConcurrentChains  int     `yaml:"maxConcurrentChains"`
	DustThresholdUSD     float64 `yaml:"dustThresholdUsd"`
	TokenListTimeoutMs   int64   `yaml:"tokenListTimeoutMs"`
	IncludeZeroFromIndex bool    `yaml:"includeZeroFromIndexer"`
}

// PricesConfig holds the CoinGecko client configuration.
type PricesConfig struct {
	BaseURL          string  `yaml:"baseURL"`
	APIKey           string  `yaml:"apiKey"`
	RequestTimeoutMs int64   `yaml:"requestTimeoutMs"`
	CacheTTLSeconds  int     `yaml:"cacheTTLSeconds"`
	RatePerSecond    float64 `yaml:"ratePerSecond"`
	RateBurst        int     `yaml:"rateBurst"`
}

// IndexerConfig holds the Covalent client configuration.
type IndexerConfig struct {
	BaseURL          string `yaml:"baseURL"`
	APIKey           string `yaml:"apiKey"`
	RequestTimeoutMs int64  `yaml:"requestTimeoutMs"`
}

// BridgeConfig holds the hosted bridge API and router fallback configuration.
type BridgeConfig struct {
	APIBaseURL       string            `yaml:"apiBaseURL"`
	RequestTimeoutMs int64             `yaml:"requestTimeoutMs"`
	GasSafetyMargin  float64           `yaml:"gasSafetyMargin"`
	ReceiptTimeoutMs int64             `yaml:"receiptTimeoutMs"`
	Routers          map[uint64]string `yaml:"routers"` // chainID -> router contract
}

// WalletConfig holds wallet session timings and the local signer key. The key
// only ever arrives via environment, never from the file.
type WalletConfig struct {
	ConnectTimeoutMs int64  `yaml:"connectTimeoutMs"`
	PollIntervalMs   int64  `yaml:"pollIntervalMs"`
	DefaultChainID   uint64 `yaml:"defaultChainId"`
	PrivateKey       string `yaml:"-"`
}

// RPCConfig holds chain RPC client settings.
type RPCConfig struct {
	DialTimeoutMs int64 `yaml:"dialTimeoutMs"`
	CallTimeoutMs int64 `yaml:"callTimeoutMs"`
}

// PersistenceConfig holds the preferences store location.
type PersistenceConfig struct {
	Path     string `yaml:"path"`
	LockPath string `yaml:"lockPath"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file and applies defaults and
// environment overrides for secrets.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Default returns a configuration with every default applied and no file read.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 60
	}
	if c.Server.IdleTimeout <= 0 {
		c.Server.IdleTimeout = 90
	}
	if c.Discovery.Mode == "" {
		c.Discovery.Mode = "hybrid"
	}
	if c.Discovery.CacheTTLSeconds <= 0 {
		c.Discovery.CacheTTLSeconds = 60
	}
	if c.Discovery.MulticallChunkSize <= 0 {
		c.Discovery.MulticallChunkSize = 200
	}
	if c.Discovery.MaxConcurrentChains <= 0 {
		c.Discovery.MaxConcurrentChains = 8
	}
	if c.Discovery.TokenListTimeoutMs <= 0 {
		c.Discovery.TokenListTimeoutMs = 15000
	}
	if c.Prices.BaseURL == "" {
		c.Prices.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if c.Prices.RequestTimeoutMs <= 0 {
		c.Prices.RequestTimeoutMs = 15000
	}
	if c.Prices.CacheTTLSeconds <= 0 {
		c.Prices.CacheTTLSeconds = 60
	}
	if c.Prices.RatePerSecond <= 0 {
		c.Prices.RatePerSecond = 0.5
	}
	if c.Prices.RateBurst <= 0 {
		c.Prices.RateBurst = 2
	}
	if c.Indexer.BaseURL == "" {
		c.Indexer.BaseURL = "https://api.covalenthq.com/v1"
	}
	if c.Indexer.RequestTimeoutMs <= 0 {
		c.Indexer.RequestTimeoutMs = 15000
	}
	if c.Bridge.APIBaseURL == "" {
		c.Bridge.APIBaseURL = "https://hfv-api.onrender.com/api"
	}
	if c.Bridge.RequestTimeoutMs <= 0 {
		c.Bridge.RequestTimeoutMs = 20000
	}
	if c.Bridge.GasSafetyMargin <= 1 {
		c.Bridge.GasSafetyMargin = 1.05
	}
	if c.Bridge.ReceiptTimeoutMs <= 0 {
		c.Bridge.ReceiptTimeoutMs = 180000
	}
	if c.Wallet.ConnectTimeoutMs <= 0 {
		c.Wallet.ConnectTimeoutMs = 30000
	}
	if c.Wallet.PollIntervalMs <= 0 {
		c.Wallet.PollIntervalMs = 250
	}
	if c.Wallet.DefaultChainID == 0 {
		c.Wallet.DefaultChainID = 1
	}
	if c.RPC.DialTimeoutMs <= 0 {
		c.RPC.DialTimeoutMs = 10000
	}
	if c.RPC.CallTimeoutMs <= 0 {
		c.RPC.CallTimeoutMs = 15000
	}
	if c.Persistence.Path == "" {
		c.Persistence.Path = "data/prefs.db"
	}
	if c.Persistence.LockPath == "" {
		c.Persistence.LockPath = "data/prefs.lock"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv("COINGECKO_API_KEY"); key != "" {
		c.Prices.APIKey = key
	}
	if key := os.Getenv("COVALENT_KEY"); key != "" {
		c.Indexer.APIKey = key
	}
	if url := os.Getenv("BRIDGE_API_BASE_URL"); url != "" {
		c.Bridge.APIBaseURL = url
	}
	if key := os.Getenv("WALLET_PRIVATE_KEY"); key != "" {
		c.Wallet.PrivateKey = key
	}
}

// ConnectTimeout returns the wallet connect deadline as a duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Wallet.ConnectTimeoutMs) * time.Millisecond
}

// PollInterval returns the wallet connect polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Wallet.PollIntervalMs) * time.Millisecond
}
