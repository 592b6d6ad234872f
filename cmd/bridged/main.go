package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bridge_engine/internal/client"
	"bridge_engine/internal/config"
	"bridge_engine/internal/evm"
	"bridge_engine/internal/pkg/metrics"
	"bridge_engine/internal/registry"
	"bridge_engine/internal/restapi"
	"bridge_engine/internal/service"
	"bridge_engine/internal/store"
	"bridge_engine/internal/wallet"

	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
)

func buildLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Route slog-based libraries through the same zap core.
	slog.SetDefault(slog.New(zapslog.NewHandler(logger.Core())))

	metrics.MustRegister()

	reg := registry.New(cfg.Bridge.Routers)
	logger.Info("Chain registry loaded", zap.Int("chains", len(reg.IDs())))

	clientProvider := evm.NewClientProvider(reg, cfg.RPC, logger)
	multicall := evm.NewMulticall(cfg.Discovery.MulticallChunkSize, logger)

	gecko := client.NewCoinGeckoClient(
		cfg.Prices.BaseURL, cfg.Prices.APIKey,
		time.Duration(cfg.Prices.RequestTimeoutMs)*time.Millisecond,
		cfg.Prices.RatePerSecond, cfg.Prices.RateBurst, logger)
	indexer := client.NewCovalentClient(
		cfg.Indexer.BaseURL, cfg.Indexer.APIKey,
		time.Duration(cfg.Indexer.RequestTimeoutMs)*time.Millisecond, logger)
	tokenLists := client.NewTokenListClient(
		time.Duration(cfg.Discovery.TokenListTimeoutMs)*time.Millisecond, logger)
	hosted := client.NewHostedBridgeClient(
		cfg.Bridge.APIBaseURL,
		time.Duration(cfg.Bridge.RequestTimeoutMs)*time.Millisecond, logger)

	prices := service.NewPriceService(gecko, reg,
		time.Duration(cfg.Prices.CacheTTLSeconds)*time.Second, logger)
	discovery := service.NewDiscoveryService(reg, clientProvider, multicall, tokenLists, indexer, prices, cfg.Discovery, logger)
	portfolio := service.NewPortfolioService(reg, discovery, cfg.Discovery.MaxConcurrentChains, logger)

	var source wallet.ProviderSource
	if cfg.Wallet.PrivateKey != "" {
		local, err := wallet.NewLocalSource(cfg.Wallet.PrivateKey, cfg.Wallet.DefaultChainID, reg, logger)
		if err != nil {
			logger.Fatal("Failed to initialize local wallet", zap.Error(err))
		}
		source = local
	} else {
		logger.Warn("No wallet key configured, session endpoints will reject connects")
		source = wallet.NoopSource{}
	}
	session := wallet.NewSessionManager(source, reg, cfg.ConnectTimeout(), cfg.PollInterval(), logger)

	bridge := service.NewBridgeService(reg, session, hosted, clientProvider, prices, cfg.Bridge, logger)
	// A chain change in the wallet invalidates any quote priced for the old
	// chain context.
	session.Subscribe(wallet.Listener{
		OnChainChanged:    func(uint64) { bridge.Invalidate() },
		OnAccountsChanged: func([]string) { bridge.Invalidate() },
		OnDisconnected:    func(error) { bridge.Invalidate() },
	})

	prefs, err := store.OpenPrefs(cfg.Persistence.Path, cfg.Persistence.LockPath)
	if err != nil {
		logger.Warn("Preferences store unavailable, continuing without it", zap.Error(err))
		prefs = nil
	}
	defer func() { _ = prefs.Close() }()

	if info, err := session.RestoreSession(context.Background()); err == nil && info != nil {
		logger.Info("Restored wallet session", zap.String("address", info.Address))
	}

	handlers := restapi.NewHandlers(reg, portfolio, discovery, session, bridge, prices, prefs, logger)
	router := restapi.SetupRouter(handlers)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan

	logger.Info("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	session.Disconnect()
	logger.Info("Engine stopped")
}
