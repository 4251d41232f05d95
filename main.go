package main

import (
	"context"
	"errors"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"portfoliotrack/config"
	"portfoliotrack/internal/adapters/binancefeed"
	"portfoliotrack/internal/adapters/logger"
	"portfoliotrack/internal/adapters/marketaux"
	"portfoliotrack/internal/adapters/pricefeed"
	"portfoliotrack/internal/adapters/sqlite"
	"portfoliotrack/internal/perf"
	"portfoliotrack/internal/ports"
	"portfoliotrack/internal/server"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Repository (Database Adapter)
	repo, err := sqlite.NewRepository(sqlite.Config{
		DBPath: cfg.DBPath,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize database repository")
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing database repository")
		}
	}()

	// 4. Initialize Price Provider
	var prices ports.PriceProvider
	switch cfg.PriceFeed {
	case config.FeedBinance:
		prices, err = binancefeed.New(binancefeed.Config{
			APIKey:    cfg.BinanceAPIKey,
			SecretKey: cfg.BinanceSecretKey,
			BarLimit:  cfg.BinanceBarLimit,
			Logger:    appLogger,
		})
	default:
		prices, err = pricefeed.New(pricefeed.Config{
			BaseURL: cfg.PriceAPIBaseURL,
			Timeout: cfg.PriceAPITimeout,
			Logger:  appLogger,
		})
	}
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize price provider")
		log.Fatalf("FATAL: Failed to initialize price provider: %v", err)
	}
	appLogger.Info(ctx, "Price provider initialized", map[string]interface{}{"feed": cfg.PriceFeed})

	// 5. Initialize News Provider (optional)
	var news ports.NewsProvider
	if cfg.MarketauxAPIKey != "" {
		news, err = marketaux.New(marketaux.Config{
			APIKey:    cfg.MarketauxAPIKey,
			Countries: cfg.NewsCountries,
			Language:  cfg.NewsLanguage,
			Logger:    appLogger,
		})
		if err != nil {
			appLogger.Error(ctx, err, "FATAL: Failed to initialize news client")
			log.Fatalf("FATAL: Failed to initialize news client: %v", err)
		}
	} else {
		appLogger.Warn(ctx, "MARKETAUX_API_KEY not set, news endpoint disabled")
	}

	// 6. Initialize Performance Service
	perfService, err := perf.NewService(repo, repo, prices, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize performance service")
		log.Fatalf("FATAL: Failed to initialize performance service: %v", err)
	}

	// 7. Initialize API Server
	api, err := server.New(server.Config{
		Portfolios: repo,
		Assets:     repo,
		Ledger:     repo,
		Perf:       perfService,
		News:       news,
		Logger:     appLogger,
		NewsLimit:  cfg.NewsLimit,
	})
	if err != nil {
		appLogger.Error(ctx, err, "FATAL: Failed to initialize API server")
		log.Fatalf("FATAL: Failed to initialize API server: %v", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: api.Handler(),
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info(ctx, "API listening", map[string]interface{}{"addr": cfg.HTTPAddr})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case sig := <-sigCh:
		appLogger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error(ctx, err, "HTTP server shutdown failed")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error(ctx, err, "FATAL: HTTP server error")
			log.Fatalf("FATAL: HTTP server error: %v", err)
		}
	}

	appLogger.Info(ctx, "Shutdown complete")
}
