package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"portfoliotrack/internal/adapters/logger" // Import the logger package for LogLevel
)

// Price feed selection values for PRICE_FEED.
const (
	FeedCached  = "cached"  // cached price data HTTP API (default)
	FeedBinance = "binance" // Binance daily spot klines
)

// Config holds all application configuration.
type Config struct {
	// HTTP server
	HTTPAddr        string
	ShutdownTimeout time.Duration

	// Database
	DBPath string

	// Price feed
	PriceFeed       string // FeedCached or FeedBinance
	PriceAPIBaseURL string // Override for the cached price data endpoint
	PriceAPITimeout time.Duration

	// Binance (only used when PriceFeed == FeedBinance)
	BinanceAPIKey    string
	BinanceSecretKey string
	BinanceBarLimit  int

	// News
	MarketauxAPIKey string
	NewsCountries   string
	NewsLanguage    string
	NewsLimit       int

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// HTTP server
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	if cfg.HTTPAddr == "" {
		errs = append(errs, "HTTP_ADDR must be set")
	}

	shutdownSeconds := getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10)
	if shutdownSeconds <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	cfg.ShutdownTimeout = time.Duration(shutdownSeconds) * time.Second

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/portfolio.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Price feed
	cfg.PriceFeed = strings.ToLower(getEnv("PRICE_FEED", FeedCached))
	if cfg.PriceFeed != FeedCached && cfg.PriceFeed != FeedBinance {
		errs = append(errs, fmt.Sprintf("PRICE_FEED must be %q or %q", FeedCached, FeedBinance))
	}
	cfg.PriceAPIBaseURL = getEnv("PRICE_API_BASE_URL", "")

	priceTimeoutSeconds := getEnvAsInt("PRICE_API_TIMEOUT_SECONDS", 30)
	if priceTimeoutSeconds <= 0 {
		errs = append(errs, "PRICE_API_TIMEOUT_SECONDS must be positive")
	}
	cfg.PriceAPITimeout = time.Duration(priceTimeoutSeconds) * time.Second

	// Binance
	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.BinanceBarLimit = getEnvAsInt("BINANCE_BAR_LIMIT", 1000)
	if cfg.BinanceBarLimit <= 0 {
		errs = append(errs, "BINANCE_BAR_LIMIT must be positive")
	}

	// News
	cfg.MarketauxAPIKey = getEnv("MARKETAUX_API_KEY", "")
	cfg.NewsCountries = getEnv("NEWS_COUNTRIES", "us")
	cfg.NewsLanguage = getEnv("NEWS_LANGUAGE", "en")
	cfg.NewsLimit = getEnvAsInt("NEWS_LIMIT", 6)
	if cfg.NewsLimit <= 0 {
		errs = append(errs, "NEWS_LIMIT must be positive")
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
