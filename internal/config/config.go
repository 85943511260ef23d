// Package config loads the sniper configuration from the environment, with
// an optional .env file for local runs.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the complete runtime configuration.
type Config struct {
	// Connectivity
	RPCEndpoint string
	WSEndpoint  string
	Commitment  string // processed | confirmed | finalized

	// Wallet
	PrivateKey string // base58-encoded 64-byte secret key

	// Trading
	QuoteMint   string  // WSOL | USDC
	QuoteAmount float64 // quote units spent per buy

	// Safety thresholds
	MinPoolSize    float64
	MaxBuySize     float64
	MaxPriceImpact float64 // percent

	// Discovery
	UseSnipeList             bool
	SnipeListPath            string
	SnipeListRefreshInterval time.Duration
	CheckIfMintIsRenounced   bool

	// Selling
	AutoSell       bool
	MaxSellRetries int
	AutoSellDelay  time.Duration
	TakeProfit     float64 // percent gain triggering a sell
	StopLoss       float64 // percent loss triggering a sell

	// Journal sinks, disabled when empty
	PostgresDSN   string
	ClickHouseDSN string

	// Observability
	MetricsAddr string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Commitment:    getEnv("COMMITMENT", "confirmed"),
		SnipeListPath: getEnv("SNIPE_LIST_PATH", "snipe-list.txt"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		ClickHouseDSN: os.Getenv("CLICKHOUSE_DSN"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
	}

	var err error
	if cfg.RPCEndpoint, err = requireEnv("RPC_ENDPOINT"); err != nil {
		return nil, err
	}
	if cfg.WSEndpoint, err = requireEnv("WS_ENDPOINT"); err != nil {
		return nil, err
	}
	if cfg.PrivateKey, err = requireEnv("PRIVATE_KEY"); err != nil {
		return nil, err
	}
	if cfg.QuoteMint, err = requireEnv("QUOTE_MINT"); err != nil {
		return nil, err
	}

	if cfg.QuoteAmount, err = requireFloat("QUOTE_AMOUNT"); err != nil {
		return nil, err
	}
	if cfg.MinPoolSize, err = requireFloat("MIN_POOL_SIZE"); err != nil {
		return nil, err
	}
	if cfg.MaxBuySize, err = requireFloat("MAX_BUY_SIZE"); err != nil {
		return nil, err
	}
	if cfg.MaxPriceImpact, err = requireFloat("MAX_PRICE_IMPACT"); err != nil {
		return nil, err
	}

	if cfg.UseSnipeList, err = getBool("USE_SNIPE_LIST", false); err != nil {
		return nil, err
	}
	if cfg.CheckIfMintIsRenounced, err = getBool("CHECK_IF_MINT_IS_RENOUNCED", false); err != nil {
		return nil, err
	}
	if cfg.AutoSell, err = getBool("AUTO_SELL", true); err != nil {
		return nil, err
	}

	if cfg.MaxSellRetries, err = getInt("MAX_SELL_RETRIES", 5); err != nil {
		return nil, err
	}
	if cfg.SnipeListRefreshInterval, err = getDuration("SNIPE_LIST_REFRESH_INTERVAL", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.AutoSellDelay, err = getDuration("AUTO_SELL_DELAY", 0); err != nil {
		return nil, err
	}

	if cfg.TakeProfit, err = getFloat("TAKE_PROFIT", 50); err != nil {
		return nil, err
	}
	if cfg.StopLoss, err = getFloat("STOP_LOSS", 30); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("COMMITMENT must be processed, confirmed, or finalized, got %q", c.Commitment)
	}
	switch c.QuoteMint {
	case "WSOL", "USDC":
	default:
		return fmt.Errorf("QUOTE_MINT must be WSOL or USDC, got %q", c.QuoteMint)
	}
	if c.QuoteAmount <= 0 {
		return fmt.Errorf("QUOTE_AMOUNT must be positive, got %v", c.QuoteAmount)
	}
	if c.TakeProfit <= 0 {
		return fmt.Errorf("TAKE_PROFIT must be positive, got %v", c.TakeProfit)
	}
	if c.StopLoss <= 0 || c.StopLoss >= 100 {
		return fmt.Errorf("STOP_LOSS must be in (0, 100), got %v", c.StopLoss)
	}
	if c.MaxSellRetries < 0 {
		return fmt.Errorf("MAX_SELL_RETRIES must not be negative, got %d", c.MaxSellRetries)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func requireFloat(key string) (float64, error) {
	raw, err := requireEnv(key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return v, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, raw)
	}
	return v, nil
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return v, nil
}

func getBool(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s, got %q", key, raw)
	}
	return v, nil
}
