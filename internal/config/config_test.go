package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("RPC_ENDPOINT", "https://api.mainnet-beta.solana.com")
	t.Setenv("WS_ENDPOINT", "wss://api.mainnet-beta.solana.com")
	t.Setenv("PRIVATE_KEY", "secret")
	t.Setenv("QUOTE_MINT", "WSOL")
	t.Setenv("QUOTE_AMOUNT", "0.1")
	t.Setenv("MIN_POOL_SIZE", "5")
	t.Setenv("MAX_BUY_SIZE", "1")
	t.Setenv("MAX_PRICE_IMPACT", "10")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Commitment != "confirmed" {
		t.Errorf("Commitment = %q, want confirmed", cfg.Commitment)
	}
	if !cfg.AutoSell {
		t.Error("AutoSell should default to true")
	}
	if cfg.UseSnipeList {
		t.Error("UseSnipeList should default to false")
	}
	if cfg.MaxSellRetries != 5 {
		t.Errorf("MaxSellRetries = %d, want 5", cfg.MaxSellRetries)
	}
	if cfg.TakeProfit != 50 {
		t.Errorf("TakeProfit = %v, want 50", cfg.TakeProfit)
	}
	if cfg.StopLoss != 30 {
		t.Errorf("StopLoss = %v, want 30", cfg.StopLoss)
	}
	if cfg.SnipeListRefreshInterval != 20*time.Second {
		t.Errorf("SnipeListRefreshInterval = %v, want 20s", cfg.SnipeListRefreshInterval)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("MetricsAddr = %q, want :9090", cfg.MetricsAddr)
	}
	if cfg.PostgresDSN != "" {
		t.Errorf("PostgresDSN = %q, want empty", cfg.PostgresDSN)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("COMMITMENT", "finalized")
	t.Setenv("QUOTE_MINT", "USDC")
	t.Setenv("AUTO_SELL", "false")
	t.Setenv("USE_SNIPE_LIST", "true")
	t.Setenv("MAX_SELL_RETRIES", "2")
	t.Setenv("AUTO_SELL_DELAY", "3s")
	t.Setenv("TAKE_PROFIT", "80")
	t.Setenv("STOP_LOSS", "20")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/journal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Commitment != "finalized" {
		t.Errorf("Commitment = %q, want finalized", cfg.Commitment)
	}
	if cfg.QuoteMint != "USDC" {
		t.Errorf("QuoteMint = %q, want USDC", cfg.QuoteMint)
	}
	if cfg.AutoSell {
		t.Error("AutoSell should be overridden to false")
	}
	if !cfg.UseSnipeList {
		t.Error("UseSnipeList should be overridden to true")
	}
	if cfg.MaxSellRetries != 2 {
		t.Errorf("MaxSellRetries = %d, want 2", cfg.MaxSellRetries)
	}
	if cfg.AutoSellDelay != 3*time.Second {
		t.Errorf("AutoSellDelay = %v, want 3s", cfg.AutoSellDelay)
	}
	if cfg.PostgresDSN != "postgres://localhost/journal" {
		t.Errorf("PostgresDSN = %q", cfg.PostgresDSN)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	for _, key := range []string{"RPC_ENDPOINT", "QUOTE_MINT"} {
		t.Run(key, func(t *testing.T) {
			setRequired(t)
			t.Setenv(key, "")

			if _, err := Load(); err == nil || !strings.Contains(err.Error(), key) {
				t.Errorf("expected %s error, got %v", key, err)
			}
		})
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"QUOTE_AMOUNT", "lots"},
		{"QUOTE_AMOUNT", "-1"},
		{"COMMITMENT", "eventually"},
		{"QUOTE_MINT", "DOGE"},
		{"AUTO_SELL", "maybe"},
		{"MAX_SELL_RETRIES", "-3"},
		{"STOP_LOSS", "150"},
		{"AUTO_SELL_DELAY", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
