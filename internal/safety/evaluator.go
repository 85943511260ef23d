// Package safety gates proposed trades against configured thresholds.
package safety

import (
	"fmt"
	"sync"
)

// Config holds the trade-safety thresholds. All values are denominated in
// base-currency units and must be strictly positive when set.
type Config struct {
	MaxBuySize        float64 // largest allowed trade size
	MinPoolSize       float64 // smallest acceptable pool liquidity
	MaxPriceImpactPct float64 // largest tolerated price impact, percent
}

// Validate checks the strictly-positive invariant.
func (c Config) Validate() error {
	if c.MaxBuySize <= 0 {
		return fmt.Errorf("max buy size must be positive, got %v", c.MaxBuySize)
	}
	if c.MinPoolSize <= 0 {
		return fmt.Errorf("min pool size must be positive, got %v", c.MinPoolSize)
	}
	if c.MaxPriceImpactPct <= 0 {
		return fmt.Errorf("max price impact must be positive, got %v", c.MaxPriceImpactPct)
	}
	return nil
}

// Check names for the individual safety gates.
const (
	CheckSize      = "size"
	CheckLiquidity = "liquidity"
	CheckImpact    = "impact"
)

// Result is the verdict for one proposed trade. Check and Reason are set
// exactly when the trade is rejected, and carry the first violated check only.
type Result struct {
	Safe   bool
	Check  string
	Reason string
}

// Evaluator decides whether a proposed trade is safe to execute.
type Evaluator struct{}

// NewEvaluator creates a new safety evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate runs the safety checks in fixed priority order, short-circuiting
// at the first failure: trade size, then liquidity, then price impact.
// Callers depend on this ordering when several checks would fail at once.
// All amounts must already be normalized to base-currency units; the
// evaluator never infers decimals.
func (e *Evaluator) Evaluate(tradeAmount, liquidity, priceImpactPct float64, cfg Config) Result {
	if tradeAmount > cfg.MaxBuySize {
		return Result{
			Check:  CheckSize,
			Reason: fmt.Sprintf("Trade size %v exceeds maximum allowed %v", tradeAmount, cfg.MaxBuySize),
		}
	}

	if liquidity < cfg.MinPoolSize {
		return Result{
			Check:  CheckLiquidity,
			Reason: fmt.Sprintf("Insufficient liquidity: pool size %v below minimum %v", liquidity, cfg.MinPoolSize),
		}
	}

	if priceImpactPct > cfg.MaxPriceImpactPct {
		return Result{
			Check:  CheckImpact,
			Reason: fmt.Sprintf("Price impact %v%% exceeds limit %v%%", priceImpactPct, cfg.MaxPriceImpactPct),
		}
	}

	return Result{Safe: true}
}

// Thresholds is a runtime-mutable holder for the safety Config. It is
// constructed once and injected wherever thresholds are consulted, instead
// of living in package-level mutable state.
type Thresholds struct {
	mu  sync.RWMutex
	cfg Config
}

// NewThresholds creates a holder with a validated initial config.
func NewThresholds(cfg Config) (*Thresholds, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Thresholds{cfg: cfg}, nil
}

// Get returns the current config.
func (t *Thresholds) Get() Config {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cfg
}

// Set replaces the config after validation.
func (t *Thresholds) Set(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	t.mu.Lock()
	t.cfg = cfg
	t.mu.Unlock()
	return nil
}
