package stub

import (
	"context"
	"sync"

	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/safety"
)

// Source implements safety.LiquiditySource with deterministic values for
// testing, keyed by pool ID.
type Source struct {
	mu sync.Mutex

	// Defaults used when no per-pool value is set.
	Liquidity float64
	Impact    float64

	liquidityByPool map[string]float64
	impactByPool    map[string]float64
}

// NewSource creates a stub liquidity source with defaults.
func NewSource(liquidity, impact float64) *Source {
	return &Source{
		Liquidity:       liquidity,
		Impact:          impact,
		liquidityByPool: make(map[string]float64),
		impactByPool:    make(map[string]float64),
	}
}

// SetLiquidity pins a liquidity value for one pool.
func (s *Source) SetLiquidity(poolID string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liquidityByPool[poolID] = v
}

// SetImpact pins a price-impact value for one pool.
func (s *Source) SetImpact(poolID string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.impactByPool[poolID] = v
}

// GetLiquidity returns the pinned or default liquidity.
func (s *Source) GetLiquidity(_ context.Context, pool *domain.CandidatePool) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.liquidityByPool[pool.PoolID]; ok {
		return v
	}
	return s.Liquidity
}

// GetPriceImpact returns the pinned or default impact.
func (s *Source) GetPriceImpact(_ context.Context, pool *domain.CandidatePool, _ float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.impactByPool[pool.PoolID]; ok {
		return v
	}
	return s.Impact
}

// Verify interface compliance at compile time.
var _ safety.LiquiditySource = (*Source)(nil)
