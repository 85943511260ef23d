package safety

import (
	"context"

	"solana-pool-sniper/internal/domain"
)

// FailClosedImpact is the price-impact sentinel substituted when a lookup
// fails: large enough to fail any sane threshold, so a broken feed can
// never approve a trade.
const FailClosedImpact = 100.0

// LiquiditySource answers the two questions the evaluator needs about a
// pool. Both methods fail closed on lookup error: GetLiquidity reports 0
// and GetPriceImpact reports FailClosedImpact, rather than propagating.
// Both must resolve before evaluation proceeds.
type LiquiditySource interface {
	// GetLiquidity returns the pool's current quote-side liquidity in
	// base-currency units.
	GetLiquidity(ctx context.Context, pool *domain.CandidatePool) float64

	// GetPriceImpact estimates the price impact, in percent, of trading
	// tradeAmount base-currency units against the pool.
	GetPriceImpact(ctx context.Context, pool *domain.CandidatePool, tradeAmount float64) float64
}
