package safety

import (
	"context"
	"log"

	"solana-pool-sniper/internal/dex"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/solana"
)

// OnChainSource reads liquidity straight from the pool's vault accounts.
type OnChainSource struct {
	rpc    solana.RPCClient
	quote  domain.QuoteToken
	logger *log.Logger
}

// NewOnChainSource creates a LiquiditySource backed by RPC vault reads.
func NewOnChainSource(rpc solana.RPCClient, quote domain.QuoteToken, logger *log.Logger) *OnChainSource {
	return &OnChainSource{rpc: rpc, quote: quote, logger: logger}
}

// GetLiquidity reads the quote vault balance. Fails closed to 0.
func (s *OnChainSource) GetLiquidity(ctx context.Context, pool *domain.CandidatePool) float64 {
	state, err := dex.DecodePoolState(pool.RawState)
	if err != nil {
		s.logger.Printf("liquidity lookup for %s: decode pool state: %v", pool.PoolID, err)
		return 0
	}

	raw, err := s.rpc.GetTokenAccountBalance(ctx, state.QuoteVault)
	if err != nil {
		s.logger.Printf("liquidity lookup for %s: vault balance: %v", pool.PoolID, err)
		return 0
	}

	return s.quote.ToBase(raw)
}

// GetPriceImpact estimates constant-product price impact for a trade of
// tradeAmount quote units: the deviation from mid-price is the trade's
// share of the quote reserve. Fails closed to FailClosedImpact.
func (s *OnChainSource) GetPriceImpact(ctx context.Context, pool *domain.CandidatePool, tradeAmount float64) float64 {
	liquidity := s.GetLiquidity(ctx, pool)
	if liquidity <= 0 {
		return FailClosedImpact
	}
	return 100 * tradeAmount / liquidity
}

// Verify interface compliance at compile time.
var _ LiquiditySource = (*OnChainSource)(nil)
