// Package executor turns candidate pools into positions and positions back
// into quote currency: safety gating, swap construction, submission, and
// retry-bounded settlement.
package executor

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-pool-sniper/internal/dex"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/journal"
	"solana-pool-sniper/internal/observability"
	"solana-pool-sniper/internal/position"
	"solana-pool-sniper/internal/safety"
	"solana-pool-sniper/internal/solana"
)

const (
	defaultSubmitRetries  = 3
	defaultMaxSellRetries = 3
	defaultRetryDelay     = 1 * time.Second
	defaultConfirmTimeout = 30 * time.Second
	defaultPollInterval   = 2 * time.Second
	defaultCommitment     = "confirmed"
)

// Engine executes the buy and sell legs of a snipe.
type Engine struct {
	rpc        solana.RPCClient
	builder    *dex.Builder
	tracker    *position.Tracker
	source     safety.LiquiditySource
	thresholds *safety.Thresholds
	evaluator  *safety.Evaluator
	recorder   journal.Recorder
	logger     *log.Logger

	quote       domain.QuoteToken
	quoteAmount float64 // base-currency units spent per buy

	takeProfitPct float64 // percent gain that releases a sell
	stopLossPct   float64 // percent loss that releases a sell

	commitment     string
	submitRetries  int
	maxSellRetries int
	retryDelay     time.Duration
	confirmTimeout time.Duration
	pollInterval   time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRecorder journals confirmed trades.
func WithRecorder(r journal.Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithCommitment sets the commitment level confirmations wait for.
func WithCommitment(commitment string) Option {
	return func(e *Engine) {
		e.commitment = commitment
	}
}

// WithExitBand sets the hold band around the acquisition value: Sell keeps
// a position open while its value sits strictly inside
// (acquired*(1-stopLossPct/100), acquired*(1+takeProfitPct/100)). With no
// band configured every sell liquidates.
func WithExitBand(takeProfitPct, stopLossPct float64) Option {
	return func(e *Engine) {
		e.takeProfitPct = takeProfitPct
		e.stopLossPct = stopLossPct
	}
}

// WithSubmitRetries bounds buy submission attempts.
func WithSubmitRetries(n int) Option {
	return func(e *Engine) {
		e.submitRetries = n
	}
}

// WithMaxSellRetries bounds full sell attempts before the position is
// abandoned.
func WithMaxSellRetries(n int) Option {
	return func(e *Engine) {
		e.maxSellRetries = n
	}
}

// WithRetryDelay sets the fixed delay between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.retryDelay = d
	}
}

// WithConfirmTimeout bounds how long a confirmation wait polls.
func WithConfirmTimeout(timeout, interval time.Duration) Option {
	return func(e *Engine) {
		e.confirmTimeout = timeout
		e.pollInterval = interval
	}
}

// NewEngine creates an execution engine spending quoteAmount per buy.
func NewEngine(
	rpc solana.RPCClient,
	builder *dex.Builder,
	tracker *position.Tracker,
	source safety.LiquiditySource,
	thresholds *safety.Thresholds,
	quote domain.QuoteToken,
	quoteAmount float64,
	opts ...Option,
) *Engine {
	e := &Engine{
		rpc:            rpc,
		builder:        builder,
		tracker:        tracker,
		source:         source,
		thresholds:     thresholds,
		evaluator:      safety.NewEvaluator(),
		recorder:       journal.Nop{},
		logger:         log.Default(),
		quote:          quote,
		quoteAmount:    quoteAmount,
		commitment:     defaultCommitment,
		submitRetries:  defaultSubmitRetries,
		maxSellRetries: defaultMaxSellRetries,
		retryDelay:     defaultRetryDelay,
		confirmTimeout: defaultConfirmTimeout,
		pollInterval:   defaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Buy evaluates a candidate pool and, if it passes the safety gate, swaps
// quote currency for the pool's base token. A rejected candidate is not an
// error. On success the position is tracked in the Bought phase.
func (e *Engine) Buy(ctx context.Context, pool *domain.CandidatePool) error {
	if err := e.tracker.Put(&domain.TrackedPosition{Mint: pool.BaseMint, Phase: domain.PhaseDiscovered}); err != nil {
		if err == position.ErrExists {
			e.logger.Printf("[executor] already holding %s, skipping pool %s", pool.BaseMint, pool.PoolID)
			return nil
		}
		return err
	}

	liquidity := e.source.GetLiquidity(ctx, pool)
	impact := e.source.GetPriceImpact(ctx, pool, e.quoteAmount)
	cfg := e.thresholds.Get()

	observability.RecordTradeEvaluated()
	verdict := e.evaluator.Evaluate(e.quoteAmount, liquidity, impact, cfg)
	if !verdict.Safe {
		observability.RecordTradeRejected(verdict.Check)
		e.logger.Printf("[executor] pool %s rejected: %s", pool.PoolID, verdict.Reason)
		e.tracker.Remove(pool.BaseMint)
		return nil
	}

	if err := e.executeBuy(ctx, pool, cfg); err != nil {
		observability.RecordBuyFailure()
		e.tracker.Remove(pool.BaseMint)
		observability.UpdateOpenPositions(e.tracker.Len())
		return fmt.Errorf("buy %s: %w", pool.BaseMint, err)
	}

	observability.UpdateOpenPositions(e.tracker.Len())
	return nil
}

func (e *Engine) executeBuy(ctx context.Context, pool *domain.CandidatePool, cfg safety.Config) error {
	state, err := dex.DecodePoolState(pool.RawState)
	if err != nil {
		return fmt.Errorf("decode pool state: %w", err)
	}

	market, err := e.resolveMarket(ctx, pool)
	if err != nil {
		return fmt.Errorf("resolve market: %w", err)
	}

	keys, err := dex.ResolvePoolKeys(pool.PoolID, state, market)
	if err != nil {
		return fmt.Errorf("resolve pool keys: %w", err)
	}

	amountIn := e.quote.ToRaw(e.quoteAmount)
	minOut, expectedOut, err := e.buyMinAmountOut(ctx, state, amountIn, cfg.MaxPriceImpactPct)
	if err != nil {
		return fmt.Errorf("compute min amount out: %w", err)
	}

	owner := e.builder.Owner()
	destATA, err := dex.AssociatedTokenAddress(owner, pool.BaseMint)
	if err != nil {
		return fmt.Errorf("derive destination account: %w", err)
	}
	sourceATA, err := dex.AssociatedTokenAddress(owner, e.quote.Mint)
	if err != nil {
		return fmt.Errorf("derive source account: %w", err)
	}

	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("get blockhash: %w", err)
	}

	rawTx, err := e.builder.BuildBuy(dex.SwapParams{
		Keys:          keys,
		SourceAccount: sourceATA,
		DestAccount:   destATA,
		DestMint:      pool.BaseMint,
		AmountIn:      amountIn,
		MinAmountOut:  minOut,
		Blockhash:     blockhash,
	})
	if err != nil {
		return fmt.Errorf("build buy transaction: %w", err)
	}

	sig, err := e.submitWithRetry(ctx, rawTx, observability.RecordBuySubmitted)
	if err != nil {
		return err
	}

	if err := e.waitConfirmed(ctx, sig); err != nil {
		return err
	}
	observability.RecordBuyConfirmed()

	if err := e.tracker.SetBought(pool.BaseMint, destATA, keys, e.quoteAmount); err != nil {
		return err
	}

	e.logger.Printf("[executor] bought %s via pool %s, sig=%s", pool.BaseMint, pool.PoolID, sig)

	if err := e.recorder.RecordTrade(ctx, &journal.TradeEvent{
		Side:       journal.SideBuy,
		Mint:       pool.BaseMint,
		Pool:       pool.PoolID,
		AmountRaw:  expectedOut,
		QuoteValue: e.quoteAmount,
		Signature:  sig,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		e.logger.Printf("[executor] journal write failed: %v", err)
	}
	return nil
}

// buyMinAmountOut derives the slippage floor from live reserves: the
// constant-product expected output discounted by the configured impact
// tolerance. A reserve lookup failure aborts the buy.
func (e *Engine) buyMinAmountOut(ctx context.Context, state *dex.PoolState, amountIn uint64, maxImpactPct float64) (minOut, expectedOut uint64, err error) {
	baseReserve, err := e.rpc.GetTokenAccountBalance(ctx, state.BaseVault)
	if err != nil {
		return 0, 0, fmt.Errorf("base vault balance: %w", err)
	}
	quoteReserve, err := e.rpc.GetTokenAccountBalance(ctx, state.QuoteVault)
	if err != nil {
		return 0, 0, fmt.Errorf("quote vault balance: %w", err)
	}
	if quoteReserve == 0 {
		return 0, 0, fmt.Errorf("quote vault is empty")
	}

	expected := float64(baseReserve) * float64(amountIn) / float64(quoteReserve+amountIn)
	floor := expected * (1 - maxImpactPct/100)
	if floor < 0 {
		floor = 0
	}
	return uint64(floor), uint64(expected), nil
}

// resolveMarket returns cached market metadata or fetches and decodes the
// market account referenced by the pool.
func (e *Engine) resolveMarket(ctx context.Context, pool *domain.CandidatePool) (*domain.MarketMeta, error) {
	if meta := e.tracker.MarketFor(pool.BaseMint); meta != nil {
		return meta, nil
	}

	info, err := e.rpc.GetAccountInfo(ctx, pool.MarketID)
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", pool.MarketID, err)
	}
	if info == nil {
		return nil, fmt.Errorf("market %s does not exist", pool.MarketID)
	}

	state, err := dex.DecodeMarketState(info.Data)
	if err != nil {
		return nil, fmt.Errorf("decode market %s: %w", pool.MarketID, err)
	}

	meta := dex.MarketMetaFromState(state)
	e.tracker.CacheMarket(pool.BaseMint, meta)
	return meta, nil
}

// Sell liquidates the tracked position for a mint, given its current
// quote-currency value. The hold band is checked first: a value strictly
// inside the configured band returns (false, nil) and keeps the position
// open. The returned bool reports whether the position is settled: a
// confirmed sell, nothing left to sell, or retry exhaustion (the position
// is dropped rather than wedged, so the caller can stop monitoring).
func (e *Engine) Sell(ctx context.Context, mint string, currentValue float64) (bool, error) {
	pos, err := e.tracker.Get(mint)
	if err != nil {
		if err == position.ErrNotFound {
			return true, nil
		}
		return false, err
	}

	if pos.AcquiredValue != nil && e.withinHoldBand(currentValue, *pos.AcquiredValue) {
		return false, nil
	}

	if pos.PoolKeys == nil || pos.TokenAccount == "" {
		e.logger.Printf("[executor] WARN position %s has no resolved keys, dropping", mint)
		e.settle(mint)
		return true, nil
	}

	balance, err := e.rpc.GetTokenAccountBalance(ctx, pos.TokenAccount)
	if err != nil {
		return false, fmt.Errorf("token balance for %s: %w", mint, err)
	}
	if balance == 0 {
		e.logger.Printf("[executor] position %s already empty, dropping", mint)
		e.settle(mint)
		return true, nil
	}

	if err := e.tracker.SetPhase(mint, domain.PhaseSelling); err != nil {
		return false, err
	}

	for attempt := 0; attempt <= e.maxSellRetries; attempt++ {
		if attempt > 0 {
			observability.RecordSellRetry()
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}

		sig, err := e.trySell(ctx, pos, balance)
		if err != nil {
			e.logger.Printf("[executor] sell attempt %d for %s failed: %v", attempt+1, mint, err)
			continue
		}

		observability.RecordSellSettled()
		e.logger.Printf("[executor] sold %s, sig=%s", mint, sig)

		value := e.sellValue(ctx, pos, balance)
		if err := e.recorder.RecordTrade(ctx, &journal.TradeEvent{
			Side:       journal.SideSell,
			Mint:       mint,
			Pool:       pos.PoolKeys.PoolID,
			AmountRaw:  balance,
			QuoteValue: value,
			Signature:  sig,
			OccurredAt: time.Now().UTC(),
		}); err != nil {
			e.logger.Printf("[executor] journal write failed: %v", err)
		}

		e.settle(mint)
		return true, nil
	}

	// Retry budget spent. Dropping the position loses track of any tokens
	// still held; that is preferred over monitoring a position that can no
	// longer be exited automatically.
	e.logger.Printf("[executor] WARN abandoning %s after %d failed sell attempts", mint, e.maxSellRetries+1)
	observability.RecordSellAbandoned()
	e.settle(mint)
	return true, nil
}

// withinHoldBand reports whether value sits strictly inside the exit band
// around the acquisition value. An unset band never holds.
func (e *Engine) withinHoldBand(value, acquired float64) bool {
	if e.takeProfitPct <= 0 || e.stopLossPct <= 0 {
		return false
	}
	takeProfit := acquired * (1 + e.takeProfitPct/100)
	stopLoss := acquired * (1 - e.stopLossPct/100)
	return value < takeProfit && value > stopLoss
}

// trySell runs one full sell attempt: fresh blockhash, build, submit, confirm.
func (e *Engine) trySell(ctx context.Context, pos *domain.TrackedPosition, balance uint64) (string, error) {
	sourceATA, err := dex.AssociatedTokenAddress(e.builder.Owner(), e.quote.Mint)
	if err != nil {
		return "", fmt.Errorf("derive quote account: %w", err)
	}

	blockhash, err := e.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get blockhash: %w", err)
	}

	// Exit at any price: the goal of a sell is to stop holding.
	rawTx, err := e.builder.BuildSell(dex.SwapParams{
		Keys:          pos.PoolKeys,
		SourceAccount: pos.TokenAccount,
		DestAccount:   sourceATA,
		DestMint:      e.quote.Mint,
		AmountIn:      balance,
		MinAmountOut:  0,
		Blockhash:     blockhash,
	})
	if err != nil {
		return "", fmt.Errorf("build sell transaction: %w", err)
	}

	observability.RecordSellSubmitted()
	sig, err := e.rpc.SendTransaction(ctx, rawTx)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}

	if err := e.waitConfirmed(ctx, sig); err != nil {
		return "", err
	}
	return sig, nil
}

// sellValue estimates the quote-side proceeds of a sell from live reserves.
// Best effort; 0 when reserves cannot be read.
func (e *Engine) sellValue(ctx context.Context, pos *domain.TrackedPosition, balance uint64) float64 {
	baseReserve, err := e.rpc.GetTokenAccountBalance(ctx, pos.PoolKeys.BaseVault)
	if err != nil {
		return 0
	}
	quoteReserve, err := e.rpc.GetTokenAccountBalance(ctx, pos.PoolKeys.QuoteVault)
	if err != nil {
		return 0
	}
	if baseReserve+balance == 0 {
		return 0
	}
	raw := float64(quoteReserve) * float64(balance) / float64(baseReserve+balance)
	return e.quote.ToBase(uint64(raw))
}

// PositionValue reports the current quote-currency value of a tracked
// position, estimated against live pool reserves.
func (e *Engine) PositionValue(ctx context.Context, mint string) (float64, error) {
	pos, err := e.tracker.Get(mint)
	if err != nil {
		return 0, err
	}
	if pos.PoolKeys == nil || pos.TokenAccount == "" {
		return 0, fmt.Errorf("position %s has no resolved keys", mint)
	}

	balance, err := e.rpc.GetTokenAccountBalance(ctx, pos.TokenAccount)
	if err != nil {
		return 0, fmt.Errorf("token balance: %w", err)
	}
	if balance == 0 {
		return 0, nil
	}

	baseReserve, err := e.rpc.GetTokenAccountBalance(ctx, pos.PoolKeys.BaseVault)
	if err != nil {
		return 0, fmt.Errorf("base vault balance: %w", err)
	}
	quoteReserve, err := e.rpc.GetTokenAccountBalance(ctx, pos.PoolKeys.QuoteVault)
	if err != nil {
		return 0, fmt.Errorf("quote vault balance: %w", err)
	}

	raw := float64(quoteReserve) * float64(balance) / float64(baseReserve+balance)
	return e.quote.ToBase(uint64(raw)), nil
}

func (e *Engine) settle(mint string) {
	e.tracker.SetPhase(mint, domain.PhaseClosed)
	e.tracker.Remove(mint)
	observability.UpdateOpenPositions(e.tracker.Len())
}

// submitWithRetry submits a transaction up to the retry budget, with a fixed
// delay between attempts.
func (e *Engine) submitWithRetry(ctx context.Context, rawTx []byte, recordSubmit func()) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= e.submitRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}

		recordSubmit()
		sig, err := e.rpc.SendTransaction(ctx, rawTx)
		if err == nil {
			return sig, nil
		}
		lastErr = err
		e.logger.Printf("[executor] submission attempt %d failed: %v", attempt+1, err)
	}
	return "", fmt.Errorf("submit after %d attempts: %w", e.submitRetries+1, lastErr)
}

// waitConfirmed polls signature status until the configured commitment is
// reached or the timeout elapses.
func (e *Engine) waitConfirmed(ctx context.Context, sig string) error {
	deadline := time.Now().Add(e.confirmTimeout)
	for {
		statuses, err := e.rpc.GetSignatureStatuses(ctx, []string{sig})
		if err == nil && len(statuses) == 1 {
			s := statuses[0]
			if s != nil && s.Err != nil {
				return fmt.Errorf("transaction %s failed on chain: %v", sig, s.Err)
			}
			if s.Confirmed(e.commitment) {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("transaction %s not confirmed within %s", sig, e.confirmTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pollInterval):
		}
	}
}
