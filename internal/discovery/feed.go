// Package discovery watches Raydium and OpenBook program accounts over
// WebSocket and turns new liquidity pools into trade candidates.
package discovery

import (
	"context"
	"log"
	"sync"
	"time"

	"solana-pool-sniper/internal/dex"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/journal"
	"solana-pool-sniper/internal/observability"
	"solana-pool-sniper/internal/position"
	"solana-pool-sniper/internal/solana"
)

// CandidateHandler receives each dispatched candidate pool. Handlers run on
// their own goroutine; a panic in a handler is contained to that candidate.
type CandidateHandler func(ctx context.Context, pool *domain.CandidatePool)

// Feed subscribes to pool and market creation and dispatches candidates.
type Feed struct {
	ws      solana.WSClient
	rpc     solana.RPCClient
	tracker *position.Tracker
	handler CandidateHandler

	quote          domain.QuoteToken
	checkRenounced bool
	snipeList      *SnipeList
	recorder       journal.Recorder
	logger         *log.Logger

	// cutoff rejects pools that opened at or before the feed start, so a
	// restart does not chase pools the market has already priced.
	cutoff int64

	mu          sync.Mutex
	seenPools   map[string]struct{}
	seenMarkets map[string]struct{}

	wg sync.WaitGroup
}

// FeedOption configures the feed.
type FeedOption func(*Feed)

// WithFeedLogger sets a custom logger.
func WithFeedLogger(logger *log.Logger) FeedOption {
	return func(f *Feed) {
		f.logger = logger
	}
}

// WithSnipeList restricts dispatch to mints on the allow-list.
func WithSnipeList(list *SnipeList) FeedOption {
	return func(f *Feed) {
		f.snipeList = list
	}
}

// WithRenounceCheck requires the base mint authority to be renounced before
// a pool is dispatched.
func WithRenounceCheck(enabled bool) FeedOption {
	return func(f *Feed) {
		f.checkRenounced = enabled
	}
}

// WithRecorder journals discovery sightings.
func WithRecorder(r journal.Recorder) FeedOption {
	return func(f *Feed) {
		f.recorder = r
	}
}

// NewFeed creates a discovery feed for pools quoted in the given token.
func NewFeed(ws solana.WSClient, rpc solana.RPCClient, tracker *position.Tracker, quote domain.QuoteToken, handler CandidateHandler, opts ...FeedOption) *Feed {
	f := &Feed{
		ws:          ws,
		rpc:         rpc,
		tracker:     tracker,
		handler:     handler,
		quote:       quote,
		recorder:    journal.Nop{},
		logger:      log.Default(),
		cutoff:      time.Now().Unix(),
		seenPools:   make(map[string]struct{}),
		seenMarkets: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run subscribes to both program streams and processes notifications until
// the context is cancelled. Blocks.
func (f *Feed) Run(ctx context.Context) error {
	pools, err := f.ws.SubscribeProgram(ctx, solana.ProgramFilter{
		ProgramID: dex.RaydiumAMMV4,
		Filters: []solana.AccountFilter{
			{DataSize: dex.PoolStateSize},
			{Memcmp: &solana.MemcmpFilter{Offset: dex.PoolQuoteMintOffset, Bytes: f.quote.Mint}},
			{Memcmp: &solana.MemcmpFilter{Offset: dex.PoolMarketProgramOffset, Bytes: dex.OpenBook}},
		},
	})
	if err != nil {
		return err
	}

	markets, err := f.ws.SubscribeProgram(ctx, solana.ProgramFilter{
		ProgramID: dex.OpenBook,
		Filters: []solana.AccountFilter{
			{DataSize: dex.MarketStateSize},
			{Memcmp: &solana.MemcmpFilter{Offset: dex.MarketQuoteMintOffset, Bytes: f.quote.Mint}},
		},
	})
	if err != nil {
		return err
	}

	f.logger.Printf("[discovery] feed started, quote=%s cutoff=%d", f.quote.Symbol, f.cutoff)

	for {
		select {
		case <-ctx.Done():
			f.wg.Wait()
			return ctx.Err()
		case n, ok := <-pools:
			if !ok {
				f.wg.Wait()
				return nil
			}
			f.handlePool(ctx, n)
		case n, ok := <-markets:
			if !ok {
				f.wg.Wait()
				return nil
			}
			f.handleMarket(ctx, n)
		}
	}
}

func (f *Feed) handlePool(ctx context.Context, n solana.AccountNotification) {
	observability.RecordPoolSeen()

	state, err := dex.DecodePoolState(n.Data)
	if err != nil {
		observability.RecordDecodeError("pool")
		f.logger.Printf("[discovery] pool decode failed for %s: %v", n.Pubkey, err)
		return
	}

	if !f.markPoolSeen(n.Pubkey) {
		observability.RecordPoolDuplicate()
		return
	}

	if state.OpenTime <= f.cutoff {
		observability.RecordPoolStale()
		return
	}

	if f.snipeList != nil && !f.snipeList.Contains(state.BaseMint) {
		observability.RecordSnipeListRejected()
		f.logger.Printf("[discovery] pool %s skipped, base mint %s not on snipe list", n.Pubkey, state.BaseMint)
		return
	}

	if f.checkRenounced {
		renounced, err := f.mintRenounced(ctx, state.BaseMint)
		if err != nil {
			f.logger.Printf("[discovery] renounce check failed for %s, skipping: %v", state.BaseMint, err)
			return
		}
		if !renounced {
			f.logger.Printf("[discovery] pool %s skipped, mint authority not renounced for %s", n.Pubkey, state.BaseMint)
			return
		}
	}

	candidate := &domain.CandidatePool{
		PoolID:    n.Pubkey,
		BaseMint:  state.BaseMint,
		QuoteMint: state.QuoteMint,
		MarketID:  state.MarketID,
		OpenTime:  state.OpenTime,
		RawState:  n.Data,
	}

	if err := f.recorder.RecordDiscovery(ctx, &journal.DiscoveryEvent{
		Kind:      "pool",
		Account:   n.Pubkey,
		BaseMint:  state.BaseMint,
		QuoteMint: state.QuoteMint,
		Slot:      n.Slot,
		SeenAt:    time.Now().UTC(),
	}); err != nil {
		f.logger.Printf("[discovery] journal write failed: %v", err)
	}

	observability.RecordPoolDispatched()
	f.logger.Printf("[discovery] dispatching pool %s base=%s market=%s", n.Pubkey, state.BaseMint, state.MarketID)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				f.logger.Printf("[discovery] handler panic for pool %s: %v", candidate.PoolID, r)
			}
		}()
		f.handler(ctx, candidate)
	}()
}

func (f *Feed) handleMarket(ctx context.Context, n solana.AccountNotification) {
	observability.RecordMarketSeen()

	state, err := dex.DecodeMarketState(n.Data)
	if err != nil {
		observability.RecordDecodeError("market")
		f.logger.Printf("[discovery] market decode failed for %s: %v", n.Pubkey, err)
		return
	}

	if !f.markMarketSeen(state.OwnAddress) {
		return
	}

	f.tracker.CacheMarket(state.BaseMint, dex.MarketMetaFromState(state))

	if err := f.recorder.RecordDiscovery(ctx, &journal.DiscoveryEvent{
		Kind:      "market",
		Account:   state.OwnAddress,
		BaseMint:  state.BaseMint,
		QuoteMint: state.QuoteMint,
		Slot:      n.Slot,
		SeenAt:    time.Now().UTC(),
	}); err != nil {
		f.logger.Printf("[discovery] journal write failed: %v", err)
	}
}

// mintRenounced fetches the base mint account and checks its authority tag.
func (f *Feed) mintRenounced(ctx context.Context, mint string) (bool, error) {
	info, err := f.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return false, err
	}
	if info == nil {
		return false, nil
	}
	return dex.MintRenounced(info.Data)
}

// markPoolSeen records a pool ID in the dedup set. Returns false if the pool
// was already seen. The set only grows; pool creation is a one-shot event.
func (f *Feed) markPoolSeen(poolID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seenPools[poolID]; ok {
		return false
	}
	f.seenPools[poolID] = struct{}{}
	return true
}

func (f *Feed) markMarketSeen(marketID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.seenMarkets[marketID]; ok {
		return false
	}
	f.seenMarkets[marketID] = struct{}{}
	return true
}
