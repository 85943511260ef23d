package domain

// Phase is the lifecycle phase of a tracked position.
type Phase string

const (
	PhaseDiscovered     Phase = "DISCOVERED"
	PhaseMarketResolved Phase = "MARKET_RESOLVED"
	PhaseBought         Phase = "BOUGHT"
	PhaseMonitoring     Phase = "MONITORING"
	PhaseSelling        Phase = "SELLING"
	PhaseClosed         Phase = "CLOSED" // terminal
)

// PoolKeys are the fully resolved accounts for executing swaps against a
// Raydium AMM v4 pool and its OpenBook market.
type PoolKeys struct {
	PoolID        string
	Authority     string
	OpenOrders    string
	TargetOrders  string
	BaseVault     string
	QuoteVault    string
	BaseMint      string
	QuoteMint     string
	MarketProgram string
	MarketID      string
	MarketBids    string
	MarketAsks    string
	MarketEvents  string
	MarketBase    string
	MarketQuote   string
	MarketSigner  string
}

// TrackedPosition is an open (or opening) position, keyed by mint.
// Owned exclusively by the position tracker; one open position per mint.
type TrackedPosition struct {
	Mint          string
	TokenAccount  string
	PoolKeys      *PoolKeys   // nil until resolved
	Market        *MarketMeta // nil until resolved
	AcquiredValue *float64    // quote units paid, set after a successful buy
	Phase         Phase
}
