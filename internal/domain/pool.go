package domain

// CandidatePool is a newly discovered liquidity pool awaiting evaluation.
// Identity is PoolID. Immutable after decode; discarded once the
// evaluate/execute pipeline finishes, whatever the outcome.
type CandidatePool struct {
	PoolID    string
	BaseMint  string
	QuoteMint string
	MarketID  string
	OpenTime  int64  // pool open time, unix seconds, from on-chain state
	RawState  []byte // raw account data blob, decoded by the DEX layer
}

// MarketMeta holds the OpenBook market accounts needed to route a swap.
// Cached by the position tracker as soon as a market notification arrives
// so the buy path does not block on a second lookup.
type MarketMeta struct {
	MarketID   string
	BaseMint   string
	QuoteMint  string
	Bids       string
	Asks       string
	EventQueue string
	BaseVault  string
	QuoteVault string
	VaultNonce uint64
}
