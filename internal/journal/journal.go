// Package journal persists an audit trail of executed trades and discovery
// activity. It is strictly write-behind: the in-memory tracker and dedup
// sets stay authoritative, and a disabled journal never blocks trading.
package journal

import (
	"context"
	"time"
)

// Side of an executed trade.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeEvent is one executed (confirmed) trade.
type TradeEvent struct {
	Side       Side
	Mint       string
	Pool       string
	AmountRaw  uint64  // raw token units moved
	QuoteValue float64 // base-currency value of the trade
	Signature  string
	OccurredAt time.Time
}

// DiscoveryEvent is one pool or market sighting from the feed.
type DiscoveryEvent struct {
	Kind      string // "pool" or "market"
	Account   string
	BaseMint  string
	QuoteMint string
	Slot      int64
	SeenAt    time.Time
}

// Recorder persists journal events.
type Recorder interface {
	RecordTrade(ctx context.Context, e *TradeEvent) error
	RecordDiscovery(ctx context.Context, e *DiscoveryEvent) error
}

// Nop is a Recorder that drops everything. Used when no DSN is configured.
type Nop struct{}

// RecordTrade drops the event.
func (Nop) RecordTrade(context.Context, *TradeEvent) error { return nil }

// RecordDiscovery drops the event.
func (Nop) RecordDiscovery(context.Context, *DiscoveryEvent) error { return nil }

// Verify interface compliance at compile time.
var _ Recorder = Nop{}
