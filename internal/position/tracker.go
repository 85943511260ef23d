// Package position owns the mapping from mint to tracked position state.
package position

import (
	"errors"
	"sync"

	"solana-pool-sniper/internal/domain"
)

var (
	// ErrNotFound is returned when no position is tracked for a mint.
	ErrNotFound = errors.New("position not found")

	// ErrExists is returned when a position is already open for a mint.
	// At most one open position per mint.
	ErrExists = errors.New("position already tracked for mint")
)

// Tracker maps mints to tracked positions. All phase transitions go
// through the tracker; access is guarded so concurrent monitoring loops
// and the discovery feed can share it.
type Tracker struct {
	mu        sync.RWMutex
	positions map[string]*domain.TrackedPosition // keyed by mint
	markets   map[string]*domain.MarketMeta      // keyed by base mint, pre-fetch cache
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		positions: make(map[string]*domain.TrackedPosition),
		markets:   make(map[string]*domain.MarketMeta),
	}
}

// Put starts tracking a new position. Returns ErrExists if the mint is
// already tracked.
func (t *Tracker) Put(p *domain.TrackedPosition) error {
	if p == nil || p.Mint == "" {
		return errors.New("invalid position")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.positions[p.Mint]; exists {
		return ErrExists
	}

	// Store a copy to prevent external mutation
	positionCopy := *p
	t.positions[p.Mint] = &positionCopy
	return nil
}

// Get retrieves a copy of the tracked position for a mint.
func (t *Tracker) Get(mint string) (*domain.TrackedPosition, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, exists := t.positions[mint]
	if !exists {
		return nil, ErrNotFound
	}

	positionCopy := *p
	return &positionCopy, nil
}

// CacheMarket stores market metadata for a base mint so a later buy does
// not block on a market lookup. Safe to call before any position exists.
func (t *Tracker) CacheMarket(baseMint string, meta *domain.MarketMeta) {
	if meta == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	metaCopy := *meta
	t.markets[baseMint] = &metaCopy

	if p, exists := t.positions[baseMint]; exists && p.Market == nil {
		p.Market = &metaCopy
		if p.Phase == domain.PhaseDiscovered {
			p.Phase = domain.PhaseMarketResolved
		}
	}
}

// MarketFor returns cached market metadata for a base mint, or nil.
func (t *Tracker) MarketFor(baseMint string) *domain.MarketMeta {
	t.mu.RLock()
	defer t.mu.RUnlock()

	meta, exists := t.markets[baseMint]
	if !exists {
		return nil
	}
	metaCopy := *meta
	return &metaCopy
}

// SetBought records a confirmed acquisition: token account, resolved keys,
// and cost basis. The position moves to the Bought phase.
func (t *Tracker) SetBought(mint, tokenAccount string, keys *domain.PoolKeys, acquiredValue float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, exists := t.positions[mint]
	if !exists {
		return ErrNotFound
	}

	p.TokenAccount = tokenAccount
	if keys != nil {
		keysCopy := *keys
		p.PoolKeys = &keysCopy
	}
	p.AcquiredValue = &acquiredValue
	p.Phase = domain.PhaseBought
	return nil
}

// SetPhase transitions a position to the given lifecycle phase.
func (t *Tracker) SetPhase(mint string, phase domain.Phase) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, exists := t.positions[mint]
	if !exists {
		return ErrNotFound
	}
	p.Phase = phase
	return nil
}

// Remove stops tracking a mint. Called when a sell settles or a buy is
// abandoned. Removing an unknown mint is a no-op.
func (t *Tracker) Remove(mint string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.positions, mint)
}

// Open returns copies of all positions currently in a given phase.
func (t *Tracker) Open(phase domain.Phase) []*domain.TrackedPosition {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []*domain.TrackedPosition
	for _, p := range t.positions {
		if p.Phase == phase {
			positionCopy := *p
			result = append(result, &positionCopy)
		}
	}
	return result
}

// Len reports the number of tracked positions.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions)
}
