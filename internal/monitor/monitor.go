// Package monitor watches bought positions, polling their current value and
// driving the seller, which decides whether the value has left the hold band.
package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/position"
)

const (
	defaultInterval = 5 * time.Second
)

// Seller is the execution surface the monitor drives. Sell receives the
// current position value, holds while it sits inside the exit band, and
// reports whether the position is settled; a settled position stops being
// watched.
type Seller interface {
	Sell(ctx context.Context, mint string, currentValue float64) (bool, error)
	PositionValue(ctx context.Context, mint string) (float64, error)
}

// Monitor spawns one watcher goroutine per bought position.
type Monitor struct {
	seller  Seller
	tracker *position.Tracker
	logger  *log.Logger

	interval time.Duration
	delay    time.Duration // wait before the first value poll

	wg sync.WaitGroup
}

// Option configures the monitor.
type Option func(*Monitor)

// WithLogger sets a custom logger.
func WithLogger(logger *log.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// WithInterval sets the value polling interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		m.interval = d
	}
}

// WithSellDelay delays the first value poll after a buy, giving the pool
// time to find a price.
func WithSellDelay(d time.Duration) Option {
	return func(m *Monitor) {
		m.delay = d
	}
}

// NewMonitor creates a monitor driving the seller with fresh position values.
func NewMonitor(seller Seller, tracker *position.Tracker, opts ...Option) *Monitor {
	m := &Monitor{
		seller:   seller,
		tracker:  tracker,
		logger:   log.Default(),
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch starts monitoring a bought position. Returns immediately; the
// watcher runs until the position settles or the context ends.
func (m *Monitor) Watch(ctx context.Context, mint string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.watch(ctx, mint)
	}()
}

// Wait blocks until all watchers have exited.
func (m *Monitor) Wait() {
	m.wg.Wait()
}

func (m *Monitor) watch(ctx context.Context, mint string) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.delay):
		}
	}

	pos, err := m.tracker.Get(mint)
	if err != nil {
		return
	}
	if pos.AcquiredValue == nil {
		m.logger.Printf("[monitor] position %s has no cost basis, not watching", mint)
		return
	}
	m.tracker.SetPhase(mint, domain.PhaseMonitoring)

	m.logger.Printf("[monitor] watching %s, basis=%v", mint, *pos.AcquiredValue)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := m.poll(ctx, mint); done {
				return
			}
		}
	}
}

// poll fetches the position value once and hands it to the seller. Returns
// true when watching should stop.
func (m *Monitor) poll(ctx context.Context, mint string) bool {
	if _, err := m.tracker.Get(mint); err != nil {
		return true
	}

	value, err := m.seller.PositionValue(ctx, mint)
	if err != nil {
		m.logger.Printf("[monitor] value poll for %s failed: %v", mint, err)
		return false
	}

	settled, err := m.seller.Sell(ctx, mint, value)
	if err != nil {
		m.logger.Printf("[monitor] sell of %s failed: %v", mint, err)
		return false
	}
	if settled {
		m.logger.Printf("[monitor] %s settled at value=%v", mint, value)
	}
	return settled
}
