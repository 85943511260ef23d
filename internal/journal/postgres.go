package journal

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var postgresSchema string

// PostgresStore implements Recorder on a PostgreSQL trade journal.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and ensures the journal schema.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// RecordTrade inserts one executed trade.
func (s *PostgresStore) RecordTrade(ctx context.Context, e *TradeEvent) error {
	query := `
		INSERT INTO trade_events (
			side, mint, pool, amount_raw, quote_value, signature, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		string(e.Side), e.Mint, e.Pool, int64(e.AmountRaw), e.QuoteValue, e.Signature, e.OccurredAt,
	)
	if err != nil {
		return fmt.Errorf("insert trade event: %w", err)
	}
	return nil
}

// RecordDiscovery inserts one discovery sighting.
func (s *PostgresStore) RecordDiscovery(ctx context.Context, e *DiscoveryEvent) error {
	query := `
		INSERT INTO discovery_events (
			kind, account, base_mint, quote_mint, slot, seen_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		e.Kind, e.Account, e.BaseMint, e.QuoteMint, e.Slot, e.SeenAt,
	)
	if err != nil {
		return fmt.Errorf("insert discovery event: %w", err)
	}
	return nil
}

// TradeCount reports the number of journaled trades for a mint.
func (s *PostgresStore) TradeCount(ctx context.Context, mint string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM trade_events WHERE mint = $1`, mint,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count trade events: %w", err)
	}
	return count, nil
}

// Verify interface compliance at compile time.
var _ Recorder = (*PostgresStore)(nil)
