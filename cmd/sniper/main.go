package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-pool-sniper/internal/config"
	"solana-pool-sniper/internal/dex"
	"solana-pool-sniper/internal/discovery"
	"solana-pool-sniper/internal/domain"
	"solana-pool-sniper/internal/executor"
	"solana-pool-sniper/internal/journal"
	"solana-pool-sniper/internal/monitor"
	"solana-pool-sniper/internal/observability"
	"solana-pool-sniper/internal/position"
	"solana-pool-sniper/internal/safety"
	"solana-pool-sniper/internal/solana"
	"solana-pool-sniper/internal/wallet"
)

func main() {
	logger := log.New(os.Stdout, "[sniper] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}

	// Start metrics server if enabled
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	err = run(ctx, logger, cfg)

	done <- err
	cancel()

	if err != nil && err != context.Canceled {
		logger.Fatalf("Error: %v", err)
	}

	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config) error {
	quote, err := domain.QuoteBySymbol(cfg.QuoteMint)
	if err != nil {
		return err
	}

	keypair, err := wallet.FromBase58(cfg.PrivateKey)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}
	logger.Printf("Trading as %s, spending %v %s per snipe", keypair.PublicKey(), cfg.QuoteAmount, quote.Symbol)

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint, solana.WithCommitment(cfg.Commitment))

	ws, err := solana.NewWSClient(ctx, cfg.WSEndpoint, nil)
	if err != nil {
		return fmt.Errorf("create websocket client: %w", err)
	}
	defer ws.Close()

	recorder, closeJournal, err := buildRecorder(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer closeJournal()

	thresholds, err := safety.NewThresholds(safety.Config{
		MaxBuySize:        cfg.MaxBuySize,
		MinPoolSize:       cfg.MinPoolSize,
		MaxPriceImpactPct: cfg.MaxPriceImpact,
	})
	if err != nil {
		return fmt.Errorf("safety thresholds: %w", err)
	}

	tracker := position.NewTracker()
	source := safety.NewOnChainSource(rpc, quote, logger)

	engine := executor.NewEngine(rpc, dex.NewBuilder(keypair), tracker, source, thresholds,
		quote, cfg.QuoteAmount,
		executor.WithLogger(logger),
		executor.WithRecorder(recorder),
		executor.WithCommitment(cfg.Commitment),
		executor.WithMaxSellRetries(cfg.MaxSellRetries),
		executor.WithExitBand(cfg.TakeProfit, cfg.StopLoss),
	)

	mon := monitor.NewMonitor(engine, tracker,
		monitor.WithLogger(logger),
		monitor.WithSellDelay(cfg.AutoSellDelay),
	)

	handler := func(ctx context.Context, pool *domain.CandidatePool) {
		if err := engine.Buy(ctx, pool); err != nil {
			logger.Printf("Buy failed: %v", err)
			return
		}
		if _, err := tracker.Get(pool.BaseMint); err != nil {
			return // rejected or not tracked
		}
		if cfg.AutoSell {
			mon.Watch(ctx, pool.BaseMint)
		}
	}

	feedOpts := []discovery.FeedOption{
		discovery.WithFeedLogger(logger),
		discovery.WithRecorder(recorder),
		discovery.WithRenounceCheck(cfg.CheckIfMintIsRenounced),
	}

	if cfg.UseSnipeList {
		list, err := discovery.NewSnipeList(cfg.SnipeListPath, logger)
		if err != nil {
			return fmt.Errorf("load snipe list: %w", err)
		}
		logger.Printf("Snipe list loaded: %d mints from %s", list.Len(), cfg.SnipeListPath)
		go list.Run(ctx, cfg.SnipeListRefreshInterval)
		feedOpts = append(feedOpts, discovery.WithSnipeList(list))
	}

	feed := discovery.NewFeed(ws, rpc, tracker, quote, handler, feedOpts...)

	logger.Println("Starting pool discovery...")
	err = feed.Run(ctx)

	mon.Wait()
	return err
}

// buildRecorder wires the configured journal sinks. With no DSN configured
// the journal is a no-op.
func buildRecorder(ctx context.Context, logger *log.Logger, cfg *config.Config) (journal.Recorder, func(), error) {
	switch {
	case cfg.PostgresDSN != "":
		store, err := journal.NewPostgresStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect journal postgres: %w", err)
		}
		logger.Println("Journaling to PostgreSQL")
		return store, store.Close, nil
	case cfg.ClickHouseDSN != "":
		sink, err := journal.NewClickHouseSink(ctx, cfg.ClickHouseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect journal clickhouse: %w", err)
		}
		logger.Println("Journaling to ClickHouse")
		return sink, func() { sink.Close() }, nil
	default:
		return journal.Nop{}, func() {}, nil
	}
}
