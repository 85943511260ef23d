// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Discovery metrics
	PoolsSeen          prometheus.Counter
	MarketsSeen        prometheus.Counter
	PoolsDuplicate     prometheus.Counter
	PoolsStale         prometheus.Counter
	PoolsDispatched    prometheus.Counter
	SnipeListRejected  prometheus.Counter
	DecodeErrors       *prometheus.CounterVec

	// Safety metrics
	TradesEvaluated prometheus.Counter
	TradesRejected  *prometheus.CounterVec

	// Execution metrics
	BuysSubmitted  prometheus.Counter
	BuysConfirmed  prometheus.Counter
	BuyFailures    prometheus.Counter
	SellsSubmitted prometheus.Counter
	SellsSettled   prometheus.Counter
	SellRetries    prometheus.Counter
	SellsAbandoned prometheus.Counter

	// Position metrics
	OpenPositions prometheus.Gauge

	// RPC metrics
	RPCCallLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pool_sniper"
	}

	return &Metrics{
		PoolsSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "pools_seen_total",
			Help:      "Total number of pool notifications received",
		}),
		MarketsSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "markets_seen_total",
			Help:      "Total number of market notifications received",
		}),
		PoolsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "pools_duplicate_total",
			Help:      "Total number of pool notifications dropped by dedup",
		}),
		PoolsStale: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "pools_stale_total",
			Help:      "Total number of pools dropped for opening before process start",
		}),
		PoolsDispatched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "pools_dispatched_total",
			Help:      "Total number of candidate pools dispatched to evaluation",
		}),
		SnipeListRejected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "snipe_list_rejected_total",
			Help:      "Total number of candidates rejected by the snipe list",
		}),
		DecodeErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discovery",
			Name:      "decode_errors_total",
			Help:      "Total number of account decode errors by account type",
		}, []string{"account_type"}),

		TradesEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "safety",
			Name:      "trades_evaluated_total",
			Help:      "Total number of candidate trades evaluated",
		}),
		TradesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "safety",
			Name:      "trades_rejected_total",
			Help:      "Total number of trades rejected by check",
		}, []string{"check"}),

		BuysSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "buys_submitted_total",
			Help:      "Total number of buy transactions submitted",
		}),
		BuysConfirmed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "buys_confirmed_total",
			Help:      "Total number of buy transactions confirmed",
		}),
		BuyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "buy_failures_total",
			Help:      "Total number of abandoned buy attempts",
		}),
		SellsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "sells_submitted_total",
			Help:      "Total number of sell transactions submitted",
		}),
		SellsSettled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "sells_settled_total",
			Help:      "Total number of positions settled by a confirmed sell",
		}),
		SellRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "sell_retries_total",
			Help:      "Total number of retried sell attempts",
		}),
		SellsAbandoned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "sells_abandoned_total",
			Help:      "Total number of sells given up after retry exhaustion",
		}),

		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "open_positions",
			Help:      "Number of currently tracked positions",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPoolSeen increments the pools seen counter.
func RecordPoolSeen() {
	DefaultMetrics.PoolsSeen.Inc()
}

// RecordMarketSeen increments the markets seen counter.
func RecordMarketSeen() {
	DefaultMetrics.MarketsSeen.Inc()
}

// RecordPoolDuplicate increments the dedup drop counter.
func RecordPoolDuplicate() {
	DefaultMetrics.PoolsDuplicate.Inc()
}

// RecordPoolStale increments the stale pool counter.
func RecordPoolStale() {
	DefaultMetrics.PoolsStale.Inc()
}

// RecordPoolDispatched increments the dispatch counter.
func RecordPoolDispatched() {
	DefaultMetrics.PoolsDispatched.Inc()
}

// RecordSnipeListRejected increments the snipe-list rejection counter.
func RecordSnipeListRejected() {
	DefaultMetrics.SnipeListRejected.Inc()
}

// RecordDecodeError records an account decode error.
func RecordDecodeError(accountType string) {
	DefaultMetrics.DecodeErrors.WithLabelValues(accountType).Inc()
}

// RecordTradeEvaluated increments the evaluation counter.
func RecordTradeEvaluated() {
	DefaultMetrics.TradesEvaluated.Inc()
}

// RecordTradeRejected records a rejected trade by failing check.
func RecordTradeRejected(check string) {
	DefaultMetrics.TradesRejected.WithLabelValues(check).Inc()
}

// RecordBuySubmitted increments the buy submission counter.
func RecordBuySubmitted() {
	DefaultMetrics.BuysSubmitted.Inc()
}

// RecordBuyConfirmed increments the buy confirmation counter.
func RecordBuyConfirmed() {
	DefaultMetrics.BuysConfirmed.Inc()
}

// RecordBuyFailure increments the buy failure counter.
func RecordBuyFailure() {
	DefaultMetrics.BuyFailures.Inc()
}

// RecordSellSubmitted increments the sell submission counter.
func RecordSellSubmitted() {
	DefaultMetrics.SellsSubmitted.Inc()
}

// RecordSellSettled increments the settled sell counter.
func RecordSellSettled() {
	DefaultMetrics.SellsSettled.Inc()
}

// RecordSellRetry increments the sell retry counter.
func RecordSellRetry() {
	DefaultMetrics.SellRetries.Inc()
}

// RecordSellAbandoned increments the abandoned sell counter.
func RecordSellAbandoned() {
	DefaultMetrics.SellsAbandoned.Inc()
}

// UpdateOpenPositions updates the open positions gauge.
func UpdateOpenPositions(n int) {
	DefaultMetrics.OpenPositions.Set(float64(n))
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}
