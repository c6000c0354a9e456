package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StockMetrics records counters for the stock-ledger engine.
type StockMetrics struct {
	adjustments       *prometheus.CounterVec
	fallbacks         prometheus.Counter
	broadcastFailures prometheus.Counter
	adjustDuration    prometheus.Histogram
}

// NewStockMetrics registers the stock engine metrics on the provided registerer.
func NewStockMetrics(reg prometheus.Registerer) *StockMetrics {
	if reg == nil {
		return &StockMetrics{}
	}
	adjustments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_adjustments_total",
		Help: "Committed stock adjustments, labeled by reason.",
	}, []string{"reason"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_tx_fallback_total",
		Help: "Adjustments that ran on the non-transactional fallback path.",
	})
	broadcastFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_broadcast_failures_total",
		Help: "Real-time stock update publishes that failed after commit.",
	})
	adjustDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_adjust_duration_seconds",
		Help:    "Duration of the adjust operation in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(adjustments, fallbacks, broadcastFailures, adjustDuration)
	return &StockMetrics{
		adjustments:       adjustments,
		fallbacks:         fallbacks,
		broadcastFailures: broadcastFailures,
		adjustDuration:    adjustDuration,
	}
}

// IncAdjustment increments the adjustment counter for the given reason.
func (m *StockMetrics) IncAdjustment(reason string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(reason).Inc()
}

// IncFallback increments the non-transactional fallback counter.
func (m *StockMetrics) IncFallback() {
	if m == nil || m.fallbacks == nil {
		return
	}
	m.fallbacks.Inc()
}

// IncBroadcastFailure increments the failed-broadcast counter.
func (m *StockMetrics) IncBroadcastFailure() {
	if m == nil || m.broadcastFailures == nil {
		return
	}
	m.broadcastFailures.Inc()
}

// ObserveAdjustDuration records how long an adjust operation took.
func (m *StockMetrics) ObserveAdjustDuration(d time.Duration) {
	if m == nil || m.adjustDuration == nil {
		return
	}
	m.adjustDuration.Observe(d.Seconds())
}
