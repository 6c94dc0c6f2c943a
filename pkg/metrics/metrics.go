package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearty_puts_total",
			Help: "Total number of put operations by store and result",
		},
		[]string{"store_id", "result"},
	)

	GetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearty_gets_total",
			Help: "Total number of get operations by store and result",
		},
		[]string{"store_id", "result"},
	)

	BusyRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearty_busy_rejections_total",
			Help: "Total number of requests rejected because the server mutex was held",
		},
		[]string{"op"},
	)

	StoreUsedBlocks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hearty_store_used_blocks",
			Help: "Used blocks per store",
		},
		[]string{"store_id"},
	)

	CacheOwnershipTransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearty_cache_ownership_transfers_total",
			Help: "Total number of Cache ownership transfers by result",
		},
		[]string{"result"},
	)

	EvictionRoundtripSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hearty_eviction_roundtrip_seconds",
			Help:    "Time spent dialing a previous owner's Evict endpoint during a Cache transfer",
			Buckets: prometheus.DefBuckets,
		},
	)

	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hearty_cache_client_requests_total",
			Help: "Total client cache requests by outcome (hit, miss, writeback)",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(PutsTotal)
	prometheus.MustRegister(GetsTotal)
	prometheus.MustRegister(BusyRejectionsTotal)
	prometheus.MustRegister(StoreUsedBlocks)
	prometheus.MustRegister(CacheOwnershipTransfersTotal)
	prometheus.MustRegister(EvictionRoundtripSeconds)
	prometheus.MustRegister(CacheHitsTotal)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations and recording them to a
// histogram once they complete.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
