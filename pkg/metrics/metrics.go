// Package metrics exposes netconfd's Prometheus instrumentation: active
// session count, buffer-pool utilization, and per-error-tag counters
// (SPEC_FULL.md §2 Observability), mirroring the teacher's pkg/metrics
// surface — a package-level registry gated by IsEnabled, with
// promauto-registered collectors so pkg/session, pkg/ioloop, and
// pkg/rpcerror can record through a nil-safe API whether or not metrics
// are enabled.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mu       sync.Mutex
	enabled  bool
	registry *prometheus.Registry

	activeSessions   prometheus.Gauge
	sessionsTotal    *prometheus.CounterVec
	bufferPoolInUse  prometheus.Gauge
	bufferPoolAllocs prometheus.Counter
	errorsByTag      *prometheus.CounterVec
	parseDuration    prometheus.Histogram
)

// InitRegistry creates a fresh Prometheus registry and registers every
// netconfd collector against it. Calling it more than once is a no-op
// after the first call, matching the teacher's pkg/metrics.InitRegistry
// idempotence.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()
	if registry != nil {
		return
	}
	registry = prometheus.NewRegistry()
	enabled = true

	activeSessions = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: "netconfd_sessions_active",
		Help: "Number of NETCONF sessions currently open.",
	})
	sessionsTotal = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "netconfd_sessions_total",
		Help: "Total sessions accepted, partitioned by terminal outcome.",
	}, []string{"outcome"})
	bufferPoolInUse = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Name: "netconfd_bufpool_in_use",
		Help: "Buffers currently checked out of the global pool.",
	})
	bufferPoolAllocs = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Name: "netconfd_bufpool_allocs_total",
		Help: "Buffers allocated by the global pool (pool misses).",
	})
	errorsByTag = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Name: "netconfd_rpc_errors_total",
		Help: "RPC errors recorded, partitioned by error-tag (spec.md §4.H).",
	}, []string{"error_tag"})
	parseDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "netconfd_parse_duration_seconds",
		Help:    "Time to parse one inbound message against its schema.",
		Buckets: prometheus.DefBuckets,
	})
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// Registry returns the process registry for pkg/adminhttp to serve over
// /metrics. Returns nil if InitRegistry has not been called.
func Registry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

// SetActiveSessions records the current open-session count.
func SetActiveSessions(n int) {
	if !IsEnabled() {
		return
	}
	activeSessions.Set(float64(n))
}

// RecordSessionClosed increments the terminal-outcome counter for a
// session that just reached StateShutdown (spec.md §4.B), labelled with
// outcome. pkg/server's close handler passes "closed" for every session,
// so the counter does not tell idle timeout, lifetime expiry, a broken
// write or a malformed message apart.
func RecordSessionClosed(outcome string) {
	if !IsEnabled() {
		return
	}
	sessionsTotal.WithLabelValues(outcome).Inc()
}

// SetBufferPoolInUse records the global pool's current checked-out count.
func SetBufferPoolInUse(n int) {
	if !IsEnabled() {
		return
	}
	bufferPoolInUse.Set(float64(n))
}

// RecordBufferAlloc records one pool miss (a fresh buffer allocated
// because the free list was empty).
func RecordBufferAlloc() {
	if !IsEnabled() {
		return
	}
	bufferPoolAllocs.Inc()
}

// RecordError increments the counter for one recorded RPC error-tag
// (spec.md §4.H).
func RecordError(tag string) {
	if !IsEnabled() {
		return
	}
	errorsByTag.WithLabelValues(tag).Inc()
}

// ObserveParseDuration records how long one ParseDocument call took.
func ObserveParseDuration(seconds float64) {
	if !IsEnabled() {
		return
	}
	parseDuration.Observe(seconds)
}

// reset tears down the registry; test-only, so successive test packages
// each get a clean InitRegistry call instead of tripping the "already
// initialized" no-op.
func reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = nil
	enabled = false
}
