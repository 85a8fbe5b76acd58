package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pdv_terminal"

// TerminalMetrics records cart activity, checkouts and PDV API latency.
// A nil *TerminalMetrics is valid and records nothing.
type TerminalMetrics struct {
	cartOps      *prometheus.CounterVec
	checkouts    *prometheus.CounterVec
	openSessions prometheus.Gauge
	evictions    prometheus.Counter
	upstream     *prometheus.HistogramVec
	lookupCache  *prometheus.CounterVec
	breakerOpen  prometheus.Gauge
}

// NewTerminalMetrics registers the terminal collectors on the provided registerer.
func NewTerminalMetrics(reg prometheus.Registerer) *TerminalMetrics {
	if reg == nil {
		return &TerminalMetrics{}
	}
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_operations_total",
		Help:      "Cart mutations applied to terminal sessions.",
	}, []string{"op"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Sale submissions by outcome.",
	}, []string{"outcome"})
	openSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_sessions",
		Help:      "Sale-entry sessions currently open.",
	})
	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_evictions_total",
		Help:      "Idle sessions evicted by the sweeper.",
	})
	upstream := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pdv_api_request_duration_seconds",
		Help:      "Latency of PDV API calls.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "status"})
	lookupCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_cache_total",
		Help:      "Product lookup cache hits and misses.",
	}, []string{"result"})
	breakerOpen := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pdv_api_breaker_open",
		Help:      "1 while the PDV API circuit breaker is open.",
	})
	reg.MustRegister(cartOps, checkouts, openSessions, evictions, upstream, lookupCache, breakerOpen)
	return &TerminalMetrics{
		cartOps:      cartOps,
		checkouts:    checkouts,
		openSessions: openSessions,
		evictions:    evictions,
		upstream:     upstream,
		lookupCache:  lookupCache,
		breakerOpen:  breakerOpen,
	}
}

// IncCartOp counts one applied cart mutation (scan, add, set_quantity, remove, clear).
func (m *TerminalMetrics) IncCartOp(op string) {
	if m == nil || m.cartOps == nil {
		return
	}
	m.cartOps.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncCheckout counts one checkout attempt by outcome.
func (m *TerminalMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SetOpenSessions reports the current session count.
func (m *TerminalMetrics) SetOpenSessions(n int) {
	if m == nil || m.openSessions == nil {
		return
	}
	m.openSessions.Set(float64(n))
}

// AddEvictions counts sessions removed for inactivity.
func (m *TerminalMetrics) AddEvictions(n int) {
	if m == nil || m.evictions == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n))
}

// ObserveUpstream records one PDV API call. status 0 means the request never got a response.
func (m *TerminalMetrics) ObserveUpstream(endpoint string, status int, duration time.Duration) {
	if m == nil || m.upstream == nil {
		return
	}
	m.upstream.WithLabelValues(normalizeLabel(endpoint), strconv.Itoa(status)).Observe(duration.Seconds())
}

// IncLookupCache counts a lookup cache hit or miss.
func (m *TerminalMetrics) IncLookupCache(hit bool) {
	if m == nil || m.lookupCache == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookupCache.WithLabelValues(result).Inc()
}

// SetUpstreamBreaker reports the PDV API circuit breaker state.
func (m *TerminalMetrics) SetUpstreamBreaker(open bool) {
	if m == nil || m.breakerOpen == nil {
		return
	}
	if open {
		m.breakerOpen.Set(1)
		return
	}
	m.breakerOpen.Set(0)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
