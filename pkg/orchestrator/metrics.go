package orchestrator

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"steer-sdk/core/pkg/config"
)

// Metrics tracks orchestrator-level Prometheus metrics, grounded on
// pkg/telemetry/metrics's per-subsystem vec pattern (cache.go,
// provider.go): one struct per concern, registered once at
// construction, every Record* a no-op when disabled.
//
// Metrics:
//   - <ns>_<sub>_orchestrator_retry_attempts_total: retries by tool/provider
//   - <ns>_<sub>_orchestrator_breaker_state: current breaker state gauge (0=closed,1=half_open,2=open)
//   - <ns>_<sub>_orchestrator_idempotency_hits_total / _misses_total
//   - <ns>_<sub>_orchestrator_bundle_replicate_duration_seconds: per-replicate latency histogram
type Metrics struct {
	enabled bool

	retryAttemptsTotal *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
	idempotencyHits    *prometheus.CounterVec
	idempotencyMisses  *prometheus.CounterVec
	bundleReplicateDur *prometheus.HistogramVec
	bundleConfidence   *prometheus.GaugeVec
}

// NewMetrics creates and registers orchestrator metrics with registry.
// A nil registry falls back to prometheus.NewRegistry() so a caller
// that doesn't care about scraping can still construct one safely.
func NewMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	namespace, subsystem := "steer", "sdk"
	enabled := true
	if cfg != nil {
		if cfg.Namespace != "" {
			namespace = cfg.Namespace
		}
		if cfg.Subsystem != "" {
			subsystem = cfg.Subsystem
		}
		enabled = cfg.Enabled
	}

	m := &Metrics{
		enabled: enabled,

		retryAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orchestrator_retry_attempts_total",
				Help:      "Total number of tool execution retry attempts",
			},
			[]string{"tool", "provider"},
		),

		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orchestrator_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half_open, 2=open)",
			},
			[]string{"provider", "tool"},
		),

		idempotencyHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orchestrator_idempotency_hits_total",
				Help:      "Total number of idempotency cache hits",
			},
			[]string{"tool"},
		),

		idempotencyMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orchestrator_idempotency_misses_total",
				Help:      "Total number of idempotency cache misses",
			},
			[]string{"tool"},
		),

		bundleReplicateDur: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orchestrator_bundle_replicate_duration_seconds",
				Help:      "Duration of a single bundle-tool replicate",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool"},
		),

		bundleConfidence: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orchestrator_bundle_confidence",
				Help:      "Most recent bundle summary confidence score",
			},
			[]string{"tool"},
		),
	}

	registry.MustRegister(
		m.retryAttemptsTotal,
		m.breakerState,
		m.idempotencyHits,
		m.idempotencyMisses,
		m.bundleReplicateDur,
		m.bundleConfidence,
	)

	return m
}

// RecordRetryAttempt increments the retry counter for (tool, provider).
func (m *Metrics) RecordRetryAttempt(tool, provider string) {
	if !m.enabled {
		return
	}
	m.retryAttemptsTotal.WithLabelValues(tool, provider).Inc()
}

// breakerStateValue maps breaker.State's String() to the gauge's
// numeric encoding (0=closed, 1=half_open, 2=open).
func breakerStateValue(state string) float64 {
	switch state {
case "half_open":
		return 1
case "open":
		return 2
default:
		return 0
	}
}

// UpdateBreakerState records the current breaker state for (provider, tool).
func (m *Metrics) UpdateBreakerState(provider, tool, state string) {
	if !m.enabled {
		return
	}
	m.breakerState.WithLabelValues(provider, tool).Set(breakerStateValue(state))
}

// RecordIdempotencyHit/Miss track idempotency cache effectiveness per tool.
func (m *Metrics) RecordIdempotencyHit(tool string) {
	if !m.enabled {
		return
	}
	m.idempotencyHits.WithLabelValues(tool).Inc()
}

func (m *Metrics) RecordIdempotencyMiss(tool string) {
	if !m.enabled {
		return
	}
	m.idempotencyMisses.WithLabelValues(tool).Inc()
}

// RecordBundleReplicate records one replicate's duration.
func (m *Metrics) RecordBundleReplicate(tool string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.bundleReplicateDur.WithLabelValues(tool).Observe(duration.Seconds())
}

func (m *Metrics) RecordBundleConfidence(tool string, confidence float64) {
	if !m.enabled {
		return
	}
	m.bundleConfidence.WithLabelValues(tool).Set(confidence)
}
