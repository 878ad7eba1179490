package limits

import (
	"github.com/prometheus/client_golang/prometheus"

	"steer-sdk/core/pkg/config"
)

// Metrics tracks limits-subsystem Prometheus metrics, following the same
// namespace/subsystem/registry convention as pkg/orchestrator's Metrics.
type Metrics struct {
	enabled bool

	rateLimitChecks    *prometheus.CounterVec
	rateLimitHits      *prometheus.CounterVec
	budgetChecks       *prometheus.CounterVec
	budgetHits         *prometheus.CounterVec
	budgetUsage        *prometheus.GaugeVec
	enforcementActions *prometheus.CounterVec
	concurrentRequests *prometheus.GaugeVec
	checkDuration      *prometheus.HistogramVec
}

// NewMetrics creates and registers limits metrics with registry. A nil
// registry falls back to prometheus.NewRegistry() so a caller that
// doesn't care about scraping can still construct a Manager with
// metrics attached.
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

		rateLimitChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "limits_rate_limit_checks_total",
				Help:      "Total number of rate limit checks performed",
			},
			[]string{"identifier", "result"},
		),

		rateLimitHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "limits_rate_limit_hits_total",
				Help:      "Total number of rate limit violations",
			},
			[]string{"identifier", "limit_type"},
		),

		budgetChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "limits_budget_checks_total",
				Help:      "Total number of budget checks performed",
			},
			[]string{"identifier", "result"},
		),

		budgetHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "limits_budget_hits_total",
				Help:      "Total number of budget violations",
			},
			[]string{"identifier", "window"},
		),

		budgetUsage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "limits_budget_usage_percentage",
				Help:      "Current budget usage as percentage (0.0-1.0)",
			},
			[]string{"identifier", "window"},
		),

		enforcementActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "limits_enforcement_actions_total",
				Help:      "Total number of enforcement actions taken",
			},
			[]string{"identifier", "action"},
		),

		concurrentRequests: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "limits_concurrent_requests",
				Help:      "Current number of concurrent requests",
			},
			[]string{"identifier"},
		),

		checkDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "limits_check_duration_seconds",
				Help:      "Duration of limit checks in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.000001, 2, 15), // 1µs to 16ms
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.rateLimitChecks,
		m.rateLimitHits,
		m.budgetChecks,
		m.budgetHits,
		m.budgetUsage,
		m.enforcementActions,
		m.concurrentRequests,
		m.checkDuration,
	)

	return m
}

// RecordRateLimitCheck records a rate limit check.
func (m *Metrics) RecordRateLimitCheck(identifier string, allowed bool) {
	if !m.enabled {
		return
	}
	result := "allowed"
	if !allowed {
		result = "blocked"
	}
	m.rateLimitChecks.WithLabelValues(identifier, result).Inc()
}

// RecordRateLimitHit records a rate limit violation.
func (m *Metrics) RecordRateLimitHit(identifier string, limitType string) {
	if !m.enabled {
		return
	}
	m.rateLimitHits.WithLabelValues(identifier, limitType).Inc()
}

// RecordBudgetCheck records a budget check.
func (m *Metrics) RecordBudgetCheck(identifier string, allowed bool) {
	if !m.enabled {
		return
	}
	result := "allowed"
	if !allowed {
		result = "blocked"
	}
	m.budgetChecks.WithLabelValues(identifier, result).Inc()
}

// RecordBudgetHit records a budget violation.
func (m *Metrics) RecordBudgetHit(identifier string, window string) {
	if !m.enabled {
		return
	}
	m.budgetHits.WithLabelValues(identifier, window).Inc()
}

// UpdateBudgetUsage updates the current budget usage percentage.
func (m *Metrics) UpdateBudgetUsage(identifier string, window string, percentage float64) {
	if !m.enabled {
		return
	}
	m.budgetUsage.WithLabelValues(identifier, window).Set(percentage)
}

// RecordEnforcementAction records an enforcement action.
func (m *Metrics) RecordEnforcementAction(identifier string, action EnforcementAction) {
	if !m.enabled {
		return
	}
	m.enforcementActions.WithLabelValues(identifier, string(action)).Inc()
}

// UpdateConcurrentRequests updates the current concurrent request count.
func (m *Metrics) UpdateConcurrentRequests(identifier string, count int64) {
	if !m.enabled {
		return
	}
	m.concurrentRequests.WithLabelValues(identifier).Set(float64(count))
}

// RecordCheckDuration records the duration of a limit check operation.
func (m *Metrics) RecordCheckDuration(operation string, duration float64) {
	if !m.enabled {
		return
	}
	m.checkDuration.WithLabelValues(operation).Observe(duration)
}
