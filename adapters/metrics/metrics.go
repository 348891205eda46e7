// Package metrics provides Prometheus metrics collection for LLMGate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for LLMGate.
type Collector struct {
	// Request metrics
	RequestsTotal  *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec

	// Policy metrics
	PolicyRejections *prometheus.CounterVec

	// Backend metrics
	BackendDuration *prometheus.HistogramVec
	BackendErrors   *prometheus.CounterVec

	// Ledger metrics
	LedgerAppendErrors prometheus.Counter

	// Registry metrics
	RegistryModels prometheus.Gauge
}

// New creates a new metrics collector registered on the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "llmgate",
				Name:      "requests_total",
				Help:      "Total number of API requests",
			},
			[]string{"endpoint", "method", "client"},
		),
		RequestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "llmgate",
				Name:      "request_latency_seconds",
				Help:      "Latency of API requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint", "client"},
		),
		PolicyRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "llmgate",
				Name:      "policy_rejections_total",
				Help:      "Total requests rejected by usage policy",
			},
			[]string{"reason"},
		),
		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "llmgate",
				Name:      "backend_duration_seconds",
				Help:      "Backend invocation duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"model"},
		),
		BackendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "llmgate",
				Name:      "backend_errors_total",
				Help:      "Total backend invocation failures",
			},
			[]string{"kind"},
		),
		LedgerAppendErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "llmgate",
				Name:      "ledger_append_errors_total",
				Help:      "Total failed usage ledger appends",
			},
		),
		RegistryModels: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "llmgate",
				Name:      "registry_models",
				Help:      "Number of models in the registry",
			},
		),
	}
}

// NormalizeClient restricts the client label to an allow-listed set plus an
// "anonymous" catch-all. Metric label cardinality must stay bounded no
// matter what identities callers present.
func NormalizeClient(clientID string, allowlist []string) string {
	for _, allowed := range allowlist {
		if clientID == allowed {
			return clientID
		}
	}
	return "anonymous"
}
