package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Metrics holds the counters for mounts and fetches on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	mounts   prometheus.Counter
	fetches  *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	mounts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "postboard_mounts_total",
		Help: "Number of post list views activated",
	})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postboard_fetch_total",
		Help: "Number of settled upstream fetches by outcome",
	}, []string{"outcome"})

	registry.MustRegister(mounts, fetches)

	return &Metrics{registry: registry, mounts: mounts, fetches: fetches}
}

// Mounted and FetchSettled are nil-safe so callers can run without metrics.
func (m *Metrics) Mounted() {
	if m == nil {
		return
	}
	m.mounts.Inc()
}

func (m *Metrics) FetchSettled(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
