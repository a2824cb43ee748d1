package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type prometheusRegisterer = prometheus.Registerer

// Metrics tracks pool behavior per logical database. Checkout timeouts and
// replacement counts are the leading indicators of pool exhaustion and
// connection churn.
type Metrics struct {
	checkoutsTotal        *prometheus.CounterVec
	checkoutTimeoutsTotal *prometheus.CounterVec
	probeFailuresTotal    *prometheus.CounterVec
	replacementsTotal     *prometheus.CounterVec
	availableConns        *prometheus.GaugeVec
}

func newMetrics(reg prometheusRegisterer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		checkoutsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "db_pool_checkouts_total",
			Help: "Total number of successful connection checkouts.",
		}, []string{"database"}),
		checkoutTimeoutsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "db_pool_checkout_timeouts_total",
			Help: "Total number of checkouts that timed out waiting for a connection.",
		}, []string{"database"}),
		probeFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "db_pool_probe_failures_total",
			Help: "Total number of health probes that failed on checkout.",
		}, []string{"database"}),
		replacementsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "db_pool_replacements_total",
			Help: "Total number of unhealthy connections replaced on release.",
		}, []string{"database"}),
		availableConns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_pool_available_connections",
			Help: "Number of idle connections currently available in the pool.",
		}, []string{"database"}),
	}
}

func (m *Metrics) checkout(database string) {
	m.checkoutsTotal.WithLabelValues(database).Inc()
}

func (m *Metrics) checkoutTimeout(database string) {
	m.checkoutTimeoutsTotal.WithLabelValues(database).Inc()
}

func (m *Metrics) probeFailure(database string) {
	m.probeFailuresTotal.WithLabelValues(database).Inc()
}

func (m *Metrics) replacement(database string) {
	m.replacementsTotal.WithLabelValues(database).Inc()
}

func (m *Metrics) setAvailable(database string, count int) {
	m.availableConns.WithLabelValues(database).Set(float64(count))
}
