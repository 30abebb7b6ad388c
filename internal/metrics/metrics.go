package metrics

import (
	"github.com/atikulmunna/flowscope/internal/report"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes report outcomes to Prometheus.
type Metrics struct {
	rows       *prometheus.GaugeVec
	skipped    prometheus.Gauge
	reloads    prometheus.Counter
	failures   prometheus.Counter
	lastReload prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "flowscope_rows",
			Help: "Rows in the latest report, by classification.",
		}, []string{"class"}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowscope_skipped_tuples",
			Help: "Malformed tuples skipped in the latest report.",
		}),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowscope_reloads_total",
			Help: "Reports built successfully.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flowscope_reload_failures_total",
			Help: "Report builds that failed to load or flatten the input.",
		}),
		lastReload: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowscope_last_reload_timestamp_seconds",
			Help: "Unix time of the last successful report build.",
		}),
	}

	reg.MustRegister(m.rows, m.skipped, m.reloads, m.failures, m.lastReload)
	return m
}

// ObserveReport records a successful build.
func (m *Metrics) ObserveReport(r *report.Report) {
	m.reloads.Inc()
	m.rows.WithLabelValues("allowed").Set(float64(len(r.Allowed)))
	m.rows.WithLabelValues("denied").Set(float64(len(r.Denied)))
	m.rows.WithLabelValues("unclassified").Set(float64(len(r.Unclassified)))
	m.skipped.Set(float64(len(r.Skipped)))
	m.lastReload.Set(float64(r.GeneratedAt.Unix()))
}

// ObserveFailure records a failed build.
func (m *Metrics) ObserveFailure() {
	m.failures.Inc()
}
