package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	reg *prometheus.Registry

	fetched           prometheus.Counter
	dropped           prometheus.Counter
	recomputes        prometheus.Counter
	invalidDateRanges prometheus.Counter
	rejected          *prometheus.CounterVec
	filtered          prometheus.Gauge
	recomputeSeconds  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		fetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadboard", Name: "leads_fetched_total",
			Help: "Raw lead records returned by the record source.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadboard", Name: "leads_dropped_total",
			Help: "Raw lead records dropped for lack of a resolvable state.",
		}),
		recomputes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadboard", Name: "recomputes_total",
			Help: "Filter evaluations followed by view aggregation.",
		}),
		invalidDateRanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leadboard", Name: "invalid_date_ranges_total",
			Help: "Recomputes that ignored a date range with from after to.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadboard", Name: "rejected_selections_total",
			Help: "Filter edits rejected for naming ineligible values.",
		}, []string{"dimension"}),
		filtered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "leadboard", Name: "filtered_leads",
			Help: "Leads passing the current filters.",
		}),
		recomputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leadboard", Name: "recompute_seconds",
			Help:    "Time spent evaluating filters and aggregating views.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
	}
	m.reg.MustRegister(
		m.fetched, m.dropped, m.recomputes, m.invalidDateRanges,
		m.rejected, m.filtered, m.recomputeSeconds,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) ObserveLoad(fetched, dropped int) {
	if m == nil {
		return
	}
	m.fetched.Add(float64(fetched))
	m.dropped.Add(float64(dropped))
}

func (m *Metrics) ObserveRecompute(filtered int, invalidDates bool, took time.Duration) {
	if m == nil {
		return
	}
	m.recomputes.Inc()
	m.filtered.Set(float64(filtered))
	m.recomputeSeconds.Observe(took.Seconds())
	if invalidDates {
		m.invalidDateRanges.Inc()
	}
}

func (m *Metrics) RejectedSelection(dimension string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(dimension).Inc()
}
