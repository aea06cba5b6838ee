package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/IdanRossman/jiranimo/internal/events"
)

// Metrics holds the Prometheus collectors of one server. Each server has its
// own registry.
type Metrics struct {
	registry *prometheus.Registry

	transitionsTotal   *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	issuesLoaded       prometheus.Gauge
	issuesRejected     prometheus.Gauge
	filterMatched      prometheus.Gauge
	requestsTotal      *prometheus.CounterVec
}

// NewMetrics creates the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		transitionsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jiranimo_transitions_total",
				Help: "Card moves by outcome (reordered, committed, reverted)",
			},
			[]string{"outcome"},
		),
		transitionDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jiranimo_transition_duration_seconds",
				Help:    "Time from drop to settled outcome of cross-column moves",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		issuesLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "jiranimo_issues_loaded",
			Help: "Issues in the last loaded collection",
		}),
		issuesRejected: f.NewGauge(prometheus.GaugeOpts{
			Name: "jiranimo_issues_rejected",
			Help: "Records rejected by the normalizer in the last load",
		}),
		filterMatched: f.NewGauge(prometheus.GaugeOpts{
			Name: "jiranimo_filter_matched_issues",
			Help: "Issues matching the active filter",
		}),
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jiranimo_http_requests_total",
				Help: "HTTP requests by method and status code",
			},
			[]string{"method", "code"},
		),
	}
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observe updates the collectors from a dashboard event.
func (m *Metrics) observe(topic string, event any) {
	switch ev := event.(type) {
	case events.Transition:
		m.transitionsTotal.WithLabelValues(ev.Outcome).Inc()
		if topic != events.TopicTransitionReordered && !ev.FinishedAt.IsZero() {
			m.transitionDuration.WithLabelValues(ev.Outcome).Observe(ev.FinishedAt.Sub(ev.StartedAt).Seconds())
		}
	case events.IssuesLoaded:
		m.issuesLoaded.Set(float64(ev.Count))
		m.issuesRejected.Set(float64(ev.Rejected))
	case events.FilterChanged:
		m.filterMatched.Set(float64(ev.Matched))
	}
}

// Middleware counts requests by method and status code.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		m.requestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.code())).Inc()
	})
}
