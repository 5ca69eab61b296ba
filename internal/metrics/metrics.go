package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service exports. Constructed once and
// passed to whoever records; no package-level registry state.
type Metrics struct {
	EventsReceived  *prometheus.CounterVec
	EventsDelivered prometheus.Counter
	DeliveryFailed  prometheus.Counter
	DeadLetterSize  prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers all collectors on reg. Pass a fresh registry in tests to
// avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "telemetry_events_received_total",
			Help: "Events accepted at the HTTP boundary.",
		}, []string{"event_type"}),
		EventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_events_delivered_total",
			Help: "Events acknowledged by the sink.",
		}),
		DeliveryFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "telemetry_delivery_failures_total",
			Help: "Events routed to the dead-letter store.",
		}),
		DeadLetterSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "telemetry_dead_letter_entries",
			Help: "Entries currently held in the dead-letter store.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by handler, method and status.",
		}, []string{"handler", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler", "method"}),
	}

	reg.MustRegister(
		m.EventsReceived,
		m.EventsDelivered,
		m.DeliveryFailed,
		m.DeadLetterSize,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
