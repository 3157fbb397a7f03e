package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the cast server.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry       *prometheus.Registry
	requestsTotal  prometheus.Counter
	errorsTotal    prometheus.Counter
	playsTotal     *prometheus.CounterVec
	playFailures   *prometheus.CounterVec
	controlActions *prometheus.CounterVec
	queueLength    prometheus.Gauge
	activeBackend  *prometheus.GaugeVec
}

// New creates and registers the cast server metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cast_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cast_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	playsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cast_plays_total",
		Help: "Playbacks started, by backend",
	}, []string{"backend"})
	playFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cast_play_failures_total",
		Help: "Playback attempts that failed, by error kind",
	}, []string{"kind"})
	controlActions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cast_control_actions_total",
		Help: "Transport control actions dispatched, by action",
	}, []string{"action"})
	queueLength := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cast_queue_length",
		Help: "Number of entries in the playback queue",
	})
	activeBackend := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cast_active_backend",
		Help: "1 for the backend currently playing",
	}, []string{"backend"})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		playsTotal,
		playFailures,
		controlActions,
		queueLength,
		activeBackend,
	)

	return &Metrics{
		registry:       registry,
		requestsTotal:  requestsTotal,
		errorsTotal:    errorsTotal,
		playsTotal:     playsTotal,
		playFailures:   playFailures,
		controlActions: controlActions,
		queueLength:    queueLength,
		activeBackend:  activeBackend,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// IncPlays counts a playback started on backend.
func (m *Metrics) IncPlays(backend string) {
	if m == nil {
		return
	}
	m.playsTotal.WithLabelValues(backend).Inc()
}

// IncPlayFailures counts a failed playback attempt of the given error kind.
func (m *Metrics) IncPlayFailures(kind string) {
	if m == nil {
		return
	}
	m.playFailures.WithLabelValues(kind).Inc()
}

// IncControlActions counts a dispatched control action.
func (m *Metrics) IncControlActions(action string) {
	if m == nil {
		return
	}
	m.controlActions.WithLabelValues(action).Inc()
}

// SetQueueLength sets the queue length gauge.
func (m *Metrics) SetQueueLength(n int) {
	if m == nil {
		return
	}
	m.queueLength.Set(float64(n))
}

// SetActiveBackend marks backend as the only active one. An empty name clears
// the gauge.
func (m *Metrics) SetActiveBackend(backend string) {
	if m == nil {
		return
	}
	m.activeBackend.Reset()
	if backend != "" {
		m.activeBackend.WithLabelValues(backend).Set(1)
	}
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		h.ServeHTTP(w, r)
	})
}
