// Package metrics exposes Prometheus instrumentation for the controller flows.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xnftctl"

// Flow results.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder receives flow lifecycle events from the controller.
type Recorder interface {
	FlowStarted(op string)
	FlowFinished(op, result string, elapsed time.Duration)
	StaleDiscarded(op string)
}

// Metrics is a Recorder backed by a private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry
	flows    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
	stale    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		flows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flows_total",
			Help:      "Completed flows by operation and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flow_duration_seconds",
			Help:      "Flow latency including chain round trips.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flows_in_flight",
			Help:      "Flows currently awaiting a response.",
		}, []string{"op"}),
		stale: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request of the same operation had already been applied.",
		}, []string{"op"}),
	}
	m.registry.MustRegister(
		m.flows,
		m.duration,
		m.inFlight,
		m.stale,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) FlowStarted(op string) {
	m.inFlight.WithLabelValues(op).Inc()
}

func (m *Metrics) FlowFinished(op, result string, elapsed time.Duration) {
	m.inFlight.WithLabelValues(op).Dec()
	m.flows.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) StaleDiscarded(op string) {
	m.stale.WithLabelValues(op).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Nop discards all events.
type Nop struct{}

func (Nop) FlowStarted(string)                         {}
func (Nop) FlowFinished(string, string, time.Duration) {}
func (Nop) StaleDiscarded(string)                      {}
