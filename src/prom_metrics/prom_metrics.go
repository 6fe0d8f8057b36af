package prom_metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch outcomes reported per request.
const (
	OutcomeOK     = "ok"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
	OutcomePanic  = "panic"
)

// Prom_metrics holds the service collectors. Every method is a no-op on a nil
// receiver.
type Prom_metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	numbers_added *prometheus.CounterVec
	window_size   *prometheus.GaugeVec
	fetch_time    prometheus.Summary
	window_events *prometheus.CounterVec

	activate_observe_processing_time bool
}

func (prom_metric *Prom_metrics) registor(reg *prometheus.Registry) {
	reg.MustRegister(prom_metric.requests)
	reg.MustRegister(prom_metric.fetches)
	reg.MustRegister(prom_metric.numbers_added)
	reg.MustRegister(prom_metric.window_size)
	if prom_metric.activate_observe_processing_time {
		reg.MustRegister(prom_metric.fetch_time)
	}
	reg.MustRegister(prom_metric.window_events)
}

func New(activate_observe_processing_time bool) *Prom_metrics {
	prom_metric := &Prom_metrics{
		registry:                         prometheus.NewRegistry(),
		activate_observe_processing_time: activate_observe_processing_time,

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "numbers_requests_total",
				Help: "The total number of window requests per category",
			}, []string{"category"},
		),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "numbers_fetch_total",
				Help: "Upstream fetches per category and outcome",
			}, []string{"category", "outcome"},
		),
		numbers_added: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "numbers_added_total",
				Help: "Numbers that were new to the window when merged",
			}, []string{"category"},
		),
		window_size: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "window_size",
				Help: "Current number of values held by each window",
			}, []string{"category"},
		),
		fetch_time: prometheus.NewSummary(
			prometheus.SummaryOpts{
				Name:       "fetch_duration_us",
				Help:       "The time to fetch numbers from the source (µs)",
				Objectives: map[float64]float64{0.50: 0.1, 0.80: 0.05, 0.90: 0.01, 0.95: 0.005, 0.99: 0.005},
			},
		),
		window_events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "window_events_total",
				Help: "Window update events by delivery result",
			}, []string{"event"},
		),
	}

	prom_metric.registor(prom_metric.registry)

	return prom_metric
}

// Handler exposes the registry in the Prometheus text format.
func (prom_metric *Prom_metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		prom_metric.registry,
		promhttp.HandlerOpts{
			// Pass custom registry
			Registry: prom_metric.registry,
		},
	)
}

func (prom_metric *Prom_metrics) Inc_requests(category string) {
	if prom_metric == nil {
		return
	}
	prom_metric.requests.With(prometheus.Labels{"category": category}).Inc()
}

func (prom_metric *Prom_metrics) Inc_fetch(category string, outcome string) {
	if prom_metric == nil {
		return
	}
	prom_metric.fetches.With(prometheus.Labels{"category": category, "outcome": outcome}).Inc()
}

func (prom_metric *Prom_metrics) Add_numbers(category string, n int) {
	if prom_metric == nil {
		return
	}
	prom_metric.numbers_added.With(prometheus.Labels{"category": category}).Add(float64(n))
}

func (prom_metric *Prom_metrics) Set_window_size(category string, n int) {
	if prom_metric == nil {
		return
	}
	prom_metric.window_size.With(prometheus.Labels{"category": category}).Set(float64(n))
}

func (prom_metric *Prom_metrics) Observe_fetch_time(t time.Duration) {
	if prom_metric == nil || !prom_metric.activate_observe_processing_time {
		return
	}
	prom_metric.fetch_time.Observe(float64(t / time.Microsecond))
}

func (prom_metric *Prom_metrics) Inc_window_events(event string) {
	if prom_metric == nil {
		return
	}
	prom_metric.window_events.With(prometheus.Labels{"event": event}).Inc()
}
