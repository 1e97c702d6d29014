// Package metrics exposes the campaign's own live counters over HTTP
// for scrape-based observability, using the Prometheus client library
// to expose a private registry this process updates directly.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the counters and gauges one running campaign
// updates. A fresh Registry should be created per campaign run to
// avoid duplicate-registration panics across repeated runs in the
// same process.
type Registry struct {
	registry *prometheus.Registry

	RequestsSent     prometheus.Counter
	AnswersReceived  prometheus.Counter
	TransactionsFailed prometheus.Counter
	TransactionsTimedOut prometheus.Counter
	WorkersActive    prometheus.Gauge
	CurrentRPS       prometheus.Gauge
}

// New constructs a Registry with every campaign counter registered.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RequestsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diameter_load",
			Name:      "requests_sent_total",
			Help:      "Total Diameter requests handed to the transport.",
		}),
		AnswersReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diameter_load",
			Name:      "answers_received_total",
			Help:      "Total correlated answers observed across all workers.",
		}),
		TransactionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diameter_load",
			Name:      "transactions_failed_total",
			Help:      "Total transactions that could not be built or sent.",
		}),
		TransactionsTimedOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diameter_load",
			Name:      "transactions_timed_out_total",
			Help:      "Total transactions whose answer did not arrive within call_timeout.",
		}),
		WorkersActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diameter_load",
			Name:      "workers_active",
			Help:      "Number of worker engines currently running.",
		}),
		CurrentRPS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "diameter_load",
			Name:      "current_rps",
			Help:      "Most recently observed aggregate requests-per-second.",
		}),
	}

	reg.MustRegister(
		r.RequestsSent,
		r.AnswersReceived,
		r.TransactionsFailed,
		r.TransactionsTimedOut,
		r.WorkersActive,
		r.CurrentRPS,
	)

	return r
}

// Handler returns the http.Handler to mount for scraping.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server exposing the registry at /metrics and
// blocks until it errors or the listener is closed. Campaigns run it
// in a background goroutine.
func Serve(addr string, r *Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	return http.ListenAndServe(addr, mux)
}
