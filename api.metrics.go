package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors of the api. It uses its own
// registry so tests can build as many instances as they need.
type Metrics struct {
	registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	BookOperations  *prometheus.CounterVec
}

// NewMetrics creates and registers all api collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookstore",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of processed http requests",
			},
			[]string{"method", "route", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "bookstore",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Http request processing duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		BookOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "bookstore",
				Subsystem: "books",
				Name:      "operations_total",
				Help:      "Total number of storage operations on books",
			},
			[]string{"operation", "result"},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.BookOperations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveBookOperation counts a storage call by its outcome. Absent
// records are not failures. It is a no-op on a nil receiver.
func (m *Metrics) ObserveBookOperation(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	switch {
	case errors.Is(err, ErrBookNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	m.BookOperations.WithLabelValues(operation, result).Inc()
}

// ObserveRequest records the status and duration of a served request.
func (m *Metrics) ObserveRequest(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler exposes the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// GetMetrics serves the prometheus metrics of the api.
func (api *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	api.metrics.Handler().ServeHTTP(w, r)
}
