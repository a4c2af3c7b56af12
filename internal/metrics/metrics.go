// Package metrics exposes Prometheus collectors for HTTP traffic and sales.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nuclear-hardware/hms/internal/model"
)

// Metrics owns a registry and the application's collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	sales    *prometheus.CounterVec
	sold     *prometheus.CounterVec
	scrapped prometheus.Counter
	received prometheus.Counter
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hms_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hms_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		sales: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hms_sales_total",
			Help: "Sale records created, by sale type.",
		}, []string{"type"}),
		sold: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hms_assets_sold_total",
			Help: "Assets sold, by sale type.",
		}, []string{"type"}),
		scrapped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hms_assets_scrapped_total",
			Help: "Assets written off as scrap.",
		}),
		received: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hms_assets_received_total",
			Help: "Assets received into stock.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration, m.sales, m.sold, m.scrapped, m.received,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware counts and times every request passing through next.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return promhttp.InstrumentHandlerDuration(m.duration,
		promhttp.InstrumentHandlerCounter(m.requests, next))
}

// ObserveSale records a committed sale or scrap.
func (m *Metrics) ObserveSale(rec *model.SaleRecord) {
	if m == nil || rec == nil {
		return
	}
	if rec.Scrapped {
		m.scrapped.Add(float64(rec.AssetCount))
		return
	}
	m.sales.WithLabelValues(string(rec.SaleType)).Inc()
	m.sold.WithLabelValues(string(rec.SaleType)).Add(float64(rec.AssetCount))
}

// ObserveIntake records assets received into stock.
func (m *Metrics) ObserveIntake(n int) {
	if m == nil {
		return
	}
	m.received.Add(float64(n))
}
