package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "flaredrive"

// Metrics holds the collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	usagePages      prometheus.Counter
	usageObjects    prometheus.Counter
	usageTotalBytes prometheus.Gauge
	usageFailures   prometheus.Counter
}

// New creates a Metrics instance backed by its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		usagePages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_pages_total",
			Help:      "Listing pages fetched while computing storage usage.",
		}),
		usageObjects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_objects_total",
			Help:      "Objects counted while computing storage usage.",
		}),
		usageTotalBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "usage_total_bytes",
			Help:      "Last computed total size of the bucket.",
		}),
		usageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_failures_total",
			Help:      "Storage usage computations that failed.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requestDuration,
		m.usagePages,
		m.usageObjects,
		m.usageTotalBytes,
		m.usageFailures,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one served request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// UsagePage records one listing page of n objects
func (m *Metrics) UsagePage(n int) {
	m.usagePages.Inc()
	m.usageObjects.Add(float64(n))
}

// UsageTotal records a completed computation
func (m *Metrics) UsageTotal(total int64) {
	m.usageTotalBytes.Set(float64(total))
}

// UsageFailed records a failed computation
func (m *Metrics) UsageFailed() {
	m.usageFailures.Inc()
}
