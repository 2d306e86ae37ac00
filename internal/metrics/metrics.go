// Package metrics собирает Prometheus-метрики сервиса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ferreteria"

// Значения метки result.
const (
	ResultFound     = "found"
	ResultNotFound  = "not_found"
	ResultError     = "error"
	ResultHit       = "hit"
	ResultMiss      = "miss"
	ResultCreated   = "created"
	ResultDuplicate = "duplicate"
	ResultInvalid   = "invalid"
	ResultDecoded   = "decoded"
	ResultEmpty     = "empty"
	ResultRejected  = "rejected"
	ResultPublished = "published"
	ResultRetry     = "retry"
)

type Metrics struct {
	registry *prometheus.Registry

	lookups        *prometheus.CounterVec
	cache          *prometheus.CounterVec
	registrations  *prometheus.CounterVec
	frames         *prometheus.CounterVec
	confirmations  prometheus.Counter
	activeSessions prometheus.Gauge
	outbox         *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// New регистрирует метрики в собственном реестре вместе с go/process коллекторами.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return newMetrics(reg)
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "Barcode lookups by result.",
		}, []string{"result"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Product cache requests by result.",
		}, []string{"result"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Product registrations by result.",
		}, []string{"result"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_frames_total",
			Help:      "Submitted scan frames by result.",
		}, []string{"result"}),
		confirmations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_confirmations_total",
			Help:      "Barcodes confirmed by the debouncer.",
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_sessions_active",
			Help:      "Open scan sessions.",
		}),
		outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox events handled by the publisher by result.",
		}, []string{"result"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.lookups, m.cache, m.registrations, m.frames,
		m.confirmations, m.activeSessions, m.outbox, m.httpDuration,
	)

	return m
}

func (m *Metrics) Lookup(result string) {
	m.lookups.WithLabelValues(result).Inc()
}

func (m *Metrics) Cache(result string) {
	m.cache.WithLabelValues(result).Inc()
}

func (m *Metrics) Registration(result string) {
	m.registrations.WithLabelValues(result).Inc()
}

func (m *Metrics) Frame(result string) {
	m.frames.WithLabelValues(result).Inc()
}

func (m *Metrics) Confirmed() {
	m.confirmations.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) Outbox(result string) {
	m.outbox.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
