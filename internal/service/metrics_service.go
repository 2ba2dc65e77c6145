package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface
// and the matching engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	matchAttempts   *prometheus.CounterVec
	matchesCreated  prometheus.Counter
	sweepOutcomes   *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	matchAttempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swap_match_attempts_total",
		Help: "Match pipeline runs by outcome",
	}, []string{"outcome"})

	matchesCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swap_matches_created_total",
		Help: "Total swap matches created",
	})

	sweepOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swap_sweep_items_total",
		Help: "Per-request sweep outcomes",
	}, []string{"outcome"})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "swap_sweep_duration_seconds",
		Help:    "Duration of full sweep passes",
		Buckets: prometheus.DefBuckets,
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, matchAttempts, matchesCreated, sweepOutcomes, sweepDuration, cacheLatency, cacheHits, cacheMisses, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		matchAttempts:   matchAttempts,
		matchesCreated:  matchesCreated,
		sweepOutcomes:   sweepOutcomes,
		sweepDuration:   sweepDuration,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// RecordMatchAttempt tracks a single run of the matching pipeline.
func (m *MetricsService) RecordMatchAttempt(matched bool) {
	if m == nil {
		return
	}
	outcome := "not_matched"
	if matched {
		outcome = "matched"
		m.matchesCreated.Inc()
	}
	m.matchAttempts.WithLabelValues(outcome).Inc()
}

// RecordSweepItem tracks the outcome of one swept request.
func (m *MetricsService) RecordSweepItem(outcome string) {
	if m == nil {
		return
	}
	m.sweepOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveSweep records the duration of a full sweep pass.
func (m *MetricsService) ObserveSweep(duration time.Duration) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(duration.Seconds())
}

// RecordCacheOperation tracks cache lookups.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
