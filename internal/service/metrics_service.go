package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rtdacademy/SignupForm-sub036/internal/models"
)

// Normalization outcomes used as metric labels.
const (
	OutcomeComputed = "computed"
	OutcomeCached   = "cached"
	OutcomeFailed   = "failed"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry              *prometheus.Registry
	handler               http.Handler
	requestDuration       *prometheus.HistogramVec
	requestTotal          *prometheus.CounterVec
	cacheLatency          prometheus.Observer
	cacheWrite            prometheus.Observer
	cacheHitRatio         prometheus.Gauge
	cacheHits             prometheus.Counter
	cacheMisses           prometheus.Counter
	normalizationRuns     *prometheus.CounterVec
	normalizationDuration prometheus.Observer
	autoStatusChanges     *prometheus.CounterVec
	triggerJobs           *prometheus.CounterVec

	cacheHitCount         uint64
	cacheMissCount        uint64
	requestCount          uint64
	requestDurationTotal  uint64
	normalizationCount    uint64
	normalizationFailures uint64
	autoStatusChangeCount uint64
}

// NewMetricsService registers the engine's Prometheus collectors on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	normalizationRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_normalizations_total",
		Help: "Schedule normalization runs by outcome",
	}, []string{"outcome"})

	normalizationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "schedule_normalization_duration_seconds",
		Help:    "Duration of computed schedule normalizations",
		Buckets: prometheus.DefBuckets,
	})

	autoStatusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auto_status_changes_total",
		Help: "Automated status transitions by new status",
	}, []string{"status"})

	triggerJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "trigger_jobs_total",
		Help: "Event trigger jobs processed by kind and outcome",
	}, []string{"kind", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		normalizationRuns, normalizationDuration, autoStatusChanges, triggerJobs, goroutines)

	return &MetricsService{
		registry:              registry,
		handler:               promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:       requestDuration,
		requestTotal:          requestTotal,
		cacheLatency:          cacheLatency,
		cacheWrite:            cacheWrite,
		cacheHitRatio:         cacheHitRatio,
		cacheHits:             cacheHits,
		cacheMisses:           cacheMisses,
		normalizationRuns:     normalizationRuns,
		normalizationDuration: normalizationDuration,
		autoStatusChanges:     autoStatusChanges,
		triggerJobs:           triggerJobs,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveNormalization counts a run by outcome. Duration is only observed for computed runs.
func (m *MetricsService) ObserveNormalization(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.normalizationRuns.WithLabelValues(outcome).Inc()
	atomic.AddUint64(&m.normalizationCount, 1)
	switch outcome {
	case OutcomeComputed:
		m.normalizationDuration.Observe(duration.Seconds())
	case OutcomeFailed:
		atomic.AddUint64(&m.normalizationFailures, 1)
	}
}

// RecordAutoStatusChange counts a persisted automated status transition.
func (m *MetricsService) RecordAutoStatusChange(status models.AutoStatusValue) {
	if m == nil {
		return
	}
	m.autoStatusChanges.WithLabelValues(string(status)).Inc()
	atomic.AddUint64(&m.autoStatusChangeCount, 1)
}

// RecordTriggerJob counts a processed trigger job.
func (m *MetricsService) RecordTriggerJob(kind string, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	m.triggerJobs.WithLabelValues(kind, outcome).Inc()
}

// Snapshot returns aggregated metrics suitable for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if totalLookups := hits + misses; totalLookups > 0 {
		cacheRatio = float64(hits) / float64(totalLookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		NormalizationRuns:        atomic.LoadUint64(&m.normalizationCount),
		NormalizationFailures:    atomic.LoadUint64(&m.normalizationFailures),
		AutoStatusChanges:        atomic.LoadUint64(&m.autoStatusChangeCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
