// Package metrics provides Prometheus metrics for the vitalrace service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Resampling
	resampleLatency     prometheus.Histogram
	resampleErrors      *prometheus.CounterVec
	resampleCacheHits   prometheus.Counter
	resampleCacheMisses prometheus.Counter

	// Playback
	framesRendered   prometheus.Counter
	frameLatency     prometheus.Histogram
	playbackProgress prometheus.Gauge
	playbackState    prometheus.Gauge
	playbackLoops    prometheus.Counter

	// Aggregation
	summariesComputed prometheus.Counter
	outliersDetected  prometheus.Counter
	emptyGroups       prometheus.Counter

	// Dataset
	datasetSubjects prometheus.Gauge
	datasetSeries   prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vitalrace",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.resampleLatency = m.histogram("resample_latency_milliseconds", "Latency of resampling one cohort for a metric", m.histogramBuckets)
	m.resampleErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "resample_errors_total",
		Help: "Resample failures by error kind",
	}, []string{"kind"})
	m.resampleCacheHits = m.counter("resample_cache_hits_total", "Resampled cohorts served from cache")
	m.resampleCacheMisses = m.counter("resample_cache_misses_total", "Resampled cohorts computed on demand")

	m.framesRendered = m.counter("frames_rendered_total", "Race frames delivered to the renderer")
	m.frameLatency = m.histogram("frame_latency_milliseconds", "Time to compute and deliver one frame",
		[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 33})
	m.playbackProgress = m.gauge("playback_progress", "Current playback progress in [0,1]")
	m.playbackState = m.gauge("playback_state", "Playback state: 0 stopped, 1 playing, 2 paused")
	m.playbackLoops = m.counter("playback_loops_total", "Completed playback loops")

	m.summariesComputed = m.counter("summaries_computed_total", "Group summaries computed")
	m.outliersDetected = m.counter("outliers_detected_total", "Values flagged outside the 1.5 IQR fences")
	m.emptyGroups = m.counter("empty_groups_total", "Groups skipped because their pool was empty")

	m.datasetSubjects = m.gauge("dataset_subjects", "Subjects currently loaded")
	m.datasetSeries = m.gauge("dataset_series", "Subject and metric series currently loaded")

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "http_requests_total",
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "http_request_duration_milliseconds",
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name: "errors_total",
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordResampleLatency records the latency of one cohort resample.
func RecordResampleLatency(latencyMs float64) {
	globalManager.resampleLatency.Observe(latencyMs)
}

// RecordResampleError counts a resample failure of the given kind.
func RecordResampleError(kind string) {
	globalManager.resampleErrors.WithLabelValues(kind).Inc()
}

// RecordResampleCacheHit counts a cohort served from cache.
func RecordResampleCacheHit() {
	globalManager.resampleCacheHits.Inc()
}

// RecordResampleCacheMiss counts a cohort computed on demand.
func RecordResampleCacheMiss() {
	globalManager.resampleCacheMisses.Inc()
}

// RecordFrameRendered counts a frame delivered to the renderer.
func RecordFrameRendered() {
	globalManager.framesRendered.Inc()
}

// RecordFrameLatency records the time spent producing a frame.
func RecordFrameLatency(latencyMs float64) {
	globalManager.frameLatency.Observe(latencyMs)
}

// UpdatePlaybackProgress sets the current progress gauge.
func UpdatePlaybackProgress(progress float64) {
	globalManager.playbackProgress.Set(progress)
}

// UpdatePlaybackState sets the playback state gauge.
func UpdatePlaybackState(state int) {
	globalManager.playbackState.Set(float64(state))
}

// RecordPlaybackLoop counts a completed loop.
func RecordPlaybackLoop() {
	globalManager.playbackLoops.Inc()
}

// RecordSummary counts a computed summary and its outliers.
func RecordSummary(outliers int) {
	globalManager.summariesComputed.Inc()
	globalManager.outliersDetected.Add(float64(outliers))
}

// RecordEmptyGroup counts a group skipped for an empty pool.
func RecordEmptyGroup() {
	globalManager.emptyGroups.Inc()
}

// UpdateDatasetSize sets the dataset gauges.
func UpdateDatasetSize(subjects, series int) {
	globalManager.datasetSubjects.Set(float64(subjects))
	globalManager.datasetSeries.Set(float64(series))
}

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the registry the global manager reports to.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
