// Package metrics provides Prometheus metrics for the proctor scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets cover the [0,1] cheating score with edges at the level thresholds.
var scoreBuckets = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the proctor service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Frame ingestion
	framesReceived  prometheus.Counter
	framesDuplicate prometheus.Counter
	framesDropped   *prometheus.CounterVec

	// Scoring
	framesScored       prometheus.Counter
	cheatingScore      prometheus.Histogram
	lastCheatingScore  prometheus.Gauge
	warningLevels      *prometheus.CounterVec
	indicatorsFired    *prometheus.CounterVec
	scoringLatency     prometheus.Histogram
	scoringErrors      prometheus.Counter
	snapshotsPublished prometheus.Counter
	snapshotsStale     prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpErrors          *prometheus.CounterVec

	// Delivery
	websocketClients prometheus.Gauge
	resultsSaved     prometheus.Counter
	resultsSaveError prometheus.Counter

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
	customRegistry.MustRegister(collectors.NewBuildInfoCollector())
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "proctor",
		subsystem:        "scorer",
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

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
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

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of metric definitions
	m.framesReceived = m.counter("frames_received_total", "Total number of landmark frames accepted for scoring")
	m.framesDuplicate = m.counter("frames_duplicate_total", "Total number of frames rejected as duplicates by frame id")
	m.framesDropped = m.counterVec("frames_dropped_total", "Total number of frames dropped before scoring", "reason")

	m.framesScored = m.counter("frames_scored_total", "Total number of frames scored")
	m.cheatingScore = m.histogram("cheating_score", "Distribution of per-frame cheating scores", scoreBuckets)
	m.lastCheatingScore = m.gauge("cheating_score_last", "Cheating score of the most recently published frame")
	m.warningLevels = m.counterVec("warning_level_total", "Scored frames by warning level", "level")
	m.indicatorsFired = m.counterVec("indicators_total", "Indicators fired by kind", "kind")
	m.scoringLatency = m.histogram("scoring_latency_milliseconds", "Histogram of scoring latency in milliseconds", m.histogramBuckets)
	m.scoringErrors = m.counter("scoring_errors_total", "Total number of scoring errors")
	m.snapshotsPublished = m.counter("snapshots_published_total", "Total number of results published to the latest-result cell")
	m.snapshotsStale = m.counter("snapshots_stale_total", "Results discarded because a newer frame was already published")

	m.queueSize = m.gauge("queue_size", "Current number of frames waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue utilization ratio (current size / capacity)")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of frames enqueued")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of frames dequeued")
	m.queueEnqueueErrors = m.counterVec("queue_enqueue_errors_total", "Total number of enqueue failures", "reason")

	m.workerCount = m.gauge("worker_count", "Current number of scoring workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of worker errors")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.httpErrors = m.counterVec("http_errors_total", "Total number of HTTP errors by endpoint", "endpoint", "method", "error_type")

	m.websocketClients = m.gauge("websocket_clients", "Number of connected result stream clients")
	m.resultsSaved = m.counter("results_saved_total", "Total number of result records appended to the results log")
	m.resultsSaveError = m.counter("results_save_errors_total", "Total number of failed results log appends")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordFrameReceived increments the accepted frames counter.
func RecordFrameReceived() {
	globalManager.framesReceived.Inc()
}

// RecordFrameDuplicate increments the duplicate frames counter.
func RecordFrameDuplicate() {
	globalManager.framesDuplicate.Inc()
}

// RecordFrameDropped increments the dropped frames counter for reason.
func RecordFrameDropped(reason string) {
	globalManager.framesDropped.WithLabelValues(reason).Inc()
}

// RecordFrameScored records the outcome of scoring one frame.
func RecordFrameScored(score float64, level string) {
	globalManager.framesScored.Inc()
	globalManager.cheatingScore.Observe(score)
	globalManager.warningLevels.WithLabelValues(level).Inc()
}

// RecordIndicator increments the counter for an indicator kind.
func RecordIndicator(kind string) {
	globalManager.indicatorsFired.WithLabelValues(kind).Inc()
}

// RecordScoringLatency records scoring latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringError increments the scoring errors counter.
func RecordScoringError() {
	globalManager.scoringErrors.Inc()
}

// RecordSnapshotPublished counts a publish and tracks the latest score.
func RecordSnapshotPublished(score float64) {
	globalManager.snapshotsPublished.Inc()
	globalManager.lastCheatingScore.Set(score)
}

// RecordSnapshotStale counts a result that lost to a newer frame.
func RecordSnapshotStale() {
	globalManager.snapshotsStale.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter for reason.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateWebSocketClients sets the number of connected stream clients.
func UpdateWebSocketClients(count int) {
	globalManager.websocketClients.Set(float64(count))
}

// RecordResultSaved increments the results log append counter.
func RecordResultSaved() {
	globalManager.resultsSaved.Inc()
}

// RecordResultSaveError increments the results log failure counter.
func RecordResultSaveError() {
	globalManager.resultsSaveError.Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
