// Package metrics provides Prometheus metrics for the rchpass coupling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the coupling.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Loading
	shapesLoaded     prometheus.Counter
	shapesActive     prometheus.Gauge
	maskCells        prometheus.Histogram
	seriesSteps      prometheus.Histogram
	seriesRowsParsed prometheus.Counter
	loadErrors       *prometheus.CounterVec

	// Composition
	compositions    prometheus.Counter
	composeDuration prometheus.Histogram
	stepOutOfRange  prometheus.Counter

	// Export
	exportsWritten prometheus.Counter
	exportErrors   prometheus.Counter

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rchpass",
		subsystem:        "coupling",
		histogramBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
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
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric
	auto := promauto.With(m.registry)

	m.shapesLoaded = m.counter("shapes_loaded_total", "Total number of zone shapes loaded")
	m.shapesActive = m.gauge("shapes_active", "Number of shapes in the current run")
	m.maskCells = m.histogram("mask_cells", "Covered cells per loaded zone mask",
		prometheus.ExponentialBuckets(1, 4, 10))
	m.seriesSteps = m.histogram("series_steps", "Stress periods available per loaded zone series",
		prometheus.ExponentialBuckets(1, 4, 10))
	m.seriesRowsParsed = m.counter("series_rows_parsed_total", "Total number of simulator output rows parsed")
	m.loadErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "load_errors_total",
			Help:        "Shape load failures by kind",
			ConstLabels: m.constLabels,
		},
		[]string{"kind"},
	)

	m.compositions = m.counter("compositions_total", "Total number of recharge arrays composed")
	m.composeDuration = m.histogram("compose_duration_milliseconds",
		"Recharge array composition duration in milliseconds", m.histogramBuckets)
	m.stepOutOfRange = m.counter("step_out_of_range_total", "Requests for a stress period beyond a zone series")

	m.exportsWritten = m.counter("exports_written_total", "Recharge array files written")
	m.exportErrors = m.counter("export_errors_total", "Recharge array files that failed to export")

	m.queueSize = m.gauge("queue_size", "Current number of queued export jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued export jobs")
	m.queueEnqueueTotal = m.counter("queue_enqueue_total", "Total number of export jobs enqueued")
	m.queueDequeueTotal = m.counter("queue_dequeue_total", "Total number of export jobs dequeued")
	m.queueEnqueueErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "queue_enqueue_errors_total",
			Help:        "Rejected export jobs by reason",
			ConstLabels: m.constLabels,
		},
		[]string{"reason"},
	)

	m.workerActiveCount = m.gauge("worker_active_count", "Number of running export workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds",
		"Export job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Export jobs that failed in a worker")

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordShapeLoaded counts one loaded zone with its mask and series sizes.
func RecordShapeLoaded(cells, steps int) {
	globalManager.shapesLoaded.Inc()
	globalManager.maskCells.Observe(float64(cells))
	globalManager.seriesSteps.Observe(float64(steps))
}

// UpdateLoadedShapes sets the number of shapes in the current run.
func UpdateLoadedShapes(n int) {
	globalManager.shapesActive.Set(float64(n))
}

// RecordSeriesParsed adds the rows of one parsed output table.
func RecordSeriesParsed(rows int) {
	globalManager.seriesRowsParsed.Add(float64(rows))
}

// RecordLoadError counts a shape load failure of the given kind.
func RecordLoadError(kind string) {
	globalManager.loadErrors.WithLabelValues(kind).Inc()
}

// RecordComposition counts one composed array and its duration.
func RecordComposition(durationMs float64) {
	globalManager.compositions.Inc()
	globalManager.composeDuration.Observe(durationMs)
}

// RecordStepOutOfRange counts a rejected stress period request.
func RecordStepOutOfRange() {
	globalManager.stepOutOfRange.Inc()
}

// RecordExportWritten counts one written array file.
func RecordExportWritten() {
	globalManager.exportsWritten.Inc()
}

// RecordExportError counts one failed array export.
func RecordExportError() {
	globalManager.exportErrors.Inc()
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueTotal.Inc()
}

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeueTotal.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records job latency in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
