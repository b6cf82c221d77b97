// Package metrics provides Prometheus metrics for the dashboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Query metrics
	queries         *prometheus.CounterVec
	queryLatency    prometheus.Histogram
	queryPoints     prometheus.Histogram
	emptySelections prometheus.Counter
	lookupMisses    *prometheus.CounterVec

	// Dataset metrics, set once at load
	datasetGames        prometheus.Gauge
	datasetSkippedRows  prometheus.Gauge
	datasetAnnualGroups prometheus.Gauge
	datasetFirstYear    prometheus.Gauge
	datasetLastYear     prometheus.Gauge
	datasetLoadDuration prometheus.Gauge

	// Chart rendering metrics
	chartRenders       *prometheus.CounterVec
	chartRenderLatency *prometheus.HistogramVec
	chartRenderErrors  *prometheus.CounterVec

	// Render queue metrics
	renderQueueCapacity prometheus.Gauge
	renderQueueSize     prometheus.Gauge
	renderQueueRejected *prometheus.CounterVec
	renderQueueWait     prometheus.Histogram
	renderWorkers       prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// Init replaces the global manager with one built from opts on a fresh
// registry. Call it once at start-up, before anything is recorded.
func Init(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cfbtv",
		subsystem:        "dashboard",
		histogramBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		})
	}
	counterVec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return auto.NewGauge(prometheus.GaugeOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		})
	}
	histogram := func(name, help string, buckets []float64) prometheus.Histogram {
		return auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
		})
	}
	histogramVec := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
		}, labels)
	}

	// Query metrics - what the dashboard is asked for
	m.queries = counterVec("queries_total", "Total number of chart queries by chart and role", "chart", "role")
	m.queryLatency = histogram("query_latency_milliseconds", "Query engine latency in milliseconds", m.histogramBuckets)
	m.queryPoints = histogram("query_points", "Number of points returned per chart query",
		[]float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500})
	m.emptySelections = counter("empty_selections_total", "Queries issued with no team selected")
	m.lookupMisses = counterVec("lookup_misses_total", "Team lookups with no entry, by table", "table")

	// Dataset metrics
	m.datasetGames = gauge("dataset_games", "Games held in the loaded dataset")
	m.datasetSkippedRows = gauge("dataset_skipped_rows", "Rows dropped while loading (cutoff, bad date, no teams)")
	m.datasetAnnualGroups = gauge("dataset_annual_groups", "Number of (home, visitor, year) attendance groups")
	m.datasetFirstYear = gauge("dataset_first_year", "Earliest season present in the dataset")
	m.datasetLastYear = gauge("dataset_last_year", "Latest season present in the dataset")
	m.datasetLoadDuration = gauge("dataset_load_duration_milliseconds", "Wall time of the start-up load")

	// Chart rendering metrics
	m.chartRenders = counterVec("chart_renders_total", "Rendered chart images by chart and format", "chart", "format")
	m.chartRenderLatency = histogramVec("chart_render_latency_milliseconds", "Chart image render latency", "format")
	m.chartRenderErrors = counterVec("chart_render_errors_total", "Chart image render failures", "format")

	// Render queue metrics
	m.renderQueueCapacity = gauge("render_queue_capacity", "Maximum number of queued render jobs")
	m.renderQueueSize = gauge("render_queue_size", "Render jobs waiting for a worker")
	m.renderQueueRejected = counterVec("render_queue_rejected_total", "Render jobs refused by the queue, by reason", "reason")
	m.renderQueueWait = histogram("render_queue_wait_milliseconds", "Time a render job waited for a worker", m.histogramBuckets)
	m.renderWorkers = gauge("render_workers", "Render workers running")

	// HTTP Performance Metrics - User experience indicators
	m.httpRequests = counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		"endpoint", "method", "status_code")

	// Error Metrics
	m.errorRateByType = counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = counterVec("errors_by_endpoint_total", "Errors by endpoint, method and type",
		"endpoint", "method", "error_type")
	m.errorLatency = histogramVec("error_latency_milliseconds", "Latency of requests that ended in error",
		"component", "error_type")

	// System Performance Metrics
	m.systemMemoryUsage = gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = gauge("system_goroutines", "Number of goroutines")
	m.systemGCPauseTime = histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})
}

// RecordQuery records one engine query.
func RecordQuery(chart, role string, latencyMs float64, points int) {
	globalManager.queries.WithLabelValues(chart, role).Inc()
	globalManager.queryLatency.Observe(latencyMs)
	globalManager.queryPoints.Observe(float64(points))
}

// RecordEmptySelection counts a query with no teams selected.
func RecordEmptySelection() {
	globalManager.emptySelections.Inc()
}

// RecordLookupMiss counts a team absent from a lookup table ("color", "logo").
func RecordLookupMiss(table string) {
	globalManager.lookupMisses.WithLabelValues(table).Inc()
}

// Dataset Metrics Functions.

// UpdateDatasetGames sets the number of loaded games.
func UpdateDatasetGames(count int) {
	globalManager.datasetGames.Set(float64(count))
}

// UpdateDatasetSkippedRows sets the number of rows dropped at load.
func UpdateDatasetSkippedRows(count int) {
	globalManager.datasetSkippedRows.Set(float64(count))
}

// UpdateDatasetAnnualGroups sets the number of annual attendance groups.
func UpdateDatasetAnnualGroups(count int) {
	globalManager.datasetAnnualGroups.Set(float64(count))
}

// UpdateDatasetYearSpan sets the first and last season.
func UpdateDatasetYearSpan(first, last int) {
	globalManager.datasetFirstYear.Set(float64(first))
	globalManager.datasetLastYear.Set(float64(last))
}

// RecordDatasetLoadDuration sets the start-up load time in milliseconds.
func RecordDatasetLoadDuration(ms float64) {
	globalManager.datasetLoadDuration.Set(ms)
}

// Chart Rendering Functions.

// RecordChartRender records a successful image render.
func RecordChartRender(chart, format string, latencyMs float64) {
	globalManager.chartRenders.WithLabelValues(chart, format).Inc()
	globalManager.chartRenderLatency.WithLabelValues(format).Observe(latencyMs)
}

// RecordChartRenderError counts a failed image render.
func RecordChartRenderError(format string) {
	globalManager.chartRenderErrors.WithLabelValues(format).Inc()
}

// Render Queue Functions.

// UpdateRenderQueueCapacity sets the render queue capacity.
func UpdateRenderQueueCapacity(capacity int) {
	globalManager.renderQueueCapacity.Set(float64(capacity))
}

// UpdateRenderQueueSize sets the number of waiting render jobs.
func UpdateRenderQueueSize(size int) {
	globalManager.renderQueueSize.Set(float64(size))
}

// RecordRenderQueueRejected counts a render job the queue refused.
func RecordRenderQueueRejected(reason string) {
	globalManager.renderQueueRejected.WithLabelValues(reason).Inc()
}

// RecordRenderQueueWait records how long a job waited before a worker took it.
func RecordRenderQueueWait(waitMs float64) {
	globalManager.renderQueueWait.Observe(waitMs)
}

// UpdateRenderWorkers sets the number of running render workers.
func UpdateRenderWorkers(count int) {
	globalManager.renderWorkers.Set(float64(count))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a request that errored.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System Performance Metrics Functions.

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
