// Package metrics provides Prometheus metrics for the padflow service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// scoreBuckets spans the 0..100 playability score.
var scoreBuckets = []float64{0, 20, 40, 60, 80, 90, 95, 100} //nolint:gochecknoglobals // fixed buckets

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Solver
	solves          prometheus.Counter
	solveErrors     prometheus.Counter
	solveLatency    prometheus.Histogram
	eventsSolved    prometheus.Counter
	eventsUnplay    prometheus.Counter
	eventsHard      prometheus.Counter
	scores          prometheus.Histogram
	jobsDuplicate   prometheus.Counter
	resultsStored   prometheus.Gauge
	resultsAccepted prometheus.Counter
	resultsStale    prometheus.Counter
	storeLatency    *prometheus.HistogramVec

	// Queue
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    prometheus.Counter

	// Workers
	workerCount   prometheus.Gauge
	workerActive  prometheus.Gauge
	workerIdle    prometheus.Gauge
	workerLatency prometheus.Histogram
	workerErrors  prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
}

var (
	mu             sync.RWMutex
	globalManager  *Manager
	customRegistry = prometheus.NewRegistry() // keeps Go runtime collectors out of /healthz
)

func init() { //nolint:gochecknoinits // global manager registered once per process
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "padflow",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// Enabled reports whether recording is on.
func (m *Manager) Enabled() bool { return m != nil && m.enabled }

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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one registration per collector
	auto := promauto.With(m.registry)

	m.solves = m.counter("solves_total", "Total number of completed solves")
	m.solveErrors = m.counter("solve_errors_total", "Total number of solves rejected by precondition errors")
	m.solveLatency = m.histogram("solve_latency_milliseconds", "Solve duration in milliseconds", m.histogramBuckets)
	m.eventsSolved = m.counter("events_solved_total", "Total number of note events assigned or marked unplayable")
	m.eventsUnplay = m.counter("events_unplayable_total", "Total number of note events marked unplayable")
	m.eventsHard = m.counter("events_hard_total", "Total number of note events labelled hard")
	m.scores = m.histogram("score", "Distribution of playability scores", scoreBuckets)
	m.jobsDuplicate = m.counter("jobs_duplicate_total", "Total number of job submissions rejected as duplicates")
	m.resultsStored = m.gauge("results_stored", "Number of projects with a stored result")
	m.resultsAccepted = m.counter("results_published_total", "Total number of results accepted by the store")
	m.resultsStale = m.counter("results_stale_total", "Total number of results discarded as superseded")
	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: m.constLabels,
		Name:    "store_latency_milliseconds",
		Help:    "Result store operation latency in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"backend", "operation"})

	m.queueSize = m.gauge("queue_size", "Current number of queued jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Job queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Queue size divided by capacity")
	m.queueEnqueued = m.counter("queue_enqueue_total", "Total number of enqueued jobs")
	m.queueDequeued = m.counter("queue_dequeue_total", "Total number of dequeued jobs")
	m.queueRejected = m.counter("queue_enqueue_errors_total", "Total number of jobs rejected by a full or closed queue")

	m.workerCount = m.gauge("worker_count", "Configured number of workers")
	m.workerActive = m.gauge("worker_active_count", "Workers currently solving")
	m.workerIdle = m.gauge("worker_idle_count", "Workers waiting for a job")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "Job processing time in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Total number of failed jobs")

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
		Name: "errors_by_component_total",
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.memoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes in use")
	m.goroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

func get() *Manager {
	mu.RLock()
	defer mu.RUnlock()
	if !globalManager.Enabled() {
		return nil
	}
	return globalManager
}

// SetGlobal replaces the manager used by the package-level recorders.
func SetGlobal(m *Manager) error {
	if m == nil {
		return ErrNotInitialized
	}
	mu.Lock()
	globalManager = m
	mu.Unlock()
	return nil
}

// RecordSolve records one completed solve.
func RecordSolve(latencyMs float64, events, unplayable, hard int, score float64) {
	if m := get(); m != nil {
		m.solves.Inc()
		m.solveLatency.Observe(latencyMs)
		m.eventsSolved.Add(float64(events))
		m.eventsUnplay.Add(float64(unplayable))
		m.eventsHard.Add(float64(hard))
		m.scores.Observe(score)
	}
}

// RecordSolveError records a solve rejected before it ran.
func RecordSolveError() {
	if m := get(); m != nil {
		m.solveErrors.Inc()
	}
}

// RecordJobDuplicate records a duplicate job submission.
func RecordJobDuplicate() {
	if m := get(); m != nil {
		m.jobsDuplicate.Inc()
	}
}

// RecordResultPublished records a store publish; stale marks a discarded result.
func RecordResultPublished(accepted bool) {
	if m := get(); m != nil {
		if accepted {
			m.resultsAccepted.Inc()
		} else {
			m.resultsStale.Inc()
		}
	}
}

// UpdateResultsStored sets the number of stored projects.
func UpdateResultsStored(n int) {
	if m := get(); m != nil {
		m.resultsStored.Set(float64(n))
	}
}

// RecordStoreLatency records a store operation duration.
func RecordStoreLatency(backend, operation string, latencyMs float64) {
	if m := get(); m != nil {
		m.storeLatency.WithLabelValues(backend, operation).Observe(latencyMs)
	}
}

// UpdateQueueSize sets the current queue depth.
func UpdateQueueSize(size int) {
	if m := get(); m != nil {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := get(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

// UpdateQueueUtilization sets size/capacity.
func UpdateQueueUtilization(ratio float64) {
	if m := get(); m != nil {
		m.queueUtilization.Set(ratio)
	}
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	if m := get(); m != nil {
		m.queueEnqueued.Inc()
	}
}

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() {
	if m := get(); m != nil {
		m.queueDequeued.Inc()
	}
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() {
	if m := get(); m != nil {
		m.queueRejected.Inc()
	}
}

// UpdateWorkerCount sets the configured number of workers.
func UpdateWorkerCount(count int) {
	if m := get(); m != nil {
		m.workerCount.Set(float64(count))
	}
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	if m := get(); m != nil {
		m.workerActive.Set(float64(count))
	}
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	if m := get(); m != nil {
		m.workerIdle.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency records the time a worker spent on one job.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if m := get(); m != nil {
		m.workerLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() {
	if m := get(); m != nil {
		m.workerErrors.Inc()
	}
}

// RecordHTTPRequest counts a request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := get(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records a request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := get(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent counts an error raised by a component.
func RecordErrorByComponent(component, errorType string) {
	if m := get(); m != nil {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets heap bytes in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := get(); m != nil {
		m.memoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if m := get(); m != nil {
		m.goroutineCount.Set(float64(count))
	}
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
