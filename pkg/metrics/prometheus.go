// Package metrics provides Prometheus metrics for the waitcast pipeline.
//
// A batch run has no scrape endpoint: collectors live on a private registry
// that WriteTextfile dumps for a node exporter textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for a pipeline run.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	enabled        bool
	constLabels    map[string]string
	metricPrefix   string
	registry       prometheus.Registerer

	// Ingestion and cleaning
	rowsIngested  prometheus.Counter
	rowsDropped   *prometheus.CounterVec
	valuesImputed *prometheus.CounterVec
	valuesClipped *prometheus.CounterVec
	featureRows   prometheus.Gauge

	// Stage timings
	stageDuration *prometheus.HistogramVec

	// Tuning
	gridPointsEvaluated prometheus.Counter
	gridPointsFailed    prometheus.Counter
	fitLatency          prometheus.Histogram

	// Queue Metrics - grid point dispatch
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker Metrics
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// Evaluation
	evaluation *prometheus.GaugeVec

	errorRateByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "waitcast",
		subsystem:      "pipeline",
		latencyBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		enabled:        true,
		constLabels:    make(map[string]string),
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.constLabels)

	m.rowsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_ingested_total"),
		Help:        "Total number of raw rows read from the input extract",
		ConstLabels: constLabels,
	})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("rows_dropped_total"),
		Help:        "Rows dropped during cleaning by reason",
		ConstLabels: constLabels,
	}, []string{"reason"})

	m.valuesImputed = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("values_imputed_total"),
		Help:        "Missing numeric values filled with the training median",
		ConstLabels: constLabels,
	}, []string{"column"})

	m.valuesClipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("values_clipped_total"),
		Help:        "Numeric values clipped to the percentile band",
		ConstLabels: constLabels,
	}, []string{"column"})

	m.featureRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("feature_rows"),
		Help:        "Rows in the engineered feature matrix",
		ConstLabels: constLabels,
	})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("stage_duration_milliseconds"),
		Help:        "Wall time per pipeline stage in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: constLabels,
	}, []string{"stage"})

	m.gridPointsEvaluated = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("grid_points_evaluated_total"),
		Help:        "Hyperparameter grid points cross-validated",
		ConstLabels: constLabels,
	})

	m.gridPointsFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("grid_points_failed_total"),
		Help:        "Hyperparameter grid points whose fit failed",
		ConstLabels: constLabels,
	})

	m.fitLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("fit_latency_milliseconds"),
		Help:        "Latency of a single regressor fit in milliseconds",
		Buckets:     m.latencyBuckets,
		ConstLabels: constLabels,
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_capacity"),
		Help:        "Maximum capacity of the grid point queue",
		ConstLabels: constLabels,
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_size"),
		Help:        "Grid points waiting for a worker",
		ConstLabels: constLabels,
	})

	m.queueEnqueueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_total"),
		Help:        "Total number of jobs enqueued",
		ConstLabels: constLabels,
	})

	m.queueDequeueRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_dequeue_total"),
		Help:        "Total number of jobs dequeued",
		ConstLabels: constLabels,
	})

	m.queueEnqueueErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("queue_enqueue_errors_total"),
		Help:        "Jobs rejected by the queue",
		ConstLabels: constLabels,
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_active_count"),
		Help:        "Workers currently evaluating a job",
		ConstLabels: constLabels,
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_processing_latency_milliseconds"),
		Help:        "Time a worker spends on one job",
		Buckets:     m.latencyBuckets,
		ConstLabels: constLabels,
	})

	m.workerErrorRate = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("worker_errors_total"),
		Help:        "Jobs that returned an error",
		ConstLabels: constLabels,
	})

	m.evaluation = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("evaluation"),
		Help:        "Held-out evaluation metrics of the last run by model and metric",
		ConstLabels: constLabels,
	}, []string{"model", "metric"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("errors_by_component_total"),
		Help:        "Total number of errors by component",
		ConstLabels: constLabels,
	}, []string{"component", "error_type"})
}

// Ingestion and cleaning.

// RecordRowsIngested adds n raw rows to the ingestion counter.
func RecordRowsIngested(n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.rowsIngested.Add(float64(n))
}

// RecordRowsDropped adds n dropped rows under reason.
func RecordRowsDropped(reason string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordValuesImputed adds n imputed values for column.
func RecordValuesImputed(column string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.valuesImputed.WithLabelValues(column).Add(float64(n))
}

// RecordValuesClipped adds n clipped values for column.
func RecordValuesClipped(column string, n int) {
	if !globalManager.enabled || n <= 0 {
		return
	}
	globalManager.valuesClipped.WithLabelValues(column).Add(float64(n))
}

// UpdateFeatureRows sets the size of the feature matrix.
func UpdateFeatureRows(n int) {
	globalManager.featureRows.Set(float64(n))
}

// RecordStageDuration records how long a pipeline stage took.
func RecordStageDuration(stage string, d time.Duration) {
	globalManager.stageDuration.WithLabelValues(stage).Observe(float64(d) / float64(time.Millisecond))
}

// Tuning.

// RecordGridPointEvaluated increments the evaluated grid points counter.
func RecordGridPointEvaluated() {
	globalManager.gridPointsEvaluated.Inc()
}

// RecordGridPointFailed increments the failed grid points counter.
func RecordGridPointFailed() {
	globalManager.gridPointsFailed.Inc()
}

// RecordFitLatency records the latency of one regressor fit.
func RecordFitLatency(d time.Duration) {
	globalManager.fitLatency.Observe(float64(d) / float64(time.Millisecond))
}

// Queue Metrics Functions.

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker Metrics Functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(d time.Duration) {
	globalManager.workerProcessingLatency.Observe(float64(d) / float64(time.Millisecond))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// Evaluation.

// UpdateEvaluation publishes a held-out metric value for a model.
func UpdateEvaluation(model, metric string, value float64) {
	globalManager.evaluation.WithLabelValues(model, metric).Set(value)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// WriteTextfile writes the registry in the Prometheus text format, for
// batch runs scraped through a textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}
