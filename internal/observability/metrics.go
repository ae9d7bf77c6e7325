// Package observability provides Prometheus metrics, OpenTelemetry tracing,
// and structured logging for the indexing pipeline.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector holds the Prometheus metrics the indexing pipeline core
// emits (SPEC_FULL.md §2a, §5): "files processed, bytes admitted, cache hit
// ratio, chunk counts." Registered against an injected *prometheus.Registry
// (never the global registry), so the core can be embedded in a server
// that scrapes /metrics without the core itself starting a listener.
type MetricsCollector struct {
	// Pipeline run metrics
	PipelineRunsTotal     *prometheus.CounterVec
	PipelineStageDuration *prometheus.HistogramVec
	PipelineErrorsTotal   *prometheus.CounterVec

	// Per-run volume metrics
	FilesProcessedTotal   prometheus.Counter
	FilesSkippedTotal     *prometheus.CounterVec
	ChunksProducedTotal   prometheus.Counter
	BytesAdmittedTotal    prometheus.Counter
	SecretFindingsTotal   prometheus.Counter
	PolicyDeniedTotal     prometheus.Counter

	// Content cache metrics
	ContentCacheHits   prometheus.Counter
	ContentCacheMisses prometheus.Counter

	// Forge-client metrics (pull-request workflow, §4.10)
	ForgeCallsTotal    *prometheus.CounterVec
	ForgeCallDuration  *prometheus.HistogramVec

	// System metrics
	SystemStartTime prometheus.Gauge
	SystemHealth    *prometheus.GaugeVec
}

// NewMetricsCollector creates and registers all Prometheus metrics against
// the default registerer.
func NewMetricsCollector(namespace string) *MetricsCollector {
	return NewMetricsCollectorWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates metrics with a specific registry
// (production callers inject their own; tests use a fresh
// prometheus.NewRegistry()).
func NewMetricsCollectorWithRegistry(namespace string, reg prometheus.Registerer) *MetricsCollector {
	if namespace == "" {
		namespace = "repoindexer"
	}

	autoCounterVec := func(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
		return promauto.With(reg).NewCounterVec(opts, labelNames)
	}
	autoHistogramVec := func(opts prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
		return promauto.With(reg).NewHistogramVec(opts, labelNames)
	}
	autoGaugeVec := func(opts prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
		return promauto.With(reg).NewGaugeVec(opts, labelNames)
	}
	autoCounter := func(opts prometheus.CounterOpts) prometheus.Counter {
		return promauto.With(reg).NewCounter(opts)
	}
	autoGauge := func(opts prometheus.GaugeOpts) prometheus.Gauge {
		return promauto.With(reg).NewGauge(opts)
	}

	return &MetricsCollector{
		PipelineRunsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Total number of indexing pipeline runs by status",
			},
			[]string{"status"},
		),
		PipelineStageDuration: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_stage_duration_seconds",
				Help:      "Indexing pipeline stage duration in seconds",
				Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"stage"},
		),
		PipelineErrorsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_errors_total",
				Help:      "Total number of indexing pipeline errors by semantic kind (pipelineerr.Kind)",
			},
			[]string{"kind"},
		),

		FilesProcessedTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_processed_total",
				Help:      "Total number of files successfully processed into chunks",
			},
		),
		FilesSkippedTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "files_skipped_total",
				Help:      "Total number of files skipped by reason (binary, generated, large, policy-denied)",
			},
			[]string{"reason"},
		),
		ChunksProducedTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "chunks_produced_total",
				Help:      "Total number of chunks produced",
			},
		),
		BytesAdmittedTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_admitted_total",
				Help:      "Total bytes admitted through the byte-budget semaphore",
			},
		),
		SecretFindingsTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "secret_findings_total",
				Help:      "Total number of secret-scanner findings",
			},
		),
		PolicyDeniedTotal: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_denied_total",
				Help:      "Total number of files omitted by license-policy denial",
			},
		),

		ContentCacheHits: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "content_cache_hits_total",
				Help:      "Total number of per-content-hash cache hits",
			},
		),
		ContentCacheMisses: autoCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "content_cache_misses_total",
				Help:      "Total number of per-content-hash cache misses",
			},
		),

		ForgeCallsTotal: autoCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "forge_calls_total",
				Help:      "Total number of forge-client calls by kind, operation, and status",
			},
			[]string{"kind", "operation", "status"},
		),
		ForgeCallDuration: autoHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "forge_call_duration_seconds",
				Help:      "Forge-client call duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"kind", "operation"},
		),

		SystemStartTime: autoGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_start_time_seconds",
				Help:      "Unix timestamp when the system started",
			},
		),
		SystemHealth: autoGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "system_health_status",
				Help:      "System health status (1 = healthy, 0 = unhealthy)",
			},
			[]string{"component"},
		),
	}
}

// RecordPipelineRun records the outcome of one Pipeline.Run invocation.
func (m *MetricsCollector) RecordPipelineRun(status string) {
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
}

// RecordStageDuration records one pipeline stage's duration.
func (m *MetricsCollector) RecordStageDuration(stage string, duration time.Duration) {
	m.PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordPipelineError records a pipeline error by its pipelineerr.Kind.
func (m *MetricsCollector) RecordPipelineError(kind string) {
	m.PipelineErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordFilesProcessed increments the processed-files counter.
func (m *MetricsCollector) RecordFilesProcessed(count int) {
	m.FilesProcessedTotal.Add(float64(count))
}

// RecordFileSkipped records one file skipped for reason.
func (m *MetricsCollector) RecordFileSkipped(reason string) {
	m.FilesSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordChunksProduced increments the produced-chunks counter.
func (m *MetricsCollector) RecordChunksProduced(count int) {
	m.ChunksProducedTotal.Add(float64(count))
}

// RecordBytesAdmitted increments the byte-budget admission counter.
func (m *MetricsCollector) RecordBytesAdmitted(n int64) {
	m.BytesAdmittedTotal.Add(float64(n))
}

// RecordSecretFindings increments the secret-findings counter.
func (m *MetricsCollector) RecordSecretFindings(count int) {
	m.SecretFindingsTotal.Add(float64(count))
}

// RecordPolicyDenied increments the policy-denied counter.
func (m *MetricsCollector) RecordPolicyDenied() {
	m.PolicyDeniedTotal.Inc()
}

// RecordContentCacheHit records a content-cache hit.
func (m *MetricsCollector) RecordContentCacheHit() {
	m.ContentCacheHits.Inc()
}

// RecordContentCacheMiss records a content-cache miss.
func (m *MetricsCollector) RecordContentCacheMiss() {
	m.ContentCacheMisses.Inc()
}

// RecordForgeCall records one forge-client call's outcome and duration.
func (m *MetricsCollector) RecordForgeCall(kind, operation, status string, duration time.Duration) {
	m.ForgeCallsTotal.WithLabelValues(kind, operation, status).Inc()
	m.ForgeCallDuration.WithLabelValues(kind, operation).Observe(duration.Seconds())
}

// SetSystemStartTime sets the system start time.
func (m *MetricsCollector) SetSystemStartTime(startTime time.Time) {
	m.SystemStartTime.Set(float64(startTime.Unix()))
}

// SetComponentHealth sets the health status of a component.
func (m *MetricsCollector) SetComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.SystemHealth.WithLabelValues(component).Set(value)
}
