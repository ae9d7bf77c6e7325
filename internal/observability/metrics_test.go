package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetricsCollector(t *testing.T) (*MetricsCollector, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	collector := NewMetricsCollectorWithRegistry("test", registry)
	return collector, registry
}

func TestNewMetricsCollectorWithRegistry(t *testing.T) {
	collector, registry := newTestMetricsCollector(t)
	require.NotNil(t, collector)

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, metricFamilies)
}

func TestRecordPipelineRun(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordPipelineRun("success")
	collector.RecordPipelineRun("success")
	collector.RecordPipelineRun("error")

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.PipelineRunsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.PipelineRunsTotal.WithLabelValues("error")))
}

func TestRecordStageDuration(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordStageDuration("Enumerating", 50*time.Millisecond)
	collector.RecordStageDuration("Enumerating", 75*time.Millisecond)

	assert.Equal(t, 1, testutil.CollectAndCount(collector.PipelineStageDuration))
}

func TestRecordPipelineError(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordPipelineError("FilteredOut")
	collector.RecordPipelineError("FilteredOut")
	collector.RecordPipelineError("PolicyDenied")

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.PipelineErrorsTotal.WithLabelValues("FilteredOut")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.PipelineErrorsTotal.WithLabelValues("PolicyDenied")))
}

func TestRecordFilesProcessed(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordFilesProcessed(10)
	collector.RecordFilesProcessed(5)

	assert.Equal(t, float64(15), testutil.ToFloat64(collector.FilesProcessedTotal))
}

func TestRecordFileSkipped(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordFileSkipped("binary")
	collector.RecordFileSkipped("binary")
	collector.RecordFileSkipped("generated")

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.FilesSkippedTotal.WithLabelValues("binary")))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.FilesSkippedTotal.WithLabelValues("generated")))
}

func TestRecordChunksProduced(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordChunksProduced(42)

	assert.Equal(t, float64(42), testutil.ToFloat64(collector.ChunksProducedTotal))
}

func TestRecordBytesAdmitted(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordBytesAdmitted(1024)
	collector.RecordBytesAdmitted(2048)

	assert.Equal(t, float64(3072), testutil.ToFloat64(collector.BytesAdmittedTotal))
}

func TestRecordSecretFindings(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordSecretFindings(3)

	assert.Equal(t, float64(3), testutil.ToFloat64(collector.SecretFindingsTotal))
}

func TestRecordPolicyDenied(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordPolicyDenied()
	collector.RecordPolicyDenied()

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.PolicyDeniedTotal))
}

func TestContentCacheHitMiss(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordContentCacheHit()
	collector.RecordContentCacheHit()
	collector.RecordContentCacheMiss()

	assert.Equal(t, float64(2), testutil.ToFloat64(collector.ContentCacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(collector.ContentCacheMisses))
}

func TestRecordForgeCall(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.RecordForgeCall("github", "setCommitStatus", "success", 100*time.Millisecond)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.ForgeCallsTotal.WithLabelValues("github", "setCommitStatus", "success")))
}

func TestSetSystemStartTime(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	start := time.Now()
	collector.SetSystemStartTime(start)

	assert.Equal(t, float64(start.Unix()), testutil.ToFloat64(collector.SystemStartTime))
}

func TestSetComponentHealth(t *testing.T) {
	collector, _ := newTestMetricsCollector(t)

	collector.SetComponentHealth("pipeline", true)
	collector.SetComponentHealth("forge", false)

	assert.Equal(t, float64(1), testutil.ToFloat64(collector.SystemHealth.WithLabelValues("pipeline")))
	assert.Equal(t, float64(0), testutil.ToFloat64(collector.SystemHealth.WithLabelValues("forge")))
}
