package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: "debug", Format: "json", Output: &buf})
	return logger, &buf
}

func TestHandleErrorNilLogsSuccess(t *testing.T) {
	logger, buf := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	eh.HandleError(context.Background(), nil, ErrorContext{Method: "Index"})
	assert.Contains(t, buf.String(), "completed successfully")
}

func TestHandleErrorLogsErrorAndRecordsMetric(t *testing.T) {
	logger, buf := testLogger()
	registry := prometheus.NewRegistry()
	metrics := NewMetricsCollectorWithRegistry("test_errh", registry)
	eh := NewErrorHandler(logger, metrics, false)

	eh.HandleError(context.Background(), errors.New("boom"), ErrorContext{Method: "Index", ErrorType: "validation_error"})
	assert.Contains(t, buf.String(), "Error occurred")
	assert.Contains(t, buf.String(), "boom")
}

func TestHandleErrorWithoutMetricsDoesNotPanic(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)
	assert.NotPanics(t, func() {
		eh.HandleError(context.Background(), errors.New("boom"), ErrorContext{ErrorType: "timeout_error"})
	})
}

func TestCreateErrorResponseUserErrorOmitsDebug(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	resp := eh.CreateErrorResponse(errors.New("bad input"), ErrorContext{ErrorCode: -32600, Method: "Index"})
	errField := resp["error"].(map[string]interface{})
	assert.Equal(t, "bad input", errField["message"])
	_, hasDebug := resp["debug"]
	assert.False(t, hasDebug)
}

func TestCreateErrorResponseInternalErrorIncludesDebugAndSuggestions(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	resp := eh.CreateErrorResponse(errors.New("disk full"), ErrorContext{ErrorCode: 500, ErrorType: "timeout_error"})
	debug, ok := resp["debug"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, debug, "trace_id")
	assert.NotEmpty(t, resp["suggestions"])
}

func TestCreateErrorResponseIncludesUserAndToolContext(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	resp := eh.CreateErrorResponse(errors.New("x"), ErrorContext{
		ErrorCode: 500, UserID: "u1", ToolName: "index", ToolVersion: "v1",
	})
	ctx := resp["context"].(map[string]interface{})
	assert.Equal(t, "u1", ctx["user_id"])
	tool := ctx["tool"].(map[string]interface{})
	assert.Equal(t, "index", tool["name"])
}

func TestSanitizeErrorMessageTruncatesLongMessages(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	long := strings.Repeat("a", 200)
	sanitized := eh.sanitizeErrorMessage(long)
	assert.True(t, strings.HasSuffix(sanitized, "..."))
	assert.Less(t, len(sanitized), len(long))
}

func TestSanitizeErrorMessageLeavesShortMessagesUnchanged(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	short := "file not found"
	assert.Equal(t, short, eh.sanitizeErrorMessage(short))
}

func TestGetErrorSuggestionsKnownType(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	suggestions := eh.getErrorSuggestions("rate_limit_error")
	assert.Contains(t, suggestions, "Wait a moment before retrying")
}

func TestGetErrorSuggestionsUnknownTypeReturnsDefault(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	suggestions := eh.getErrorSuggestions("something_unrecognized")
	assert.Contains(t, suggestions, "Please try again")
}

func TestCreateHealthCheckReflectsComponentState(t *testing.T) {
	logger, _ := testLogger()
	registry := prometheus.NewRegistry()
	metrics := NewMetricsCollectorWithRegistry("test_health", registry)
	eh := NewErrorHandler(logger, metrics, true)

	health := eh.CreateHealthCheck(context.Background(), "v1.2.3")
	assert.Equal(t, "v1.2.3", health.Version)
	sentryComp := health.Components["sentry"].(map[string]interface{})
	assert.Equal(t, "enabled", sentryComp["status"])
	metricsComp := health.Components["metrics"].(map[string]interface{})
	assert.Equal(t, "enabled", metricsComp["status"])
}

func TestCreateHealthCheckDegradedWhenComponentsDisabled(t *testing.T) {
	logger, _ := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	health := eh.CreateHealthCheck(context.Background(), "v1.0.0")
	assert.Equal(t, "degraded", health.Status)
}

func TestExtractErrorContextPullsContextValues(t *testing.T) {
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, "user-1")

	errorCtx := ExtractErrorContext(ctx, "Index")
	assert.Equal(t, "Index", errorCtx.Method)
	assert.Equal(t, "req-1", errorCtx.RequestID)
	assert.Equal(t, "user-1", errorCtx.UserID)
}

func TestWithRequestContextSetsRequestID(t *testing.T) {
	ctx := WithRequestContext(context.Background(), "req-42")
	assert.Equal(t, "req-42", ctx.Value(RequestIDKey))
}

func TestWithTraceContextSetsTraceID(t *testing.T) {
	ctx := WithTraceContext(context.Background(), "trace-42")
	assert.Equal(t, "trace-42", ctx.Value(TraceIDKey))
}

func TestWithUserContextSetsUserID(t *testing.T) {
	ctx := WithUserContext(context.Background(), "user-1", "user@example.com", "sess-1")
	assert.Equal(t, "user-1", ctx.Value(UserIDKey))
}

func TestGracefulDegradationLogsWarningWithoutPanicking(t *testing.T) {
	logger, buf := testLogger()
	eh := NewErrorHandler(logger, nil, false)

	assert.NotPanics(t, func() {
		eh.GracefulDegradation(context.Background(), "metrics-flush", errors.New("unreachable"))
	})
	assert.Contains(t, buf.String(), "Monitoring operation failed")
}
