package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(level zapcore.Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &ZapLogger{logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))}, logs
}

func TestLevelsAndFields(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)

	l.Debug("PIPELINE", "hidden", nil)
	l.Info("PIPELINE", "Query answered", map[string]interface{}{"state": "DONE"})
	l.Error("PIPELINE", "Pipeline produced no answer", map[string]interface{}{"error": "boom"})

	entries := logs.All()
	require.Len(t, entries, 2)

	info := entries[0].ContextMap()
	assert.Equal(t, "PIPELINE", info["module"])
	assert.Equal(t, map[string]interface{}{"state": "DONE"}, info["details"])
	assert.NotContains(t, info, "error_ref")
	assert.Contains(t, entries[0].Caller.File, "zap_logger_test.go")

	assert.Equal(t, "boom", entries[1].ContextMap()["error_ref"])
}

func TestTraced(t *testing.T) {
	l, logs := observed(zapcore.InfoLevel)

	assert.Same(t, l, Traced(l, context.Background()))

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1, 2, 3},
		SpanID:     trace.SpanID{4, 5, 6},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	Traced(l, ctx).Info("RETRIEVAL", "searched", nil)
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, sc.TraceID().String(), fields["trace_id"])
	assert.Equal(t, sc.SpanID().String(), fields["span_id"])
}
