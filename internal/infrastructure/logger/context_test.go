package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextIDs(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx, log := WithRequestID(context.Background(), base, "req-9")
	ctx, log = WithVisitorID(ctx, log, "v-9")
	log.Info("x")

	assert.Equal(t, "req-9", GetRequestID(ctx))
	assert.Equal(t, "v-9", GetVisitorID(ctx))
	assert.Same(t, log, FromContext(ctx))

	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-9", fields["request_id"])
	assert.Equal(t, "v-9", fields["visitor_id"])
}

func TestFromContext_Empty(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, FromContext(ctx))
	assert.Equal(t, "", GetRequestID(ctx))
	assert.Equal(t, "", GetTraceID(ctx))
}

func TestWithTraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	assert.Equal(t, traceID.String(), GetTraceID(ctx))
	WithTraceContext(ctx, base).Info("traced")
	WithTraceContext(context.Background(), base).Info("untraced")

	entries := recorded.All()
	assert.Equal(t, traceID.String(), entries[0].ContextMap()["trace_id"])
	_, ok := entries[1].ContextMap()["trace_id"]
	assert.False(t, ok)
}

func TestFromContextOr(t *testing.T) {
	fallback := zap.NewExample()
	assert.Same(t, fallback, FromContextOr(context.Background(), fallback))

	inCtx := zap.NewNop()
	assert.Same(t, inCtx, FromContextOr(WithContext(context.Background(), inCtx), fallback))
}
