package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// NoopMetrics discards all metric recordings. Zero value is ready to use.
type NoopMetrics struct{}

func (NoopMetrics) RecordNodeExecution(ctx context.Context, nodeID string, duration time.Duration, err error) {
}

func (NoopMetrics) RecordTurn(ctx context.Context, success bool, duration time.Duration) {}

func (NoopMetrics) RecordCheckpoint(ctx context.Context, nodeID string, sizeBytes int64) {}

// NoopSpanManager produces non-recording spans. Zero value is ready to use.
type NoopSpanManager struct{}

func (NoopSpanManager) StartTurnSpan(ctx context.Context, entryNode, threadID string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) StartNodeSpan(ctx context.Context, nodeID string) (context.Context, trace.Span) {
	return ctx, noop.Span{}
}

func (NoopSpanManager) EndSpanWithError(span trace.Span, err error) {}

func (NoopSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {}
