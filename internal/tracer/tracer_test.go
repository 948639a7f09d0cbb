package tracer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestNoopTracer(t *testing.T) {
	tracer := &NoopTracer{}
	ctx := context.Background()

	// Should not panic
	_, span := tracer.StartSpan(ctx, "test.operation")
	assert.NotNil(t, span)

	span.SetAttributes(attribute.String("key", "value"))
	span.RecordError(errors.New("test error"))
	span.SetStatus(codes.Error, "error")
	span.End()
}

func TestNoopSpan(t *testing.T) {
	span := &NoopSpan{}

	// Should not panic
	span.SetAttributes(
		attribute.String("string", "value"),
		attribute.Int("int", 42),
		attribute.Bool("bool", true),
	)
	span.RecordError(errors.New("test error"))
	span.SetStatus(codes.Error, "error")
	span.End()
}

func newRecordingTracer() (*OtelTracer, *tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	return NewOtelTracer(otel.Tracer("test")), exporter, tp
}

func spanAttributes(spans tracetest.SpanStubs) map[string]interface{} {
	attrMap := make(map[string]interface{})
	for _, attr := range spans[0].Attributes {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}
	return attrMap
}

func TestOtelTracer(t *testing.T) {
	tracer, exporter, tp := newRecordingTracer()

	ctx := context.Background()
	ctx, span := tracer.StartSpan(ctx, "sqladvisor.analyze")
	assert.NotNil(t, span)

	span.SetAttributes(attribute.String("key", "value"))
	span.End()

	_ = tp.ForceFlush(ctx)

	spans := exporter.GetSpans()
	assert.Len(t, spans, 1)
	assert.Equal(t, "sqladvisor.analyze", spans[0].Name)
	assert.Equal(t, "value", spans[0].Attributes[0].Value.AsString())
}

func TestOtelSpan_RecordError(t *testing.T) {
	tracer, exporter, tp := newRecordingTracer()

	ctx := context.Background()
	ctx, span := tracer.StartSpan(ctx, "analyze.error")

	testErr := errors.New("connection unavailable")
	span.RecordError(testErr)
	span.SetStatus(codes.Error, testErr.Error())
	span.End()

	_ = tp.ForceFlush(ctx)

	spans := exporter.GetSpans()
	assert.Len(t, spans, 1)
	assert.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestAddAnalysisAttributes_Success(t *testing.T) {
	tracer, exporter, tp := newRecordingTracer()

	ctx := context.Background()
	ctx, span := tracer.StartSpan(ctx, "sqladvisor.analyze")

	meta := &AnalysisMetadata{
		AnalysisID:      "f8a2c7d0-1111-2222-3333-444455556666",
		SQL:             "SELECT * FROM emp WHERE dept_id = :1",
		Database:        "postgres",
		Tables:          1,
		Recommendations: 2,
		Duration:        15 * time.Millisecond,
	}

	AddAnalysisAttributes(span, meta)
	span.End()

	_ = tp.ForceFlush(ctx)

	spans := exporter.GetSpans()
	assert.Len(t, spans, 1)

	attrMap := spanAttributes(spans)
	assert.Equal(t, "postgres", attrMap["db.system"])
	assert.Equal(t, "SELECT * FROM emp WHERE dept_id = :1", attrMap["db.statement"])
	assert.Equal(t, "f8a2c7d0-1111-2222-3333-444455556666", attrMap["analysis.id"])
	assert.Equal(t, int64(1), attrMap["analysis.tables"])
	assert.Equal(t, int64(2), attrMap["analysis.recommendations"])
	assert.InDelta(t, 15.0, attrMap["analysis.duration_ms"], 0.1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

func TestAddAnalysisAttributes_WithError(t *testing.T) {
	tracer, exporter, tp := newRecordingTracer()

	ctx := context.Background()
	ctx, span := tracer.StartSpan(ctx, "sqladvisor.analyze")

	testErr := errors.New("table not found")
	meta := &AnalysisMetadata{
		AnalysisID: "deadbeef",
		SQL:        "SELECT * FROM missing WHERE id = 1",
		Database:   "postgres",
		Duration:   5 * time.Millisecond,
		Error:      testErr,
	}

	AddAnalysisAttributes(span, meta)
	span.End()

	_ = tp.ForceFlush(ctx)

	spans := exporter.GetSpans()
	assert.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "table not found", spans[0].Status.Description)
	assert.Len(t, spans[0].Events, 1) // Error event
}

func BenchmarkNoopTracer(b *testing.B) {
	tracer := &NoopTracer{}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, span := tracer.StartSpan(ctx, "test.operation")
		span.SetAttributes(attribute.String("key", "value"))
		span.End()
	}
}

func BenchmarkAddAnalysisAttributes(b *testing.B) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	tracer := NewOtelTracer(otel.Tracer("benchmark"))
	ctx := context.Background()

	meta := &AnalysisMetadata{
		AnalysisID:      "bench",
		SQL:             "SELECT * FROM emp WHERE dept_id = :1",
		Database:        "postgres",
		Tables:          1,
		Recommendations: 1,
		Duration:        15 * time.Millisecond,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, span := tracer.StartSpan(ctx, "sqladvisor.analyze")
		AddAnalysisAttributes(span, meta)
		span.End()
	}
}
