package telemetry

import (
	"context"
	"testing"
	"time"

	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"AgentKit-Chain/internal/config"
	"AgentKit-Chain/internal/invocation"
)

func newTestMeter() (*metric.ManualReader, *metric.MeterProvider) {
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	return reader, mp
}

func newTestTracer() (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	return exporter, tp
}

func collectMetrics(t *testing.T, reader *metric.ManualReader) *metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, scope := range rm.ScopeMetrics {
		for i := range scope.Metrics {
			if scope.Metrics[i].Name == name {
				return &scope.Metrics[i]
			}
		}
	}
	return nil
}

func TestObserverRecordsMetrics(t *testing.T) {
	reader, mp := newTestMeter()
	observer, err := NewObserver(mp.Meter("test"), nil)
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	ctx := context.Background()
	_ = observer.Record(ctx, invocation.Record{Kind: invocation.KindTool, Name: "solana_request_funds", Status: invocation.StatusSuccess, Duration: 20 * time.Millisecond})
	_ = observer.Record(ctx, invocation.Record{Kind: invocation.KindAction, Name: "GET_PRICE_PREDICTION", Status: invocation.StatusError, ErrorCode: "ENUM_LOOKUP_FAILED"})

	rm := collectMetrics(t, reader)

	invocations := findMetric(rm, "agentkit.invocations")
	if invocations == nil {
		t.Fatal("agentkit.invocations metric not found")
	}
	sum, ok := invocations.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("agentkit.invocations type = %T, want Sum[int64]", invocations.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Fatalf("invocations total = %d, want 2", total)
	}

	errs := findMetric(rm, "agentkit.invocation.errors")
	if errs == nil {
		t.Fatal("agentkit.invocation.errors metric not found")
	}
	if points := errs.Data.(metricdata.Sum[int64]).DataPoints; len(points) != 1 || points[0].Value != 1 {
		t.Fatalf("unexpected error data points %+v", points)
	}

	latency := findMetric(rm, "agentkit.invocation.latency")
	if latency == nil {
		t.Fatal("agentkit.invocation.latency metric not found")
	}
	if _, ok := latency.Data.(metricdata.Histogram[float64]); !ok {
		t.Fatalf("agentkit.invocation.latency type = %T, want Histogram[float64]", latency.Data)
	}
}

func TestObserverEmitsBackdatedSpan(t *testing.T) {
	_, mp := newTestMeter()
	exporter, tp := newTestTracer()
	observer, err := NewObserver(mp.Meter("test"), tp.Tracer("test"))
	if err != nil {
		t.Fatalf("NewObserver() error = %v", err)
	}

	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	_ = observer.Record(context.Background(), invocation.Record{
		ID:        "inv-1",
		Kind:      invocation.KindTool,
		Name:      "flash_close_trade",
		Status:    invocation.StatusError,
		ErrorCode: "VALIDATION_FAILED",
		Duration:  150 * time.Millisecond,
		CreatedAt: started,
	})

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != "agentkit.invoke" {
		t.Fatalf("unexpected span name %s", span.Name)
	}
	if !span.StartTime.Equal(started) || span.EndTime.Sub(span.StartTime) != 150*time.Millisecond {
		t.Fatalf("unexpected span timing %s - %s", span.StartTime, span.EndTime)
	}
	if span.Status.Code != otelcodes.Error || span.Status.Description != "VALIDATION_FAILED" {
		t.Fatalf("unexpected span status %+v", span.Status)
	}
}

func TestSetupWithoutEndpoint(t *testing.T) {
	observer, shutdown, err := Setup(context.Background(), config.TelemetryConfig{ServiceName: "test", SampleRatio: 1})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	if observer == nil {
		t.Fatal("expected observer")
	}
	if err := observer.Record(context.Background(), invocation.Record{Name: "noop", Status: invocation.StatusSuccess}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	var nilObserver *Observer
	if err := nilObserver.Record(context.Background(), invocation.Record{}); err != nil {
		t.Fatalf("nil observer should be a no-op: %v", err)
	}
}
