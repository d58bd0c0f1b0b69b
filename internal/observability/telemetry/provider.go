package telemetry

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"AgentKit-Chain/internal/config"
	xerrors "AgentKit-Chain/internal/errors"
)

// ShutdownFunc flushes and stops exporters.
type ShutdownFunc func(context.Context) error

// Setup builds the tracer provider. Without an OTLP endpoint spans are
// dropped by a no-op provider. The meter comes from the global provider.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (*Observer, ShutdownFunc, error) {
	var (
		provider trace.TracerProvider = noop.NewTracerProvider()
		shutdown ShutdownFunc         = func(context.Context) error { return nil }
	)

	if endpoint := strings.TrimSpace(cfg.OTLPEndpoint); endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "create otlp exporter")
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
			sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
		)
		otel.SetTracerProvider(tp)
		provider = tp
		shutdown = tp.Shutdown
	}

	observer, err := NewObserver(otel.Meter(InstrumentationName), provider.Tracer(InstrumentationName))
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, xerrors.Wrap(xerrors.CodeInitializationFailure, err, "create telemetry observer")
	}
	return observer, shutdown, nil
}
