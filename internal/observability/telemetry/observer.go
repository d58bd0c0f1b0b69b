// Package telemetry records invocation signals into OpenTelemetry.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"AgentKit-Chain/internal/invocation"
)

// InstrumentationName identifies the meter and tracer scope.
const InstrumentationName = "AgentKit-Chain/internal/observability/telemetry"

// Observer turns invocation records into metrics and spans.
type Observer struct {
	tracer trace.Tracer

	invocations metric.Int64Counter
	errors      metric.Int64Counter
	latency     metric.Float64Histogram
}

// NewObserver creates an observer bound to the provided meter and tracer.
// A nil tracer disables spans.
func NewObserver(meter metric.Meter, tracer trace.Tracer) (*Observer, error) {
	invocations, err := meter.Int64Counter(
		"agentkit.invocations",
		metric.WithDescription("Number of tool and action invocations"),
	)
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter(
		"agentkit.invocation.errors",
		metric.WithDescription("Number of failed invocations"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		"agentkit.invocation.latency",
		metric.WithDescription("Invocation latency in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &Observer{
		tracer:      tracer,
		invocations: invocations,
		errors:      errs,
		latency:     latency,
	}, nil
}

// Record implements invocation.Recorder. The span is back-dated to the
// invocation start so its duration matches the record.
func (o *Observer) Record(ctx context.Context, rec invocation.Record) error {
	if o == nil {
		return nil
	}

	attrs := []attribute.KeyValue{
		attribute.String("kind", string(rec.Kind)),
		attribute.String("name", rec.Name),
		attribute.Bool("success", rec.Status == invocation.StatusSuccess),
	}
	if rec.ErrorCode != "" {
		attrs = append(attrs, attribute.String("error_code", rec.ErrorCode))
	}

	options := metric.WithAttributes(attrs...)
	o.invocations.Add(ctx, 1, options)
	if rec.Status == invocation.StatusError {
		o.errors.Add(ctx, 1, options)
	}
	o.latency.Record(ctx, rec.Duration.Seconds(), options)

	if o.tracer == nil {
		return nil
	}
	_, span := o.tracer.Start(ctx, "agentkit.invoke",
		trace.WithTimestamp(rec.CreatedAt),
		trace.WithAttributes(append(attrs, attribute.String("invocation_id", rec.ID))...),
	)
	if rec.Status == invocation.StatusError {
		span.SetStatus(codes.Error, rec.ErrorCode)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(rec.CreatedAt.Add(rec.Duration)))
	return nil
}

var _ invocation.Recorder = (*Observer)(nil)
