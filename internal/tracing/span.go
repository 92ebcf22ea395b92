package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// StartProbeSpan starts the span covering one host's full probe.
func StartProbeSpan(ctx context.Context, tracer trace.Tracer, host string, count int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "probe "+host,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("hostprobe.host", host),
		attribute.Int("hostprobe.count", count),
	)
	return ctx, span
}

// StartAttemptSpan starts a client span for a single request of a probe.
func StartAttemptSpan(ctx context.Context, tracer trace.Tracer, host string, attempt int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "GET "+host,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("http.request.method", http.MethodGet),
		attribute.String("url.full", host),
		attribute.Int("hostprobe.attempt", attempt),
	)
	return ctx, span
}

// EndSpan finishes a span, recording error status if applicable.
func EndSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// InjectHTTPHeaders injects W3C trace context into HTTP headers.
func InjectHTTPHeaders(ctx context.Context, headers http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(headers))
}
