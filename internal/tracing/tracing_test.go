package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/hostprobe/internal/config"
)

func recordingTracer(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp.Tracer("test")
}

func TestProviderWithoutEndpointTracesNothing(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	propagate := true

	for _, p := range []*Provider{nil, mustInit(t, config.TracingConfig{Propagate: &propagate})} {
		if p.ShouldPropagate() {
			t.Error("ShouldPropagate() = true without an endpoint")
		}
		_, span := p.Tracer().Start(context.Background(), "probe")
		span.End()
		if span.SpanContext().IsValid() {
			t.Error("expected a no-op tracer")
		}
		if err := p.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	}
}

func TestInitPropagation(t *testing.T) {
	off := false
	tests := []struct {
		name string
		env  string
		cfg  config.TracingConfig
		want bool
	}{
		{"endpoint flag", "", config.TracingConfig{Endpoint: "localhost:4317", Insecure: true}, true},
		{"endpoint from env", "localhost:4318", config.TracingConfig{Protocol: "http", Insecure: true}, true},
		{"explicitly off", "", config.TracingConfig{Endpoint: "localhost:4317", Insecure: true, Propagate: &off}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", tt.env)
			p := mustInit(t, tt.cfg)
			if got := p.ShouldPropagate(); got != tt.want {
				t.Errorf("ShouldPropagate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInitRejectsBadSettings(t *testing.T) {
	tests := map[string]config.TracingConfig{
		"protocol":      {Endpoint: "localhost:4317", Protocol: "thrift"},
		"negative rate": {Endpoint: "localhost:4317", SampleRate: -0.5},
		"rate above 1":  {Endpoint: "localhost:4317", SampleRate: 1.5},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Init(context.Background(), cfg); err == nil {
				t.Fatal("Init() error = nil")
			}
		})
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{-1, "AlwaysOffSampler"},
		{0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
		{1, "AlwaysOnSampler"},
		{3, "AlwaysOnSampler"},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%g) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestServiceNameFor(t *testing.T) {
	tests := []struct {
		name string
		env  string
		cfg  config.TracingConfig
		want string
	}{
		{"default", "", config.TracingConfig{}, "hostprobe"},
		{"env", "edge-prober", config.TracingConfig{}, "edge-prober"},
		{"configured wins", "edge-prober", config.TracingConfig{ServiceName: " uptime "}, "uptime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_SERVICE_NAME", tt.env)
			if got := serviceNameFor(tt.cfg); got != tt.want {
				t.Errorf("serviceNameFor() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProbeAndAttemptSpans(t *testing.T) {
	exporter, tracer := recordingTracer(t)

	ctx, probeSpan := StartProbeSpan(context.Background(), tracer, "http://a.test", 3)
	_, attemptSpan := StartAttemptSpan(ctx, tracer, "http://a.test", 1)
	EndSpan(attemptSpan, errors.New("connection refused"))
	EndSpan(probeSpan, nil, attribute.Int("hostprobe.errors", 1))

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	attempt, probe := spans[0], spans[1]
	if attempt.Name != "GET http://a.test" || probe.Name != "probe http://a.test" {
		t.Errorf("span names = %q, %q", attempt.Name, probe.Name)
	}
	if attempt.Parent.SpanID() != probe.SpanContext.SpanID() {
		t.Error("attempt span is not a child of the probe span")
	}
	if attempt.SpanKind != trace.SpanKindClient {
		t.Errorf("attempt span kind = %v, want client", attempt.SpanKind)
	}
	if attempt.Status.Code != codes.Error || probe.Status.Code != codes.Ok {
		t.Errorf("statuses = %v, %v", attempt.Status.Code, probe.Status.Code)
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range append(attempt.Attributes, probe.Attributes...) {
		attrs[kv.Key] = kv.Value
	}
	if attrs["hostprobe.attempt"].AsInt64() != 1 {
		t.Errorf("hostprobe.attempt = %v", attrs["hostprobe.attempt"])
	}
	if attrs["hostprobe.count"].AsInt64() != 3 || attrs["hostprobe.errors"].AsInt64() != 1 {
		t.Errorf("probe attributes = %v", probe.Attributes)
	}
}

func TestInjectHTTPHeaders(t *testing.T) {
	_, tracer := recordingTracer(t)

	empty := http.Header{}
	InjectHTTPHeaders(context.Background(), empty)
	if got := empty.Get("Traceparent"); got != "" {
		t.Errorf("traceparent without a span = %q", got)
	}

	ctx, span := tracer.Start(context.Background(), "probe")
	defer span.End()
	headers := http.Header{}
	InjectHTTPHeaders(ctx, headers)
	want := "00-" + span.SpanContext().TraceID().String() + "-" + span.SpanContext().SpanID().String() + "-01"
	if got := headers.Get("Traceparent"); got != want {
		t.Errorf("traceparent = %q, want %q", got, want)
	}
}

func mustInit(t *testing.T, cfg config.TracingConfig) *Provider {
	t.Helper()
	p, err := Init(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	return p
}
