// Package probe issues the requests for a single host and aggregates their
// outcomes into a metrics.HostSummary.
package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/torosent/hostprobe/internal/httpclient"
	"github.com/torosent/hostprobe/internal/logging"
	"github.com/torosent/hostprobe/internal/metrics"
	"github.com/torosent/hostprobe/internal/tracing"
)

// DefaultTimeout bounds each request when Options.Timeout is unset.
const DefaultTimeout = 10 * time.Second

// Doer sends a request. *http.Client and *httpclient.Session satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives every outcome as it is recorded. Implementations must be
// safe for concurrent use when shared between probes.
type Observer interface {
	ObserveOutcome(host string, o metrics.Outcome)
}

// ConfigError reports an invalid probe request. Nothing is sent when it is returned.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// ValidateCount returns a ConfigError unless count is positive.
func ValidateCount(count int) error {
	if count <= 0 {
		return &ConfigError{Field: "count", Reason: fmt.Sprintf("must be a positive integer, got %d", count)}
	}
	return nil
}

type Options struct {
	Client   Doer
	Timeout  time.Duration
	Logger   logrus.FieldLogger
	Tracer   trace.Tracer
	Builder  *httpclient.RequestBuilder
	Observer Observer
}

// Prober runs the attempts of one host sequentially.
type Prober struct {
	client   Doer
	timeout  time.Duration
	logger   logrus.FieldLogger
	tracer   trace.Tracer
	builder  *httpclient.RequestBuilder
	observer Observer
	now      func() time.Time
}

func New(opts Options) *Prober {
	p := &Prober{
		client:   opts.Client,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		builder:  opts.Builder,
		observer: opts.Observer,
		now:      time.Now,
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.client == nil {
		p.client = httpclient.NewClient(p.timeout)
	}
	if p.logger == nil {
		p.logger = logging.Discard()
	}
	if p.tracer == nil {
		p.tracer = noop.NewTracerProvider().Tracer("hostprobe")
	}
	if p.builder == nil {
		// A nil header map cannot fail validation.
		p.builder, _ = httpclient.NewRequestBuilder(nil)
	}
	return p
}

// Probe sends count GET requests to host, one after another, and returns the
// aggregated summary. Connection errors are counted and logged, never returned.
// If ctx is cancelled the probe stops and returns ctx.Err().
func (p *Prober) Probe(ctx context.Context, host string, count int) (metrics.HostSummary, error) {
	if err := ValidateCount(count); err != nil {
		return metrics.HostSummary{Host: host}, err
	}

	ctx, span := tracing.StartProbeSpan(ctx, p.tracer, host, count)
	acc := metrics.NewAccumulator(host)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			tracing.EndSpan(span, err)
			return acc.Summary(), err
		}
		outcome := p.attempt(ctx, host, i)
		if err := ctx.Err(); err != nil {
			// The parent was cancelled mid-request; the attempt is not a
			// connection error of the host.
			tracing.EndSpan(span, err)
			return acc.Summary(), err
		}
		acc.Record(outcome)
		if p.observer != nil {
			p.observer.ObserveOutcome(host, outcome)
		}
	}

	summary := acc.Summary()
	tracing.EndSpan(span, nil,
		attribute.Int("hostprobe.successes", int(summary.Successes)),
		attribute.Int("hostprobe.failures", int(summary.Failures)),
		attribute.Int("hostprobe.errors", int(summary.Errors)),
	)
	return summary, nil
}

func (p *Prober) attempt(ctx context.Context, host string, n int) metrics.Outcome {
	ctx, span := tracing.StartAttemptSpan(ctx, p.tracer, host, n)
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	outcome := metrics.Outcome{Timestamp: start}

	req, err := p.builder.Build(reqCtx, host)
	if err != nil {
		return p.connectionError(ctx, span, host, outcome, err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return p.connectionError(ctx, span, host, outcome, err)
	}
	_, err = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if err != nil {
		return p.connectionError(ctx, span, host, outcome, err)
	}

	outcome.Latency = p.now().Sub(start)
	outcome.StatusCode = resp.StatusCode
	outcome.Status = metrics.ClassifyStatus(resp.StatusCode)

	var spanErr error
	if outcome.Status == metrics.StatusFailure {
		spanErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	tracing.EndSpan(span, spanErr, attribute.Int("http.response.status_code", resp.StatusCode))

	p.logger.WithFields(logrus.Fields{
		"host":       host,
		"attempt":    n + 1,
		"status":     resp.StatusCode,
		"latency_ms": metrics.Round3(float64(outcome.Latency) / float64(time.Millisecond)),
	}).Debug("probe attempt completed")
	return outcome
}

// connectionError marks o as a transport failure. Nothing is logged when the
// parent context is already done since Probe discards that attempt.
func (p *Prober) connectionError(ctx context.Context, span trace.Span, host string, o metrics.Outcome, err error) metrics.Outcome {
	o.Status = metrics.StatusConnectionError
	o.Err = err
	tracing.EndSpan(span, err)
	if ctx.Err() == nil {
		p.logger.WithFields(logrus.Fields{
			"host": host,
			"kind": metrics.ErrorKind(err),
		}).Warnf("Connection to host %s %v", host, err)
	}
	return o
}
