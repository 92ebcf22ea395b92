package runner

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"

	"github.com/torosent/hostprobe/internal/httpclient"
	"github.com/torosent/hostprobe/internal/logging"
	"github.com/torosent/hostprobe/internal/probe"
)

// MaxWorkers caps the parallel worker pool.
const MaxWorkers = 10

// Options configure every strategy.
type Options struct {
	Timeout   time.Duration      // per-request timeout, identical across strategies
	Headers   map[string]string  // extra request headers
	Propagate bool               // inject W3C trace context into requests
	Logger    logrus.FieldLogger // defaults to a discarding logger
	Tracer    trace.Tracer       // optional
	Observer  probe.Observer     // optional, shared by all probes of a run

	// ClientFactory builds the transport for a worker or session. Optional
	// injection for tests; the default is an httpclient.Session.
	ClientFactory func(timeout time.Duration) probe.Doer
}

func (o *Options) normalize() {
	if o.Timeout <= 0 {
		o.Timeout = probe.DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	if o.ClientFactory == nil {
		o.ClientFactory = func(timeout time.Duration) probe.Doer {
			return httpclient.NewSession(timeout)
		}
	}
}

// newProber builds a prober around client. Header validation happens once in
// New, so the builder error cannot occur here.
func (o Options) newProber(client probe.Doer) *probe.Prober {
	builder, _ := httpclient.NewRequestBuilder(o.Headers)
	builder.WithTracePropagation(o.Propagate)
	return probe.New(probe.Options{
		Client:   client,
		Timeout:  o.Timeout,
		Logger:   o.Logger,
		Tracer:   o.Tracer,
		Builder:  builder,
		Observer: o.Observer,
	})
}

func closeClient(client probe.Doer) {
	if c, ok := client.(io.Closer); ok {
		_ = c.Close()
	}
}
