package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"github.com/torosent/hostprobe/internal/config"
	"github.com/torosent/hostprobe/internal/httpclient"
	"github.com/torosent/hostprobe/internal/metrics"
	"github.com/torosent/hostprobe/internal/probe"
)

// Kind selects a strategy.
type Kind string

const (
	KindSequential Kind = Kind(config.StrategySequential)
	KindParallel   Kind = Kind(config.StrategyParallel)
	KindAsync      Kind = Kind(config.StrategyAsync)
)

// ParseKind resolves a strategy name or alias such as "linear" or "multiprocess".
func ParseKind(value string) (Kind, error) {
	switch k := Kind(config.NormalizeStrategy(value)); k {
	case KindSequential, KindParallel, KindAsync:
		return k, nil
	default:
		return "", fmt.Errorf("unknown strategy %q", value)
	}
}

// Result is the outcome of one run.
type Result struct {
	ID        string
	Strategy  Kind
	Summaries []metrics.HostSummary
	Elapsed   time.Duration
}

// ElapsedSeconds returns the wall-clock duration in seconds.
func (r Result) ElapsedSeconds() float64 {
	return r.Elapsed.Seconds()
}

// Strategy runs count probes against every host.
type Strategy interface {
	Name() string
	Run(ctx context.Context, hosts []string, count int) (Result, error)
}

// New returns the strategy for kind.
func New(kind Kind, opts Options) (Strategy, error) {
	if _, err := httpclient.NewRequestBuilder(opts.Headers); err != nil {
		return nil, &probe.ConfigError{Field: "headers", Reason: err.Error()}
	}
	opts.normalize()
	switch kind {
	case KindSequential:
		return &Sequential{opts: opts}, nil
	case KindParallel:
		return &Parallel{opts: opts}, nil
	case KindAsync:
		return &Async{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", kind)
	}
}

func validateRun(hosts []string, count int) error {
	if len(hosts) == 0 {
		return &probe.ConfigError{Field: "hosts", Reason: "must not be empty"}
	}
	return probe.ValidateCount(count)
}

func newResult(kind Kind) Result {
	return Result{ID: ulid.Make().String(), Strategy: kind}
}

func announce(logger logrus.FieldLogger, res Result, banner string, hosts, count int) logrus.FieldLogger {
	l := logger.WithFields(logrus.Fields{
		"run_id":   res.ID,
		"strategy": string(res.Strategy),
	})
	l.WithFields(logrus.Fields{"hosts": hosts, "count": count}).Info(banner)
	return l
}

func runProbe(ctx context.Context, logger logrus.FieldLogger, p *probe.Prober, host string, count int) (metrics.HostSummary, error) {
	logger.WithField("host", host).Infof("Testing host: %s with %d requests", host, count)
	return p.Probe(ctx, host, count)
}
