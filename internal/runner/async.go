package runner

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/torosent/hostprobe/internal/metrics"
)

// Async starts every host's probe at once. All probes share one client
// session, released when Run returns.
type Async struct {
	opts Options
}

func (a *Async) Name() string { return string(KindAsync) }

func (a *Async) Run(ctx context.Context, hosts []string, count int) (Result, error) {
	if err := validateRun(hosts, count); err != nil {
		return Result{}, err
	}
	res := newResult(KindAsync)
	logger := announce(a.opts.Logger, res, "async version", len(hosts), count)

	session := a.opts.ClientFactory(a.opts.Timeout)
	defer closeClient(session)
	prober := a.opts.newProber(session)

	summaries := make([]metrics.HostSummary, len(hosts))
	finished := make([]bool, len(hosts))

	start := time.Now()
	var g errgroup.Group
	for i, host := range hosts {
		g.Go(func() error {
			summary, err := runProbe(ctx, logger, prober, host, count)
			if err != nil {
				return err
			}
			summaries[i] = summary
			finished[i] = true
			return nil
		})
	}
	err := g.Wait()
	res.Elapsed = time.Since(start)

	res.Summaries = make([]metrics.HostSummary, 0, len(hosts))
	for i, ok := range finished {
		if ok {
			res.Summaries = append(res.Summaries, summaries[i])
		}
	}
	return res, err
}
