package runner

import (
	"context"
	"time"

	"github.com/torosent/hostprobe/internal/metrics"
)

// Sequential probes one host at a time in input order.
type Sequential struct {
	opts Options
}

func (s *Sequential) Name() string { return string(KindSequential) }

func (s *Sequential) Run(ctx context.Context, hosts []string, count int) (Result, error) {
	if err := validateRun(hosts, count); err != nil {
		return Result{}, err
	}
	res := newResult(KindSequential)
	logger := announce(s.opts.Logger, res, "linear version", len(hosts), count)

	client := s.opts.ClientFactory(s.opts.Timeout)
	defer closeClient(client)
	prober := s.opts.newProber(client)

	res.Summaries = make([]metrics.HostSummary, 0, len(hosts))
	start := time.Now()
	for _, host := range hosts {
		summary, err := runProbe(ctx, logger, prober, host, count)
		if err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}
		res.Summaries = append(res.Summaries, summary)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
