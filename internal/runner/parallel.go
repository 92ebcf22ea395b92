package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Jeffail/tunny"
	"github.com/sirupsen/logrus"

	"github.com/torosent/hostprobe/internal/metrics"
	"github.com/torosent/hostprobe/internal/probe"
)

// Parallel hands each host to an isolated worker. Workers never share a
// prober or an HTTP client.
type Parallel struct {
	opts Options
}

func (p *Parallel) Name() string { return string(KindParallel) }

type hostJob struct {
	ctx   context.Context
	index int
	host  string
	count int
}

type hostResult struct {
	index   int
	summary metrics.HostSummary
	err     error
}

// probeWorker implements tunny.Worker.
type probeWorker struct {
	client probe.Doer
	prober *probe.Prober
	logger logrus.FieldLogger
}

func (w *probeWorker) Process(payload interface{}) interface{} {
	job, ok := payload.(hostJob)
	if !ok {
		return hostResult{err: fmt.Errorf("unexpected payload %T", payload)}
	}
	return w.run(job)
}

// run recovers a panic from the probe and reports the host as fully errored
// so that sibling workers keep going.
func (w *probeWorker) run(job hostJob) (out hostResult) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.WithField("host", job.host).Errorf("worker fault while probing %s: %v", job.host, r)
			out = hostResult{index: job.index, summary: metrics.FaultedSummary(job.host, job.count)}
		}
	}()
	summary, err := runProbe(job.ctx, w.logger, w.prober, job.host, job.count)
	return hostResult{index: job.index, summary: summary, err: err}
}

func (w *probeWorker) BlockUntilReady() {}
func (w *probeWorker) Interrupt()       {}
func (w *probeWorker) Terminate()       { closeClient(w.client) }

func (p *Parallel) Run(ctx context.Context, hosts []string, count int) (Result, error) {
	if err := validateRun(hosts, count); err != nil {
		return Result{}, err
	}
	res := newResult(KindParallel)
	logger := announce(p.opts.Logger, res, "parallel version", len(hosts), count)

	pool := tunny.New(min(MaxWorkers, len(hosts)), func() tunny.Worker {
		client := p.opts.ClientFactory(p.opts.Timeout)
		return &probeWorker{client: client, prober: p.opts.newProber(client), logger: logger}
	})

	start := time.Now()
	results := make(chan hostResult, len(hosts))
	var wg sync.WaitGroup
	for i, host := range hosts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- pool.Process(hostJob{ctx: ctx, index: i, host: host, count: count}).(hostResult)
		}()
	}
	wg.Wait()
	close(results)
	pool.Close()
	res.Elapsed = time.Since(start)

	collected := make([]hostResult, 0, len(hosts))
	for r := range results {
		collected = append(collected, r)
	}
	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })

	var runErr error
	res.Summaries = make([]metrics.HostSummary, 0, len(collected))
	for _, r := range collected {
		if r.err != nil {
			if runErr == nil {
				runErr = r.err
			}
			continue
		}
		res.Summaries = append(res.Summaries, r.summary)
	}
	return res, runErr
}
