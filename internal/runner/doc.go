// Package runner drives host probes under one of three execution strategies.
//
//   - [Sequential] probes hosts one at a time in input order.
//   - [Parallel] hands each host to an isolated worker from a fixed pool of
//     at most [MaxWorkers]; every worker owns its own prober and HTTP client.
//   - [Async] starts one task per host at once; tasks share a single client
//     session that is released when the run ends.
//
// All strategies implement [Strategy] and return a [Result] whose summaries
// follow the order of the input hosts:
//
//	s, err := runner.New(runner.KindParallel, runner.Options{Timeout: 5 * time.Second})
//	if err != nil {
//		return err
//	}
//	res, err := s.Run(ctx, []string{"https://a.example.com", "https://b.example.com"}, 10)
//
// Connection failures of individual requests never abort a run. A run fails
// only on invalid input (a [probe.ConfigError]) or when ctx is cancelled, in
// which case the summaries of hosts that finished are still returned.
package runner
