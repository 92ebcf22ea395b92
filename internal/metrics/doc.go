// Package metrics turns per-request outcomes into per-host summaries.
//
// Every attempt a prober makes produces one [Outcome]. Outcomes for a single
// host are fed into an [Accumulator], which owns them exclusively and yields
// an immutable [HostSummary] once the probe is finished:
//
//	acc := metrics.NewAccumulator("https://example.com")
//	acc.Record(metrics.Outcome{Status: metrics.StatusSuccess, Latency: 12 * time.Millisecond})
//	acc.Record(metrics.Outcome{Status: metrics.StatusConnectionError, Err: err})
//	summary := acc.Summary()
//
// # Classification
//
// [ClassifyStatus] maps an HTTP status code to [StatusSuccess] (200-399) or
// [StatusFailure]. Transport errors are [StatusConnectionError] and carry no
// latency sample. [ErrorKind] groups transport errors into a small set of
// human readable kinds (timeouts, refused connections, DNS and TLS failures).
//
// # Latency
//
// Latency statistics only cover completed attempts. Samples are kept in
// milliseconds rounded to three decimals; min, max and avg are rounded the
// same way. Percentiles come from an HDR histogram. With no samples every
// latency field is zero.
//
// # Live progress
//
// [Tracker] is a run-wide, goroutine safe set of counters that observes
// outcomes as they happen. It exists for progress output only and never
// feeds into summaries.
package metrics
