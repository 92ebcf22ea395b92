package metrics

import (
	"math"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// FaultKind labels attempts that were never made because the worker running
// the probe failed.
const FaultKind = "Worker fault"

// HostSummary is the aggregate over one host's full probe.
type HostSummary struct {
	Host       string         `json:"host" yaml:"host"`
	Successes  uint           `json:"success" yaml:"success"`
	Failures   uint           `json:"failed" yaml:"failed"`
	Errors     uint           `json:"errors" yaml:"errors"`
	MinMs      float64        `json:"min_ms" yaml:"min_ms"`
	MaxMs      float64        `json:"max_ms" yaml:"max_ms"`
	AvgMs      float64        `json:"avg_ms" yaml:"avg_ms"`
	P50Ms      float64        `json:"p50_ms" yaml:"p50_ms"`
	P90Ms      float64        `json:"p90_ms" yaml:"p90_ms"`
	P99Ms      float64        `json:"p99_ms" yaml:"p99_ms"`
	ErrorKinds map[string]int `json:"error_kinds,omitempty" yaml:"error_kinds,omitempty"`
	Incomplete bool           `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
}

// Attempts returns the number of attempts the summary accounts for.
func (s HostSummary) Attempts() uint {
	return s.Successes + s.Failures + s.Errors
}

// Accumulator aggregates the outcomes of one host's probe. It is owned by a
// single probe invocation and is not safe for concurrent use.
type Accumulator struct {
	host       string
	hist       *hdrhistogram.Histogram
	successes  uint
	failures   uint
	errors     uint
	samples    []float64
	errorKinds map[string]int
}

func NewAccumulator(host string) *Accumulator {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Accumulator{
		host:       host,
		hist:       h,
		errorKinds: make(map[string]int),
	}
}

// Record adds one attempt outcome.
func (a *Accumulator) Record(o Outcome) {
	switch o.Status {
	case StatusConnectionError:
		a.errors++
		a.errorKinds[ErrorKind(o.Err)]++
		return
	case StatusSuccess:
		a.successes++
	default:
		a.failures++
	}

	a.samples = append(a.samples, Round3(durationMs(o.Latency)))

	us := o.Latency.Microseconds()
	if us < a.hist.LowestTrackableValue() {
		us = a.hist.LowestTrackableValue()
	}
	if us > a.hist.HighestTrackableValue() {
		us = a.hist.HighestTrackableValue()
	}
	_ = a.hist.RecordValue(us)
}

// Summary computes the host summary from everything recorded so far.
func (a *Accumulator) Summary() HostSummary {
	summary := HostSummary{
		Host:      a.host,
		Successes: a.successes,
		Failures:  a.failures,
		Errors:    a.errors,
	}

	if len(a.samples) > 0 {
		minMs, maxMs, sum := a.samples[0], a.samples[0], 0.0
		for _, v := range a.samples {
			minMs = math.Min(minMs, v)
			maxMs = math.Max(maxMs, v)
			sum += v
		}
		summary.MinMs = Round3(minMs)
		summary.MaxMs = Round3(maxMs)
		summary.AvgMs = Round3(sum / float64(len(a.samples)))
	}

	if a.hist.TotalCount() > 0 {
		summary.P50Ms = Round3(float64(a.hist.ValueAtQuantile(50)) / 1000)
		summary.P90Ms = Round3(float64(a.hist.ValueAtQuantile(90)) / 1000)
		summary.P99Ms = Round3(float64(a.hist.ValueAtQuantile(99)) / 1000)
	}

	if len(a.errorKinds) > 0 {
		summary.ErrorKinds = make(map[string]int, len(a.errorKinds))
		for k, v := range a.errorKinds {
			summary.ErrorKinds[k] = v
		}
	}

	return summary
}

// FaultedSummary reports every attempt of a probe as errored. It is used when
// the probe could not run to completion because its worker failed.
func FaultedSummary(host string, count int) HostSummary {
	if count < 0 {
		count = 0
	}
	return HostSummary{
		Host:       host,
		Errors:     uint(count),
		ErrorKinds: map[string]int{FaultKind: count},
		Incomplete: true,
	}
}

// Round3 rounds v to three decimal places.
func Round3(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*1000) / 1000
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
