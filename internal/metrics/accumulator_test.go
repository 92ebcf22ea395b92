package metrics_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/torosent/hostprobe/internal/metrics"
)

func TestAccumulatorLatencyStats(t *testing.T) {
	acc := metrics.NewAccumulator("http://a.test")

	// Record deterministic latencies.
	for _, ms := range []int{10, 20, 30, 40, 50} {
		acc.Record(metrics.Outcome{Status: metrics.StatusSuccess, Latency: time.Duration(ms) * time.Millisecond, StatusCode: 200})
	}

	s := acc.Summary()

	if s.Host != "http://a.test" {
		t.Errorf("expected host http://a.test, got %q", s.Host)
	}
	if s.Successes != 5 {
		t.Errorf("expected successes 5, got %d", s.Successes)
	}
	if s.Failures != 0 || s.Errors != 0 {
		t.Errorf("expected no failures or errors, got %d/%d", s.Failures, s.Errors)
	}
	if s.MinMs != 10 {
		t.Errorf("expected min 10ms, got %v", s.MinMs)
	}
	if s.MaxMs != 50 {
		t.Errorf("expected max 50ms, got %v", s.MaxMs)
	}
	if s.AvgMs != 30 {
		t.Errorf("expected avg 30ms, got %v", s.AvgMs)
	}
}

func TestAccumulatorFailuresCountLatency(t *testing.T) {
	acc := metrics.NewAccumulator("http://a.test")
	acc.Record(metrics.Outcome{Status: metrics.StatusSuccess, Latency: 4 * time.Millisecond, StatusCode: 204})
	acc.Record(metrics.Outcome{Status: metrics.StatusFailure, Latency: 8 * time.Millisecond, StatusCode: 503})

	s := acc.Summary()
	if s.Successes != 1 || s.Failures != 1 {
		t.Fatalf("expected 1 success and 1 failure, got %d/%d", s.Successes, s.Failures)
	}
	if s.MinMs != 4 || s.MaxMs != 8 || s.AvgMs != 6 {
		t.Errorf("expected min/max/avg 4/8/6, got %v/%v/%v", s.MinMs, s.MaxMs, s.AvgMs)
	}
}

func TestAccumulatorConnectionErrorsHaveNoSample(t *testing.T) {
	acc := metrics.NewAccumulator("http://b.test")
	for i := 0; i < 3; i++ {
		acc.Record(metrics.Outcome{Status: metrics.StatusConnectionError, Err: errors.New("dial failed")})
	}

	s := acc.Summary()
	if s.Errors != 3 {
		t.Fatalf("expected 3 errors, got %d", s.Errors)
	}
	if s.MinMs != 0 || s.MaxMs != 0 || s.AvgMs != 0 {
		t.Errorf("expected zero latency fields, got %v/%v/%v", s.MinMs, s.MaxMs, s.AvgMs)
	}
	if s.P50Ms != 0 || s.P99Ms != 0 {
		t.Errorf("expected zero percentiles, got %v/%v", s.P50Ms, s.P99Ms)
	}
	if s.ErrorKinds["Request error"] != 3 {
		t.Errorf("expected 3 request errors in breakdown, got %v", s.ErrorKinds)
	}
}

func TestAccumulatorRoundsToThreeDecimals(t *testing.T) {
	acc := metrics.NewAccumulator("http://a.test")
	acc.Record(metrics.Outcome{Status: metrics.StatusSuccess, Latency: 1234567 * time.Nanosecond})
	acc.Record(metrics.Outcome{Status: metrics.StatusSuccess, Latency: 2000001 * time.Nanosecond})

	s := acc.Summary()
	if s.MinMs != 1.235 {
		t.Errorf("expected min 1.235, got %v", s.MinMs)
	}
	if s.MaxMs != 2 {
		t.Errorf("expected max 2, got %v", s.MaxMs)
	}
	// (1.235 + 2.0) / 2 = 1.6175 -> 1.618 (or 1.617 with float noise)
	if s.AvgMs < 1.617 || s.AvgMs > 1.618 {
		t.Errorf("expected avg ~1.6175 rounded, got %v", s.AvgMs)
	}
}

func TestPercentilesCalculations(t *testing.T) {
	acc := metrics.NewAccumulator("http://a.test")

	// 100 samples: 1ms, 2ms, ..., 100ms.
	for i := 1; i <= 100; i++ {
		acc.Record(metrics.Outcome{Status: metrics.StatusSuccess, Latency: time.Duration(i) * time.Millisecond})
	}

	s := acc.Summary()

	if s.P50Ms < 49 || s.P50Ms > 51 {
		t.Errorf("expected P50 ~50ms, got %v", s.P50Ms)
	}
	if s.P90Ms < 89 || s.P90Ms > 91 {
		t.Errorf("expected P90 ~90ms, got %v", s.P90Ms)
	}
	if s.P99Ms < 98 || s.P99Ms > 100 {
		t.Errorf("expected P99 ~99ms, got %v", s.P99Ms)
	}
}

func TestSummaryJSONSchema(t *testing.T) {
	acc := metrics.NewAccumulator("http://a.test")
	acc.Record(metrics.Outcome{Status: metrics.StatusSuccess, Latency: 5 * time.Millisecond})

	data, err := json.Marshal(acc.Summary())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"host", "success", "failed", "errors", "min_ms", "max_ms", "avg_ms"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("expected key %q in %s", key, data)
		}
	}
	if _, ok := decoded["error_kinds"]; ok {
		t.Errorf("expected error_kinds to be omitted when empty")
	}
}

func TestFaultedSummary(t *testing.T) {
	s := metrics.FaultedSummary("http://a.test", 4)
	if s.Errors != 4 || s.Successes != 0 || s.Failures != 0 {
		t.Fatalf("expected 4 errors only, got %+v", s)
	}
	if !s.Incomplete {
		t.Errorf("expected faulted summary to be incomplete")
	}
	if s.ErrorKinds[metrics.FaultKind] != 4 {
		t.Errorf("expected fault kind count 4, got %v", s.ErrorKinds)
	}
	if s.Attempts() != 4 {
		t.Errorf("expected 4 attempts, got %d", s.Attempts())
	}
}

func TestTrackerConcurrentObserve(t *testing.T) {
	tr := metrics.NewTracker(300)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		status := metrics.Status(i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.ObserveOutcome("h", metrics.Outcome{Status: status})
			}
		}()
	}
	wg.Wait()

	snap := tr.Snapshot()
	if snap.Completed != 300 || snap.Expected != 300 {
		t.Fatalf("expected 300/300, got %d/%d", snap.Completed, snap.Expected)
	}
	if snap.Successes != 100 || snap.Failures != 100 || snap.Errors != 100 {
		t.Errorf("unexpected split: %+v", snap)
	}
}
