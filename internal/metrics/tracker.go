package metrics

import (
	"sync/atomic"
)

// Tracker counts outcomes across every host of a run as they happen.
// It is safe for concurrent use.
type Tracker struct {
	expected  int64
	successes atomic.Int64
	failures  atomic.Int64
	errors    atomic.Int64
}

// TrackerSnapshot is a point-in-time copy of a Tracker.
type TrackerSnapshot struct {
	Expected  int64
	Completed int64
	Successes int64
	Failures  int64
	Errors    int64
}

// NewTracker creates a tracker expecting the given number of attempts in total.
func NewTracker(expected int) *Tracker {
	return &Tracker{expected: int64(expected)}
}

// ObserveOutcome records an outcome for host.
func (t *Tracker) ObserveOutcome(_ string, o Outcome) {
	switch o.Status {
	case StatusSuccess:
		t.successes.Add(1)
	case StatusFailure:
		t.failures.Add(1)
	default:
		t.errors.Add(1)
	}
}

func (t *Tracker) Snapshot() TrackerSnapshot {
	s := TrackerSnapshot{
		Expected:  t.expected,
		Successes: t.successes.Load(),
		Failures:  t.failures.Load(),
		Errors:    t.errors.Load(),
	}
	s.Completed = s.Successes + s.Failures + s.Errors
	return s
}
