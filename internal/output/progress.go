package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/hostprobe/internal/metrics"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	tracker  *metrics.Tracker
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
	start    time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(tracker *metrics.Tracker, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		tracker:  tracker,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
		start:    time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and prints a final line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer, progressLine(p.tracker.Snapshot(), time.Since(p.start)))
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, progressLine(p.tracker.Snapshot(), time.Since(p.start)))
		case <-p.done:
			return
		}
	}
}

func progressLine(s metrics.TrackerSnapshot, elapsed time.Duration) string {
	pct := 0.0
	if s.Expected > 0 {
		pct = float64(s.Completed) / float64(s.Expected) * 100
	}
	return fmt.Sprintf("\rRequests: %d/%d (%.0f%%) | Successes: %d | Failed: %d | Errors: %d | Elapsed: %.1fs",
		s.Completed, s.Expected, pct, s.Successes, s.Failures, s.Errors, elapsed.Seconds())
}
