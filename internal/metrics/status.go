package metrics

import (
	"sort"
	"time"
)

// Status is the classification of a single attempt.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusConnectionError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusConnectionError:
		return "connection_error"
	default:
		return "unknown"
	}
}

// ClassifyStatus maps an HTTP status code to an attempt status.
func ClassifyStatus(code int) Status {
	if code >= 200 && code < 400 {
		return StatusSuccess
	}
	return StatusFailure
}

// Outcome is the result of one attempt against a host.
type Outcome struct {
	Status     Status
	Latency    time.Duration // zero for connection errors
	StatusCode int           // zero for connection errors
	Err        error
	Timestamp  time.Time
}

// ErrorKindCount is one row of an error kind breakdown.
type ErrorKindCount struct {
	Kind  string
	Count int
}

// SortedErrorKinds flattens an error kind map into rows sorted by descending
// count, then by kind for stability.
func SortedErrorKinds(kinds map[string]int) []ErrorKindCount {
	if len(kinds) == 0 {
		return nil
	}
	rows := make([]ErrorKindCount, 0, len(kinds))
	for kind, count := range kinds {
		rows = append(rows, ErrorKindCount{Kind: kind, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Kind < rows[j].Kind
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
