// Package threshold evaluates pass/fail assertions against each host summary.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/hostprobe/internal/metrics"
)

// Threshold is one assertion such as "latency:avg < 200".
type Threshold struct {
	Metric    string  // latency, success, failed, errors
	Aggregate string  // p50, p90, p99, avg, min, max, count, rate
	Operator  string  // <, <=, >, >=, ==
	Value     float64 // the threshold value to compare against
	Raw       string  // original threshold string for display
}

// Result is the outcome of one threshold against one host.
type Result struct {
	Host      string
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// The metric prefix is optional and defaults to latency.
var thresholdPattern = regexp.MustCompile(`^(?:([a-z_]+):)?([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks every threshold against every host, host by host.
func (e *Evaluator) Evaluate(summaries []metrics.HostSummary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds)*len(summaries))
	for _, s := range summaries {
		for _, t := range e.thresholds {
			results = append(results, evaluateOne(t, s))
		}
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, s metrics.HostSummary) Result {
	actual, err := extractMetricValue(t, s)
	if err != nil {
		return Result{
			Host:      s.Host,
			Threshold: t,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Host:      s.Host,
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s %s: %.3f %s %g", status, s.Host, t.Raw, actual, t.Operator, t.Value),
	}
}

func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: [metric:]aggregate operator value, e.g., 'latency:avg < 500')", s)
	}

	metric := matches[1]
	if metric == "" {
		metric = "latency"
	}
	aggregate := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: latency, success, failed, errors)", metric)
	}

	if !isValidAggregate(metric, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s", aggregate, metric)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errs []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errs, "; "))
	}

	return result, nil
}

func isValidMetric(metric string) bool {
	switch metric {
	case "latency", "success", "failed", "errors":
		return true
	}
	return false
}

func isValidAggregate(metric, aggregate string) bool {
	if metric == "latency" {
		switch aggregate {
		case "p50", "p90", "p99", "avg", "min", "max":
			return true
		}
		return false
	}
	return aggregate == "count" || aggregate == "rate"
}

func isValidOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}

func extractMetricValue(t Threshold, s metrics.HostSummary) (float64, error) {
	switch t.Metric {
	case "latency":
		return extractLatencyMetric(t.Aggregate, s)
	case "success":
		return countOrRate(t.Aggregate, s.Successes, s.Attempts())
	case "failed":
		return countOrRate(t.Aggregate, s.Failures, s.Attempts())
	case "errors":
		return countOrRate(t.Aggregate, s.Errors, s.Attempts())
	default:
		return 0, fmt.Errorf("unknown metric: %s", t.Metric)
	}
}

func extractLatencyMetric(aggregate string, s metrics.HostSummary) (float64, error) {
	switch aggregate {
	case "p50":
		return s.P50Ms, nil
	case "p90":
		return s.P90Ms, nil
	case "p99":
		return s.P99Ms, nil
	case "avg":
		return s.AvgMs, nil
	case "min":
		return s.MinMs, nil
	case "max":
		return s.MaxMs, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for latency", aggregate)
	}
}

func countOrRate(aggregate string, n, total uint) (float64, error) {
	switch aggregate {
	case "count":
		return float64(n), nil
	case "rate":
		if total == 0 {
			return 0, nil
		}
		return float64(n) / float64(total), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q (use 'count' or 'rate')", aggregate)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
