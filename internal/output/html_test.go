package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/torosent/hostprobe/internal/metrics"
	"github.com/torosent/hostprobe/internal/output"
	"github.com/torosent/hostprobe/internal/runner"
	"github.com/torosent/hostprobe/internal/threshold"
)

func TestGenerateHTMLReport(t *testing.T) {
	res := runner.Result{
		ID:       "01HZX3J5X4T6M1Q2R3S4T5V6W7",
		Strategy: runner.KindParallel,
		Elapsed:  1500 * time.Millisecond,
		Summaries: []metrics.HostSummary{
			{Host: "https://api.example.com", Successes: 9, Failures: 1, MinMs: 12.5, MaxMs: 80, AvgMs: 31.25, P99Ms: 80},
			{Host: "https://down.example.com", Errors: 10, ErrorKinds: map[string]int{metrics.FaultKind: 10}, Incomplete: true},
		},
	}
	parsed, err := threshold.ParseMultiple([]string{"avg < 50"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	results := threshold.NewEvaluator(parsed).Evaluate(res.Summaries)

	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, output.NewReport(res, results)); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	html := buf.String()

	checks := []string{
		"<!DOCTYPE html>",
		"Host Probe Report",
		"01HZX3J5X4T6M1Q2R3S4T5V6W7",
		"Strategy: parallel",
		"Total time: 1.500 s",
		"https://api.example.com",
		"31.25",
		"Worker fault: 10",
		"incomplete",
		"Thresholds (2/2 Passed)",
		"<div class=\"value\">20</div>",
	}
	for _, want := range checks {
		if !strings.Contains(html, want) {
			t.Errorf("expected HTML to contain %q", want)
		}
	}
}

func TestGenerateHTMLReportEscapesHosts(t *testing.T) {
	res := runner.Result{
		Summaries: []metrics.HostSummary{{Host: "https://x.example.com/<script>", Successes: 1}},
	}
	var buf bytes.Buffer
	if err := output.GenerateHTMLReport(&buf, output.NewReport(res, nil)); err != nil {
		t.Fatalf("GenerateHTMLReport() error = %v", err)
	}
	if strings.Contains(buf.String(), "/<script>") {
		t.Fatalf("host should be HTML escaped")
	}
	if strings.Contains(buf.String(), "Thresholds (") {
		t.Fatalf("threshold section should be omitted without results")
	}
}
