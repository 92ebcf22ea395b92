package output

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/torosent/hostprobe/internal/config"
	"github.com/torosent/hostprobe/internal/metrics"
	"github.com/torosent/hostprobe/internal/runner"
	"github.com/torosent/hostprobe/internal/threshold"
)

func sampleResult() runner.Result {
	return runner.Result{
		ID:       "01HZX3J5X4T6M1Q2R3S4T5V6W7",
		Strategy: runner.KindAsync,
		Elapsed:  1234567 * time.Microsecond,
		Summaries: []metrics.HostSummary{
			{Host: "http://a.test", Successes: 3, MinMs: 10.25, MaxMs: 30, AvgMs: 20.125, P99Ms: 30},
			{Host: "http://b.test", Errors: 3, ErrorKinds: map[string]int{metrics.KindConnectionRefused: 3}},
		},
	}
}

func TestFormatReportMatchesBlockLayout(t *testing.T) {
	got := FormatReport(sampleResult())
	want := strings.Join([]string{
		"  Host: http://a.test",
		"  Successes: 3",
		"  Failed: 0",
		"  Errors: 0",
		"  Min: 10.25 ms",
		"  Max: 30 ms",
		"  Avg: 20.125 ms",
		"========================================",
		"  Host: http://b.test",
		"  Successes: 0",
		"  Failed: 0",
		"  Errors: 3",
		"  Min: 0 ms",
		"  Max: 0 ms",
		"  Avg: 0 ms",
		"========================================",
		"Total time: 1.235 s",
	}, "\n")
	if got != want {
		t.Fatalf("FormatReport() mismatch\n got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatReportNoHosts(t *testing.T) {
	got := FormatReport(runner.Result{Elapsed: 2 * time.Second})
	if got != "Total time: 2.000 s" {
		t.Fatalf("FormatReport() = %q", got)
	}
}

func TestFormatMs(t *testing.T) {
	tests := map[float64]string{
		0:          "0",
		12.5:       "12.5",
		1.23456:    "1.235",
		100:        "100",
		0.0004:     "0",
		999.999999: "1000",
	}
	for in, want := range tests {
		if got := FormatMs(in); got != want {
			t.Errorf("FormatMs(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestPrintJSONReport(t *testing.T) {
	results := evaluate(t, sampleResult().Summaries, "errors:count == 0")
	var buf bytes.Buffer
	if err := Render(&buf, config.FormatJSON, sampleResult(), results); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := buf.String()

	if got := gjson.Get(doc, "run_id").String(); got != "01HZX3J5X4T6M1Q2R3S4T5V6W7" {
		t.Errorf("run_id = %q", got)
	}
	if got := gjson.Get(doc, "strategy").String(); got != "async" {
		t.Errorf("strategy = %q", got)
	}
	if got := gjson.Get(doc, "elapsed_seconds").Float(); got != 1.235 {
		t.Errorf("elapsed_seconds = %v", got)
	}
	if got := gjson.Get(doc, "hosts.#").Int(); got != 2 {
		t.Fatalf("hosts length = %d", got)
	}
	if got := gjson.Get(doc, "hosts.0.success").Int(); got != 3 {
		t.Errorf("hosts.0.success = %d", got)
	}
	if got := gjson.Get(doc, "hosts.0.avg_ms").Float(); got != 20.125 {
		t.Errorf("hosts.0.avg_ms = %v", got)
	}
	if got := gjson.Get(doc, `hosts.1.error_kinds.Connection\ refused`).Int(); got != 3 {
		t.Errorf("hosts.1 refused count = %d, doc = %s", got, doc)
	}
	if gjson.Get(doc, "hosts.0.error_kinds").Exists() {
		t.Errorf("error_kinds should be omitted when empty")
	}
	if got := gjson.Get(doc, "thresholds.failed").Int(); got != 1 {
		t.Errorf("thresholds.failed = %d", got)
	}
	if got := gjson.Get(doc, "thresholds.results.1.host").String(); got != "http://b.test" {
		t.Errorf("thresholds.results.1.host = %q", got)
	}
}

func TestPrintYAMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, config.FormatYAML, sampleResult(), nil); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	var decoded struct {
		RunID    string `yaml:"run_id"`
		Strategy string `yaml:"strategy"`
		Hosts    []struct {
			Host   string `yaml:"host"`
			Errors int    `yaml:"errors"`
		} `yaml:"hosts"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v\n%s", err, buf.String())
	}
	if decoded.Strategy != "async" || len(decoded.Hosts) != 2 || decoded.Hosts[1].Errors != 3 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if strings.Contains(buf.String(), "thresholds") {
		t.Errorf("thresholds should be omitted without results")
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, config.FormatText, sampleResult(), nil); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.HasSuffix(buf.String(), "Total time: 1.235 s\n") {
		t.Fatalf("text output = %q", buf.String())
	}
	if err := Render(&buf, "xml", sampleResult(), nil); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestPrintThresholdResults(t *testing.T) {
	results := evaluate(t, sampleResult().Summaries, "errors:count == 0")
	var buf bytes.Buffer
	PrintThresholdResults(&buf, results)
	out := buf.String()
	if !strings.Contains(out, "Thresholds (1/2 passed)") {
		t.Fatalf("output = %q", out)
	}
	if !strings.Contains(out, "✗ http://b.test errors:count == 0") {
		t.Fatalf("output should name the failing host: %q", out)
	}

	buf.Reset()
	PrintThresholdResults(&buf, nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output without results")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	report := FormatReport(sampleResult())
	if err := WriteFile(context.Background(), path, []byte(report)); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != report {
		t.Fatalf("file content mismatch: %q", got)
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("lock file should be removed, stat err = %v", err)
	}
}

func TestWriteFileBadDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "report.txt")
	if err := WriteFile(context.Background(), path, []byte("x")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderChart(&buf, sampleResult().Summaries); err != nil {
		t.Fatalf("RenderChart() error = %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Fatalf("expected PNG output")
	}

	buf.Reset()
	allErrored := []metrics.HostSummary{{Host: "http://down.test", Errors: 2}}
	if err := RenderChart(&buf, allErrored); err != nil {
		t.Fatalf("RenderChart(all errored) error = %v", err)
	}

	if err := RenderChart(&buf, nil); err == nil {
		t.Fatal("expected error with no hosts")
	}
}

func evaluate(t *testing.T, summaries []metrics.HostSummary, raw ...string) []threshold.Result {
	t.Helper()
	parsed, err := threshold.ParseMultiple(raw)
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	return threshold.NewEvaluator(parsed).Evaluate(summaries)
}
