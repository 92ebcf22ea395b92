package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/torosent/hostprobe/internal/config"
	"github.com/torosent/hostprobe/internal/metrics"
	"github.com/torosent/hostprobe/internal/runner"
	"github.com/torosent/hostprobe/internal/threshold"
)

// separator closes every host block of the text report.
var separator = strings.Repeat("=", 40)

// Report is the structured form of a run used by the JSON, YAML and HTML outputs.
type Report struct {
	RunID          string                `json:"run_id" yaml:"run_id"`
	Strategy       string                `json:"strategy" yaml:"strategy"`
	ElapsedSeconds float64               `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Hosts          []metrics.HostSummary `json:"hosts" yaml:"hosts"`
	Thresholds     *ThresholdSummary     `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// ThresholdSummary counts threshold results for a report.
type ThresholdSummary struct {
	Total   int                   `json:"total" yaml:"total"`
	Passed  int                   `json:"passed" yaml:"passed"`
	Failed  int                   `json:"failed" yaml:"failed"`
	Results []ThresholdResultJSON `json:"results" yaml:"results"`
}

// ThresholdResultJSON is one threshold outcome for one host.
type ThresholdResultJSON struct {
	Host      string  `json:"host" yaml:"host"`
	Threshold string  `json:"threshold" yaml:"threshold"`
	Metric    string  `json:"metric" yaml:"metric"`
	Aggregate string  `json:"aggregate" yaml:"aggregate"`
	Operator  string  `json:"operator" yaml:"operator"`
	Expected  float64 `json:"expected" yaml:"expected"`
	Actual    float64 `json:"actual" yaml:"actual"`
	Pass      bool    `json:"pass" yaml:"pass"`
}

// NewReport builds a Report from a run and optional threshold results.
func NewReport(res runner.Result, results []threshold.Result) Report {
	hosts := res.Summaries
	if hosts == nil {
		hosts = []metrics.HostSummary{}
	}
	return Report{
		RunID:          res.ID,
		Strategy:       string(res.Strategy),
		ElapsedSeconds: metrics.Round3(res.ElapsedSeconds()),
		Hosts:          hosts,
		Thresholds:     summarizeThresholds(results),
	}
}

func summarizeThresholds(results []threshold.Result) *ThresholdSummary {
	if len(results) == 0 {
		return nil
	}
	summary := &ThresholdSummary{
		Total:   len(results),
		Results: make([]ThresholdResultJSON, len(results)),
	}
	for i, tr := range results {
		summary.Results[i] = ThresholdResultJSON{
			Host:      tr.Host,
			Threshold: tr.Threshold.Raw,
			Metric:    tr.Threshold.Metric,
			Aggregate: tr.Threshold.Aggregate,
			Operator:  tr.Threshold.Operator,
			Expected:  tr.Threshold.Value,
			Actual:    tr.Actual,
			Pass:      tr.Pass,
		}
		if tr.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}

// FormatMs renders a latency in milliseconds with at most three decimals and
// no trailing zeros.
func FormatMs(v float64) string {
	return strconv.FormatFloat(metrics.Round3(v), 'f', -1, 64)
}

// FormatSummaries renders the per-host blocks, each closed by a 40 character
// rule, joined by newlines.
func FormatSummaries(summaries []metrics.HostSummary) string {
	lines := make([]string, 0, len(summaries)*8)
	for _, s := range summaries {
		lines = append(lines,
			fmt.Sprintf("  Host: %s", s.Host),
			fmt.Sprintf("  Successes: %d", s.Successes),
			fmt.Sprintf("  Failed: %d", s.Failures),
			fmt.Sprintf("  Errors: %d", s.Errors),
			fmt.Sprintf("  Min: %s ms", FormatMs(s.MinMs)),
			fmt.Sprintf("  Max: %s ms", FormatMs(s.MaxMs)),
			fmt.Sprintf("  Avg: %s ms", FormatMs(s.AvgMs)),
			separator,
		)
	}
	return strings.Join(lines, "\n")
}

// FormatReport renders the text report followed by the total time line.
func FormatReport(res runner.Result) string {
	total := fmt.Sprintf("Total time: %.3f s", res.ElapsedSeconds())
	if len(res.Summaries) == 0 {
		return total
	}
	return FormatSummaries(res.Summaries) + "\n" + total
}

// PrintReport writes the text report.
func PrintReport(w io.Writer, res runner.Result) error {
	_, err := fmt.Fprintln(w, FormatReport(res))
	return err
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, rep Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

// Render writes the report in the requested format.
func Render(w io.Writer, format config.OutputFormat, res runner.Result, results []threshold.Result) error {
	switch format {
	case config.FormatJSON:
		return PrintJSONReport(w, NewReport(res, results))
	case config.FormatYAML:
		return PrintYAMLReport(w, NewReport(res, results))
	case config.FormatText, "":
		return PrintReport(w, res)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// PrintThresholdResults lists threshold outcomes after a text report.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
		}
	}
	fmt.Fprintf(w, "\nThresholds (%d/%d passed):\n", passed, len(results))
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}
