package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/hostprobe/internal/metrics"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt string
	Report      Report
	Totals      hostTotals
}

type hostTotals struct {
	Attempts  uint
	Successes uint
	Failures  uint
	Errors    uint
}

// GenerateHTMLReport generates a standalone HTML report.
func GenerateHTMLReport(w io.Writer, rep Report) error {
	var totals hostTotals
	for _, h := range rep.Hosts {
		totals.Attempts += h.Attempts()
		totals.Successes += h.Successes
		totals.Failures += h.Failures
		totals.Errors += h.Errors
	}

	data := HTMLReportData{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Report:      rep,
		Totals:      totals,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatMs": FormatMs,
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.3f", f)
		},
		"formatPercent": func(part, total uint) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
		"errorKinds": metrics.SortedErrorKinds,
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Host Probe Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 { font-size: 2rem; margin-bottom: 10px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(220px, 1fr));
            gap: 20px;
            margin-bottom: 40px;
        }
        .card {
            background: #f8f9fa;
            border-radius: 8px;
            padding: 20px;
            border-left: 4px solid #667eea;
        }
        .card h3 { font-size: 0.9rem; color: #6c757d; text-transform: uppercase; margin-bottom: 10px; }
        .card .value { font-size: 2rem; font-weight: bold; }
        .card .subvalue { font-size: 0.85rem; color: #6c757d; margin-top: 5px; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        .card.warning { border-left-color: #f59e0b; }
        .section { margin-bottom: 40px; }
        .section h2 { font-size: 1.4rem; margin-bottom: 15px; }
        table { width: 100%; border-collapse: collapse; }
        th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #e9ecef; }
        th { background: #f8f9fa; font-size: 0.85rem; text-transform: uppercase; color: #6c757d; }
        .badge { display: inline-block; padding: 2px 8px; border-radius: 4px; font-size: 0.8rem; background: #e9ecef; }
        .badge-success { background: #d1fae5; color: #065f46; }
        .badge-error { background: #fee2e2; color: #991b1b; }
        .kinds { font-size: 0.85rem; color: #6c757d; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>Host Probe Report</h1>
            <div class="meta">Run: {{.Report.RunID}} | Strategy: {{.Report.Strategy}}</div>
            <div class="meta">Generated: {{.GeneratedAt}} | Total time: {{formatFloat .Report.ElapsedSeconds}} s</div>
        </header>
        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Requests</h3>
                    <div class="value">{{.Totals.Attempts}}</div>
                    <div class="subvalue">{{len .Report.Hosts}} hosts</div>
                </div>
                <div class="card success">
                    <h3>Successes</h3>
                    <div class="value">{{.Totals.Successes}}</div>
                    <div class="subvalue">{{formatPercent .Totals.Successes .Totals.Attempts}}%</div>
                </div>
                <div class="card warning">
                    <h3>Failed</h3>
                    <div class="value">{{.Totals.Failures}}</div>
                    <div class="subvalue">{{formatPercent .Totals.Failures .Totals.Attempts}}%</div>
                </div>
                <div class="card error">
                    <h3>Errors</h3>
                    <div class="value">{{.Totals.Errors}}</div>
                    <div class="subvalue">{{formatPercent .Totals.Errors .Totals.Attempts}}%</div>
                </div>
            </div>

            <div class="section">
                <h2>Hosts</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Host</th>
                            <th>Successes</th>
                            <th>Failed</th>
                            <th>Errors</th>
                            <th>Min (ms)</th>
                            <th>Avg (ms)</th>
                            <th>Max (ms)</th>
                            <th>P99 (ms)</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Report.Hosts}}
                        <tr>
                            <td><strong>{{.Host}}</strong>{{if .Incomplete}} <span class="badge badge-error">incomplete</span>{{end}}
                                {{with errorKinds .ErrorKinds}}<div class="kinds">{{range .}}{{.Kind}}: {{.Count}} {{end}}</div>{{end}}
                            </td>
                            <td>{{.Successes}}</td>
                            <td>{{.Failures}}</td>
                            <td>{{.Errors}}</td>
                            <td>{{formatMs .MinMs}}</td>
                            <td>{{formatMs .AvgMs}}</td>
                            <td>{{formatMs .MaxMs}}</td>
                            <td>{{formatMs .P99Ms}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>

            {{if .Report.Thresholds}}
            <div class="section">
                <h2>Thresholds ({{.Report.Thresholds.Passed}}/{{.Report.Thresholds.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr>
                            <th>Host</th>
                            <th>Threshold</th>
                            <th>Expected</th>
                            <th>Actual</th>
                            <th>Status</th>
                        </tr>
                    </thead>
                    <tbody>
                        {{range .Report.Thresholds.Results}}
                        <tr>
                            <td>{{.Host}}</td>
                            <td>{{.Threshold}}</td>
                            <td>{{.Operator}} {{formatFloat .Expected}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>
                                {{if .Pass}}
                                <span class="badge badge-success">✓ PASS</span>
                                {{else}}
                                <span class="badge badge-error">✗ FAIL</span>
                                {{end}}
                            </td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
