package output

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/torosent/hostprobe/internal/metrics"
)

// RenderChart draws a PNG bar chart of the average latency per host.
func RenderChart(w io.Writer, summaries []metrics.HostSummary) error {
	if len(summaries) == 0 {
		return errors.New("chart: no hosts to plot")
	}

	bars := make([]chart.Value, 0, len(summaries))
	top := 0.0
	for _, s := range summaries {
		bars = append(bars, chart.Value{
			Label: s.Host,
			Value: s.AvgMs,
		})
		top = math.Max(top, s.AvgMs)
	}
	// Every host may have errored out; an all-zero range cannot be drawn.
	if top <= 0 {
		top = 1
	}

	graph := chart.BarChart{
		Title: "Average latency per host (ms)",
		TitleStyle: chart.Style{
			FontSize: 16,
		},
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:    max(400, 160*len(bars)),
		Height:   400,
		Bars:     bars,
		BarWidth: 60,
		YAxis: chart.YAxis{
			Style: chart.Style{
				StrokeColor: drawing.ColorBlack,
				FontSize:    10,
			},
			Range: &chart.ContinuousRange{
				Min: 0,
				Max: top * 1.1,
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	return nil
}
