package report

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/roversim/internal/sim"
)

// maxChartPoints caps the number of points per chart series to keep the
// generated HTML responsive in a browser.
const maxChartPoints = 2000

// WriteHTMLReport renders a self-contained interactive HTML report of a run:
// a trajectory scatter plus error and actuator line charts.
func WriteHTMLReport(cols sim.Columns, path string) error {
	if len(cols.T) == 0 {
		return fmt.Errorf("empty series, nothing to report")
	}

	stride := 1
	if len(cols.T) > maxChartPoints {
		stride = int(math.Ceil(float64(len(cols.T)) / maxChartPoints))
	}

	page := components.NewPage()
	page.PageTitle = "roversim run report"
	page.AddCharts(
		trajectoryScatter(cols, stride),
		lineChart("Tracking error", cols, stride, map[string][]float64{
			"e_theta": cols.ETheta,
			"e_cross": cols.EX,
			"e_along": cols.EY,
		}),
		lineChart("Actuators", cols, stride, map[string][]float64{
			"throttle": cols.Throttle,
			"velocity": cols.Velocity,
			"steering": cols.Steering,
			"wheel":    cols.Wheel,
		}),
	)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

func trajectoryScatter(cols sim.Columns, stride int) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Trajectory"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "East (m)", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "North (m)", Type: "value"}),
	)

	toData := func(xs, ys []float64) []opts.ScatterData {
		data := make([]opts.ScatterData, 0, len(xs)/stride+1)
		for i := 0; i < len(xs); i += stride {
			data = append(data, opts.ScatterData{
				Value:      []interface{}{xs[i], ys[i]},
				SymbolSize: 3,
			})
		}
		return data
	}

	scatter.AddSeries("track left", toData(cols.TrackLeftX, cols.TrackLeftY))
	scatter.AddSeries("track right", toData(cols.TrackRightX, cols.TrackRightY))
	scatter.AddSeries("reference", toData(cols.XRef, cols.YRef))
	scatter.AddSeries("vehicle", toData(cols.X, cols.Y))
	return scatter
}

func lineChart(title string, cols sim.Columns, stride int, series map[string][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	xs := make([]string, 0, len(cols.T)/stride+1)
	for i := 0; i < len(cols.T); i += stride {
		xs = append(xs, fmt.Sprintf("%.3f", cols.T[i]))
	}
	line.SetXAxis(xs)

	for name, ys := range series {
		data := make([]opts.LineData, 0, len(ys)/stride+1)
		for i := 0; i < len(ys); i += stride {
			data = append(data, opts.LineData{Value: ys[i]})
		}
		line.AddSeries(name, data)
	}
	return line
}
