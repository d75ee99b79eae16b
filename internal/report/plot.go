// Package report renders recorded simulation runs as static PNG plots and
// as an interactive HTML page. Rendering consumes the columnar form of a
// run's sample series and feeds nothing back into the simulation.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/roversim/internal/sim"
)

// SavePlots writes the standard set of run plots into outputDir:
//
//	track.png     - track boundaries, reference and vehicle trajectories
//	errors.png    - tracking error components over time
//	actuators.png - throttle/velocity and steering/wheel over time
func SavePlots(cols sim.Columns, outputDir string) error {
	if len(cols.T) == 0 {
		return fmt.Errorf("empty series, nothing to plot")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := saveTrackPlot(cols, filepath.Join(outputDir, "track.png")); err != nil {
		return fmt.Errorf("track plot: %w", err)
	}
	if err := saveErrorPlot(cols, filepath.Join(outputDir, "errors.png")); err != nil {
		return fmt.Errorf("error plot: %w", err)
	}
	if err := saveActuatorPlot(cols, filepath.Join(outputDir, "actuators.png")); err != nil {
		return fmt.Errorf("actuator plot: %w", err)
	}
	return nil
}

func saveTrackPlot(cols sim.Columns, path string) error {
	p := plot.New()
	p.Title.Text = "Track"
	p.X.Label.Text = "East (m)"
	p.Y.Label.Text = "North (m)"

	series := []struct {
		name string
		xs   []float64
		ys   []float64
	}{
		{"track left", cols.TrackLeftX, cols.TrackLeftY},
		{"track right", cols.TrackRightX, cols.TrackRightY},
		{"reference", cols.XRef, cols.YRef},
		{"vehicle", cols.X, cols.Y},
	}
	for _, s := range series {
		line, err := plotter.NewLine(pairs(s.xs, s.ys))
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}

func saveErrorPlot(cols sim.Columns, path string) error {
	p := plot.New()
	p.Title.Text = "Tracking error"
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "error"

	series := []struct {
		name string
		ys   []float64
	}{
		{"e_theta (rad)", cols.ETheta},
		{"e_cross (m)", cols.EX},
		{"e_along (m)", cols.EY},
	}
	for _, s := range series {
		line, err := plotter.NewLine(pairs(cols.T, s.ys))
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}

func saveActuatorPlot(cols sim.Columns, path string) error {
	p := plot.New()
	p.Title.Text = "Actuators"
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "command / output"

	series := []struct {
		name string
		ys   []float64
	}{
		{"throttle", cols.Throttle},
		{"velocity", cols.Velocity},
		{"steering", cols.Steering},
		{"wheel", cols.Wheel},
	}
	for _, s := range series {
		line, err := plotter.NewLine(pairs(cols.T, s.ys))
		if err != nil {
			return err
		}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(s.name, line)
	}
	p.Legend.Top = true

	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}

func pairs(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i] = plotter.XY{X: xs[i], Y: ys[i]}
	}
	return pts
}
