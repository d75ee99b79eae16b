package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roversim/internal/sim"
)

func testColumns(n int) sim.Columns {
	series := make(sim.Series, n)
	for i := range series {
		t := float64(i) * 0.001
		series[i] = sim.Sample{
			T: t, X: 0.1 * t, Y: t, XRef: 0, YRef: 2 * t,
			TrackLeftX: 0.05, TrackLeftY: 2 * t, TrackRightX: -0.05, TrackRightY: 2 * t,
			Throttle: 0.5, Velocity: 0.5, Steering: -0.1, Wheel: -0.1,
			ETheta: 0.01, EX: 0.1 * t, EY: -t,
		}
	}
	return series.Columns()
}

func TestSavePlotsWritesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, SavePlots(testColumns(50), dir))

	for _, name := range []string{"track.png", "errors.png", "actuators.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "missing %s", name)
		assert.Greater(t, info.Size(), int64(0), "%s is empty", name)
	}
}

func TestSavePlotsRejectsEmptySeries(t *testing.T) {
	assert.Error(t, SavePlots(sim.Columns{}, t.TempDir()))
}

func TestWriteHTMLReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteHTMLReport(testColumns(50), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.True(t, strings.Contains(html, "Trajectory"), "report should contain the trajectory chart")
	assert.True(t, strings.Contains(html, "Tracking error"), "report should contain the error chart")
}

func TestWriteHTMLReportDownsamplesLongRuns(t *testing.T) {
	// A long run must still render (stride keeps point counts bounded).
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, WriteHTMLReport(testColumns(5000), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteHTMLReportRejectsEmptySeries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	assert.Error(t, WriteHTMLReport(sim.Columns{}, path))
}
