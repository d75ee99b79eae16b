// Command roversim runs one ground-vehicle tracking simulation and reports
// the distance travelled. Optionally it persists the run to sqlite and
// renders plots and an HTML report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/roversim/internal/config"
	"github.com/banshee-data/roversim/internal/control"
	"github.com/banshee-data/roversim/internal/monitoring"
	"github.com/banshee-data/roversim/internal/report"
	"github.com/banshee-data/roversim/internal/runstore"
	"github.com/banshee-data/roversim/internal/sim"
	"github.com/banshee-data/roversim/internal/units"
	"github.com/banshee-data/roversim/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to a JSON simulation config (defaults apply when empty)")
	seed       = flag.Int64("seed", 0, "Random seed for noise/disturbance phases (0 seeds from the clock)")
	dbPath     = flag.String("db", "", "Sqlite file to persist the run into (disabled when empty)")
	plotDir    = flag.String("plot-dir", "", "Directory for PNG plots of the run (disabled when empty)")
	reportPath = flag.String("report", "", "Path for an interactive HTML report (disabled when empty)")
	speedUnits = flag.String("units", units.MPS, "Speed unit for the run summary (mps, mph, kph)")
	verbose    = flag.Bool("verbose", false, "Enable per-run diagnostic logging")
	showVer    = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(version.String())
		return
	}

	if err := run(); err != nil {
		log.Fatalf("roversim: %v", err)
	}
}

func run() error {
	if !units.IsValid(*speedUnits) {
		return fmt.Errorf("invalid -units value %q (valid: %v)", *speedUnits, units.ValidUnits)
	}

	cfg := config.EmptySimConfig()
	if *configPath != "" {
		loaded, err := config.LoadSimConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	monitoring.SetVerbose(*verbose || cfg.GetVerbose())

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(s))

	ctrl, err := control.NewTrackingController(cfg.GetDt())
	if err != nil {
		return err
	}

	simulator, err := sim.New(cfg, ctrl, rng)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := simulator.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("distance:  %10.4f m\n", res.Distance)
	fmt.Printf("laps:      %10.2f\n", res.Laps)

	avgSpeed, err := units.Convert(res.Distance/cfg.GetFinalTime(), *speedUnits)
	if err != nil {
		return err
	}
	fmt.Printf("avg speed: %10.4f %s\n", avgSpeed, units.Label(*speedUnits))
	fmt.Printf("crashed:   %v\n", res.Crashed)

	if *dbPath != "" {
		store, err := runstore.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := store.SaveRun(cfg, res)
		if err != nil {
			return err
		}
		log.Printf("saved run %s to %s", id, *dbPath)
	}

	if *plotDir != "" || *reportPath != "" {
		cols := res.Series.Columns()
		if *plotDir != "" {
			if err := report.SavePlots(cols, *plotDir); err != nil {
				return err
			}
			log.Printf("wrote plots to %s", *plotDir)
		}
		if *reportPath != "" {
			if err := report.WriteHTMLReport(cols, *reportPath); err != nil {
				return err
			}
			log.Printf("wrote report to %s", *reportPath)
		}
	}

	return nil
}
