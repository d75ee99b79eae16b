// Package runstore persists recorded simulation runs to sqlite so they can
// be compared and re-plotted later. Persistence is a pure output of the
// simulation; nothing here feeds back into a run.
package runstore

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/roversim/internal/config"
	"github.com/banshee-data/roversim/internal/sim"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a sqlite database holding runs and their sample series.
type Store struct {
	db *sql.DB
}

// RunMeta summarizes one stored run.
type RunMeta struct {
	ID        string
	CreatedAt time.Time
	Distance  float64
	Laps      float64
	Crashed   bool
	Samples   int
}

// Open opens (or creates) the sqlite database at path and applies any
// pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening run database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp applies the embedded migrations up to the latest version.
func (s *Store) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}
	// Note: not closing m here, it would close the underlying DB connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// SaveRun stores a result with the configuration that produced it and
// returns the generated run ID.
func (s *Store) SaveRun(cfg *config.SimConfig, res *sim.Result) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshalling config: %w", err)
	}

	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (run_id, config, distance, laps, crashed) VALUES (?, ?, ?, ?, ?)`,
		id, string(cfgJSON), res.Distance, res.Laps, res.Crashed,
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO samples (
		run_id, step, t,
		theta, x, y,
		theta_ref, x_ref, y_ref,
		track_left_x, track_left_y, track_right_x, track_right_y,
		throttle, steering, velocity, wheel,
		e_theta, e_x, e_y,
		off_track, crashed
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing sample insert: %w", err)
	}
	defer stmt.Close()

	for i, smp := range res.Series {
		_, err := stmt.Exec(
			id, i, smp.T,
			smp.Theta, smp.X, smp.Y,
			smp.ThetaRef, smp.XRef, smp.YRef,
			smp.TrackLeftX, smp.TrackLeftY, smp.TrackRightX, smp.TrackRightY,
			smp.Throttle, smp.Steering, smp.Velocity, smp.Wheel,
			smp.ETheta, smp.EX, smp.EY,
			smp.OffTrack, smp.Crashed,
		)
		if err != nil {
			return "", fmt.Errorf("inserting sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// ListRuns returns metadata for all stored runs, newest first.
func (s *Store) ListRuns() ([]RunMeta, error) {
	rows, err := s.db.Query(`
		SELECT r.run_id, r.created_at, r.distance, r.laps, r.crashed,
		       (SELECT COUNT(*) FROM samples s WHERE s.run_id = r.run_id)
		FROM runs r
		ORDER BY r.created_at DESC, r.run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		var m RunMeta
		if err := rows.Scan(&m.ID, &m.CreatedAt, &m.Distance, &m.Laps, &m.Crashed, &m.Samples); err != nil {
			return nil, err
		}
		runs = append(runs, m)
	}
	return runs, rows.Err()
}

// LoadSeries reads back the full sample series of a run in step order.
func (s *Store) LoadSeries(runID string) (sim.Series, error) {
	rows, err := s.db.Query(`
		SELECT t,
		       theta, x, y,
		       theta_ref, x_ref, y_ref,
		       track_left_x, track_left_y, track_right_x, track_right_y,
		       throttle, steering, velocity, wheel,
		       e_theta, e_x, e_y,
		       off_track, crashed
		FROM samples WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var series sim.Series
	for rows.Next() {
		var smp sim.Sample
		err := rows.Scan(
			&smp.T,
			&smp.Theta, &smp.X, &smp.Y,
			&smp.ThetaRef, &smp.XRef, &smp.YRef,
			&smp.TrackLeftX, &smp.TrackLeftY, &smp.TrackRightX, &smp.TrackRightY,
			&smp.Throttle, &smp.Steering, &smp.Velocity, &smp.Wheel,
			&smp.ETheta, &smp.EX, &smp.EY,
			&smp.OffTrack, &smp.Crashed,
		)
		if err != nil {
			return nil, err
		}
		series = append(series, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if series == nil {
		return nil, fmt.Errorf("no samples for run %q", runID)
	}
	return series, nil
}
