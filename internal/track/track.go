// Package track describes the closed-loop reference course and generates the
// moving reference rate command that the simulator's target pose follows.
package track

import (
	"fmt"
	"math"

	"github.com/banshee-data/roversim/internal/se2"
)

// Track is a closed-loop reference course divided into equal-length legs.
// Each directive describes one leg: +1 for a right quarter-turn, -1 for a
// left quarter-turn, 0 for a straight. Tracks are constructed once before a
// run and never mutated.
type Track struct {
	Directives []int   // one turn directive per leg
	Length     float64 // total path length in meters
	HalfWidth  float64 // lateral half-width in meters
}

// Validate checks that the track geometry is usable.
func (t Track) Validate() error {
	if len(t.Directives) == 0 {
		return fmt.Errorf("track needs at least one leg directive")
	}
	for i, d := range t.Directives {
		if d < -1 || d > 1 {
			return fmt.Errorf("leg %d: directive must be -1, 0 or +1, got %d", i, d)
		}
	}
	if t.Length <= 0 {
		return fmt.Errorf("track length must be positive, got %v", t.Length)
	}
	if t.HalfWidth <= 0 {
		return fmt.Errorf("track half-width must be positive, got %v", t.HalfWidth)
	}
	return nil
}

// LegLength returns the arc length of a single leg.
func (t Track) LegLength() float64 {
	return t.Length / float64(len(t.Directives))
}

// Generator emits the reference rate twist for the current position along a
// track and owns the cumulative travelled distance of the reference point.
type Generator struct {
	track        Track
	desiredSpeed float64
	distance     float64
}

// NewGenerator constructs a reference generator over tr moving at
// desiredSpeed meters per second.
func NewGenerator(tr Track, desiredSpeed float64) (*Generator, error) {
	if err := tr.Validate(); err != nil {
		return nil, fmt.Errorf("invalid track: %w", err)
	}
	if desiredSpeed <= 0 {
		return nil, fmt.Errorf("desired speed must be positive, got %v", desiredSpeed)
	}
	return &Generator{track: tr, desiredSpeed: desiredSpeed}, nil
}

// Distance returns the cumulative distance the reference has travelled.
func (g *Generator) Distance() float64 {
	return g.distance
}

// Laps returns the number of completed laps, including the fractional part.
func (g *Generator) Laps() float64 {
	return g.distance / g.track.Length
}

// Rate returns the body-frame rate twist (dtheta, 0, speed) for the leg the
// reference currently occupies: a quarter-turn spread over the leg duration
// for turning legs, zero rotation for straights.
func (g *Generator) Rate() se2.Vector {
	legLen := g.track.LegLength()
	legDur := legLen / g.desiredSpeed
	dLap := math.Mod(g.distance, g.track.Length)
	leg := int(dLap / legLen)
	if leg >= len(g.track.Directives) {
		leg = len(g.track.Directives) - 1
	}
	turn := float64(g.track.Directives[leg])
	return se2.Vector{turn * (math.Pi / 2) / legDur, 0, g.desiredSpeed}
}

// Step returns the reference rate for this timestep and advances the
// travelled distance. Advancement is gated on the along-track error: the
// distance grows by desiredSpeed*dt only while alongTrackErr is positive
// (the vehicle has not fallen behind the reference); otherwise the returned
// rate is zero and the reference holds still. The hold can persist
// indefinitely if the controller never drives the along-track error
// positive.
func (g *Generator) Step(alongTrackErr, dt float64) se2.Vector {
	rate := g.Rate()
	if alongTrackErr > 0 {
		g.distance += g.desiredSpeed * dt
	} else {
		rate = se2.Vector{}
	}
	return rate
}
