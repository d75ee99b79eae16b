// Package vehicle advances the true vehicle pose under a planar bicycle
// model with an additive body-frame disturbance.
package vehicle

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/banshee-data/roversim/internal/se2"
)

// Disturbance shape: a 3 Hz sinusoid riding on a constant offset, scaled by
// the current velocity so a stationary vehicle sees no disturbance.
const (
	disturbanceFrequencyHz = 3
	disturbanceOffset      = 0.2
	phaseSpread            = 0.1 * math.Pi
)

// Disturbance is a smooth time-varying signal representing unmodelled
// effects. Its phase is drawn once per run from the injected random source;
// after construction the signal is fully deterministic.
type Disturbance struct {
	Enabled  bool
	MagX     float64 // magnitude of the body-x (lateral) component
	MagTheta float64 // magnitude of the heading-rate component

	phase float64
}

// NewDisturbance draws the random phase offset from rng and returns a
// disturbance generator that is deterministic for the rest of the run.
func NewDisturbance(enabled bool, magX, magTheta float64, rng *rand.Rand) Disturbance {
	return Disturbance{
		Enabled:  enabled,
		MagX:     magX,
		MagTheta: magTheta,
		phase:    phaseSpread * rng.NormFloat64(),
	}
}

// Sample returns the heading-rate and body-x disturbance components at
// elapsed time t for the given current velocity.
func (d Disturbance) Sample(t, velocity float64) (dTheta, dX float64) {
	if !d.Enabled {
		return 0, 0
	}
	s := (disturbanceOffset + math.Sin(disturbanceFrequencyHz*t*2*math.Pi+d.phase)) * velocity
	return s * d.MagTheta, s * d.MagX
}

// Integrator advances the true vehicle pose given actuator outputs and a
// disturbance sample. It is stateless apart from the wheelbase geometry.
type Integrator struct {
	Wheelbase float64 // rear-to-front axle distance in meters
}

// NewIntegrator constructs an integrator for the given wheelbase.
func NewIntegrator(wheelbase float64) (Integrator, error) {
	if wheelbase <= 0 {
		return Integrator{}, fmt.Errorf("wheelbase must be positive, got %v", wheelbase)
	}
	return Integrator{Wheelbase: wheelbase}, nil
}

// BodyTwist returns the body-frame rate twist for the given velocity, wheel
// angle and disturbance components:
//
//	(v*tan(wheel)/wheelbase + dTheta, dX, v)
func (in Integrator) BodyTwist(velocity, wheel, dTheta, dX float64) se2.Vector {
	return se2.Vector{
		velocity*math.Tan(wheel)/in.Wheelbase + dTheta,
		dX,
		velocity,
	}
}

// Step advances pose by dt under the body twist for the given inputs,
// composing the pose with the exponential of the incremental twist.
func (in Integrator) Step(pose se2.Pose, velocity, wheel, dTheta, dX, dt float64) se2.Pose {
	u := in.BodyTwist(velocity, wheel, dTheta, dX)
	return pose.Mul(se2.Exp(se2.Wedge(u.Scale(dt))))
}
