// Package sim runs the fixed-step ground-vehicle tracking simulation.
//
// Each step the simulator computes the tracking error between the true
// vehicle pose and a moving reference pose in the reference's body frame,
// perturbs it with measurement noise, asks the external controller for
// actuator commands, clamps them, applies the crash/off-track velocity
// overrides, integrates the vehicle dynamics, and records a sample. The
// simulator owns all mutable state; the group math it builds on is pure.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/banshee-data/roversim/internal/config"
	"github.com/banshee-data/roversim/internal/monitoring"
	"github.com/banshee-data/roversim/internal/se2"
	"github.com/banshee-data/roversim/internal/track"
	"github.com/banshee-data/roversim/internal/vehicle"
)

// Measurement-noise sinusoid frequency in Hz.
const noiseFrequencyHz = 30

// Phase offsets for noise and disturbance are drawn as 0.1*pi*N(0,1).
const noisePhaseSpread = 0.1 * math.Pi

// ErrNonFiniteCommand is returned when the controller emits a NaN or Inf
// throttle or steering value. Propagating a non-finite command would
// silently corrupt the rest of the run, so it is treated as fatal.
var ErrNonFiniteCommand = errors.New("controller returned non-finite command")

// Controller converts the tracking error and the reference rate into
// throttle and steering commands. It is invoked synchronously once per step,
// must tolerate arbitrarily large errors, and must not retain aliases into
// the simulator's state.
type Controller interface {
	Update(err, refRate se2.Vector) (throttle, steering float64)
}

// Result is the recorded outcome of one run.
type Result struct {
	Distance float64 // total distance travelled by the reference, meters
	Laps     float64 // completed laps, fractional
	Crashed  bool    // final crash state
	Series   Series  // one sample per step
}

// Simulator ties the trajectory generator, vehicle dynamics and controller
// together over a fixed time grid. Construct one per run configuration with
// New; each call to Run draws fresh noise/disturbance phases from the
// injected random source and simulates from the starting line.
type Simulator struct {
	cfg  *config.SimConfig
	ctrl Controller
	rng  *rand.Rand

	course track.Track
	integ  vehicle.Integrator
}

// New validates the configuration and constructs a simulator. The random
// source seeds the per-run noise and disturbance phases; pass a fixed seed
// for reproducible runs.
func New(cfg *config.SimConfig, ctrl Controller, rng *rand.Rand) (*Simulator, error) {
	if cfg == nil {
		cfg = config.EmptySimConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if ctrl == nil {
		return nil, fmt.Errorf("controller must not be nil")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source must not be nil")
	}

	course := track.Track{
		Directives: cfg.GetTrack(),
		Length:     cfg.GetTrackLength(),
		HalfWidth:  cfg.GetTrackHalfWidth(),
	}
	if err := course.Validate(); err != nil {
		return nil, fmt.Errorf("invalid track: %w", err)
	}

	integ, err := vehicle.NewIntegrator(cfg.GetWheelbase())
	if err != nil {
		return nil, err
	}

	monitoring.Debugf("sim initialized: %d legs, %.2fm track, dt=%gs",
		len(course.Directives), course.Length, cfg.GetDt())

	return &Simulator{
		cfg:    cfg,
		ctrl:   ctrl,
		rng:    rng,
		course: course,
		integ:  integ,
	}, nil
}

// Run simulates ceil(finalTime/dt) steps and returns the recorded result.
// The run always exhausts the full step count; a crashed vehicle is held at
// rest and keeps being recorded. ctx is checked once per step so a caller
// may cancel a long run; cancellation is the only early exit.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	dt := s.cfg.GetDt()
	halfWidth := s.cfg.GetTrackHalfWidth()
	crashDistance := s.cfg.GetCrashDistance()
	penalty := s.cfg.GetOffTrackVelocityPenalty()
	noiseOn := s.cfg.GetEnableNoise()
	noiseMag := s.cfg.GetNoiseMag()
	steps := int(math.Ceil(s.cfg.GetFinalTime() / dt))

	gen, err := track.NewGenerator(s.course, s.cfg.GetDesiredSpeed())
	if err != nil {
		return nil, err
	}

	// Per-run random phases; phase order matters for seeded reproducibility.
	dist := vehicle.NewDisturbance(
		s.cfg.GetEnableDisturbance(),
		s.cfg.GetDisturbanceMagX(),
		s.cfg.GetDisturbanceMagTheta(),
		s.rng,
	)
	phiNoise := noisePhaseSpread * s.rng.NormFloat64()

	// The vehicle starts at the starting line, facing down the track, offset
	// laterally by half of the track half-width. The reference starts on the
	// line itself.
	pose := se2.FromParams(0, halfWidth/2, 0)
	refPose := se2.FromParams(0, 0, 0)

	velocity := 0.0
	crashed := false
	series := make(Series, 0, steps)

	monitoring.Debugf("sim started: %d steps", steps)

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		t := float64(i) * dt

		// Renormalize the reference pose through its chart parameters so the
		// rotation block stays orthonormal over long runs.
		thetaRef, xRef, yRef := refPose.Params()
		refPose = se2.FromParams(thetaRef, xRef, yRef)
		theta, x, y := pose.Params()

		_, leftX, leftY := refPose.Mul(se2.FromParams(0, halfWidth, 0)).Params()
		_, rightX, rightY := refPose.Mul(se2.FromParams(0, -halfWidth, 0)).Params()

		// Tracking error in the reference body frame:
		// (heading, cross-track, along-track).
		errVec := refPose.Inverse().Mul(pose).Log().Vee()

		offTrack := math.Abs(errVec[1]) > halfWidth
		if math.Abs(errVec[1]) > crashDistance {
			crashed = true // sticky for the rest of the run
		}

		// Reference rate for this leg; distance advances only while the
		// vehicle is not behind the reference. Gating uses the clean error,
		// before measurement noise.
		refRate := gen.Step(errVec[2], dt)

		// Velocity-scaled sinusoidal measurement noise on every component.
		if noiseOn {
			noise := noiseMag * math.Sin(noiseFrequencyHz*2*math.Pi*t+phiNoise) * velocity
			errVec = errVec.AddScalar(noise)
		}

		refPose = refPose.Mul(se2.Exp(se2.Wedge(refRate.Scale(dt))))

		throttle, steering := s.ctrl.Update(errVec, refRate)
		if !isFinite(throttle) || !isFinite(steering) {
			return nil, fmt.Errorf("step %d (t=%.4fs): throttle=%v steering=%v: %w",
				i, t, throttle, steering, ErrNonFiniteCommand)
		}

		// Hard saturation, no smoothing.
		throttle = clamp(throttle, 0, 1)
		steering = clamp(steering, -1, 1)

		wheel := steering
		velocity = throttle
		if crashed {
			velocity = 0
		} else if offTrack {
			velocity *= 1 - penalty
		}

		dTheta, dX := dist.Sample(t, velocity)
		pose = s.integ.Step(pose, velocity, wheel, dTheta, dX, dt)

		series = append(series, Sample{
			T:           t,
			Theta:       theta,
			X:           x,
			Y:           y,
			ThetaRef:    thetaRef,
			XRef:        xRef,
			YRef:        yRef,
			TrackLeftX:  leftX,
			TrackLeftY:  leftY,
			TrackRightX: rightX,
			TrackRightY: rightY,
			Throttle:    throttle,
			Steering:    steering,
			Velocity:    velocity,
			Wheel:       wheel,
			ETheta:      errVec[0],
			EX:          errVec[1],
			EY:          errVec[2],
			OffTrack:    offTrack,
			Crashed:     crashed,
		})
	}

	monitoring.Debugf("sim complete: distance %.4fm, laps %.2f, crashed=%v",
		gen.Distance(), gen.Laps(), crashed)

	return &Result{
		Distance: gen.Distance(),
		Laps:     gen.Laps(),
		Crashed:  crashed,
		Series:   series,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
