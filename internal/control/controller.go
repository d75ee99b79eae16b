package control

import (
	"fmt"
	"math"

	"github.com/banshee-data/roversim/internal/se2"
)

// Default tracking gains. Steering acts on a blend of heading and
// cross-track error through a filtered lead compensator; throttle is a
// proportional law on the along-track error around a cruise setting.
const (
	defaultHeadingGain    = 2.0
	defaultCrossTrackGain = 8.0
	defaultLeadTimeConst  = 0.05
	defaultAlongGain      = 2.0
	defaultCruiseThrottle = 0.5
)

// TrackingController is the stock implementation of the simulator's
// controller interface: it converts the tracking error into throttle and
// steering commands. It owns its filter state exclusively and keeps no
// aliases into the simulator.
type TrackingController struct {
	steering *DiscreteStateSpace

	headingGain    float64
	crossTrackGain float64
	alongGain      float64
	cruiseThrottle float64
}

// NewTrackingController builds the default tracking controller for the
// given simulation timestep.
func NewTrackingController(dt float64) (*TrackingController, error) {
	// Filtered PD on the blended lateral signal: (s + 1/tau') shaped as
	// (kd*s + kp) / (tau*s + 1) so the derivative stays proper.
	lead := TransferFunction{
		Num: []float64{defaultLeadTimeConst / 2, 1},
		Den: []float64{defaultLeadTimeConst, 1},
	}
	filt, err := NewDiscreteFromTF(lead, dt)
	if err != nil {
		return nil, fmt.Errorf("building steering filter: %w", err)
	}
	return &TrackingController{
		steering:       filt,
		headingGain:    defaultHeadingGain,
		crossTrackGain: defaultCrossTrackGain,
		alongGain:      defaultAlongGain,
		cruiseThrottle: defaultCruiseThrottle,
	}, nil
}

// Update implements the controller interface. The error vector is
// (heading, cross-track, along-track) in the reference body frame; refRate
// is the reference rate twist for this step.
func (c *TrackingController) Update(errVec, refRate se2.Vector) (throttle, steering float64) {
	// Steer against lateral deviation, with a touch of feedforward from the
	// commanded turn rate so corners need less error to develop.
	lateral := c.headingGain*errVec[0] + c.crossTrackGain*errVec[1]
	steering = -c.steering.Update(lateral) + 0.1*refRate[0]

	// Push when behind the reference, ease off when ahead. The simulator
	// clamps to [0,1].
	throttle = c.cruiseThrottle - c.alongGain*errVec[2]

	// Arbitrary errors are legal inputs; keep outputs finite regardless.
	if math.IsNaN(throttle) || math.IsInf(throttle, 0) {
		throttle = 0
	}
	if math.IsNaN(steering) {
		steering = 0
	} else if math.IsInf(steering, 1) {
		steering = 1
	} else if math.IsInf(steering, -1) {
		steering = -1
	}
	return throttle, steering
}
