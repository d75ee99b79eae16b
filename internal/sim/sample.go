package sim

// Sample is one time-stamped record of the simulation. Samples are immutable
// once recorded; the series is owned exclusively by the simulator's result.
//
// Pose fields capture the state at the start of the step, before the
// reference and vehicle advance. Throttle and Steering are the clamped
// actuator commands; Velocity and Wheel are the actuator outputs after the
// crash/off-track overrides. The error vector includes the measurement-noise
// perturbation seen by the controller.
type Sample struct {
	T float64 // elapsed time in seconds

	// True vehicle pose
	Theta float64
	X     float64
	Y     float64

	// Reference pose
	ThetaRef float64
	XRef     float64
	YRef     float64

	// Track boundary points (reference pose offset laterally by ±half-width)
	TrackLeftX  float64
	TrackLeftY  float64
	TrackRightX float64
	TrackRightY float64

	// Clamped actuator commands
	Throttle float64
	Steering float64

	// Actuator outputs after state-dependent overrides
	Velocity float64
	Wheel    float64

	// Tracking error in the reference body frame (heading, cross-track,
	// along-track), noise included
	ETheta float64
	EX     float64
	EY     float64

	OffTrack bool
	Crashed  bool
}

// Series is the append-only, ordered record of one run.
type Series []Sample

// Columns is the columnar form of a Series: one slice per field, all of
// equal length, ready for plotting or persistence.
type Columns struct {
	T []float64

	Theta []float64
	X     []float64
	Y     []float64

	ThetaRef []float64
	XRef     []float64
	YRef     []float64

	TrackLeftX  []float64
	TrackLeftY  []float64
	TrackRightX []float64
	TrackRightY []float64

	Throttle []float64
	Steering []float64
	Velocity []float64
	Wheel    []float64

	ETheta []float64
	EX     []float64
	EY     []float64

	OffTrack []bool
	Crashed  []bool
}

// Columns converts the series to columnar arrays. The series itself is left
// untouched, so Columns may be called at any point during or after a run.
func (s Series) Columns() Columns {
	n := len(s)
	c := Columns{
		T:           make([]float64, n),
		Theta:       make([]float64, n),
		X:           make([]float64, n),
		Y:           make([]float64, n),
		ThetaRef:    make([]float64, n),
		XRef:        make([]float64, n),
		YRef:        make([]float64, n),
		TrackLeftX:  make([]float64, n),
		TrackLeftY:  make([]float64, n),
		TrackRightX: make([]float64, n),
		TrackRightY: make([]float64, n),
		Throttle:    make([]float64, n),
		Steering:    make([]float64, n),
		Velocity:    make([]float64, n),
		Wheel:       make([]float64, n),
		ETheta:      make([]float64, n),
		EX:          make([]float64, n),
		EY:          make([]float64, n),
		OffTrack:    make([]bool, n),
		Crashed:     make([]bool, n),
	}
	for i, smp := range s {
		c.T[i] = smp.T
		c.Theta[i] = smp.Theta
		c.X[i] = smp.X
		c.Y[i] = smp.Y
		c.ThetaRef[i] = smp.ThetaRef
		c.XRef[i] = smp.XRef
		c.YRef[i] = smp.YRef
		c.TrackLeftX[i] = smp.TrackLeftX
		c.TrackLeftY[i] = smp.TrackLeftY
		c.TrackRightX[i] = smp.TrackRightX
		c.TrackRightY[i] = smp.TrackRightY
		c.Throttle[i] = smp.Throttle
		c.Steering[i] = smp.Steering
		c.Velocity[i] = smp.Velocity
		c.Wheel[i] = smp.Wheel
		c.ETheta[i] = smp.ETheta
		c.EX[i] = smp.EX
		c.EY[i] = smp.EY
		c.OffTrack[i] = smp.OffTrack
		c.Crashed[i] = smp.Crashed
	}
	return c
}
