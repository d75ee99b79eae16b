// Package control provides a discrete linear state-space building block and
// the stock tracking controller for the simulator. Controllers here are
// consumers of the simulator's controller interface, not part of its core.
package control

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StateSpace is a continuous-time LTI system dx/dt = Ax + Bu, y = Cx + Du.
type StateSpace struct {
	A *mat.Dense
	B *mat.Dense
	C *mat.Dense
	D *mat.Dense
}

// TransferFunction is a SISO rational transfer function in s, with
// coefficients in descending powers. The denominator degree must be at
// least the numerator degree (proper system).
type TransferFunction struct {
	Num []float64
	Den []float64
}

// Realize returns the controllable-canonical state-space realization of the
// transfer function.
func (tf TransferFunction) Realize() (*StateSpace, error) {
	if len(tf.Den) == 0 {
		return nil, fmt.Errorf("empty denominator")
	}
	if tf.Den[0] == 0 {
		return nil, fmt.Errorf("leading denominator coefficient must be non-zero")
	}
	if len(tf.Num) > len(tf.Den) {
		return nil, fmt.Errorf("improper transfer function: numerator degree %d exceeds denominator degree %d",
			len(tf.Num)-1, len(tf.Den)-1)
	}

	n := len(tf.Den) - 1 // state dimension

	// Normalize to a monic denominator and pad the numerator to n+1 terms.
	den := make([]float64, n+1)
	for i, c := range tf.Den {
		den[i] = c / tf.Den[0]
	}
	num := make([]float64, n+1)
	copy(num[n+1-len(tf.Num):], tf.Num)
	for i := range num {
		num[i] /= tf.Den[0]
	}

	if n == 0 {
		// Pure gain: y = D u.
		return &StateSpace{
			A: mat.NewDense(1, 1, []float64{0}),
			B: mat.NewDense(1, 1, []float64{0}),
			C: mat.NewDense(1, 1, []float64{0}),
			D: mat.NewDense(1, 1, []float64{num[0]}),
		}, nil
	}

	a := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		a.Set(0, j, -den[j+1])
	}
	for i := 1; i < n; i++ {
		a.Set(i, i-1, 1)
	}

	b := mat.NewDense(n, 1, nil)
	b.Set(0, 0, 1)

	// Strictly-proper residue after pulling out the direct feedthrough.
	d := num[0]
	c := mat.NewDense(1, n, nil)
	for j := 0; j < n; j++ {
		c.Set(0, j, num[j+1]-d*den[j+1])
	}

	return &StateSpace{A: a, B: b, C: c, D: mat.NewDense(1, 1, []float64{d})}, nil
}

// DiscreteStateSpace is a discretized LTI system iterated once per timestep:
//
//	x[k+1] = Ad x[k] + Bd u[k]
//	y[k]   = Cd x[k+1] + Dd u[k]
//
// It owns its internal state exclusively; one instance serves one signal.
type DiscreteStateSpace struct {
	ad *mat.Dense
	bd *mat.Dense
	cd *mat.Dense
	dd *mat.Dense
	x  *mat.VecDense
	dt float64
}

// Discretize converts the continuous system to discrete time with the
// bilinear (Tustin) transform:
//
//	Ad = (I - A*dt/2)^-1 (I + A*dt/2)
//	Bd = (I - A*dt/2)^-1 B*dt
//
// The transform preserves the DC gain and maps the stable half-plane into
// the unit disc.
func (ss *StateSpace) Discretize(dt float64) (*DiscreteStateSpace, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %v", dt)
	}
	n, _ := ss.A.Dims()

	half := mat.NewDense(n, n, nil)
	half.Scale(dt/2, ss.A)

	minus := mat.NewDense(n, n, nil)
	plus := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			eye := 0.0
			if i == j {
				eye = 1.0
			}
			minus.Set(i, j, eye-half.At(i, j))
			plus.Set(i, j, eye+half.At(i, j))
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(minus); err != nil {
		return nil, fmt.Errorf("discretization failed (dt too large for system dynamics?): %w", err)
	}

	ad := mat.NewDense(n, n, nil)
	ad.Mul(&inv, plus)

	scaledB := mat.NewDense(n, 1, nil)
	scaledB.Scale(dt, ss.B)
	bd := mat.NewDense(n, 1, nil)
	bd.Mul(&inv, scaledB)

	return &DiscreteStateSpace{
		ad: ad,
		bd: bd,
		cd: mat.DenseCopyOf(ss.C),
		dd: mat.DenseCopyOf(ss.D),
		x:  mat.NewVecDense(n, nil),
		dt: dt,
	}, nil
}

// NewDiscreteFromTF realizes a transfer function and discretizes it in one
// step.
func NewDiscreteFromTF(tf TransferFunction, dt float64) (*DiscreteStateSpace, error) {
	ss, err := tf.Realize()
	if err != nil {
		return nil, err
	}
	return ss.Discretize(dt)
}

// Update advances the internal state by one timestep with input u and
// returns the output sample.
func (d *DiscreteStateSpace) Update(u float64) float64 {
	n := d.x.Len()

	next := mat.NewVecDense(n, nil)
	next.MulVec(d.ad, d.x)
	var bu mat.VecDense
	bu.ScaleVec(u, d.bd.ColView(0))
	next.AddVec(next, &bu)
	d.x = next

	y := d.dd.At(0, 0) * u
	for j := 0; j < n; j++ {
		y += d.cd.At(0, j) * d.x.AtVec(j)
	}
	return y
}

// Reset zeroes the internal state.
func (d *DiscreteStateSpace) Reset() {
	d.x.Zero()
}

// Dt returns the discretization timestep.
func (d *DiscreteStateSpace) Dt() float64 {
	return d.dt
}
