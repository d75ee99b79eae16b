// Package se2 implements the planar rigid-motion group SE(2) and its Lie
// algebra se(2).
//
// A Pose is a rigid transformation of the plane (heading plus position),
// stored as a 3x3 homogeneous matrix. A Twist is an element of the algebra:
// an instantaneous or incremental motion, stored either as the parameter
// vector (dtheta, dx, dy) or as the matching 3x3 matrix. The Wedge/Vee maps
// convert between the two twist forms; Exp/Log convert between algebra and
// group using the closed-form SE(2) maps.
//
// All functions in this package are pure: they allocate fresh values and
// never mutate their arguments, so values may be shared freely across
// goroutines.
//
// Known limitation: Exp and Log are mutual inverses everywhere except at the
// branch cut theta = ±pi, where Log returns the principal value.
package se2

import "math"

// smallAngle is the rotation-rate threshold below which the closed-form
// exp/log coefficients switch to their first-order Taylor fallback
// (A=1, B=0) to avoid the 0/0 at theta=0.
const smallAngle = 1e-5

// ValidationTolerance is the tolerance used by IsValid when checking that
// the rotation block of a pose is a proper rotation.
const ValidationTolerance = 0.01

// Pose is an element of SE(2): a 3x3 homogeneous transform in row-major
// order with rotation block [[cos,-sin],[sin,cos]], translation column
// (x, y) and bottom row (0, 0, 1).
type Pose [9]float64

// Twist is an element of se(2) in matrix form, row-major:
//
//	[ 0  -dtheta  dx ]
//	[ dtheta  0   dy ]
//	[ 0       0   0  ]
type Twist [9]float64

// Vector is a twist in parameter form: (dtheta, dx, dy). dtheta is the
// rotational rate, dx and dy are body-frame translational rates.
type Vector [3]float64

// FromParams builds the canonical matrix form of a pose from its chart
// parameterization. theta is in radians; x and y may be any reals.
func FromParams(theta, x, y float64) Pose {
	c, s := math.Cos(theta), math.Sin(theta)
	return Pose{
		c, -s, x,
		s, c, y,
		0, 0, 1,
	}
}

// Identity returns the group identity, FromParams(0, 0, 0).
func Identity() Pose {
	return Pose{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Params extracts the chart parameterization (theta, x, y) of a pose.
// theta is recovered with a two-argument arctangent, so it lies in (-pi, pi].
func (p Pose) Params() (theta, x, y float64) {
	theta = math.Atan2(p[3], p[0])
	return theta, p[2], p[5]
}

// Mul returns the group product p*q.
func (p Pose) Mul(q Pose) Pose {
	var r Pose
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[3*i+j] = p[3*i]*q[j] + p[3*i+1]*q[3+j] + p[3*i+2]*q[6+j]
		}
	}
	return r
}

// Inverse returns the group inverse of p, computed in closed form as
// (R^T, -R^T t). p.Mul(p.Inverse()) is the identity up to rounding.
func (p Pose) Inverse() Pose {
	return Pose{
		p[0], p[3], -(p[0]*p[2] + p[3]*p[5]),
		p[1], p[4], -(p[1]*p[2] + p[4]*p[5]),
		0, 0, 1,
	}
}

// IsValid reports whether p is a proper rigid transform: orthonormal
// rotation block with determinant 1 within ValidationTolerance, and an
// exact (0, 0, 1) bottom row.
func (p Pose) IsValid() bool {
	det := p[0]*p[4] - p[1]*p[3]
	if math.Abs(det-1) > ValidationTolerance {
		return false
	}
	return p[6] == 0 && p[7] == 0 && math.Abs(p[8]-1) <= ValidationTolerance
}

// Wedge maps a twist vector (dtheta, dx, dy) to its matrix form.
// It is the exact structural inverse of Twist.Vee.
func Wedge(v Vector) Twist {
	return Twist{
		0, -v[0], v[1],
		v[0], 0, v[2],
		0, 0, 0,
	}
}

// Vee maps a twist matrix back to its parameter vector (dtheta, dx, dy).
// Vee(Wedge(v)) == v exactly for every v.
func (w Twist) Vee() Vector {
	return Vector{w[3], w[2], w[5]}
}

// Exp is the exponential map se(2) -> SE(2): it integrates a constant-rate
// twist into a finite displacement in closed form.
func Exp(w Twist) Pose {
	theta := w[3]
	ux, uy := w[2], w[5]
	a, b := expCoeffs(theta)
	c, s := math.Cos(theta), math.Sin(theta)
	return Pose{
		c, -s, a*ux - b*uy,
		s, c, b*ux + a*uy,
		0, 0, 1,
	}
}

// Log is the logarithmic map SE(2) -> se(2), the closed-form inverse of Exp.
// At theta = ±pi the principal value is returned (branch cut).
func (p Pose) Log() Twist {
	theta := math.Atan2(p[3], p[0])
	a, b := expCoeffs(theta)
	// V^-1 = [[A, B], [-B, A]] / (A^2 + B^2); the small-angle fallback
	// keeps the denominator away from zero.
	d := a*a + b*b
	ux := (a*p[2] + b*p[5]) / d
	uy := (-b*p[2] + a*p[5]) / d
	return Twist{
		0, -theta, ux,
		theta, 0, uy,
		0, 0, 0,
	}
}

// expCoeffs returns the closed-form coefficients A = sin(theta)/theta and
// B = (1-cos(theta))/theta, with the first-order fallback A=1, B=0 below
// the small-angle threshold.
func expCoeffs(theta float64) (a, b float64) {
	if math.Abs(theta) < smallAngle {
		return 1, 0
	}
	return math.Sin(theta) / theta, (1 - math.Cos(theta)) / theta
}

// Scale returns v scaled componentwise by s. Scaling a rate twist by a
// timestep yields the incremental twist for that step.
func (v Vector) Scale(s float64) Vector {
	return Vector{v[0] * s, v[1] * s, v[2] * s}
}

// Add returns the componentwise sum v+u.
func (v Vector) Add(u Vector) Vector {
	return Vector{v[0] + u[0], v[1] + u[1], v[2] + u[2]}
}

// AddScalar returns v with s added to every component.
func (v Vector) AddScalar(s float64) Vector {
	return Vector{v[0] + s, v[1] + s, v[2] + s}
}

// IsFinite reports whether every component of v is finite.
func (v Vector) IsFinite() bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
