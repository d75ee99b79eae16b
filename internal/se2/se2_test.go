package se2

import (
	"math"
	"math/rand"
	"testing"
)

const tol = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tol
}

func randomVector(rng *rand.Rand) Vector {
	// Keep |theta| in (0, pi) so exp/log stay away from the branch cut.
	theta := (rng.Float64()*2 - 1) * (math.Pi - 0.01)
	for theta == 0 {
		theta = (rng.Float64()*2 - 1) * (math.Pi - 0.01)
	}
	return Vector{
		theta,
		(rng.Float64()*2 - 1) * 10,
		(rng.Float64()*2 - 1) * 10,
	}
}

func TestVeeWedgeRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		v := randomVector(rng)
		got := Wedge(v).Vee()
		// Structural inverse: must be exact, not just within tolerance.
		if got != v {
			t.Fatalf("vee(wedge(%v)) = %v, want exact round-trip", v, got)
		}
	}
}

func TestParamsRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 200; i++ {
		v := randomVector(rng)
		theta, x, y := FromParams(v[0], v[1], v[2]).Params()
		if !almostEqual(theta, v[0]) || !almostEqual(x, v[1]) || !almostEqual(y, v[2]) {
			t.Fatalf("params round-trip: got (%v, %v, %v), want %v", theta, x, y, v)
		}
	}
}

func TestExpLogRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		v := randomVector(rng)
		got := Exp(Wedge(v)).Log().Vee()
		for j := range v {
			if !almostEqual(got[j], v[j]) {
				t.Fatalf("log(exp(%v)) = %v", v, got)
			}
		}
	}
}

func TestExpSmallAngle(t *testing.T) {
	// At theta=0 exactly, exp must reduce to a pure translation with zero
	// heading change.
	p := Exp(Wedge(Vector{0, 1.5, -2.5}))
	theta, x, y := p.Params()
	if theta != 0 {
		t.Errorf("expected zero heading, got %v", theta)
	}
	if x != 1.5 || y != -2.5 {
		t.Errorf("expected pure translation (1.5, -2.5), got (%v, %v)", x, y)
	}
}

func TestLogSmallAngle(t *testing.T) {
	// The same fallback on the log side: a pure translation maps back to a
	// zero-rotation twist without dividing by zero.
	v := FromParams(0, 3, 4).Log().Vee()
	if v[0] != 0 || v[1] != 3 || v[2] != 4 {
		t.Errorf("log of pure translation: got %v, want (0, 3, 4)", v)
	}
}

func TestIdentityLaw(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	id := Identity()
	for i := 0; i < 50; i++ {
		v := randomVector(rng)
		p := FromParams(v[0], v[1], v[2])
		if got := id.Mul(p); got != p {
			t.Fatalf("identity * p changed p: %v != %v", got, p)
		}
		if got := p.Mul(id); got != p {
			t.Fatalf("p * identity changed p: %v != %v", got, p)
		}
	}
}

func TestInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		v := randomVector(rng)
		p := FromParams(v[0], v[1], v[2])

		theta, x, y := p.Mul(p.Inverse()).Params()
		if !almostEqual(theta, 0) || !almostEqual(x, 0) || !almostEqual(y, 0) {
			t.Fatalf("p * p^-1 not identity: (%v, %v, %v)", theta, x, y)
		}

		// The log-derived inverse exp(-log(p)) must agree with the closed form.
		inv := Exp(Wedge(p.Log().Vee().Scale(-1)))
		theta, x, y = p.Mul(inv).Params()
		if !almostEqual(theta, 0) || !almostEqual(x, 0) || !almostEqual(y, 0) {
			t.Fatalf("p * exp(-log p) not identity: (%v, %v, %v)", theta, x, y)
		}
	}
}

func TestMulAssociative(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	for i := 0; i < 50; i++ {
		a := Exp(Wedge(randomVector(rng)))
		b := Exp(Wedge(randomVector(rng)))
		c := Exp(Wedge(randomVector(rng)))
		left := a.Mul(b).Mul(c)
		right := a.Mul(b.Mul(c))
		for j := range left {
			if !almostEqual(left[j], right[j]) {
				t.Fatalf("associativity violated at entry %d: %v vs %v", j, left[j], right[j])
			}
		}
	}
}

func TestIsValid(t *testing.T) {
	if !FromParams(1.2, -3, 4).IsValid() {
		t.Error("canonical pose reported invalid")
	}
	var bad Pose
	if bad.IsValid() {
		t.Error("zero matrix reported valid")
	}
	skewed := FromParams(0.5, 0, 0)
	skewed[0] *= 1.5 // break orthonormality
	if skewed.IsValid() {
		t.Error("scaled rotation block reported valid")
	}
}

func TestVectorHelpers(t *testing.T) {
	v := Vector{1, 2, 3}
	if got := v.Scale(0.5); got != (Vector{0.5, 1, 1.5}) {
		t.Errorf("Scale: got %v", got)
	}
	if got := v.Add(Vector{1, 1, 1}); got != (Vector{2, 3, 4}) {
		t.Errorf("Add: got %v", got)
	}
	if got := v.AddScalar(-1); got != (Vector{0, 1, 2}) {
		t.Errorf("AddScalar: got %v", got)
	}
	if !v.IsFinite() {
		t.Error("finite vector reported non-finite")
	}
	if (Vector{math.NaN(), 0, 0}).IsFinite() {
		t.Error("NaN vector reported finite")
	}
	if (Vector{0, math.Inf(1), 0}).IsFinite() {
		t.Error("Inf vector reported finite")
	}
}
