package sim

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roversim/internal/config"
	"github.com/banshee-data/roversim/internal/se2"
)

// constController always returns the same commands, ignoring the error.
type constController struct {
	throttle float64
	steering float64
}

func (c constController) Update(_, _ se2.Vector) (float64, float64) {
	return c.throttle, c.steering
}

// funcController adapts a function to the Controller interface.
type funcController func(err, refRate se2.Vector) (float64, float64)

func (f funcController) Update(err, refRate se2.Vector) (float64, float64) {
	return f(err, refRate)
}

func boolPtr(v bool) *bool        { return &v }
func floatPtr(v float64) *float64 { return &v }

func quietConfig() *config.SimConfig {
	return &config.SimConfig{
		EnableNoise:       boolPtr(false),
		EnableDisturbance: boolPtr(false),
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := New(&config.SimConfig{Dt: floatPtr(-1)}, constController{}, rng)
	assert.Error(t, err)

	_, err = New(quietConfig(), nil, rng)
	assert.Error(t, err)

	_, err = New(quietConfig(), constController{}, nil)
	assert.Error(t, err)

	_, err = New(nil, constController{}, rng)
	assert.NoError(t, err, "nil config falls back to defaults")
}

func TestZeroControllerOnStraightTrackHoldsStill(t *testing.T) {
	cfg := quietConfig()
	cfg.Track = []int{0}

	s, err := New(cfg, constController{}, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	// Stalled vehicle: the gated reference never advances.
	assert.Equal(t, 0.0, res.Distance)
	assert.False(t, res.Crashed)

	// Fixed step count: ceil(tf/dt) samples, no early exit.
	wantSteps := int(math.Ceil(cfg.GetFinalTime() / cfg.GetDt()))
	require.Len(t, res.Series, wantSteps)

	// The lateral error stays pinned at the starting offset of half the
	// track half-width, confirming the error-sign convention.
	wantOffset := cfg.GetTrackHalfWidth() / 2
	for i, smp := range res.Series {
		if math.Abs(smp.EX-wantOffset) > 1e-12 {
			t.Fatalf("sample %d: lateral error %v, want %v", i, smp.EX, wantOffset)
		}
		if smp.EY != 0 || smp.Velocity != 0 {
			t.Fatalf("sample %d: vehicle moved (ey=%v, v=%v)", i, smp.EY, smp.Velocity)
		}
	}
}

func TestCrashIsStickyAndStopsVehicle(t *testing.T) {
	// Full throttle with a constant wheel angle drives the vehicle on a
	// 0.2m-radius circle away from the straight reference, through the
	// off-track band and past the crash threshold.
	cfg := quietConfig()
	cfg.Track = []int{0}

	s, err := New(cfg, constController{throttle: 1, steering: 0.05}, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	require.True(t, res.Crashed, "vehicle should leave the track and crash")

	crashStep := -1
	sawOffTrackPenalty := false
	for i, smp := range res.Series {
		if smp.OffTrack && !smp.Crashed && smp.Velocity == 0.5 {
			// Off-track but not crashed: velocity scaled by 1-penalty.
			sawOffTrackPenalty = true
		}
		if smp.Crashed {
			crashStep = i
			break
		}
	}
	require.GreaterOrEqual(t, crashStep, 1, "crash should happen after the start")
	assert.True(t, sawOffTrackPenalty, "expected an off-track penalty phase before the crash")

	// Sticky: every later sample stays crashed with the vehicle at rest.
	for i := crashStep; i < len(res.Series); i++ {
		if !res.Series[i].Crashed {
			t.Fatalf("sample %d: crash flag cleared", i)
		}
		if res.Series[i].Velocity != 0 {
			t.Fatalf("sample %d: crashed vehicle still moving (v=%v)", i, res.Series[i].Velocity)
		}
	}
}

func TestActuatorClamping(t *testing.T) {
	cfg := quietConfig()
	cfg.FinalTime = floatPtr(0.01)

	s, err := New(cfg, constController{throttle: 5, steering: -3}, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	for _, smp := range res.Series {
		assert.Equal(t, 1.0, smp.Throttle, "throttle clamps to [0,1]")
		assert.Equal(t, -1.0, smp.Steering, "steering clamps to [-1,1]")
		assert.Equal(t, smp.Steering, smp.Wheel)
	}
}

func TestNonFiniteCommandIsFatal(t *testing.T) {
	cases := []struct {
		name string
		ctrl Controller
	}{
		{"nan throttle", constController{throttle: math.NaN()}},
		{"inf steering", constController{steering: math.Inf(1)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := New(quietConfig(), tc.ctrl, rand.New(rand.NewSource(4)))
			require.NoError(t, err)

			_, err = s.Run(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNonFiniteCommand)
		})
	}
}

func TestDeterministicRuns(t *testing.T) {
	// With noise and disturbance disabled and a deterministic controller,
	// two equally-seeded simulators must produce bit-identical series.
	ctrl := funcController(func(errVec, refRate se2.Vector) (float64, float64) {
		return 0.5 - 0.2*errVec[2], -(2*errVec[0] + 5*errVec[1])
	})

	run := func() Series {
		s, err := New(quietConfig(), ctrl, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		res, err := s.Run(context.Background())
		require.NoError(t, err)
		return res.Series
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestRunHonorsCancellation(t *testing.T) {
	s, err := New(quietConfig(), constController{}, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReferenceAdvancesWhenVehicleAhead(t *testing.T) {
	// A vehicle driving straight down a straight track pulls ahead of the
	// stalled reference, which then starts moving and accrues distance.
	cfg := quietConfig()
	cfg.Track = []int{0}
	cfg.FinalTime = floatPtr(1.0)

	s, err := New(cfg, constController{throttle: 1}, rand.New(rand.NewSource(6)))
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Greater(t, res.Distance, 0.0)
	assert.False(t, res.Crashed)
}

func TestColumnsMatchSeries(t *testing.T) {
	cfg := quietConfig()
	cfg.FinalTime = floatPtr(0.05)

	s, err := New(cfg, constController{throttle: 0.3}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	cols := res.Series.Columns()
	n := len(res.Series)
	require.Equal(t, n, len(cols.T))
	require.Equal(t, n, len(cols.EX))
	require.Equal(t, n, len(cols.Crashed))

	for i, smp := range res.Series {
		assert.Equal(t, smp.T, cols.T[i])
		assert.Equal(t, smp.X, cols.X[i])
		assert.Equal(t, smp.EX, cols.EX[i])
		assert.Equal(t, smp.Velocity, cols.Velocity[i])
		assert.Equal(t, smp.OffTrack, cols.OffTrack[i])
	}
}

func TestTrackBoundariesStraddleReference(t *testing.T) {
	cfg := quietConfig()
	cfg.FinalTime = floatPtr(0.01)

	s, err := New(cfg, constController{}, rand.New(rand.NewSource(8)))
	require.NoError(t, err)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	hw := cfg.GetTrackHalfWidth()
	for _, smp := range res.Series {
		left := smp.TrackLeftX - smp.XRef
		right := smp.TrackRightX - smp.XRef
		assert.InDelta(t, hw, left, 1e-12)
		assert.InDelta(t, -hw, right, 1e-12)
	}
}
