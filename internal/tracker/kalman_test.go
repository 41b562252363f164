package tracker

import (
	"math"
	"testing"
)

func TestPointFilter_InitThenPredictHoldsPosition(t *testing.T) {
	k := NewPointFilter(1.0, 1e-2, 1e-1)

	if k.Initialized() {
		t.Fatal("expected fresh filter to be uninitialized")
	}

	k.Init(100, 200)
	if !k.Initialized() {
		t.Fatal("expected filter to be initialized after Init")
	}

	// Zero velocity: prediction stays at the seeded position.
	x, y := k.Predict()
	if math.Abs(x-100) > 1e-9 || math.Abs(y-200) > 1e-9 {
		t.Errorf("predict after init = (%v, %v), want (100, 200)", x, y)
	}
}

func TestPointFilter_CorrectPullsTowardMeasurement(t *testing.T) {
	k := NewPointFilter(1.0, 1e-2, 1e-1)
	k.Init(0, 0)

	k.Predict()
	k.Correct(10, 0)

	x, y, _, _ := k.State()
	if x <= 0 || x > 10 {
		t.Errorf("expected corrected x within (0, 10], got %v", x)
	}
	if math.Abs(y) > 1e-9 {
		t.Errorf("expected y to stay 0, got %v", y)
	}
}

func TestPointFilter_StationaryMeasurementsConverge(t *testing.T) {
	k := NewPointFilter(1.0, 1e-2, 1e-1)
	k.Init(50, 50)

	for i := 0; i < 30; i++ {
		k.Predict()
		k.Correct(50, 50)
	}

	x, y, vx, vy := k.State()
	if math.Abs(x-50) > 1e-6 || math.Abs(y-50) > 1e-6 {
		t.Errorf("expected position to stay at (50, 50), got (%v, %v)", x, y)
	}
	if math.Abs(vx) > 1e-6 || math.Abs(vy) > 1e-6 {
		t.Errorf("expected velocity near zero, got (%v, %v)", vx, vy)
	}
}

func TestPointFilter_TracksConstantVelocity(t *testing.T) {
	k := NewPointFilter(1.0, 1e-2, 1e-1)
	k.Init(0, 0)

	// Feed a target moving 5 px/frame along x.
	for i := 1; i <= 40; i++ {
		k.Predict()
		k.Correct(float64(i*5), 0)
	}

	_, _, vx, _ := k.State()
	if math.Abs(vx-5) > 0.5 {
		t.Errorf("expected learned velocity near 5, got %v", vx)
	}

	// With the motion learned, a blind prediction follows the target.
	px, _ := k.Predict()
	if math.Abs(px-205) > 2 {
		t.Errorf("expected blind prediction near 205, got %v", px)
	}
}
