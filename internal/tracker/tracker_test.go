package tracker

import (
	"image"
	"image/color"
	"math"
	"testing"

	"gocv.io/x/gocv"
)

// blueSpec matches pure blue (BGR 255,0,0), which lands at HSV 120.
func blueSpec() ColorSpec {
	return ColorSpec{
		Name: "blue",
		Ranges: []HSVRange{{
			Lower: [3]float64{110, 100, 100},
			Upper: [3]float64{130, 255, 255},
		}},
	}
}

// blueFrame draws a solid blue square on a black 640x480 BGR frame.
func blueFrame(t *testing.T, rect image.Rectangle) gocv.Mat {
	t.Helper()
	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	gocv.Rectangle(&frame, rect, color.RGBA{B: 255}, -1)
	return frame
}

func TestNew_Validation(t *testing.T) {
	params := DefaultParams()

	t.Run("rejects empty color list", func(t *testing.T) {
		if _, err := New(nil, params); err == nil {
			t.Error("expected error for empty color list")
		}
	})

	t.Run("rejects unnamed color", func(t *testing.T) {
		spec := blueSpec()
		spec.Name = ""
		if _, err := New([]ColorSpec{spec}, params); err == nil {
			t.Error("expected error for unnamed color")
		}
	})

	t.Run("rejects color without ranges", func(t *testing.T) {
		spec := blueSpec()
		spec.Ranges = nil
		if _, err := New([]ColorSpec{spec}, params); err == nil {
			t.Error("expected error for color without ranges")
		}
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		if _, err := New([]ColorSpec{blueSpec(), blueSpec()}, params); err == nil {
			t.Error("expected error for duplicate color names")
		}
	})
}

func TestTracker_DetectsSolidBlob(t *testing.T) {
	trk, err := New([]ColorSpec{blueSpec()}, DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rect := image.Rect(200, 150, 320, 270)
	frame := blueFrame(t, rect)
	defer frame.Close()

	obs := trk.Update(frame)["blue"]

	if !obs.Detected {
		t.Fatal("expected the blue square to be detected")
	}
	if !obs.Predicted {
		t.Error("expected a position estimate on the detection frame")
	}

	wantX, wantY := 260.0, 210.0
	if math.Abs(obs.CenterMeasured.X-wantX) > 5 || math.Abs(obs.CenterMeasured.Y-wantY) > 5 {
		t.Errorf("measured center = (%v, %v), want near (%v, %v)",
			obs.CenterMeasured.X, obs.CenterMeasured.Y, wantX, wantY)
	}
	if math.Abs(obs.CenterPredicted.X-wantX) > 5 || math.Abs(obs.CenterPredicted.Y-wantY) > 5 {
		t.Errorf("predicted center = (%v, %v), want near (%v, %v)",
			obs.CenterPredicted.X, obs.CenterPredicted.Y, wantX, wantY)
	}

	// A solid square has no finger gaps, so it classifies as a fist.
	if obs.Gesture != Rock {
		t.Errorf("expected ROCK for a solid blob, got %q", obs.Gesture)
	}
}

func TestTracker_PredictionSurvivesLostDetection(t *testing.T) {
	trk, err := New([]ColorSpec{blueSpec()}, DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame := blueFrame(t, image.Rect(200, 150, 320, 270))
	defer frame.Close()
	trk.Update(frame)

	// A black frame loses the blob but the track keeps predicting.
	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()

	obs := trk.Update(black)["blue"]
	if obs.Detected {
		t.Error("expected no detection on a black frame")
	}
	if !obs.Predicted {
		t.Error("expected the prediction to persist after losing the blob")
	}
	if math.Abs(obs.CenterPredicted.X-260) > 20 || math.Abs(obs.CenterPredicted.Y-210) > 20 {
		t.Errorf("predicted center drifted to (%v, %v)",
			obs.CenterPredicted.X, obs.CenterPredicted.Y)
	}
}

func TestTracker_EmptyFrame(t *testing.T) {
	trk, err := New([]ColorSpec{blueSpec()}, DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	empty := gocv.NewMat()
	defer empty.Close()

	obs := trk.Update(empty)["blue"]
	if obs.Detected {
		t.Error("expected no detection on an empty frame")
	}
	if obs.Predicted {
		t.Error("expected no prediction before the first detection")
	}
}

func TestTracker_AreaGate(t *testing.T) {
	trk, err := New([]ColorSpec{blueSpec()}, DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// A 20x20 square is far below the detection gate.
	frame := blueFrame(t, image.Rect(100, 100, 120, 120))
	defer frame.Close()

	if obs := trk.Update(frame)["blue"]; obs.Detected {
		t.Error("expected a sub-threshold blob to be rejected")
	}
}

func TestTracker_UpdateWithMasks(t *testing.T) {
	trk, err := New([]ColorSpec{blueSpec()}, DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frame := blueFrame(t, image.Rect(200, 150, 320, 270))
	defer frame.Close()

	obs, masks := trk.UpdateWithMasks(frame)
	defer func() {
		for _, m := range masks {
			m.Close()
		}
	}()

	if !obs["blue"].Detected {
		t.Fatal("expected detection")
	}
	mask, ok := masks["blue"]
	if !ok {
		t.Fatal("expected a mask for the tracked color")
	}
	if mask.Empty() {
		t.Error("expected a non-empty mask")
	}
	if n := gocv.CountNonZero(mask); n < 10000 {
		t.Errorf("expected the mask to cover the square, got %d pixels", n)
	}
}

func TestTracker_Colors(t *testing.T) {
	red := ColorSpec{
		Name: "red",
		Ranges: []HSVRange{
			{Lower: [3]float64{0, 100, 100}, Upper: [3]float64{10, 255, 255}},
			{Lower: [3]float64{170, 100, 100}, Upper: [3]float64{180, 255, 255}},
		},
	}
	trk, err := New([]ColorSpec{blueSpec(), red}, DefaultParams())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := trk.Colors()
	if len(got) != 2 || got[0] != "blue" || got[1] != "red" {
		t.Errorf("Colors() = %v, want [blue red]", got)
	}
}
