// Package tracker turns noisy per-frame color-blob observations into
// tracked positions and classified rock-paper-scissors gestures.
//
// Pipeline per frame and per tracked color:
//  1. HSV segmentation of the configured range union.
//  2. Largest-blob detection with an area gate.
//  3. Constant-velocity Kalman predict (always) / correct (on detection).
//  4. Convex-hull defect finger counting inside the blob's region.
//  5. Majority-vote smoothing of the classified label.
package tracker

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Default tuning. The defect thresholds and area gates are empirically
// tuned; they are parameters, not derived values.
const (
	DefaultMinAreaDetect  = 1500
	DefaultMinAreaROI     = 800
	DefaultMaskKernel     = 7
	DefaultMaskIterations = 1
	DefaultROIPad         = 20
	DefaultSmootherLen    = 10
	DefaultKalmanDT       = 1.0
	DefaultKalmanQ        = 1e-2
	DefaultKalmanR        = 1e-1
	DefaultDefectAngleDeg = 90.0
	DefaultDefectDepth    = 10.0
)

// fallbackSize is the assumed blob size before the first detection.
var fallbackSize = image.Pt(120, 120)

// Params holds the tracker's tuning parameters.
type Params struct {
	// MinAreaDetect is the global detection area gate in pixels².
	MinAreaDetect float64
	// MinAreaROI is the stricter gate for classifying inside the crop.
	MinAreaROI float64
	// MaskKernel and MaskIterations shape the open/close cleanup pass.
	MaskKernel     int
	MaskIterations int
	// ROIPad grows the classification crop around the bounding box.
	ROIPad int
	// SmootherLen is the majority-vote window length.
	SmootherLen int
	// Kalman filter noise parameters (fixed, not adaptive).
	KalmanDT float64
	KalmanQ  float64
	KalmanR  float64
	// Convexity-defect finger-gap thresholds.
	DefectAngleDeg float64
	DefectDepth    float64
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		MinAreaDetect:  DefaultMinAreaDetect,
		MinAreaROI:     DefaultMinAreaROI,
		MaskKernel:     DefaultMaskKernel,
		MaskIterations: DefaultMaskIterations,
		ROIPad:         DefaultROIPad,
		SmootherLen:    DefaultSmootherLen,
		KalmanDT:       DefaultKalmanDT,
		KalmanQ:        DefaultKalmanQ,
		KalmanR:        DefaultKalmanR,
		DefectAngleDeg: DefaultDefectAngleDeg,
		DefectDepth:    DefaultDefectDepth,
	}
}

// Observation is one color's result for one frame. Observations are
// produced fresh each frame and not retained by the tracker.
type Observation struct {
	// Detected reports whether a qualifying blob was found this frame.
	Detected bool
	// BBox and CenterMeasured are meaningful only when Detected.
	BBox           image.Rectangle
	CenterMeasured Point
	// CenterPredicted is the Kalman estimate; present (Predicted=true)
	// once the filter has been initialized, even while undetected.
	CenterPredicted Point
	Predicted       bool
	// Gesture is the smoothed label, NoGesture when none qualified.
	Gesture Gesture
}

// trackState is the per-color mutable session state. It is created once
// at construction and never destroyed; losing the blob only pauses
// corrections, it does not discard the track.
type trackState struct {
	filter *PointFilter
	// lastSize is the last detected bounding-box size, kept as a crop
	// fallback while detection is momentarily lost.
	lastSize image.Point
	smoother *Smoother
}

// Tracker owns the per-color tracks. It is single-threaded and
// frame-synchronous: call Update exactly once per frame, in arrival
// order.
type Tracker struct {
	colors []ColorSpec
	params Params
	tracks map[string]*trackState
}

// New builds a Tracker for the configured colors. The color list is a
// construction-time contract: it must be non-empty, every color needs at
// least one HSV range, and names must be unique.
func New(colors []ColorSpec, params Params) (*Tracker, error) {
	if len(colors) == 0 {
		return nil, errors.New("tracker: no tracked colors configured")
	}

	tracks := make(map[string]*trackState, len(colors))
	for _, spec := range colors {
		if spec.Name == "" {
			return nil, errors.New("tracker: tracked color with empty name")
		}
		if len(spec.Ranges) == 0 {
			return nil, fmt.Errorf("tracker: color %q has no HSV ranges", spec.Name)
		}
		if _, dup := tracks[spec.Name]; dup {
			return nil, fmt.Errorf("tracker: duplicate color %q", spec.Name)
		}
		tracks[spec.Name] = &trackState{
			filter:   NewPointFilter(params.KalmanDT, params.KalmanQ, params.KalmanR),
			lastSize: fallbackSize,
			smoother: NewSmoother(params.SmootherLen),
		}
	}

	return &Tracker{
		colors: colors,
		params: params,
		tracks: tracks,
	}, nil
}

// Colors returns the configured color names in configuration order.
func (t *Tracker) Colors() []string {
	names := make([]string, len(t.colors))
	for i, spec := range t.colors {
		names[i] = spec.Name
	}
	return names
}

// Update processes one BGR frame and returns an Observation per color.
func (t *Tracker) Update(frame gocv.Mat) map[string]Observation {
	obs, _ := t.update(frame, false)
	return obs
}

// UpdateWithMasks additionally returns the cleaned per-color masks for
// visualization. The caller owns the mask Mats and must Close them.
func (t *Tracker) UpdateWithMasks(frame gocv.Mat) (map[string]Observation, map[string]gocv.Mat) {
	return t.update(frame, true)
}

func (t *Tracker) update(frame gocv.Mat, wantMasks bool) (map[string]Observation, map[string]gocv.Mat) {
	results := make(map[string]Observation, len(t.colors))
	var masks map[string]gocv.Mat
	if wantMasks {
		masks = make(map[string]gocv.Mat, len(t.colors))
	}

	if frame.Empty() {
		// A dropped frame is a frame with no detections: tracks still
		// predict so downstream counters advance consistently.
		for _, spec := range t.colors {
			results[spec.Name] = t.stepColor(frame, spec, blob{}, false)
		}
		return results, masks
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV)

	for _, spec := range t.colors {
		mask := segmentColor(hsv, spec.Ranges, t.params.MaskKernel, t.params.MaskIterations)
		found, ok := largestBlob(mask, t.params.MinAreaDetect)
		if wantMasks {
			masks[spec.Name] = mask
		} else {
			mask.Close()
		}

		results[spec.Name] = t.stepColor(frame, spec, found, ok)
	}

	return results, masks
}

// stepColor advances one color's track by one frame.
func (t *Tracker) stepColor(frame gocv.Mat, spec ColorSpec, found blob, detected bool) Observation {
	st := t.tracks[spec.Name]

	wasInitialized := st.filter.Initialized()
	predX, predY := st.filter.Predict()

	obs := Observation{
		CenterPredicted: Point{X: predX, Y: predY},
		Predicted:       wasInitialized,
	}
	if !detected {
		return obs
	}

	if !wasInitialized {
		st.filter.Init(found.center.X, found.center.Y)
	}
	st.filter.Correct(found.center.X, found.center.Y)
	st.lastSize = image.Pt(found.rect.Dx(), found.rect.Dy())

	obs.Detected = true
	obs.BBox = found.rect
	obs.CenterMeasured = found.center

	if g := t.classify(frame, spec, found.rect); g != NoGesture {
		obs.Gesture = st.smoother.Update(g)
	}

	// Report the corrected estimate once initialized this frame.
	x, y, _, _ := st.filter.State()
	obs.CenterPredicted = Point{X: x, Y: y}
	obs.Predicted = true

	return obs
}
