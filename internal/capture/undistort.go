package capture

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Undistorter removes lens distortion using calibrated camera
// intrinsics. The optimal new camera matrix is computed lazily from the
// first frame's size; alpha 0 crops the most, 1 keeps the full FOV.
type Undistorter struct {
	cameraMatrix gocv.Mat
	distCoeffs   gocv.Mat
	newMatrix    gocv.Mat
	alpha        float64
	haveNew      bool
}

// NewUndistorter builds an Undistorter from a row-major 3x3 intrinsics
// matrix and 4+ distortion coefficients.
func NewUndistorter(intrinsics []float64, distortion []float64, alpha float64) (*Undistorter, error) {
	if len(intrinsics) != 9 {
		return nil, fmt.Errorf("undistort: intrinsics needs 9 values, got %d", len(intrinsics))
	}
	if len(distortion) < 4 {
		return nil, fmt.Errorf("undistort: distortion needs at least 4 coefficients, got %d", len(distortion))
	}

	cam := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	for i, v := range intrinsics {
		cam.SetDoubleAt(i/3, i%3, v)
	}

	dist := gocv.NewMatWithSize(1, len(distortion), gocv.MatTypeCV64F)
	for i, v := range distortion {
		dist.SetDoubleAt(0, i, v)
	}

	return &Undistorter{cameraMatrix: cam, distCoeffs: dist, alpha: alpha}, nil
}

// Apply undistorts the frame in place.
func (u *Undistorter) Apply(frame *gocv.Mat) {
	if frame == nil || frame.Empty() {
		return
	}

	if !u.haveNew {
		size := image.Pt(frame.Cols(), frame.Rows())
		u.newMatrix, _ = gocv.GetOptimalNewCameraMatrixWithParams(
			u.cameraMatrix, u.distCoeffs, size, u.alpha, size, false)
		u.haveNew = true
	}

	dst := gocv.NewMat()
	gocv.Undistort(*frame, &dst, u.cameraMatrix, u.distCoeffs, u.newMatrix)
	old := *frame
	*frame = dst
	old.Close()
}

// Close releases the calibration matrices.
func (u *Undistorter) Close() {
	u.cameraMatrix.Close()
	u.distCoeffs.Close()
	if u.haveNew {
		u.newMatrix.Close()
	}
}
