package tracker

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// classify recognizes the hand shape inside a padded region around the
// detected bounding box. The crop is re-segmented locally, which keeps
// background contamination from the global mask out of the geometry.
func (t *Tracker) classify(frame gocv.Mat, spec ColorSpec, box image.Rectangle) Gesture {
	roi := padRect(box, t.params.ROIPad, frame.Cols(), frame.Rows())
	if roi.Dx() <= 0 || roi.Dy() <= 0 {
		return NoGesture
	}

	region := frame.Region(roi)
	defer region.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(region, &hsv, gocv.ColorBGRToHSV)

	mask := segmentColor(hsv, spec.Ranges, t.params.MaskKernel, t.params.MaskIterations)
	defer mask.Close()

	// Stricter area gate than global detection: a barely-visible blob
	// can still be tracked, but it cannot be classified.
	hand, ok := largestBlobContour(mask, t.params.MinAreaROI)
	if !ok {
		return NoGesture
	}
	defer hand.Close()

	fingers := countFingers(hand, t.params.DefectAngleDeg, t.params.DefectDepth)
	return GestureFromFingers(fingers)
}

// largestBlobContour returns a copy of the largest external contour in
// mask with area at or above minArea.
func largestBlobContour(mask gocv.Mat, minArea float64) (gocv.PointVector, bool) {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	bestIdx := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		if area := gocv.ContourArea(contours.At(i)); area > bestArea {
			bestArea = area
			bestIdx = i
		}
	}
	if bestIdx < 0 || bestArea < minArea {
		return gocv.PointVector{}, false
	}
	return gocv.NewPointVectorFromPoints(contours.At(bestIdx).ToPoints()), true
}

// countFingers counts extended fingers from the convexity defects of the
// hand contour. A defect counts as a finger gap when the angle at its
// deepest point is below maxAngleDeg and its normalized depth exceeds
// minDepth (the raw depth field is fixed-point, 1/256 units).
func countFingers(contour gocv.PointVector, maxAngleDeg, minDepth float64) int {
	hull := gocv.NewMat()
	defer hull.Close()
	gocv.ConvexHull(contour, &hull, false, false)
	if hull.Rows() < 3 {
		return 0
	}

	defects := gocv.NewMat()
	defer defects.Close()
	gocv.ConvexityDefects(contour, hull, &defects)
	if defects.Empty() {
		return 0
	}

	gaps := 0
	for i := 0; i < defects.Rows(); i++ {
		start := contour.At(int(defects.GetIntAt(i, 0)))
		end := contour.At(int(defects.GetIntAt(i, 1)))
		far := contour.At(int(defects.GetIntAt(i, 2)))
		depth := float64(defects.GetIntAt(i, 3)) / 256.0

		a := pointDist(start, end)
		b := pointDist(start, far)
		c := pointDist(end, far)
		if b*c == 0 {
			continue
		}

		// Law of cosines at the deepest point.
		angle := math.Acos((b*b+c*c-a*a)/(2*b*c)) * 180 / math.Pi
		if angle < maxAngleDeg && depth > minDepth {
			gaps++
		}
	}

	if gaps == 0 {
		return 0
	}
	fingers := gaps + 1
	if fingers > 5 {
		fingers = 5
	}
	return fingers
}

func pointDist(p, q image.Point) float64 {
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// padRect grows box by pad on every side, clamped to the frame.
func padRect(box image.Rectangle, pad, width, height int) image.Rectangle {
	return image.Rect(
		max(0, box.Min.X-pad),
		max(0, box.Min.Y-pad),
		min(width, box.Max.X+pad),
		min(height, box.Max.Y+pad),
	)
}
