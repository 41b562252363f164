package tracker

import (
	"image"

	"gocv.io/x/gocv"
)

// Point is a sub-pixel 2D position.
type Point struct {
	X float64
	Y float64
}

// blob is the largest connected foreground region of a mask.
type blob struct {
	rect   image.Rectangle
	center Point
	area   float64
}

// largestBlob finds the biggest external connected region in mask.
// Regions below minArea are rejected outright, even if they are the
// largest present, so shadows and noise never count as detections.
// An exact-area tie resolves to the first contour found.
func largestBlob(mask gocv.Mat, minArea float64) (blob, bool) {
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
		return blob{}, false
	}

	rect := gocv.BoundingRect(contours.At(bestIdx))
	return blob{
		rect: rect,
		center: Point{
			X: float64(rect.Min.X) + float64(rect.Dx())/2,
			Y: float64(rect.Min.Y) + float64(rect.Dy())/2,
		},
		area: bestArea,
	}, true
}
