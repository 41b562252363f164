package tracker

import (
	"image"

	"gocv.io/x/gocv"
)

// HSVRange is one inclusive lower/upper interval in HSV space.
// Colors that wrap the hue axis (red) use a union of two ranges.
type HSVRange struct {
	Lower [3]float64
	Upper [3]float64
}

// ColorSpec identifies one tracked color: a unique name and its HSV
// range union. Immutable for the session once the tracker is built.
type ColorSpec struct {
	Name   string
	Ranges []HSVRange
}

// segmentColor builds a binary mask of the pixels inside any of the
// color's HSV ranges and cleans it with a fixed open-then-close pass to
// drop speckle and fill small holes. The caller owns the returned Mat.
func segmentColor(hsv gocv.Mat, ranges []HSVRange, kernelSize, iterations int) gocv.Mat {
	var mask gocv.Mat
	if len(ranges) == 1 {
		mask = gocv.NewMat()
		gocv.InRangeWithScalar(hsv, scalar3(ranges[0].Lower), scalar3(ranges[0].Upper), &mask)
	} else {
		mask = gocv.Zeros(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
		for _, r := range ranges {
			part := gocv.NewMat()
			gocv.InRangeWithScalar(hsv, scalar3(r.Lower), scalar3(r.Upper), &part)
			gocv.BitwiseOr(mask, part, &mask)
			part.Close()
		}
	}

	cleanMask(&mask, kernelSize, iterations)
	return mask
}

// cleanMask applies morphological open then close in place.
func cleanMask(mask *gocv.Mat, kernelSize, iterations int) {
	if kernelSize < 1 {
		return
	}
	if iterations < 1 {
		iterations = 1
	}

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(kernelSize, kernelSize))
	defer kernel.Close()

	gocv.MorphologyExWithParams(*mask, mask, gocv.MorphOpen, kernel, iterations, gocv.BorderConstant)
	gocv.MorphologyExWithParams(*mask, mask, gocv.MorphClose, kernel, iterations, gocv.BorderConstant)
}

func scalar3(v [3]float64) gocv.Scalar {
	return gocv.NewScalar(v[0], v[1], v[2], 0)
}
