//go:build gocv

package vision

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// CVDiffer runs the same comparison through OpenCV. Region areas are OpenCV
// contour areas and the order is the order FindContours reports.
type CVDiffer struct {
	Threshold int
	MinArea   int
}

// NewCVDiffer returns a CVDiffer, substituting defaults for invalid inputs.
func NewCVDiffer(threshold, minArea int) *CVDiffer {
	d := NewDiffer(threshold, minArea)
	return &CVDiffer{Threshold: d.Threshold, MinArea: d.MinArea}
}

// Diff implements Differ.
func (d *CVDiffer) Diff(before, after image.Image) (DiffResult, error) {
	if err := checkPair(before, after); err != nil || isEmpty(before) || isEmpty(after) {
		return DiffResult{}, err
	}
	grayA, err := toGrayMat(before)
	if err != nil {
		return DiffResult{}, err
	}
	defer grayA.Close()
	grayB, err := toGrayMat(after)
	if err != nil {
		return DiffResult{}, err
	}
	defer grayB.Close()

	delta := gocv.NewMat()
	defer delta.Close()
	gocv.AbsDiff(grayA, grayB, &delta)
	binary := gocv.NewMat()
	defer binary.Close()
	gocv.Threshold(delta, &binary, float32(d.Threshold), 255, gocv.ThresholdBinary)

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()
	var kept []ChangeRegion
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area <= float64(d.MinArea) {
			continue
		}
		r := gocv.BoundingRect(c)
		kept = append(kept, ChangeRegion{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy(), Area: int(area)})
	}
	return DiffResult{Regions: kept, Visual: Annotate(before, kept)}, nil
}

func toGrayMat(img image.Image) (gocv.Mat, error) {
	bgr, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("vision: convert frame: %w", err)
	}
	defer bgr.Close()
	gray := gocv.NewMat()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)
	return gray, nil
}

var _ Differ = (*CVDiffer)(nil)

// NewDefaultDiffer returns the OpenCV Differ in gocv builds.
func NewDefaultDiffer(threshold, minArea int) Differ { return NewCVDiffer(threshold, minArea) }
