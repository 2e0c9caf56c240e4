package vision

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Defaults used when a Differ is built with zero values.
const (
	DefaultDiffThreshold = 30
	DefaultMinRegionArea = 100
)

// ErrDimensionMismatch is returned when the compared frames differ in size.
var ErrDimensionMismatch = errors.New("vision: frame dimensions differ")

var boxColor = color.NRGBA{R: 0, G: 255, B: 0, A: 255}

const boxThickness = 2

// ChangeRegion is an axis-aligned box around one changed area, in the
// coordinate space of the compared frames (origin at their top-left).
type ChangeRegion struct {
	X, Y          int
	Width, Height int
	Area          int
}

// Rect returns the region as an image.Rectangle.
func (r ChangeRegion) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Offset returns the region translated by p, e.g. into screen coordinates.
func (r ChangeRegion) Offset(p image.Point) ChangeRegion {
	r.X += p.X
	r.Y += p.Y
	return r
}

// DiffResult is the outcome of comparing two frames. Visual is a copy of the
// first frame with every kept region outlined.
type DiffResult struct {
	Regions []ChangeRegion
	Visual  *image.NRGBA
}

// Empty reports whether no region survived filtering.
func (r DiffResult) Empty() bool { return len(r.Regions) == 0 }

// Differ locates changed areas between two equally sized frames.
type Differ interface {
	Diff(before, after image.Image) (DiffResult, error)
}

// FrameDiffer is the pure Go Differ.
type FrameDiffer struct {
	Threshold int // luma delta that counts as changed (strictly greater)
	MinArea   int // regions with Area <= MinArea are dropped
}

// NewDiffer returns a FrameDiffer, substituting defaults for negative inputs.
func NewDiffer(threshold, minArea int) *FrameDiffer {
	if threshold < 0 || threshold > 255 {
		threshold = DefaultDiffThreshold
	}
	if minArea < 0 {
		minArea = DefaultMinRegionArea
	}
	return &FrameDiffer{Threshold: threshold, MinArea: minArea}
}

// Diff compares before and after. Mismatched sizes yield an empty result and
// ErrDimensionMismatch; a nil or empty frame yields an empty result and no error.
func (d *FrameDiffer) Diff(before, after image.Image) (DiffResult, error) {
	if err := checkPair(before, after); err != nil || isEmpty(before) || isEmpty(after) {
		return DiffResult{}, err
	}
	a := luminance(before)
	b := luminance(after)
	mask := make([]bool, len(a.pix))
	for i := range a.pix {
		delta := int(a.pix[i]) - int(b.pix[i])
		if delta < 0 {
			delta = -delta
		}
		mask[i] = delta > d.Threshold
	}
	var kept []ChangeRegion
	for _, c := range externalRegions(mask, a.w, a.h) {
		if c.twiceArea > 2*d.MinArea {
			kept = append(kept, c.ChangeRegion)
		}
	}
	return DiffResult{Regions: kept, Visual: Annotate(before, kept)}, nil
}

// checkPair validates that both frames are usable and equally sized. The
// comparison is symmetric in its arguments.
func checkPair(a, b image.Image) error {
	if isEmpty(a) || isEmpty(b) {
		return nil
	}
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return fmt.Errorf("%w: %dx%d vs %dx%d", ErrDimensionMismatch, ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	return nil
}

// Annotate returns a copy of img with a green outline drawn around each region.
func Annotate(img image.Image, regions []ChangeRegion) *image.NRGBA {
	out := imaging.Clone(img)
	bounds := out.Bounds()
	for _, r := range regions {
		rect := r.Rect().Intersect(bounds)
		if rect.Empty() {
			continue
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			edgeY := y < rect.Min.Y+boxThickness || y >= rect.Max.Y-boxThickness
			for x := rect.Min.X; x < rect.Max.X; x++ {
				if edgeY || x < rect.Min.X+boxThickness || x >= rect.Max.X-boxThickness {
					out.SetNRGBA(x, y, boxColor)
				}
			}
		}
	}
	return out
}
