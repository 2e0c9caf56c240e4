//go:build !gocv

package vision

// NewDefaultDiffer returns the Differ the app runs with. Builds tagged gocv
// use OpenCV instead.
func NewDefaultDiffer(threshold, minArea int) Differ { return NewDiffer(threshold, minArea) }
