package capture

import (
	"errors"
	"image"
	"time"
)

// ErrInvalidRect is returned for empty rectangles or rectangles that are not
// fully on screen.
var ErrInvalidRect = errors.New("capture: invalid rectangle")

// Capturer grabs the pixels of a screen rectangle. The returned image has
// bounds starting at (0,0).
type Capturer interface {
	Capture(rect image.Rectangle) (*image.RGBA, error)
}

// Validator reports whether rect can be captured.
type Validator interface {
	Validate(rect image.Rectangle) error
}

// FrameSnapshot is one polled frame.
type FrameSnapshot struct {
	Image      *image.RGBA
	Rect       image.Rectangle
	CapturedAt time.Time
	Sequence   uint64
}

// Stats summarises poller activity.
type Stats struct {
	Captures       uint64
	Failures       uint64
	AvgCapture     time.Duration
	LastCapture    time.Time
	LatestFrameAge time.Duration
	Sequence       uint64
}
