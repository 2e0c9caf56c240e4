package capture

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/kbinani/screenshot"
)

// DisplayBounds returns the bounds of every active display in virtual screen
// coordinates.
func DisplayBounds() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	out := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, screenshot.GetDisplayBounds(i))
	}
	return out
}

// VirtualScreen is the bounding box of displays.
func VirtualScreen(displays []image.Rectangle) image.Rectangle {
	var u image.Rectangle
	for _, d := range displays {
		u = u.Union(d)
	}
	return u
}

// ValidateRect checks that rect is non-empty and lies inside the union of
// displays.
func ValidateRect(rect image.Rectangle, displays []image.Rectangle) error {
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return fmt.Errorf("%w: %v has no area", ErrInvalidRect, rect)
	}
	screen := VirtualScreen(displays)
	if screen.Empty() {
		return fmt.Errorf("%w: no active display", ErrInvalidRect)
	}
	if !rect.In(screen) {
		return fmt.Errorf("%w: %v outside screen %v", ErrInvalidRect, rect, screen)
	}
	return nil
}

// ScreenCapturer captures from the real desktop.
type ScreenCapturer struct {
	logger   *slog.Logger
	displays func() []image.Rectangle
	grab     func(image.Rectangle) (*image.RGBA, error)
}

var (
	_ Capturer  = (*ScreenCapturer)(nil)
	_ Validator = (*ScreenCapturer)(nil)
)

// NewScreenCapturer returns a Capturer backed by the platform grabber.
func NewScreenCapturer(logger *slog.Logger) *ScreenCapturer {
	return &ScreenCapturer{logger: logger, displays: DisplayBounds, grab: grabRect}
}

// Validate implements Validator.
func (s *ScreenCapturer) Validate(rect image.Rectangle) error {
	return ValidateRect(rect, s.displays())
}

// Capture implements Capturer.
func (s *ScreenCapturer) Capture(rect image.Rectangle) (*image.RGBA, error) {
	if err := s.Validate(rect); err != nil {
		return nil, err
	}
	img, err := s.grab(rect)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("capture failed", "rect", rect.String(), "error", err)
		}
		return nil, fmt.Errorf("capture: grab %v: %w", rect, err)
	}
	return normalize(img), nil
}

// normalize rebases img so its bounds start at the origin.
func normalize(img *image.RGBA) *image.RGBA {
	if img == nil || img.Rect.Min == (image.Point{}) {
		return img
	}
	return &image.RGBA{Pix: img.Pix, Stride: img.Stride, Rect: image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy())}
}
