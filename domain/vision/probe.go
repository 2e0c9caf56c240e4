package vision

import "image"

// DefaultBrightnessThreshold is the mean luma below which an icon reads as gone.
const DefaultBrightnessThreshold = 10.0

// Status is the presence verdict for a probed screen area.
type Status int

const (
	StatusUnknown Status = iota
	StatusActive
	StatusInactive
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// Prober decides whether the watched effect is still present in a frame.
type Prober interface {
	Status(frame image.Image) Status
}

// BrightnessProbe reports inactive when the frame is almost black.
type BrightnessProbe struct {
	Threshold float64
}

// Status implements Prober.
func (p BrightnessProbe) Status(frame image.Image) Status {
	if isEmpty(frame) {
		return StatusUnknown
	}
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultBrightnessThreshold
	}
	if MeanLuminance(frame) < threshold {
		return StatusInactive
	}
	return StatusActive
}

// TemplateProbe reports active while Template can be found in the frame.
type TemplateProbe struct {
	Template image.Image
	Matcher  *Matcher
}

// Status implements Prober.
func (p TemplateProbe) Status(frame image.Image) Status {
	if isEmpty(frame) || isEmpty(p.Template) {
		return StatusUnknown
	}
	m := p.Matcher
	if m == nil {
		m = NewMatcher(MatchOptions{}, 0)
	}
	if m.Match(frame, p.Template).Found {
		return StatusActive
	}
	return StatusInactive
}

var (
	_ Prober = BrightnessProbe{}
	_ Prober = TemplateProbe{}
)
