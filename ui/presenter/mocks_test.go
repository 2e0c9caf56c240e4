package presenter

import (
	"context"
	"image"
	"sync"

	"github.com/soocke/food-helper-go/domain/autoeat"
	"github.com/soocke/food-helper-go/domain/capture"
	"github.com/soocke/food-helper-go/domain/detect"
	"github.com/soocke/food-helper-go/domain/regions"
	"github.com/soocke/food-helper-go/domain/store"
	"github.com/soocke/food-helper-go/domain/templates"
)

type statusRecorder struct{ statuses []string }

func (r *statusRecorder) SetStatus(s string) { r.statuses = append(r.statuses, s) }

func (r *statusRecorder) last() string {
	if len(r.statuses) == 0 {
		return ""
	}
	return r.statuses[len(r.statuses)-1]
}

type mockFrameSource struct {
	started, stopped int
	snap             capture.FrameSnapshot
}

func (s *mockFrameSource) Start(context.Context)               { s.started++ }
func (s *mockFrameSource) Stop()                               { s.stopped++ }
func (s *mockFrameSource) LatestFrame() capture.FrameSnapshot { return s.snap }

type mockPreviewView struct {
	updates, resets int
}

func (v *mockPreviewView) UpdatePreview(image.Image) { v.updates++ }
func (v *mockPreviewView) PreviewReset()             { v.resets++ }

type mockRegionStore struct {
	saved map[string]regions.Region
	err   error
}

func (s *mockRegionStore) Save(r regions.Region) error {
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string]regions.Region{}
	}
	s.saved[r.Label] = r
	return nil
}

func (s *mockRegionStore) Get(label string) (regions.Region, bool) {
	r, ok := s.saved[label]
	return r, ok
}

type mockTemplates struct {
	reqs  []templates.SaveRequest
	taken map[string]bool
}

func (m *mockTemplates) Save(req templates.SaveRequest) (templates.Template, error) {
	name := templates.SafeName(req.Label)
	if req.Name != "" {
		name = templates.SafeName(req.Name)
	}
	if m.taken[name] {
		return templates.Template{}, store.ErrDuplicate
	}
	if m.taken == nil {
		m.taken = map[string]bool{}
	}
	m.taken[name] = true
	m.reqs = append(m.reqs, req)
	return templates.Template{Name: name, Label: req.Label}, nil
}

type mockCapturer struct {
	img   *image.RGBA
	err   error
	rects []image.Rectangle
}

func (c *mockCapturer) Capture(r image.Rectangle) (*image.RGBA, error) {
	c.rects = append(c.rects, r)
	if c.err != nil {
		return nil, c.err
	}
	return c.img, nil
}

type mockRegionView struct {
	statusRecorder
	fields []image.Rectangle
}

func (v *mockRegionView) SetRegionFields(r image.Rectangle) { v.fields = append(v.fields, r) }

type mockSession struct {
	mu        sync.Mutex
	state     detect.State
	result    detect.Result
	begun     []image.Rectangle
	confirms  int
	cancels   int
	listeners []detect.Listener
}

func (s *mockSession) Begin(r image.Rectangle) { s.begun = append(s.begun, r) }
func (s *mockSession) ConfirmAte()             { s.confirms++ }
func (s *mockSession) Cancel()                 { s.cancels++ }
func (s *mockSession) Current() detect.State   { return s.state }
func (s *mockSession) Result() detect.Result   { return s.result }
func (s *mockSession) AddListener(l detect.Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// emit fakes a transition coming from the session goroutine.
func (s *mockSession) emit(next detect.State) {
	prev := s.state
	s.state = next
	for _, l := range s.listeners {
		l(prev, next)
	}
}

type mockDetectView struct {
	statusRecorder
	states  []string
	visuals int
	shown   []int
	hidden  int
	screens []image.Rectangle
}

func (v *mockDetectView) SetDetectState(s string)  { v.states = append(v.states, s) }
func (v *mockDetectView) SetVisual(img image.Image) { v.visuals++ }
func (v *mockDetectView) ShowCandidate(_ image.Image, idx, _ int, screen image.Rectangle) {
	v.shown = append(v.shown, idx)
	v.screens = append(v.screens, screen)
}
func (v *mockDetectView) HideCandidate() { v.hidden++ }

type fixedRect struct {
	r  image.Rectangle
	ok bool
}

func (f fixedRect) Rect() (image.Rectangle, bool) { return f.r, f.ok }

type mockEater struct {
	running   bool
	status    autoeat.Status
	target    autoeat.Target
	startErr  error
	starts    int
	stops     int
	listeners []func(autoeat.Status)
}

func (e *mockEater) Start(context.Context) error {
	if e.startErr != nil {
		return e.startErr
	}
	e.starts++
	e.running = true
	return nil
}
func (e *mockEater) Stop()                         { e.stops++; e.running = false }
func (e *mockEater) Running() bool                 { return e.running }
func (e *mockEater) Status() autoeat.Status        { return e.status }
func (e *mockEater) SetTarget(t autoeat.Target)    { e.target = t }
func (e *mockEater) AddListener(fn func(autoeat.Status)) { e.listeners = append(e.listeners, fn) }

type mockAutoEatView struct {
	statusRecorder
	states []string
}

func (v *mockAutoEatView) SetAutoEatState(s string) { v.states = append(v.states, s) }
