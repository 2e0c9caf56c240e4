package detect

import (
	"errors"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/food-helper-go/domain/capture"
	"github.com/soocke/food-helper-go/domain/vision"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// frame returns a w x h gray frame with an optional bright block.
func frame(w, h int, block image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(40)
			if image.Pt(x, y).In(block) {
				v = 220
			}
			img.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

type fakeCapturer struct {
	mu     sync.Mutex
	frames []*image.RGBA
	rects  []image.Rectangle
	err    error
}

func (f *fakeCapturer) Capture(rect image.Rectangle) (*image.RGBA, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rects = append(f.rects, rect)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.frames) == 0 {
		return nil, errors.New("no frame queued")
	}
	img := f.frames[0]
	f.frames = f.frames[1:]
	return img, nil
}

func (f *fakeCapturer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rects)
}

type fakeTimer struct {
	mu      sync.Mutex
	f       func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (t *fakeTimer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// fire runs the callback even if stopped, simulating a late timer.
func (t *fakeTimer) fire() {
	t.mu.Lock()
	t.fired = true
	t.mu.Unlock()
	t.f()
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{f: f, delay: d}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timers[len(s.timers)-1]
}

func waitForState(t *testing.T, s *Session, expected State, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Current() == expected {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for state %v (got %v)", expected, s.Current())
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met")
}

type recorder struct {
	mu  sync.Mutex
	seq []State
}

func (r *recorder) listener(_, next State) {
	r.mu.Lock()
	r.seq = append(r.seq, next)
	r.mu.Unlock()
}

func (r *recorder) states() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.seq...)
}

func TestSession_FullRun(t *testing.T) {
	dir := t.TempDir()
	block := image.Rect(10, 5, 30, 25)
	fc := &fakeCapturer{frames: []*image.RGBA{frame(60, 40, image.Rectangle{}), frame(60, 40, block)}}
	fs := &fakeScheduler{}
	s := NewSession(discardLogger, fc, vision.NewDiffer(30, 100), fs, Options{
		Delay:   5 * time.Second,
		TempDir: dir,
		DiffDir: filepath.Join(dir, "diff"),
	})
	defer s.Close()
	rec := &recorder{}
	s.AddListener(rec.listener)

	rect := image.Rect(500, 300, 560, 340)
	s.Begin(rect)
	waitForState(t, s, StateAwaitingAfter, time.Second)
	s.ConfirmAte()
	waitFor(t, func() bool { return fs.count() == 1 })
	if d := fs.last().delay; d != 5*time.Second {
		t.Fatalf("unexpected delay %v", d)
	}
	fs.last().fire()
	waitForState(t, s, StateDone, time.Second)

	res := s.Result()
	if res.Err != nil || res.RunID == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(res.Candidates))
	}
	c, _ := res.Suggested()
	if c.Screen != image.Rect(510, 305, 530, 325) {
		t.Fatalf("screen rect %v", c.Screen)
	}
	if c.Image.Bounds().Dx() != 20 || c.Region.Area != 361 {
		t.Fatalf("unexpected candidate %+v", c.Region)
	}
	for _, p := range []string{res.Artifacts.Before, res.Artifacts.After, res.Artifacts.Visual, filepath.Join(dir, "diff", "change_0.png")} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("artifact missing %q: %v", p, err)
		}
	}
	want := []State{StateAwaitingBefore, StateAwaitingAfter, StateComparing, StateDone}
	got := rec.states()
	if len(got) != len(want) {
		t.Fatalf("transitions %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("transitions %v", got)
		}
	}
}

func TestSession_CancelStopsTimerAndIgnoresLateFire(t *testing.T) {
	fc := &fakeCapturer{frames: []*image.RGBA{frame(20, 20, image.Rectangle{}), frame(20, 20, image.Rect(0, 0, 15, 15))}}
	fs := &fakeScheduler{}
	s := NewSession(discardLogger, fc, nil, fs, Options{Delay: time.Second})
	defer s.Close()

	s.Begin(image.Rect(0, 0, 20, 20))
	waitForState(t, s, StateAwaitingAfter, time.Second)
	s.ConfirmAte()
	waitFor(t, func() bool { return fs.count() == 1 })
	s.Cancel()
	waitForState(t, s, StateCancelled, time.Second)
	if !fs.last().isStopped() {
		t.Fatalf("pending timer not stopped")
	}
	fs.last().fire()
	time.Sleep(20 * time.Millisecond)
	if s.Current() != StateCancelled {
		t.Fatalf("late fire changed state to %v", s.Current())
	}
	if fc.calls() != 1 {
		t.Fatalf("after capture ran despite cancel")
	}
}

func TestSession_ConfirmSchedulesOnce(t *testing.T) {
	fc := &fakeCapturer{frames: []*image.RGBA{frame(8, 8, image.Rectangle{})}}
	fs := &fakeScheduler{}
	s := NewSession(discardLogger, fc, nil, fs, Options{})
	defer s.Close()
	s.ConfirmAte()
	s.Begin(image.Rect(0, 0, 8, 8))
	waitForState(t, s, StateAwaitingAfter, time.Second)
	s.ConfirmAte()
	s.ConfirmAte()
	s.Begin(image.Rect(0, 0, 8, 8))
	time.Sleep(20 * time.Millisecond)
	if n := fs.count(); n != 1 {
		t.Fatalf("expected one timer, got %d", n)
	}
	if s.Current() != StateAwaitingAfter {
		t.Fatalf("begin during a run must be ignored, state %v", s.Current())
	}
}

func TestSession_InvalidRectFails(t *testing.T) {
	fc := &fakeCapturer{}
	s := NewSession(discardLogger, fc, nil, &fakeScheduler{}, Options{})
	defer s.Close()
	s.Begin(image.Rect(10, 10, 10, 50))
	waitForState(t, s, StateFailed, time.Second)
	if err := s.Result().Err; !errors.Is(err, capture.ErrInvalidRect) {
		t.Fatalf("expected ErrInvalidRect, got %v", err)
	}
	if fc.calls() != 0 {
		t.Fatalf("capture must not run for invalid rect")
	}
}

func TestSession_RepeatedFailureNotifies(t *testing.T) {
	boom := errors.New("boom")
	s := NewSession(discardLogger, &fakeCapturer{err: boom}, nil, &fakeScheduler{}, Options{})
	defer s.Close()
	rec := &recorder{}
	s.AddListener(rec.listener)

	s.Begin(image.Rect(10, 10, 10, 50))
	waitFor(t, func() bool { return len(rec.states()) == 1 })
	first := s.Result()
	if !errors.Is(first.Err, capture.ErrInvalidRect) {
		t.Fatalf("expected ErrInvalidRect, got %v", first.Err)
	}

	s.Begin(image.Rect(0, 0, 4, 4))
	waitFor(t, func() bool {
		seq := rec.states()
		return len(seq) >= 2 && seq[len(seq)-1] == StateFailed && errors.Is(s.Result().Err, boom)
	})
	seq := rec.states()
	want := []State{StateFailed, StateAwaitingBefore, StateFailed}
	if len(seq) != len(want) {
		t.Fatalf("got transitions %v, want %v", seq, want)
	}
	for i := range want {
		if seq[i] != want[i] {
			t.Fatalf("got transitions %v, want %v", seq, want)
		}
	}

	s.Begin(image.Rect(10, 10, 10, 50))
	waitFor(t, func() bool { return len(rec.states()) == 4 })
	if got := rec.states()[3]; got != StateFailed {
		t.Fatalf("failed to failed must notify, got %v", got)
	}
	if s.Result().RunID == first.RunID {
		t.Fatalf("second failure must carry a new run id")
	}
}

func TestSession_CaptureFailure(t *testing.T) {
	boom := errors.New("boom")
	s := NewSession(discardLogger, &fakeCapturer{err: boom}, nil, &fakeScheduler{}, Options{})
	defer s.Close()
	s.Begin(image.Rect(0, 0, 4, 4))
	waitForState(t, s, StateFailed, time.Second)
	if !errors.Is(s.Result().Err, boom) {
		t.Fatalf("expected wrapped capture error, got %v", s.Result().Err)
	}
}

func TestSession_RestartAfterDone(t *testing.T) {
	fc := &fakeCapturer{frames: []*image.RGBA{
		frame(10, 10, image.Rectangle{}), frame(10, 10, image.Rectangle{}),
		frame(10, 10, image.Rectangle{}),
	}}
	fs := &fakeScheduler{}
	s := NewSession(discardLogger, fc, nil, fs, Options{})
	defer s.Close()
	s.Begin(image.Rect(0, 0, 10, 10))
	waitForState(t, s, StateAwaitingAfter, time.Second)
	s.ConfirmAte()
	waitFor(t, func() bool { return fs.count() == 1 })
	fs.last().fire()
	waitForState(t, s, StateDone, time.Second)
	first := s.Result().RunID
	if n := len(s.Result().Candidates); n != 0 {
		t.Fatalf("identical frames produced %d candidates", n)
	}
	s.Begin(image.Rect(0, 0, 10, 10))
	waitForState(t, s, StateAwaitingAfter, time.Second)
	if s.Result().RunID == first {
		t.Fatalf("new run must get a new id")
	}
}

func TestSession_CloseStopsPendingTimer(t *testing.T) {
	fc := &fakeCapturer{frames: []*image.RGBA{frame(6, 6, image.Rectangle{})}}
	fs := &fakeScheduler{}
	s := NewSession(discardLogger, fc, nil, fs, Options{})
	s.Begin(image.Rect(0, 0, 6, 6))
	waitForState(t, s, StateAwaitingAfter, time.Second)
	s.ConfirmAte()
	waitFor(t, func() bool { return fs.count() == 1 })
	s.Close()
	s.Close()
	if !fs.last().isStopped() {
		t.Fatalf("timer leaked after Close")
	}
	fs.last().fire()
	s.Cancel()
	s.Begin(image.Rect(0, 0, 6, 6))
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	beforePath := filepath.Join(dir, "before.png")
	afterPath := filepath.Join(dir, "after.png")
	if err := imaging.Save(frame(50, 50, image.Rectangle{}), beforePath); err != nil {
		t.Fatal(err)
	}
	if err := imaging.Save(frame(50, 50, image.Rect(5, 5, 25, 20)), afterPath); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(out, "change_7.png")
	if err := os.WriteFile(stale, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, a, err := CompareFiles(discardLogger, vision.NewDiffer(30, 100), beforePath, afterPath, out)
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(res.Regions) != 1 || len(a.Changes) != 1 {
		t.Fatalf("unexpected result %+v %+v", res.Regions, a)
	}
	if _, err := os.Stat(stale); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale output not cleared")
	}
	crop, err := imaging.Open(a.Changes[0])
	if err != nil {
		t.Fatalf("open crop: %v", err)
	}
	if crop.Bounds().Dx() != 20 || crop.Bounds().Dy() != 15 {
		t.Fatalf("crop size %v", crop.Bounds())
	}
	if _, err := os.Stat(filepath.Join(out, VisualFile)); err != nil {
		t.Fatalf("visual missing: %v", err)
	}
}

func TestCompareFiles_NoChangesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "same.png")
	if err := imaging.Save(frame(10, 10, image.Rectangle{}), p); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out")
	res, a, err := CompareFiles(nil, vision.NewDiffer(30, 100), p, p, out)
	if err != nil || !res.Empty() || a.Visual != "" {
		t.Fatalf("unexpected %+v %+v %v", res, a, err)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Fatalf("expected empty out dir, got %d entries", len(entries))
	}
}

func TestCompareFiles_MissingInput(t *testing.T) {
	_, _, err := CompareFiles(nil, vision.NewDiffer(30, 100), "nope.png", "nope.png", t.TempDir())
	if err == nil {
		t.Fatalf("expected error")
	}
}
