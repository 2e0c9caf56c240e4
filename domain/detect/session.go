package detect

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/food-helper-go/domain/capture"
	"github.com/soocke/food-helper-go/domain/vision"
)

// Options configures a Session.
type Options struct {
	// Delay between ConfirmAte and the after capture.
	Delay time.Duration
	// TempDir receives before/after/visual PNGs and DiffDir the crops.
	// Empty TempDir disables artifact writing.
	TempDir string
	DiffDir string
}

// Session runs the two-phase capture and compare flow. All state lives on a
// single goroutine fed by an event channel.
type Session struct {
	logger    *slog.Logger
	capturer  capture.Capturer
	differ    vision.Differ
	scheduler Scheduler
	opts      Options

	state     atomic.Int32
	gen       uint64
	timer     Timer
	armed     bool
	run       Result
	listeners []Listener

	mu     sync.Mutex
	result Result

	events    chan interface{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type (
	evtBegin       struct{ rect image.Rectangle }
	evtConfirmAte  struct{}
	evtAfterDue    struct{ gen uint64 }
	evtCancel      struct{}
	evtAddListener struct{ l Listener }
	evtClose       struct{}
)

// NewSession starts the session goroutine.
func NewSession(logger *slog.Logger, c capture.Capturer, d vision.Differ, s Scheduler, opts Options) *Session {
	if s == nil {
		s = RealScheduler{}
	}
	if d == nil {
		d = vision.NewDiffer(0, 0)
	}
	if opts.Delay < 0 {
		opts.Delay = 0
	}
	sess := &Session{
		logger:    logger,
		capturer:  c,
		differ:    d,
		scheduler: s,
		opts:      opts,
		events:    make(chan interface{}, 16),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go func() {
		defer close(sess.done)
		defer recoverLog(logger, "detect session panic")
		sess.loop()
	}()
	return sess
}

func (s *Session) loop() {
	for ev := range s.events {
		switch e := ev.(type) {
		case evtAddListener:
			s.listeners = append(s.listeners, e.l)
		case evtBegin:
			s.handleBegin(e.rect)
		case evtConfirmAte:
			s.handleConfirm()
		case evtAfterDue:
			if e.gen == s.gen && s.Current() == StateAwaitingAfter {
				s.timer = nil
				s.compare()
			}
		case evtCancel:
			if s.Current().Active() {
				s.stopTimer()
				s.transition(StateCancelled)
				s.publish()
				s.log().Info("detection cancelled", "run", s.run.RunID)
			}
		case evtClose:
			s.stopTimer()
			close(s.quit)
			return
		}
	}
}

func (s *Session) handleBegin(rect image.Rectangle) {
	if s.Current().Active() {
		s.log().Warn("detection already running", "run", s.run.RunID)
		return
	}
	s.stopTimer()
	s.run = Result{RunID: uuid.NewString(), Rect: rect}
	s.armed = false
	s.publish()
	if err := s.validate(rect); err != nil {
		s.fail(err)
		return
	}
	s.transition(StateAwaitingBefore)
	s.log().Info("detection started", "run", s.run.RunID, "rect", rect.String())
	before, err := s.capturer.Capture(rect)
	if err != nil {
		s.fail(fmt.Errorf("before capture: %w", err))
		return
	}
	s.run.Before = before
	s.publish()
	s.transition(StateAwaitingAfter)
}

func (s *Session) handleConfirm() {
	if s.Current() != StateAwaitingAfter || s.armed {
		return
	}
	s.armed = true
	gen := s.gen
	s.timer = s.scheduler.AfterFunc(s.opts.Delay, func() { s.send(evtAfterDue{gen: gen}) })
	s.log().Info("after capture scheduled", "run", s.run.RunID, "delay", s.opts.Delay)
}

func (s *Session) compare() {
	s.transition(StateComparing)
	after, err := s.capturer.Capture(s.run.Rect)
	if err != nil {
		s.fail(fmt.Errorf("after capture: %w", err))
		return
	}
	s.run.After = after
	res, err := s.differ.Diff(s.run.Before, after)
	if err != nil {
		s.fail(err)
		return
	}
	s.run.Diff = res
	crops := CropRegions(after, res.Regions)
	for i, r := range res.Regions {
		s.run.Candidates = append(s.run.Candidates, Candidate{
			Region: r,
			Screen: r.Offset(s.run.Rect.Min).Rect(),
			Image:  crops[i],
		})
	}
	if s.opts.TempDir != "" {
		a, err := WriteRun(s.logger, s.opts.TempDir, s.opts.DiffDir, s.run.Before, after, res)
		s.run.Artifacts = a
		if err != nil {
			s.log().Error("write artifacts", "run", s.run.RunID, "error", err)
		}
	}
	s.publish()
	s.transition(StateDone)
	s.log().Info("detection finished", "run", s.run.RunID, "regions", len(res.Regions))
}

func (s *Session) validate(rect image.Rectangle) error {
	if s.capturer == nil {
		return fmt.Errorf("%w: no capturer", capture.ErrInvalidRect)
	}
	if rect.Dx() <= 0 || rect.Dy() <= 0 {
		return fmt.Errorf("%w: %v has no area", capture.ErrInvalidRect, rect)
	}
	if v, ok := s.capturer.(capture.Validator); ok {
		return v.Validate(rect)
	}
	return nil
}

func (s *Session) fail(err error) {
	s.run.Err = err
	s.publish()
	s.transition(StateFailed)
	if errors.Is(err, vision.ErrDimensionMismatch) {
		s.log().Warn("detection failed", "run", s.run.RunID, "error", err)
		return
	}
	s.log().Error("detection failed", "run", s.run.RunID, "error", err)
}

func (s *Session) stopTimer() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) publish() {
	s.mu.Lock()
	s.result = s.run
	s.mu.Unlock()
}

func (s *Session) transition(next State) {
	prev := s.Current()
	// A repeated failure still notifies, it belongs to a new run.
	if prev == next && next != StateFailed {
		return
	}
	s.state.Store(int32(next))
	s.log().Debug("detect state transition", "from", prev.String(), "to", next.String())
	for _, l := range s.listeners {
		l(prev, next)
	}
}

func (s *Session) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// send delivers ev unless the session is closed.
func (s *Session) send(ev interface{}) {
	select {
	case <-s.quit:
	case <-s.done:
	case s.events <- ev:
	}
}

// Begin validates rect, captures the before frame and waits for ConfirmAte.
func (s *Session) Begin(rect image.Rectangle) { s.send(evtBegin{rect: rect}) }

// ConfirmAte schedules the after capture once per run.
func (s *Session) ConfirmAte() { s.send(evtConfirmAte{}) }

// Cancel aborts an active run and stops its pending timer.
func (s *Session) Cancel() { s.send(evtCancel{}) }

// AddListener registers l for state transitions.
func (s *Session) AddListener(l Listener) { s.send(evtAddListener{l: l}) }

// Current returns the state.
func (s *Session) Current() State { return State(s.state.Load()) }

// Result returns a copy of the latest run.
func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.result
	r.Candidates = append([]Candidate(nil), r.Candidates...)
	return r
}

// Close stops any pending timer and ends the session goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.send(evtClose{})
		<-s.done
	})
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r, "stack", string(debug.Stack()))
		}
	}
}

var _ Contract = (*Session)(nil)
