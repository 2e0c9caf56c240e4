package autoeat

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/soocke/food-helper-go/domain/action"
	"github.com/soocke/food-helper-go/domain/capture"
	"github.com/soocke/food-helper-go/domain/vision"
)

// ErrNoTarget is returned by Start when no probe target is set.
var ErrNoTarget = errors.New("autoeat: no target configured")

// Target is the screen area to watch and how to judge it.
type Target struct {
	Name   string
	Rect   image.Rectangle
	Prober vision.Prober
}

// BrightnessTarget watches the saved food effect rectangle and treats a dark
// area as an expired buff.
func BrightnessTarget(name string, rect image.Rectangle, threshold float64) Target {
	return Target{Name: name, Rect: rect, Prober: vision.BrightnessProbe{Threshold: threshold}}
}

// TemplateTarget looks for tmpl inside the effects area.
func TemplateTarget(name string, area image.Rectangle, tmpl image.Image, m *vision.Matcher) Target {
	return Target{Name: name, Rect: area, Prober: vision.TemplateProbe{Template: tmpl, Matcher: m}}
}

// Options tunes the loop.
type Options struct {
	Interval time.Duration
	Cooldown time.Duration
	Key      string
}

// Status is a snapshot of the loop.
type Status struct {
	Running   bool
	Target    string
	Effect    vision.Status
	LastCheck time.Time
	LastEat   time.Time
	Eats      int
	Err       error
}

// Eater periodically probes the food effect and presses the eat key when
// the effect is gone.
type Eater struct {
	logger   *slog.Logger
	capturer capture.Capturer
	presser  action.KeyPresser
	opts     Options
	now      func() time.Time

	mu            sync.Mutex
	target        Target
	hasTarget     bool
	status        Status
	cooldownUntil time.Time
	activeSince   time.Time
	active        time.Duration
	listeners     []func(Status)
	cancel        context.CancelFunc
	done          chan struct{}
}

// New builds an Eater. Zero option values fall back to 5s interval, 5s
// cooldown and the E key.
func New(logger *slog.Logger, c capture.Capturer, p action.KeyPresser, opts Options) *Eater {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	if opts.Cooldown < 0 {
		opts.Cooldown = 0
	}
	if opts.Key == "" {
		opts.Key = "E"
	}
	return &Eater{logger: logger, capturer: c, presser: p, opts: opts, now: time.Now}
}

// SetTarget replaces the probe target. It takes effect on the next check.
func (e *Eater) SetTarget(t Target) {
	e.mu.Lock()
	e.target = t
	e.hasTarget = t.Prober != nil && !t.Rect.Empty()
	e.status.Target = t.Name
	e.mu.Unlock()
}

// AddListener registers fn for status updates. fn runs on the loop goroutine.
func (e *Eater) AddListener(fn func(Status)) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

// Start launches the loop until ctx is done or Stop is called.
func (e *Eater) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return nil
	}
	if !e.hasTarget {
		e.mu.Unlock()
		return ErrNoTarget
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	e.activeSince = e.now()
	e.status.Running = true
	done := e.done
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Info("auto-eat started", "interval", e.opts.Interval, "cooldown", e.opts.Cooldown, "key", e.opts.Key)
	}
	go e.loop(ctx, done)
	return nil
}

// Stop ends the loop and waits for it to exit.
func (e *Eater) Stop() {
	e.mu.Lock()
	cancel, done := e.cancel, e.done
	e.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active.
func (e *Eater) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cancel != nil
}

// Status returns the latest snapshot.
func (e *Eater) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// ActiveTime is the total time the loop has been running.
func (e *Eater) ActiveTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := e.active
	if e.cancel != nil {
		d += e.now().Sub(e.activeSince)
	}
	return d
}

func (e *Eater) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer e.finish()
	ticker := time.NewTicker(e.opts.Interval)
	defer ticker.Stop()
	e.Check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Check()
		}
	}
}

func (e *Eater) finish() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.cancel = nil
	ran := e.now().Sub(e.activeSince)
	e.active += ran
	e.status.Running = false
	st := e.status
	e.mu.Unlock()
	if e.logger != nil {
		e.logger.Info("auto-eat stopped", "ran", ran.Round(time.Second), "eats", st.Eats, "last_eat", humanizeTime(st.LastEat))
	}
	e.notify(st)
}

// Check runs one capture, probe and eat step.
func (e *Eater) Check() Status {
	e.mu.Lock()
	t, ok := e.target, e.hasTarget
	e.mu.Unlock()
	now := e.now()
	if !ok {
		return e.update(func(s *Status) { s.LastCheck = now; s.Err = ErrNoTarget })
	}

	frame, err := e.capturer.Capture(t.Rect)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("auto-eat capture failed", "target", t.Name, "error", err)
		}
		return e.update(func(s *Status) { s.LastCheck = now; s.Effect = vision.StatusUnknown; s.Err = err })
	}
	effect := t.Prober.Status(frame)
	st := e.update(func(s *Status) { s.LastCheck = now; s.Effect = effect; s.Err = nil })
	if effect != vision.StatusInactive {
		return st
	}

	e.mu.Lock()
	cooling := now.Before(e.cooldownUntil)
	if !cooling {
		e.cooldownUntil = now.Add(e.opts.Cooldown)
	}
	e.mu.Unlock()
	if cooling {
		return st
	}
	if e.logger != nil {
		e.logger.Info("food effect expired, eating", "target", t.Name, "key", e.opts.Key)
	}
	if err := e.presser.PressKey(e.opts.Key); err != nil {
		return e.update(func(s *Status) { s.Err = err })
	}
	return e.update(func(s *Status) { s.LastEat = now; s.Eats++ })
}

func (e *Eater) update(fn func(*Status)) Status {
	e.mu.Lock()
	fn(&e.status)
	st := e.status
	e.mu.Unlock()
	e.notify(st)
	return st
}

func (e *Eater) notify(st Status) {
	e.mu.Lock()
	ls := append([]func(Status)(nil), e.listeners...)
	e.mu.Unlock()
	for _, l := range ls {
		l(st)
	}
}

func humanizeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
