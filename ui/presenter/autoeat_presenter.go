package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/soocke/food-helper-go/domain/autoeat"
)

// AutoEater is the auto-eat loop surface.
type AutoEater interface {
	Start(ctx context.Context) error
	Stop()
	Running() bool
	Status() autoeat.Status
	SetTarget(autoeat.Target)
	AddListener(func(autoeat.Status))
}

// AutoEatView shows the loop state.
type AutoEatView interface {
	SetAutoEatState(text string)
	SetStatus(text string)
}

// TargetResolver builds the probe target from saved regions and templates.
type TargetResolver func() (autoeat.Target, error)

// AutoEatPresenter starts and stops the loop and reflects its status.
type AutoEatPresenter struct {
	ctx     context.Context
	eater   AutoEater
	resolve TargetResolver
	view    AutoEatView
	logger  *slog.Logger

	mu      sync.Mutex
	pending *autoeat.Status
	shown   string
}

func NewAutoEatPresenter(ctx context.Context, eater AutoEater, resolve TargetResolver, view AutoEatView, logger *slog.Logger) *AutoEatPresenter {
	if ctx == nil {
		ctx = context.Background()
	}
	p := &AutoEatPresenter{ctx: ctx, eater: eater, resolve: resolve, view: view, logger: logger}
	if eater != nil {
		eater.AddListener(p.onStatus)
	}
	return p
}

func (p *AutoEatPresenter) ready() bool {
	return p != nil && p.eater != nil && p.resolve != nil && p.view != nil
}

func (p *AutoEatPresenter) onStatus(s autoeat.Status) {
	p.mu.Lock()
	p.pending = &s
	p.mu.Unlock()
}

// Toggle starts the loop when stopped and stops it when running.
func (p *AutoEatPresenter) Toggle() {
	if !p.ready() {
		return
	}
	if p.eater.Running() {
		p.eater.Stop()
		p.view.SetStatus("Auto-eat stopped")
		return
	}
	t, err := p.resolve()
	if err != nil {
		p.view.SetStatus("Auto-eat unavailable: " + err.Error())
		return
	}
	p.eater.SetTarget(t)
	if err := p.eater.Start(p.ctx); err != nil {
		p.view.SetStatus("Auto-eat failed to start: " + err.Error())
		return
	}
	p.view.SetStatus("Auto-eat started on " + t.Name)
}

// Refresh re-resolves the target, used after templates or regions change.
func (p *AutoEatPresenter) Refresh() {
	if !p.ready() || !p.eater.Running() {
		return
	}
	t, err := p.resolve()
	if err != nil {
		if p.logger != nil {
			p.logger.Warn("auto-eat target refresh failed", "error", err)
		}
		return
	}
	p.eater.SetTarget(t)
}

// Stop halts the loop.
func (p *AutoEatPresenter) Stop() {
	if p == nil || p.eater == nil {
		return
	}
	p.eater.Stop()
}

// Tick pushes the latest status to the view.
func (p *AutoEatPresenter) Tick(now time.Time) {
	if !p.ready() {
		return
	}
	p.mu.Lock()
	s := p.pending
	p.pending = nil
	p.mu.Unlock()
	if s == nil {
		return
	}
	text := FormatAutoEat(*s)
	if text == p.shown {
		return
	}
	p.shown = text
	p.view.SetAutoEatState(text)
}

// FormatAutoEat renders a status line.
func FormatAutoEat(s autoeat.Status) string {
	if !s.Running {
		return fmt.Sprintf("Auto-eat: off (eats %d)", s.Eats)
	}
	if s.Err != nil {
		return fmt.Sprintf("Auto-eat: on, effect %s, eats %d, error: %v", s.Effect, s.Eats, s.Err)
	}
	return fmt.Sprintf("Auto-eat: on, effect %s, eats %d", s.Effect, s.Eats)
}
