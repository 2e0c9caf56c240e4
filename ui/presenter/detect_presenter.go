package presenter

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/soocke/food-helper-go/domain/detect"
	"github.com/soocke/food-helper-go/domain/store"
	"github.com/soocke/food-helper-go/domain/templates"
	"github.com/soocke/food-helper-go/ui/model"
)

// DetectSession is the detection state machine surface.
type DetectSession interface {
	Begin(rect image.Rectangle)
	ConfirmAte()
	Cancel()
	Current() detect.State
	Result() detect.Result
	AddListener(detect.Listener)
}

// RectSource yields the region to watch.
type RectSource interface {
	Rect() (image.Rectangle, bool)
}

// DetectView shows run progress and the review of change crops.
type DetectView interface {
	SetDetectState(text string)
	SetStatus(text string)
	SetVisual(img image.Image)
	ShowCandidate(img image.Image, idx, total int, screen image.Rectangle)
	HideCandidate()
}

// DetectPresenter drives a detection run and the review of its results.
// Session transitions arrive on the session goroutine and are applied to the
// view on the next Tick.
type DetectPresenter struct {
	session   DetectSession
	region    RectSource
	templates TemplateSaver
	review    *model.ReviewModel
	view      DetectView
	delay     time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	pending []detect.State
	latest  detect.State

	// OnTemplateSaved is called after a reviewed crop was stored.
	OnTemplateSaved func(templates.Category, templates.Template)
}

func NewDetectPresenter(session DetectSession, region RectSource, tpl TemplateSaver, review *model.ReviewModel, view DetectView, delay time.Duration, logger *slog.Logger) *DetectPresenter {
	p := &DetectPresenter{session: session, region: region, templates: tpl, review: review, view: view, delay: delay, logger: logger}
	if session != nil {
		session.AddListener(p.onState)
	}
	return p
}

func (p *DetectPresenter) ready() bool {
	return p != nil && p.session != nil && p.view != nil
}

func (p *DetectPresenter) onState(_, next detect.State) {
	p.mu.Lock()
	p.pending = append(p.pending, next)
	p.mu.Unlock()
}

// Start begins a run on the current region.
func (p *DetectPresenter) Start() {
	if !p.ready() || p.region == nil {
		return
	}
	rect, ok := p.region.Rect()
	if !ok {
		p.view.SetStatus("Select the effects area first")
		return
	}
	p.review.Clear()
	p.view.HideCandidate()
	p.session.Begin(rect)
}

// ConfirmAte tells the session the food was eaten.
func (p *DetectPresenter) ConfirmAte() {
	if !p.ready() {
		return
	}
	if p.session.Current() != detect.StateAwaitingAfter {
		p.view.SetStatus("No detection waiting for food")
		return
	}
	p.session.ConfirmAte()
	p.view.SetStatus(fmt.Sprintf("Comparing in %s", p.delay.Round(time.Second)))
}

// Cancel aborts the run and drops any pending review.
func (p *DetectPresenter) Cancel() {
	if !p.ready() {
		return
	}
	p.session.Cancel()
	p.review.Clear()
	p.view.HideCandidate()
}

// Tick flushes queued state changes to the view.
func (p *DetectPresenter) Tick(now time.Time) {
	if !p.ready() {
		return
	}
	p.mu.Lock()
	states := p.pending
	p.pending = nil
	p.mu.Unlock()
	for _, s := range states {
		if s == p.latest && s != detect.StateFailed {
			continue
		}
		p.latest = s
		p.view.SetDetectState("Detect: " + s.String())
		p.apply(s)
	}
}

func (p *DetectPresenter) apply(s detect.State) {
	switch s {
	case detect.StateAwaitingAfter:
		p.view.SetStatus("Eat your food, then press Confirm Ate")
	case detect.StateCancelled:
		p.view.SetStatus("Detection cancelled")
	case detect.StateFailed:
		p.view.SetStatus("Detection failed: " + errText(p.session.Result().Err))
	case detect.StateDone:
		res := p.session.Result()
		if len(res.Candidates) == 0 {
			p.view.SetStatus("No food effect found")
			return
		}
		p.view.SetVisual(res.Diff.Visual)
		p.review.Load(res)
		p.view.SetStatus(fmt.Sprintf("Found %d change(s)", len(res.Candidates)))
		p.showCurrent()
	}
}

func (p *DetectPresenter) showCurrent() {
	it, ok := p.review.Current()
	if !ok {
		p.view.HideCandidate()
		return
	}
	idx, total := p.review.Position()
	p.view.ShowCandidate(it.Candidate.Image, idx, total, it.Candidate.Screen)
}

// Accept saves the crop under review as a food template. An empty name
// falls back to the default label.
func (p *DetectPresenter) Accept(name string) error {
	if !p.ready() || p.templates == nil {
		return nil
	}
	it, ok := p.review.Current()
	if !ok {
		return nil
	}
	t, err := p.templates.Save(templates.SaveRequest{
		Category: templates.CategoryFood,
		Label:    detect.DefaultCandidateLabel,
		Name:     name,
		Rect:     it.Candidate.Screen,
		Image:    it.Candidate.Image,
	})
	if errors.Is(err, store.ErrDuplicate) {
		p.view.SetStatus("A template with that name already exists")
		return err
	}
	if err != nil {
		p.view.SetStatus("Saving template failed: " + err.Error())
		return err
	}
	p.view.SetStatus(fmt.Sprintf("Template %q saved", t.Name))
	if p.OnTemplateSaved != nil {
		p.OnTemplateSaved(templates.CategoryFood, t)
	}
	p.next()
	return nil
}

// Reject discards the crop under review and removes its file.
func (p *DetectPresenter) Reject() {
	if !p.ready() {
		return
	}
	it, ok := p.review.Current()
	if !ok {
		return
	}
	if it.File != "" {
		if err := os.Remove(it.File); err != nil && !errors.Is(err, os.ErrNotExist) && p.logger != nil {
			p.logger.Warn("remove rejected crop", "file", it.File, "error", err)
		}
	}
	p.next()
}

func (p *DetectPresenter) next() {
	if p.review.Advance() {
		p.showCurrent()
		return
	}
	p.view.HideCandidate()
	p.view.SetStatus("Review finished")
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
