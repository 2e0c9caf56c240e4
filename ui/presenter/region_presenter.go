package presenter

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/food-helper-go/domain/capture"
	"github.com/soocke/food-helper-go/domain/regions"
	"github.com/soocke/food-helper-go/domain/store"
	"github.com/soocke/food-helper-go/domain/templates"
)

// RegionStore persists labelled rectangles.
type RegionStore interface {
	Save(regions.Region) error
	Get(label string) (regions.Region, bool)
}

// TemplateSaver stores template crops.
type TemplateSaver interface {
	Save(templates.SaveRequest) (templates.Template, error)
}

// RegionModel is the edited region.
type RegionModel interface {
	SetRect(image.Rectangle)
	Rect() (image.Rectangle, bool)
	SetLabel(string)
	Label() string
}

// RegionView mirrors the region fields and a status line.
type RegionView interface {
	SetRegionFields(r image.Rectangle)
	SetStatus(text string)
}

// RegionPresenter loads, edits and saves regions and turns them into
// templates.
type RegionPresenter struct {
	model     RegionModel
	store     RegionStore
	templates TemplateSaver
	capturer  capture.Capturer
	view      RegionView
	logger    *slog.Logger

	// OnTemplateSaved is called after a template was stored.
	OnTemplateSaved func(templates.Category, templates.Template)
}

func NewRegionPresenter(model RegionModel, store RegionStore, tpl TemplateSaver, c capture.Capturer, view RegionView, logger *slog.Logger) *RegionPresenter {
	return &RegionPresenter{model: model, store: store, templates: tpl, capturer: c, view: view, logger: logger}
}

func (p *RegionPresenter) ready() bool {
	return p != nil && p.model != nil && p.store != nil && p.view != nil
}

// Select switches the edited label and loads its saved rectangle.
func (p *RegionPresenter) Select(label string) {
	if !p.ready() {
		return
	}
	p.model.SetLabel(label)
	r, ok := p.store.Get(label)
	if !ok {
		p.model.SetRect(image.Rectangle{})
		p.view.SetRegionFields(image.Rectangle{})
		p.view.SetStatus(fmt.Sprintf("No saved region %q", label))
		return
	}
	p.model.SetRect(r.Rect())
	p.view.SetRegionFields(r.Rect())
}

// Edit applies rectangle fields typed by the user.
func (p *RegionPresenter) Edit(r image.Rectangle) {
	if !p.ready() {
		return
	}
	p.model.SetRect(r)
}

// Selected applies a rectangle chosen with the selection overlay.
func (p *RegionPresenter) Selected(r image.Rectangle) {
	if !p.ready() {
		return
	}
	p.model.SetRect(r)
	cur, _ := p.model.Rect()
	p.view.SetRegionFields(cur)
}

// Save persists the edited region under the current label.
func (p *RegionPresenter) Save() error {
	if !p.ready() {
		return nil
	}
	rect, ok := p.model.Rect()
	if !ok {
		p.view.SetStatus("Region needs a width and height above zero")
		return capture.ErrInvalidRect
	}
	if v, isV := p.capturer.(capture.Validator); isV {
		if err := v.Validate(rect); err != nil {
			p.view.SetStatus("Region is not on screen")
			return err
		}
	}
	label := p.model.Label()
	if err := p.store.Save(regions.FromRect(label, rect)); err != nil {
		p.view.SetStatus("Saving region failed: " + err.Error())
		return err
	}
	p.view.SetStatus(fmt.Sprintf("Region %q saved", label))
	if p.logger != nil {
		p.logger.Info("region saved", "label", label, "rect", rect.String())
	}
	return nil
}

// SaveTemplate captures the edited region and stores it as a template.
func (p *RegionPresenter) SaveTemplate(cat templates.Category, label string) error {
	if !p.ready() || p.templates == nil || p.capturer == nil {
		return nil
	}
	rect, ok := p.model.Rect()
	if !ok {
		p.view.SetStatus("Select a region first")
		return capture.ErrInvalidRect
	}
	img, err := p.capturer.Capture(rect)
	if err != nil {
		p.view.SetStatus("Capture failed: " + err.Error())
		return err
	}
	if label == "" {
		label = p.model.Label()
	}
	t, err := p.templates.Save(templates.SaveRequest{Category: cat, Label: label, Rect: rect, Image: img})
	switch {
	case errors.Is(err, store.ErrDuplicate):
		p.view.SetStatus(fmt.Sprintf("Template %q already exists", templates.SafeName(label)))
		return err
	case err != nil:
		p.view.SetStatus("Saving template failed: " + err.Error())
		return err
	}
	p.view.SetStatus(fmt.Sprintf("Template %q saved", t.Name))
	if p.OnTemplateSaved != nil {
		p.OnTemplateSaved(cat, t)
	}
	return nil
}
