package autoeat

import (
	"errors"
	"fmt"
	"image"

	"github.com/soocke/food-helper-go/config"
	"github.com/soocke/food-helper-go/domain/regions"
	"github.com/soocke/food-helper-go/domain/templates"
	"github.com/soocke/food-helper-go/domain/vision"
)

// ErrNoFoodTemplate means no food template has been saved yet.
var ErrNoFoodTemplate = errors.New("autoeat: no food template saved")

// TemplateSource is the read side of the template store.
type TemplateSource interface {
	Get(cat templates.Category, name string) (templates.Template, bool)
	Latest(cat templates.Category) (templates.Template, bool)
	Image(cat templates.Category, name string) (image.Image, error)
}

// RegionSource looks up saved regions.
type RegionSource interface {
	Get(label string) (regions.Region, bool)
}

// Resolver builds the probe Target from the saved food template and the
// current configuration. Config is read on every call so applied settings
// take effect on the next resolve.
type Resolver struct {
	Config    *config.Config
	Templates TemplateSource
	Regions   RegionSource
	Matcher   *vision.Matcher
}

// Resolve picks the configured food template (or the latest one) and wraps
// it in a brightness or template-presence target.
func (r Resolver) Resolve() (Target, error) {
	if r.Config == nil || r.Templates == nil {
		return Target{}, ErrNoFoodTemplate
	}
	food, ok := r.food()
	if !ok {
		return Target{}, ErrNoFoodTemplate
	}
	if r.Config.ProbeMode != config.ProbeTemplate {
		return BrightnessTarget(food.Name, food.Rect(), r.Config.BrightnessThreshold), nil
	}
	if r.Regions == nil {
		return Target{}, fmt.Errorf("autoeat: region %q not saved", r.Config.EffectsRegion)
	}
	area, ok := r.Regions.Get(r.Config.EffectsRegion)
	if !ok {
		return Target{}, fmt.Errorf("autoeat: region %q not saved", r.Config.EffectsRegion)
	}
	img, err := r.Templates.Image(templates.CategoryFood, food.Name)
	if err != nil {
		return Target{}, fmt.Errorf("autoeat: %w", err)
	}
	opts := vision.MatchOptions{Threshold: r.Config.MatchThreshold, Stride: r.Config.MatchStride, Refine: r.Config.MatchRefine}
	var m *vision.Matcher
	if r.Matcher != nil {
		m = r.Matcher.WithOptions(opts)
	} else {
		m = vision.NewMatcher(opts, 0)
	}
	return TemplateTarget(food.Name, area.Rect(), img, m), nil
}

func (r Resolver) food() (templates.Template, bool) {
	if name := r.Config.FoodTemplate; name != "" {
		if t, ok := r.Templates.Get(templates.CategoryFood, templates.SafeName(name)); ok {
			return t, true
		}
	}
	return r.Templates.Latest(templates.CategoryFood)
}
