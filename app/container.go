package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/food-helper-go/config"
	"github.com/soocke/food-helper-go/domain/action"
	"github.com/soocke/food-helper-go/domain/autoeat"
	"github.com/soocke/food-helper-go/domain/capture"
	"github.com/soocke/food-helper-go/domain/detect"
	"github.com/soocke/food-helper-go/domain/regions"
	"github.com/soocke/food-helper-go/domain/templates"
	"github.com/soocke/food-helper-go/domain/vision"
	"github.com/soocke/food-helper-go/ui/model"
	"github.com/soocke/food-helper-go/ui/presenter"
	"github.com/soocke/food-helper-go/ui/view"
)

var (
	_ presenter.RegionView  = (*view.RootView)(nil)
	_ presenter.DetectView  = (*view.RootView)(nil)
	_ presenter.AutoEatView = (*view.RootView)(nil)
	_ presenter.PreviewView = (*view.RootView)(nil)
	_ presenter.SessionView = (*view.RootView)(nil)

	_ presenter.DetectSession = (*detect.Session)(nil)
	_ presenter.AutoEater     = (*autoeat.Eater)(nil)
	_ presenter.FrameSource   = (*capture.Poller)(nil)
)

// Services are the non-UI components shared by the GUI and the headless
// commands.
type Services struct {
	Config    *config.Config
	Paths     config.Paths
	Logger    *slog.Logger
	Capturer  *capture.ScreenCapturer
	Keyboard  *action.Keyboard
	Templates *templates.Service
	Regions   *regions.Service
	Differ    vision.Differ
	Matcher   *vision.Matcher
	Resolver  autoeat.Resolver
}

// BuildServices creates the data directories and opens the stores.
func BuildServices(cfg *config.Config, logger *slog.Logger) (*Services, error) {
	s := &Services{Config: cfg, Paths: cfg.Paths(), Logger: logger}
	if err := s.Paths.EnsureDirs(); err != nil {
		return nil, err
	}
	var err error
	if s.Templates, err = templates.NewService(s.Paths, cfg.TemplateCacheSize, logger); err != nil {
		return nil, fmt.Errorf("app: open templates: %w", err)
	}
	if s.Regions, err = regions.NewService(s.Paths.Settings, logger); err != nil {
		return nil, fmt.Errorf("app: open regions: %w", err)
	}
	s.Capturer = capture.NewScreenCapturer(logger)
	s.Keyboard = action.NewKeyboard(logger)
	s.Differ = vision.NewDefaultDiffer(cfg.DiffThreshold, cfg.MinRegionArea)
	s.Matcher = vision.NewMatcher(vision.MatchOptions{
		Threshold: cfg.MatchThreshold,
		Stride:    cfg.MatchStride,
		Refine:    cfg.MatchRefine,
	}, cfg.TemplateCacheSize)
	s.Resolver = autoeat.Resolver{Config: cfg, Templates: s.Templates, Regions: s.Regions, Matcher: s.Matcher}
	return s, nil
}

// NewEater builds the auto-eat loop from the configuration.
func (s *Services) NewEater() *autoeat.Eater {
	return autoeat.New(s.Logger, s.Capturer, s.Keyboard, autoeat.Options{
		Interval: s.Config.ProbeInterval(),
		Cooldown: s.Config.EatCooldown(),
		Key:      s.Config.EatKey,
	})
}

// regionRect reads a saved region on every call.
type regionRect struct {
	store *regions.Service
	label func() string
}

func (r regionRect) Rect() (image.Rectangle, bool) {
	reg, ok := r.store.Get(r.label())
	if !ok || reg.Width <= 0 || reg.Height <= 0 {
		return image.Rectangle{}, false
	}
	return reg.Rect(), true
}

// Container assembles models, services, presenters and the root view.
type Container struct {
	*Services
	ConfigPath string

	Session *detect.Session
	Eater   *autoeat.Eater
	Poller  *capture.Poller

	RegionModel  *model.RegionModel
	PreviewModel *model.PreviewModel
	SessionModel *model.SessionModel
	ReviewModel  *model.ReviewModel

	RootView *view.RootView

	RegionPresenter  *presenter.RegionPresenter
	DetectPresenter  *presenter.DetectPresenter
	AutoEatPresenter *presenter.AutoEatPresenter
	SessionPresenter *presenter.SessionPresenter
	PreviewPresenter *presenter.PreviewPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs all components. The root view is created but
// not built; widgets need the Tk app.
func BuildContainer(ctx context.Context, cfg *config.Config, cfgPath string, logger *slog.Logger) (*Container, error) {
	svc, err := BuildServices(cfg, logger)
	if err != nil {
		return nil, err
	}
	c := &Container{Services: svc, ConfigPath: cfgPath}
	c.RegionModel = model.NewRegionModel(cfg.FoodRegion)
	c.PreviewModel = &model.PreviewModel{}
	c.SessionModel = model.NewSessionModel()
	c.ReviewModel = &model.ReviewModel{}

	c.Session = detect.NewSession(logger, c.Capturer, c.Differ, detect.RealScheduler{}, detect.Options{
		Delay:   cfg.CompareDelay(),
		TempDir: c.Paths.Temp,
		DiffDir: c.Paths.Diff,
	})
	c.Eater = c.NewEater()
	c.Poller = capture.NewPoller(c.Capturer, c.RegionModel.Rect, cfg.PreviewInterval(), logger)

	c.RootView = view.NewRootView(cfg, cfgPath, logger)
	rv := c.RootView
	effects := regionRect{store: c.Regions, label: func() string { return cfg.EffectsRegion }}

	c.RegionPresenter = presenter.NewRegionPresenter(c.RegionModel, c.Regions, c.Templates, c.Capturer, rv, logger)
	c.DetectPresenter = presenter.NewDetectPresenter(c.Session, effects, c.Templates, c.ReviewModel, rv, cfg.CompareDelay(), logger)
	c.AutoEatPresenter = presenter.NewAutoEatPresenter(ctx, c.Eater, c.Resolver.Resolve, rv, logger)
	c.SessionPresenter = presenter.NewSessionPresenter(c.SessionModel, c.Eater, rv)
	c.PreviewPresenter = presenter.NewPreviewPresenter(ctx, c.PreviewModel, c.Poller, rv, logger)

	refresh := func(templates.Category, templates.Template) { c.AutoEatPresenter.Refresh() }
	c.RegionPresenter.OnTemplateSaved = refresh
	c.DetectPresenter.OnTemplateSaved = refresh

	c.Loop = presenter.NewLoop(c.SessionPresenter, c.DetectPresenter, c.AutoEatPresenter, c.PreviewPresenter, nil)
	return c, nil
}

// TemplateCategory maps the edited region label to the template collection
// a capture of it belongs in.
func (c *Container) TemplateCategory(label string) templates.Category {
	if label == c.Config.FoodRegion {
		return templates.CategoryFood
	}
	return templates.CategoryEffects
}

// Shutdown stops every background component.
func (c *Container) Shutdown() {
	c.PreviewPresenter.Disable()
	c.Poller.Stop()
	c.AutoEatPresenter.Stop()
	c.DetectPresenter.Cancel()
	c.Session.Close()
}
