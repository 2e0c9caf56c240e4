package app

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/food-helper-go/config"
	"github.com/soocke/food-helper-go/debug"
	"github.com/soocke/food-helper-go/domain/capture"
	"github.com/soocke/food-helper-go/ui/view"
)

const tick = 100 * time.Millisecond

// App is the Tk front end.
type App struct {
	c       *Container
	logger  *slog.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	overlay view.SelectionOverlay
	start   time.Time
	afterID string
	closed  bool
}

// New builds the container and configures the main window.
func New(title string, width, height int, cfg *config.Config, cfgPath string, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	c, err := BuildContainer(ctx, cfg, cfgPath, logger)
	if err != nil {
		cancel()
		return nil, err
	}
	a := &App{c: c, logger: logger, ctx: ctx, cancel: cancel}
	App.WmTitle(view.Title(title, cfg.Debug))
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", width, height))
	return a, nil
}

// Start builds the widgets, starts the UI loop and blocks until the window
// closes.
func (a *App) Start() {
	c := a.c
	a.overlay = view.NewSelectionOverlay(
		func() image.Rectangle { return capture.VirtualScreen(capture.DisplayBounds()) },
		c.RegionPresenter.Selected,
		a.logger,
	)
	c.RootView.Build(view.Handlers{
		RegionSelected: c.RegionPresenter.Select,
		RegionEdited:   c.RegionPresenter.Edit,
		SelectArea: func() {
			r, _ := c.RegionModel.Rect()
			a.overlay.OpenOrFocus(r)
		},
		SaveRegion: func() { _ = c.RegionPresenter.Save() },
		SaveTemplate: func() {
			label := c.RegionModel.Label()
			_ = c.RegionPresenter.SaveTemplate(c.TemplateCategory(label), label)
		},
		Detect:     c.DetectPresenter.Start,
		ConfirmAte: c.DetectPresenter.ConfirmAte,
		Cancel:     c.DetectPresenter.Cancel,
		ToggleAutoEat: func() {
			c.AutoEatPresenter.Toggle()
			c.RootView.SetConfigEditable(!c.Eater.Running())
		},
		TogglePreview: c.PreviewPresenter.Toggle,
		AcceptChange:  func(name string) { _ = c.DetectPresenter.Accept(name) },
		RejectChange:  c.DetectPresenter.Reject,
		ConfigApplied: func(*config.Config) {
			c.AutoEatPresenter.Refresh()
			c.RootView.SetStatus("Settings saved")
		},
		Exit: a.exitHandler,
	})
	c.RegionPresenter.Select(c.RegionModel.Label())

	if c.Config.Debug {
		debug.StartRuntimeLogger(a.ctx, 30*time.Second, a.logger)
	}
	a.start = time.Now()
	a.logger.Info("app started", "data_dir", c.Paths.Root, "probe_mode", c.Config.ProbeMode)

	c.Loop.Schedule = a.scheduleUpdate
	a.scheduleUpdate()
	App.Wait()
}

func (a *App) scheduleUpdate() {
	if a.closed {
		return
	}
	a.afterID = TclAfter(tick, a.c.Loop.Tick)
}

func (a *App) exitHandler() {
	if a.closed {
		return
	}
	a.closed = true
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	if a.overlay != nil {
		a.overlay.Close()
	}
	a.c.Shutdown()
	a.cancel()
	_, total := a.c.SessionModel.Values()
	a.logger.Info("app stopped",
		"started", humanize.Time(a.start),
		"auto_eat_total", total.Round(time.Second).String(),
		"auto_eat_sessions", a.c.SessionModel.Sessions(),
		"eats", a.c.SessionModel.Eats(),
	)
	Destroy(App)
}
