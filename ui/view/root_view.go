package view

import (
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"time"

	"github.com/soocke/food-helper-go/config"
	"github.com/soocke/food-helper-go/domain/regions"
	"github.com/soocke/food-helper-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are the user actions the root view forwards.
type Handlers struct {
	RegionSelected func(label string)
	RegionEdited   func(r image.Rectangle)
	SelectArea     func()
	SaveRegion     func()
	SaveTemplate   func()
	Detect         func()
	ConfirmAte     func()
	Cancel         func()
	ToggleAutoEat  func()
	TogglePreview  func()
	AcceptChange   func(name string)
	RejectChange   func()
	ConfigApplied  func(*config.Config)
	Exit           func()
}

// RegionLabels lists the labels offered by the region selector.
var RegionLabels = []string{regions.LabelFoodSlot, regions.LabelEffectsArea}

// RootView composes the window layout and implements every view contract
// the presenters need.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	Session     SessionStats
	ConfigPanel ConfigPanel
	Preview     CapturePreview
	Review      ReviewDialog

	StatusLabel  *LabelWidget
	DetectLabel  *TLabelWidget
	AutoEatLabel *TLabelWidget
	RegionSelect *TComboboxWidget
	rectFields   [4]*TextWidget
}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger}
}

// Build constructs the layout and binds h.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	theme.InitStyles(false)

	// Row 0: session stats and state labels
	stats := Frame()
	Grid(stats, Row(0), Column(0), Columnspan(4), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	rv.Session = NewSessionStats(stats, 0, 0)
	rv.DetectLabel = TLabel(Txt("Detect: idle"), Style(theme.StyleStateLabel))
	Grid(rv.DetectLabel, In(stats), Row(1), Column(0), Columnspan(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	rv.AutoEatLabel = TLabel(Txt("Auto-eat: off (eats 0)"), Style(theme.StyleEatLabel))
	Grid(rv.AutoEatLabel, In(stats), Row(1), Column(2), Columnspan(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))

	// Row 1: region editor
	regionFrame := Frame()
	Grid(regionFrame, Row(1), Column(0), Columnspan(4), Sticky("we"), Padx("0.3m"), Pady("0.3m"))
	rv.RegionSelect = TCombobox(Values(RegionLabels), Width(14))
	Grid(rv.RegionSelect, In(regionFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"))
	rv.RegionSelect.Current(0)
	Bind(rv.RegionSelect, "<<ComboboxSelected>>", Command(func() {
		idx, err := strconv.Atoi(rv.RegionSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(RegionLabels) {
			if rv.logger != nil {
				rv.logger.Error("region selection parse error", "error", err)
			}
			return
		}
		call1(h.RegionSelected, RegionLabels[idx])
	}))
	for i, name := range []string{"X", "Y", "W", "H"} {
		Grid(Label(Txt(name)), In(regionFrame), Row(0), Column(1+i*2), Sticky("e"), Padx("0.2m"))
		w := Text(Height(1), Width(6))
		Grid(w, In(regionFrame), Row(0), Column(2+i*2), Sticky("we"), Padx("0.2m"))
		Bind(w, "<FocusOut>", Command(func() { rv.emitRect(h.RegionEdited) }))
		rv.rectFields[i] = w
	}

	// Row 0, column 4: action buttons
	btnFrame := Frame()
	Grid(btnFrame, Row(0), Column(4), Rowspan(2), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	buttons := []struct {
		text  string
		style string
		fn    func()
	}{
		{"Select Area", "", h.SelectArea},
		{"Save Region", "", func() { rv.emitRect(h.RegionEdited); call0(h.SaveRegion) }},
		{"Save Template", "", func() { rv.emitRect(h.RegionEdited); call0(h.SaveTemplate) }},
		{"Detect Effect", theme.StylePrimaryButton, h.Detect},
		{"Confirm Ate", theme.StylePrimaryButton, h.ConfirmAte},
		{"Cancel", theme.StyleDangerButton, h.Cancel},
		{"Toggle Auto-Eat", "", h.ToggleAutoEat},
		{"Toggle Preview", "", h.TogglePreview},
		{"Exit", theme.StyleDangerButton, h.Exit},
	}
	for i, b := range buttons {
		fn := b.fn
		opts := []Opt{Txt(b.text), Command(func() { call0(fn) })}
		if b.style != "" {
			opts = append(opts, Style(b.style))
		}
		Grid(TButton(opts...), In(btnFrame), Row(i), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	}

	rv.StatusLabel = Label(Txt("Ready"), Anchor("w"), Borderwidth(1), Relief("ridge"))
	Grid(rv.StatusLabel, Row(2), Column(0), Columnspan(5), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, h.ConfigApplied, rv.logger)
	endRow := rv.ConfigPanel.Build(3)
	rv.Preview = NewCapturePreview(endRow)
	rv.Review = NewReviewDialog(h.AcceptChange, h.RejectChange)
}

func call0(fn func()) {
	if fn != nil {
		fn()
	}
}

func call1[T any](fn func(T), v T) {
	if fn != nil {
		fn(v)
	}
}

func (rv *RootView) emitRect(fn func(image.Rectangle)) {
	var vals [4]string
	for i, w := range rv.rectFields {
		vals[i] = textOf(w)
	}
	if r, ok := parseRectFields(vals); ok {
		call1(fn, r)
	}
}

// parseRectFields reads x, y, width and height into a rectangle.
func parseRectFields(vals [4]string) (image.Rectangle, bool) {
	var n [4]int
	for i, s := range vals {
		v, ok := parseIntField(s)
		if !ok {
			return image.Rectangle{}, false
		}
		n[i] = v
	}
	if n[2] <= 0 || n[3] <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(n[0], n[1], n[0]+n[2], n[1]+n[3]), true
}

// SetStatus shows a one-line message.
func (rv *RootView) SetStatus(text string) {
	if rv != nil && rv.StatusLabel != nil {
		rv.StatusLabel.Configure(Txt(text))
	}
	if rv != nil && rv.logger != nil {
		rv.logger.Debug("status", "text", text)
	}
}

// SetRegionFields fills the x/y/w/h inputs. An empty rectangle clears them.
func (rv *RootView) SetRegionFields(r image.Rectangle) {
	if rv == nil {
		return
	}
	vals := [4]string{}
	if !r.Empty() {
		vals = [4]string{strconv.Itoa(r.Min.X), strconv.Itoa(r.Min.Y), strconv.Itoa(r.Dx()), strconv.Itoa(r.Dy())}
	}
	for i, w := range rv.rectFields {
		setText(w, vals[i])
	}
}

// SetConfigEditable toggles config panel editability.
func (rv *RootView) SetConfigEditable(enabled bool) {
	if rv != nil && rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(enabled)
	}
}

func (rv *RootView) SetDetectState(text string) {
	if rv != nil && rv.DetectLabel != nil {
		rv.DetectLabel.Configure(Txt(text))
	}
}

func (rv *RootView) SetAutoEatState(text string) {
	if rv != nil && rv.AutoEatLabel != nil {
		rv.AutoEatLabel.Configure(Txt(text))
	}
}

// SetVisual shows the diff visual of the last run.
func (rv *RootView) SetVisual(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdateVisual(img)
	}
}

func (rv *RootView) ShowCandidate(img image.Image, idx, total int, screen image.Rectangle) {
	if rv != nil && rv.Review != nil {
		rv.Review.Show(img, idx, total, screen)
	}
}

func (rv *RootView) HideCandidate() {
	if rv != nil && rv.Review != nil {
		rv.Review.Hide()
	}
}

// UpdatePreview proxies to the capture preview.
func (rv *RootView) UpdatePreview(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdatePreview(img)
	}
}

// PreviewReset clears the live preview.
func (rv *RootView) PreviewReset() {
	if rv != nil && rv.Preview != nil {
		rv.Preview.Reset()
	}
}

// SetSession updates the duration labels and the eat count.
func (rv *RootView) SetSession(session, total time.Duration, eats int) {
	if rv == nil || rv.Session == nil {
		return
	}
	rv.Session.SetSession(session)
	rv.Session.SetTotal(total)
	rv.Session.SetEats(eats)
}

// Title formats the window title.
func Title(name string, debug bool) string {
	if debug {
		return fmt.Sprintf("%s (debug)", name)
	}
	return name
}
