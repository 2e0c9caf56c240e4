package view

import (
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// SelectionOverlay is a see-through window the user moves and resizes over
// the game. Its client area becomes the region rectangle on confirm.
type SelectionOverlay interface {
	OpenOrFocus(initial image.Rectangle)
	Close()
}

type selectionOverlay struct {
	logger   *slog.Logger
	screen   func() image.Rectangle
	onSelect func(image.Rectangle)
	win      *ToplevelWidget
}

// NewSelectionOverlay returns an overlay that reports confirmed rectangles
// to onSelect. screen supplies the virtual desktop bounds.
func NewSelectionOverlay(screen func() image.Rectangle, onSelect func(image.Rectangle), logger *slog.Logger) SelectionOverlay {
	return &selectionOverlay{logger: logger, screen: screen, onSelect: onSelect}
}

func (v *selectionOverlay) OpenOrFocus(initial image.Rectangle) {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	win := App.Toplevel(Borderwidth(2), Background("#008080"))
	win.WmTitle("Select Area")
	v.win = win
	WmGeometry(win.Window, overlayGeometry(initial, v.screenBounds()))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-toolwindow", true)
	WmAttributes(win.Window, "-transparentcolor", "#008080")
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(0))
	GridColumnConfigure(win.Window, 1, Weight(1))
	GridColumnConfigure(win.Window, 2, Weight(0))
	left := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(left, Row(0), Column(0), Sticky("ns"))
	center := win.Frame(Background("#008080"))
	Grid(center, Row(0), Column(1), Sticky("nsew"))
	right := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(right, Row(0), Column(2), Sticky("ns"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Use Area [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.Close))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.Close))
}

func (v *selectionOverlay) screenBounds() image.Rectangle {
	if v.screen != nil {
		if r := v.screen(); !r.Empty() {
			return r
		}
	}
	return image.Rect(0, 0, 1920, 1080)
}

func (v *selectionOverlay) confirm() {
	if v.win == nil {
		return
	}
	geom := WmGeometry(v.win.Window)
	rect, ok := parseGeometrySel(geom)
	if !ok {
		if v.logger != nil {
			v.logger.Warn("overlay geometry not understood", "geometry", geom)
		}
		return
	}
	v.Close()
	if v.onSelect != nil {
		v.onSelect(rect)
	}
}

func (v *selectionOverlay) Close() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

// overlayGeometry places the overlay over initial when it lies on screen,
// otherwise centres a window of two thirds the screen size.
func overlayGeometry(initial, screen image.Rectangle) string {
	r := initial.Canon()
	if r.Empty() || !r.In(screen) {
		w, h := max(screen.Dx()*2/3, 1), max(screen.Dy()*5/9, 1)
		x := screen.Min.X + (screen.Dx()-w)/2
		y := screen.Min.Y + (screen.Dy()-h)/2
		r = image.Rect(x, y, x+w, y+h)
	}
	return fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
}

// geomReSel matches window geometry strings in the format "WIDTHxHEIGHT+X+Y"
var geomReSel = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometrySel parses a Tk geometry string into a screen rectangle.
func parseGeometrySel(g string) (image.Rectangle, bool) {
	g = strings.TrimSpace(g)
	m := geomReSel.FindStringSubmatch(g)
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
