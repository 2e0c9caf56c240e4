package view

import (
	"fmt"
	"image"

	"github.com/soocke/food-helper-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

const (
	reviewMaxW = 320
	reviewMaxH = 240
)

// ReviewDialog shows one change crop at a time and asks for a template name.
type ReviewDialog interface {
	Show(img image.Image, idx, total int, screen image.Rectangle)
	Hide()
}

type reviewDialog struct {
	onAccept func(name string)
	onReject func()

	win     *ToplevelWidget
	title   *LabelWidget
	image   *LabelWidget
	name    *TextWidget
	photo   *Img
	visible bool
}

// NewReviewDialog returns a dialog that reports the typed name to onAccept
// and discards through onReject.
func NewReviewDialog(onAccept func(name string), onReject func()) ReviewDialog {
	return &reviewDialog{onAccept: onAccept, onReject: onReject}
}

func (d *reviewDialog) build() {
	win := App.Toplevel(Borderwidth(2))
	win.WmTitle("Review Change")
	WmAttributes(win.Window, "-topmost", 1)
	WmProtocol(win.Window, "WM_DELETE_WINDOW", d.reject)
	d.win = win
	d.title = win.Label(Anchor("w"))
	Grid(d.title, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	d.photo = NewPhoto(Data(images.EncodePNG(images.Placeholder(64, 64))))
	d.image = win.Label(Image(d.photo), Borderwidth(1), Relief("sunken"))
	Grid(d.image, Row(1), Column(0), Columnspan(2), Padx("0.4m"), Pady("0.4m"))
	Grid(win.Label(Txt("Name"), Anchor("w")), Row(2), Column(0), Sticky("w"), Padx("0.4m"))
	d.name = win.Text(Height(1), Width(24))
	Grid(d.name, Row(2), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.2m"))
	save := win.Button(Txt("Save Template [Enter]"), Command(d.accept))
	Grid(save, Row(3), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.3m"))
	discard := win.Button(Txt("Discard [Esc]"), Command(d.reject))
	Grid(discard, Row(3), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.3m"))
	Bind(win, "<Return>", Command(d.accept))
	Bind(win, "<Escape>", Command(d.reject))
}

func (d *reviewDialog) Show(img image.Image, idx, total int, screen image.Rectangle) {
	if d.win == nil {
		d.build()
	}
	d.visible = true
	d.title.Configure(Txt(fmt.Sprintf("Change %d of %d at %d,%d (%dx%d)", idx, total, screen.Min.X, screen.Min.Y, screen.Dx(), screen.Dy())))
	if img != nil {
		replace(d.image, &d.photo, images.Enlarge(img, reviewMaxW, reviewMaxH))
	}
	setText(d.name, "")
}

func (d *reviewDialog) Hide() {
	d.visible = false
	if d.win != nil {
		Destroy(d.win)
		d.win = nil
	}
	if d.photo != nil {
		d.photo.Delete()
		d.photo = nil
	}
}

func (d *reviewDialog) accept() {
	if !d.visible || d.onAccept == nil {
		return
	}
	d.onAccept(textOf(d.name))
}

func (d *reviewDialog) reject() {
	if !d.visible {
		d.Hide()
		return
	}
	if d.onReject != nil {
		d.onReject()
	}
}
