package view

import (
	"image"

	"github.com/soocke/food-helper-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CapturePreview shows the live region preview and the last diff visual.
type CapturePreview interface {
	UpdatePreview(img image.Image)
	UpdateVisual(img image.Image)
	Reset()
}

type capturePreview struct {
	previewLabel *LabelWidget
	visualLabel  *LabelWidget
	previewPhoto *Img
	visualPhoto  *Img
}

const (
	maxPreviewW = 400
	maxPreviewH = 225
	maxVisualW  = 240
	maxVisualH  = 225
)

// NewCapturePreview grids both labels on row: preview spans columns 0-3,
// the diff visual sits in column 4.
func NewCapturePreview(row int) CapturePreview {
	v := &capturePreview{}
	v.previewPhoto = placeholderPhoto()
	v.visualPhoto = placeholderPhoto()
	v.previewLabel = Label(Image(v.previewPhoto), Borderwidth(1), Relief("sunken"))
	v.visualLabel = Label(Image(v.visualPhoto), Borderwidth(1), Relief("sunken"))
	Grid(v.previewLabel, Row(row), Column(0), Columnspan(4), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	Grid(v.visualLabel, Row(row), Column(4), Columnspan(1), Sticky("we"), Padx("0.4m"), Pady("0.4m"))
	return v
}

func placeholderPhoto() *Img {
	return NewPhoto(Data(images.EncodePNG(images.Placeholder(200, 120))))
}

// replace swaps the photo shown by lbl, freeing the previous Tk image.
func replace(lbl *LabelWidget, prev **Img, img image.Image) {
	if *prev != nil {
		(*prev).Delete()
	}
	*prev = NewPhoto(Data(images.EncodePNG(img)))
	lbl.Configure(Image(*prev))
}

func (v *capturePreview) UpdatePreview(img image.Image) {
	if v.previewLabel == nil || img == nil {
		return
	}
	replace(v.previewLabel, &v.previewPhoto, images.Enlarge(img, maxPreviewW, maxPreviewH))
}

func (v *capturePreview) UpdateVisual(img image.Image) {
	if v.visualLabel == nil || img == nil {
		return
	}
	replace(v.visualLabel, &v.visualPhoto, images.ScaleToFit(img, maxVisualW, maxVisualH))
}

func (v *capturePreview) Reset() {
	if v.previewLabel != nil {
		replace(v.previewLabel, &v.previewPhoto, images.Placeholder(200, 120))
	}
}
