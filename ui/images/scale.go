package images

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// EncodePNG encodes img for a Tk photo. Errors yield an empty slice.
func EncodePNG(img image.Image) []byte {
	if img == nil {
		return nil
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// ScaleToFit shrinks src to fit maxW x maxH keeping aspect ratio. Images that
// already fit are returned unchanged.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Dx() <= maxW && b.Dy() <= maxH {
		return src
	}
	if maxW < 1 {
		maxW = 1
	}
	if maxH < 1 {
		maxH = 1
	}
	return imaging.Fit(src, maxW, maxH, imaging.NearestNeighbor)
}

// Enlarge scales small crops up by an integer factor so they stay visible
// in review dialogs. The result is at most maxW x maxH.
func Enlarge(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	if b.Empty() {
		return src
	}
	f := min(maxW/b.Dx(), maxH/b.Dy())
	if f <= 1 {
		return ScaleToFit(src, maxW, maxH)
	}
	return imaging.Resize(src, b.Dx()*f, b.Dy()*f, imaging.NearestNeighbor)
}

var placeholderColor = color.NRGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}

// Placeholder is a blank preview image.
func Placeholder(w, h int) *image.NRGBA {
	return imaging.New(w, h, placeholderColor)
}
