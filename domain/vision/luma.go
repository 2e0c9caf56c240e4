package vision

import (
	"image"

	"github.com/disintegration/imaging"
)

// plane is an 8-bit single channel image addressed as pix[y*w+x].
type plane struct {
	w, h int
	pix  []uint8
}

// luminance converts img into a tightly packed luma plane. Coordinates are
// relative to img.Bounds().Min.
func luminance(img image.Image) plane {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	p := plane{w: b.Dx(), h: b.Dy(), pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < p.h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+p.w*4]
		for x := 0; x < p.w; x++ {
			p.pix[y*p.w+x] = row[x*4]
		}
	}
	return p
}

// MeanLuminance returns the average luma (0..255) of img, or 0 for an empty image.
func MeanLuminance(img image.Image) float64 {
	if isEmpty(img) {
		return 0
	}
	p := luminance(img)
	var sum uint64
	for _, v := range p.pix {
		sum += uint64(v)
	}
	return float64(sum) / float64(len(p.pix))
}

func isEmpty(img image.Image) bool {
	if img == nil {
		return true
	}
	switch v := img.(type) {
	case *image.RGBA:
		if v == nil {
			return true
		}
	case *image.NRGBA:
		if v == nil {
			return true
		}
	}
	return img.Bounds().Empty()
}
