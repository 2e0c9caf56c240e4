package images

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestScaleToFit_KeepsAspect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 800, 400))
	out := ScaleToFit(src, 400, 225)
	if b := out.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestScaleToFit_SmallUnchanged(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 30))
	if out := ScaleToFit(src, 400, 225); out != image.Image(src) {
		t.Fatalf("expected original image")
	}
	if ScaleToFit(nil, 1, 1) != nil {
		t.Fatalf("nil in, nil out")
	}
}

func TestEnlarge_IntegerFactor(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 10))
	out := Enlarge(src, 200, 200)
	if b := out.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("unexpected size %v", b)
	}
	big := image.NewRGBA(image.Rect(0, 0, 500, 100))
	if b := Enlarge(big, 250, 250).Bounds(); b.Dx() != 250 {
		t.Fatalf("large crops should shrink, got %v", b)
	}
}

func TestEncodePNG_RoundTrip(t *testing.T) {
	data := EncodePNG(Placeholder(12, 7))
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 7 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	if EncodePNG(nil) != nil {
		t.Fatalf("nil image should encode to nil")
	}
}
