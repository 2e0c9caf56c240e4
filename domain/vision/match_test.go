package vision

import (
	"image"
	"image/draw"
	"testing"
)

// texturedFrame returns a deterministic non-repeating pattern so every
// window has variance and a unique best match.
func texturedFrame(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	seed := uint32(2463534242)
	for i := 0; i < len(img.Pix); i += 4 {
		seed ^= seed << 13
		seed ^= seed >> 17
		seed ^= seed << 5
		v := byte(seed)
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, byte(seed>>8), byte(seed>>16), 255
	}
	return img
}

func crop(src *image.RGBA, r image.Rectangle) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), src, r.Min, draw.Src)
	return out
}

func TestMatch_CropFoundAtSource(t *testing.T) {
	screen := texturedFrame(120, 90)
	tmpl := crop(screen, image.Rect(37, 21, 57, 41))
	res := MatchTemplate(screen, tmpl, MatchOptions{Threshold: 0.85})
	if !res.Found || res.X != 37 || res.Y != 21 {
		t.Fatalf("expected match at 37,21, got %+v", res)
	}
	if res.Score < 0.999 {
		t.Fatalf("exact crop should score ~1, got %v", res.Score)
	}
}

func TestMatch_StrideAlignedHitIsExact(t *testing.T) {
	screen := texturedFrame(120, 90)
	tmpl := crop(screen, image.Rect(40, 32, 60, 52))
	res := MatchTemplate(screen, tmpl, MatchOptions{Threshold: 0.85, Stride: 4, Refine: true})
	if !res.Found || res.X != 40 || res.Y != 32 {
		t.Fatalf("expected match at 40,32 with coarse stride, got %+v", res)
	}
}

func TestMatch_ReturnBestEvenReportsCoordinates(t *testing.T) {
	screen := texturedFrame(40, 40)
	tmpl := synthFrame(10, 10, 0, withBlock(0, 0, 5, 10, 255))
	res := MatchTemplate(screen, tmpl, MatchOptions{Threshold: 0.99, ReturnBestEven: true})
	if res.Found {
		t.Fatalf("did not expect a match, got %+v", res)
	}
	if res.Score <= -1 || res.X < 0 || res.X > 30 || res.Y < 0 || res.Y > 30 {
		t.Fatalf("expected best-even coordinates inside the scan range, got %+v", res)
	}
}

func TestMatch_TemplateLargerThanScreen(t *testing.T) {
	screen := texturedFrame(20, 20)
	tmpl := texturedFrame(30, 10)
	res := MatchTemplate(screen, tmpl, MatchOptions{})
	if res.Found || res.Score != -1 {
		t.Fatalf("oversized template must not match, got %+v", res)
	}
	res = MatchTemplate(screen, texturedFrame(10, 30), MatchOptions{})
	if res.Found {
		t.Fatalf("oversized height must not match, got %+v", res)
	}
}

func TestMatch_UnrelatedContentBelowThreshold(t *testing.T) {
	screen := texturedFrame(60, 60)
	tmpl := synthFrame(12, 12, 0, withBlock(0, 0, 6, 12, 255))
	res := MatchTemplate(screen, tmpl, MatchOptions{Threshold: 0.85})
	if res.Found {
		t.Fatalf("random texture should not match a step edge, got %+v", res)
	}
}

func TestMatch_FlatTemplateNeedsExactWindow(t *testing.T) {
	screen := synthFrame(40, 40, 20, withBlock(10, 12, 30, 32, 77))
	res := MatchTemplate(screen, synthFrame(8, 8, 77, nil), MatchOptions{})
	if !res.Found || res.X != 10 || res.Y != 12 {
		t.Fatalf("flat template should hit the first equal window, got %+v", res)
	}
	res = MatchTemplate(screen, synthFrame(8, 8, 78, nil), MatchOptions{})
	if res.Found {
		t.Fatalf("flat template with other value must miss, got %+v", res)
	}
}

func TestMatcher_CacheReusesPrecomp(t *testing.T) {
	m := NewMatcher(MatchOptions{}, 2)
	screen := texturedFrame(50, 50)
	tmpl := crop(screen, image.Rect(5, 5, 15, 15))
	first := m.Match(screen, tmpl)
	if m.cache.Len() != 1 {
		t.Fatalf("expected one cached template, got %d", m.cache.Len())
	}
	second := m.Match(screen, tmpl)
	if first.X != second.X || first.Y != second.Y || first.Score != second.Score {
		t.Fatalf("cached match differs: %+v vs %+v", first, second)
	}
}

func TestNewMatcher_Defaults(t *testing.T) {
	opts := NewMatcher(MatchOptions{Threshold: 7}, 0).Options()
	if opts.Threshold != DefaultMatchThreshold || opts.Stride != 1 {
		t.Fatalf("unexpected defaults %+v", opts)
	}
}

func TestMatcher_WithOptionsSharesCache(t *testing.T) {
	m := NewMatcher(MatchOptions{Threshold: 0.85}, 2)
	if m.WithOptions(MatchOptions{Threshold: 0.85, Stride: 0}) != m {
		t.Fatalf("equal effective options should reuse the matcher")
	}
	loose := m.WithOptions(MatchOptions{Threshold: 0.6, Stride: 2})
	if loose == m || loose.Options().Threshold != 0.6 || loose.Options().Stride != 2 {
		t.Fatalf("unexpected options %+v", loose.Options())
	}
	screen := texturedFrame(50, 50)
	loose.Match(screen, crop(screen, image.Rect(5, 5, 15, 15)))
	if m.cache.Len() != 1 {
		t.Fatalf("template cache should be shared, got %d entries", m.cache.Len())
	}
	if m.Options().Threshold != 0.85 {
		t.Fatalf("original matcher changed: %+v", m.Options())
	}
}
