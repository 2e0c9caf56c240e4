package vision

import (
	"image"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMatchThreshold is the minimum NCC score for a positive match.
const DefaultMatchThreshold = 0.85

const flatEpsilon = 1e-9

// grayPrecomp stores per-frame luma values and their summed-area tables
// (integral images). The integrals allow O(1) window sum and variance queries.
type grayPrecomp struct {
	gray       []float64
	integral   []float64
	integralSq []float64
	W, H       int
}

// templatePrecomp caches luma pixels and summary statistics for a template.
type templatePrecomp struct {
	gray  []float64
	W, H  int
	meanT float64
	stdT  float64
}

// MatchOptions configures normalized cross-correlation template matching.
type MatchOptions struct {
	Threshold      float64 // minimum score for Found (default 0.85)
	Stride         int     // coarse scan step (default 1)
	Refine         bool    // with Stride>1, rescan every offset around the coarse best
	ReturnBestEven bool    // report best coordinates even when below Threshold
}

// MatchResult holds the outcome of a template matching operation. X and Y
// are in the search image's coordinate space.
type MatchResult struct {
	X, Y  int
	Score float64
	Found bool
	Dur   time.Duration
}

// Point returns the top-left corner of the match.
func (r MatchResult) Point() image.Point { return image.Pt(r.X, r.Y) }

// Matcher runs zero-mean NCC searches and keeps template statistics in an
// LRU keyed by the template image value.
type Matcher struct {
	opts  MatchOptions
	cache *lru.Cache[image.Image, *templatePrecomp]
}

// NewMatcher returns a Matcher. A cacheSize <= 0 disables caching.
func NewMatcher(opts MatchOptions, cacheSize int) *Matcher {
	m := &Matcher{opts: opts.normalized()}
	if cacheSize > 0 {
		m.cache, _ = lru.New[image.Image, *templatePrecomp](cacheSize)
	}
	return m
}

// Options returns the effective options.
func (m *Matcher) Options() MatchOptions { return m.opts }

// WithOptions returns a Matcher using opts that shares m's template cache.
// m itself is returned when the effective options are unchanged.
func (m *Matcher) WithOptions(opts MatchOptions) *Matcher {
	opts = opts.normalized()
	if opts == m.opts {
		return m
	}
	return &Matcher{opts: opts, cache: m.cache}
}

func (o MatchOptions) normalized() MatchOptions {
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = DefaultMatchThreshold
	}
	if o.Stride <= 0 {
		o.Stride = 1
	}
	return o
}

// MatchTemplate is a one-shot uncached search.
func MatchTemplate(screen, tmpl image.Image, opts MatchOptions) MatchResult {
	return NewMatcher(opts, 0).Match(screen, tmpl)
}

// Match searches screen for tmpl. A template larger than the screen in
// either dimension is never found.
func (m *Matcher) Match(screen, tmpl image.Image) MatchResult {
	start := time.Now()
	res := MatchResult{Score: -1}
	if isEmpty(screen) || isEmpty(tmpl) {
		return res
	}
	sb, tb := screen.Bounds(), tmpl.Bounds()
	if sb.Dx() < tb.Dx() || sb.Dy() < tb.Dy() {
		return res
	}
	res = m.search(buildGrayPrecomp(screen), m.templateFor(tmpl))
	res.X += sb.Min.X
	res.Y += sb.Min.Y
	res.Dur = time.Since(start)
	return res
}

func (m *Matcher) templateFor(tmpl image.Image) *templatePrecomp {
	if m.cache != nil {
		if pc, ok := m.cache.Get(tmpl); ok {
			return pc
		}
	}
	pc := buildTemplatePrecomp(tmpl)
	if m.cache != nil {
		m.cache.Add(tmpl, pc)
	}
	return pc
}

func (m *Matcher) search(pre *grayPrecomp, pc *templatePrecomp) MatchResult {
	res := MatchResult{Score: -1}
	W, H := pre.W, pre.H
	w, h := pc.W, pc.H
	if pc.stdT <= flatEpsilon {
		return searchFlat(pre, pc)
	}
	n := float64(w * h)
	score := func(x, y int) (float64, bool) {
		sumF := integralSum(pre.integral, W, x, y, x+w-1, y+h-1)
		sumF2 := integralSum(pre.integralSq, W, x, y, x+w-1, y+h-1)
		meanF := sumF / n
		varF := (sumF2 - sumF*sumF/n) / n
		if varF <= flatEpsilon {
			return 0, false
		}
		var sumFT float64
		for py := 0; py < h; py++ {
			row := pre.gray[(y+py)*W+x : (y+py)*W+x+w]
			trow := pc.gray[py*w : py*w+w]
			for px := range trow {
				sumFT += row[px] * trow[px]
			}
		}
		denom := n * math.Sqrt(varF) * pc.stdT
		if denom <= 0 {
			return 0, false
		}
		return (sumFT - n*meanF*pc.meanT) / denom, true
	}

	bestX, bestY, bestScore := 0, 0, -1.0
	stride := m.opts.Stride
	for y := 0; y <= H-h; y += stride {
		for x := 0; x <= W-w; x += stride {
			if s, ok := score(x, y); ok && s > bestScore {
				bestScore, bestX, bestY = s, x, y
			}
		}
	}
	if m.opts.Refine && stride > 1 {
		minY, maxY := max(0, bestY-stride), min(H-h, bestY+stride)
		minX, maxX := max(0, bestX-stride), min(W-w, bestX+stride)
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				if s, ok := score(x, y); ok && s > bestScore {
					bestScore, bestX, bestY = s, x, y
				}
			}
		}
	}
	res.Score = bestScore
	res.Found = bestScore >= m.opts.Threshold
	if res.Found || m.opts.ReturnBestEven {
		res.X, res.Y = bestX, bestY
	}
	return res
}

// searchFlat handles a zero-variance template, where NCC is undefined. Only
// an exactly equal window counts as a match.
func searchFlat(pre *grayPrecomp, pc *templatePrecomp) MatchResult {
	res := MatchResult{Score: -1}
	W, H := pre.W, pre.H
	w, h := pc.W, pc.H
	ref := pc.gray[0]
	n := float64(w * h)
	for y := 0; y <= H-h; y++ {
		for x := 0; x <= W-w; x++ {
			sum := integralSum(pre.integral, W, x, y, x+w-1, y+h-1)
			if math.Abs(sum-ref*n) > flatEpsilon {
				continue
			}
			sumSq := integralSum(pre.integralSq, W, x, y, x+w-1, y+h-1)
			if math.Abs(sumSq-ref*ref*n) > flatEpsilon {
				continue
			}
			res.X, res.Y, res.Score, res.Found = x, y, 1, true
			return res
		}
	}
	return res
}

// buildGrayPrecomp computes luma values and their summed-area tables.
func buildGrayPrecomp(frame image.Image) *grayPrecomp {
	lp := luminance(frame)
	W, H := lp.w, lp.h
	p := &grayPrecomp{
		gray:       make([]float64, W*H),
		integral:   make([]float64, W*H),
		integralSq: make([]float64, W*H),
		W:          W,
		H:          H,
	}
	for y := 0; y < H; y++ {
		var rowSum, rowSum2 float64
		for x := 0; x < W; x++ {
			off := y*W + x
			g := float64(lp.pix[off])
			p.gray[off] = g
			rowSum += g
			rowSum2 += g * g
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSum2
			} else {
				p.integral[off] = p.integral[off-W] + rowSum
				p.integralSq[off] = p.integralSq[off-W] + rowSum2
			}
		}
	}
	return p
}

func buildTemplatePrecomp(tmpl image.Image) *templatePrecomp {
	lp := luminance(tmpl)
	pc := &templatePrecomp{gray: make([]float64, len(lp.pix)), W: lp.w, H: lp.h}
	var sumT, sumT2 float64
	for i, v := range lp.pix {
		g := float64(v)
		pc.gray[i] = g
		sumT += g
		sumT2 += g * g
	}
	n := float64(len(lp.pix))
	pc.meanT = sumT / n
	if varT := (sumT2 - sumT*sumT/n) / n; varT > 0 {
		pc.stdT = math.Sqrt(varT)
	}
	return pc
}

// integralSum returns the inclusive sum over rectangle [x0..x1] x [y0..y1]
// from an integral image stored in row-major order with width W.
func integralSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	at := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*W+x]
	}
	return at(x1, y1) - at(x0-1, y1) - at(x1, y0-1) + at(x0-1, y0-1)
}
