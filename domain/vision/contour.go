package vision

import "image"

// contour is a region plus its doubled boundary area, kept exact so that
// half-pixel areas compare correctly against the minimum.
type contour struct {
	ChangeRegion
	twiceArea int
}

// Neighbour offsets, clockwise on screen starting east.
var (
	ringDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	ringDY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// externalRegions finds the outer boundaries of the changed pixels in mask
// and returns one region per boundary, in raster discovery order.
//
// Changed pixels are 8-connected and background is 4-connected, the usual
// dual pairing for binary contours. Unchanged pixels that cannot reach the
// image border through background are holes, so they belong to the shape
// that encloses them. Shapes nested inside a hole are absorbed the same way.
// Area is the polygon area of the traced outer boundary through pixel
// centres, so a one pixel wide line has zero area and an n by m block has
// (n-1)*(m-1).
func externalRegions(mask []bool, w, h int) []contour {
	if w <= 0 || h <= 0 || len(mask) < w*h {
		return nil
	}
	outside := floodBackground(mask, w, h)

	seen := make([]bool, w*h)
	queue := make([]int, 0, 64)
	var regions []contour
	for start := 0; start < w*h; start++ {
		if outside[start] || seen[start] {
			continue
		}
		minX, minY := w, h
		maxX, maxY := -1, -1
		seen[start] = true
		queue = append(queue[:0], start)
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			x, y := i%w, i/w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := x + dx
					if nx < 0 || nx >= w || (dx == 0 && dy == 0) {
						continue
					}
					j := ny*w + nx
					if outside[j] || seen[j] {
						continue
					}
					// Hole pixels only join through 4-neighbours or via a changed pixel.
					if dx != 0 && dy != 0 && !mask[i] && !mask[j] {
						continue
					}
					seen[j] = true
					queue = append(queue, j)
				}
			}
		}
		twice := twiceArea(traceOuter(mask, w, h, start))
		regions = append(regions, contour{
			ChangeRegion: ChangeRegion{
				X: minX, Y: minY,
				Width: maxX - minX + 1, Height: maxY - minY + 1,
				Area: twice / 2,
			},
			twiceArea: twice,
		})
	}
	return regions
}

// floodBackground marks unchanged pixels 4-connected to the image border.
func floodBackground(mask []bool, w, h int) []bool {
	outside := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))
	push := func(i int) {
		if !mask[i] && !outside[i] {
			outside[i] = true
			queue = append(queue, i)
		}
	}
	for x := 0; x < w; x++ {
		push(x)
		push((h-1)*w + x)
	}
	for y := 0; y < h; y++ {
		push(y * w)
		push(y*w + w - 1)
	}
	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(i - 1)
		}
		if x < w-1 {
			push(i + 1)
		}
		if y > 0 {
			push(i - w)
		}
		if y < h-1 {
			push(i + w)
		}
	}
	return outside
}

// traceOuter follows the outer border of the 8-connected changed shape whose
// first raster pixel is start and returns the border pixels in walk order.
// start must be a changed pixel with no changed pixel before it in its shape.
func traceOuter(mask []bool, w, h, start int) []image.Point {
	set := func(p image.Point) bool {
		return p.X >= 0 && p.X < w && p.Y >= 0 && p.Y < h && mask[p.Y*w+p.X]
	}
	origin := image.Pt(start%w, start/w)
	// First changed neighbour, clockwise from the west.
	first := -1
	for k := 0; k < 8; k++ {
		d := (4 + k) % 8
		if set(origin.Add(image.Pt(ringDX[d], ringDY[d]))) {
			first = d
			break
		}
	}
	if first < 0 {
		return []image.Point{origin}
	}
	second := origin.Add(image.Pt(ringDX[first], ringDY[first]))

	var pts []image.Point
	prev, cur := second, origin
	for {
		back := ringDir(prev.Sub(cur))
		next := prev
		for k := 1; k <= 8; k++ {
			d := (back - k + 8) % 8
			if p := cur.Add(image.Pt(ringDX[d], ringDY[d])); set(p) {
				next = p
				break
			}
		}
		pts = append(pts, cur)
		if next == origin && cur == second {
			return pts
		}
		prev, cur = cur, next
	}
}

func ringDir(d image.Point) int {
	for i := range ringDX {
		if ringDX[i] == d.X && ringDY[i] == d.Y {
			return i
		}
	}
	return 0
}

// twiceArea is the shoelace sum over pts, i.e. double the enclosed area.
func twiceArea(pts []image.Point) int {
	sum := 0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		sum += p.X*q.Y - q.X*p.Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum
}
