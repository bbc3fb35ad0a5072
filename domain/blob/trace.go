package blob

import "image"

// Tracer is the pure-Go ContourEngine. It labels 8-connected components and
// walks the outer boundary of each with Moore-neighbour tracing, so holes
// never produce contours of their own.
type Tracer struct{}

// NewTracer returns a native contour engine.
func NewTracer() Tracer { return Tracer{} }

// clockwise neighbour offsets starting east (y grows downward).
var moore = [8]image.Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const west = 4

func dirIndex(d image.Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return -1
}

// FindContours implements ContourEngine. Vertices are in mask coordinates.
func (Tracer) FindContours(mask *image.Gray) []Polygon {
	if mask == nil {
		return nil
	}
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	fg := func(x, y int) bool {
		if x < 0 || y < 0 || x >= w || y >= h {
			return false
		}
		return mask.Pix[mask.PixOffset(b.Min.X+x, b.Min.Y+y)] != 0
	}
	label := make([]int32, w*h)
	var polys []Polygon
	var queue []image.Point
	next := int32(0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if label[y*w+x] != 0 || !fg(x, y) {
				continue
			}
			next++
			// Flood the component so its interior is never revisited.
			label[y*w+x] = next
			size := 0
			queue = append(queue[:0], image.Pt(x, y))
			for len(queue) > 0 {
				p := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				size++
				for _, d := range moore {
					q := p.Add(d)
					if fg(q.X, q.Y) && label[q.Y*w+q.X] == 0 {
						label[q.Y*w+q.X] = next
						queue = append(queue, q)
					}
				}
			}
			poly := traceBoundary(image.Pt(x, y), fg, 4*size+8)
			for i := range poly {
				poly[i] = poly[i].Add(b.Min)
			}
			polys = append(polys, poly)
		}
	}
	return polys
}

// traceBoundary walks clockwise from start, the raster-first pixel of its
// component, until the first move repeats.
func traceBoundary(start image.Point, fg func(x, y int) bool, limit int) Polygon {
	step := func(cur image.Point, back int) (image.Point, int, bool) {
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			n := cur.Add(moore[d])
			if fg(n.X, n.Y) {
				prev := cur.Add(moore[(d+7)%8])
				return n, dirIndex(prev.Sub(n)), true
			}
		}
		return cur, back, false
	}
	poly := Polygon{start}
	first, back, ok := step(start, west)
	if !ok {
		return poly
	}
	cur := first
	for len(poly) < limit {
		if cur == start {
			n, _, _ := step(cur, back)
			if n == first {
				break
			}
		}
		poly = append(poly, cur)
		cur, back, _ = step(cur, back)
	}
	return poly
}
