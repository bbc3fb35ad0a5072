package blob

import (
	"image"
	"math"
	"sort"
)

// ContourEngine extracts the outer contours of the white regions of a
// binary mask.
type ContourEngine interface {
	FindContours(mask *image.Gray) []Polygon
}

// Polygon is a closed contour; the last vertex connects back to the first.
type Polygon []image.Point

// Area returns the absolute shoelace area of the polygon through its vertex
// coordinates. A filled w x h rectangle traced on pixel centers has area
// (w-1)*(h-1).
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum int
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// BoundingRect returns the smallest rectangle containing every vertex pixel.
func (p Polygon) BoundingRect() image.Rectangle {
	if len(p) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: p[0], Max: p[0].Add(image.Pt(1, 1))}
	for _, pt := range p[1:] {
		r = r.Union(image.Rectangle{Min: pt, Max: pt.Add(image.Pt(1, 1))})
	}
	return r
}

// Center returns the center of the bounding rectangle.
func (p Polygon) Center() image.Point {
	r := p.BoundingRect()
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

// Largest returns up to n polygons with area >= minArea, largest first.
// Equal areas keep their input order.
func Largest(polys []Polygon, n int, minArea float64) []Polygon {
	out := make([]Polygon, 0, len(polys))
	for _, p := range polys {
		if p.Area() >= minArea {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Area() > out[j].Area() })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
