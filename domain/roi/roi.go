package roi

import (
	"errors"
	"image"
	"image/draw"
)

// Default half extents in pixels.
const (
	DefaultSmallHalf = 30
	DefaultLargeHalf = 150
	DefaultBoxHalf   = 100
)

// Regions are the rectangles derived from one detected center. All
// rectangles lie inside the frame bounds they were built against.
type Regions struct {
	Center      image.Point
	Small       image.Rectangle // color sampling window
	Large       image.Rectangle // scopes the next re-detection pass
	Box         image.Rectangle // reported bounding box
	PercentArea float64         // Box area as a percentage of the frame area
}

// Manager builds Regions with configurable half extents.
type Manager struct {
	SmallHalf int
	LargeHalf int
	BoxHalf   int
}

// NewManager returns a Manager; non-positive values fall back to defaults.
func NewManager(smallHalf, largeHalf, boxHalf int) Manager {
	if smallHalf <= 0 {
		smallHalf = DefaultSmallHalf
	}
	if largeHalf <= 0 {
		largeHalf = DefaultLargeHalf
	}
	if boxHalf <= 0 {
		boxHalf = DefaultBoxHalf
	}
	return Manager{SmallHalf: smallHalf, LargeHalf: largeHalf, BoxHalf: boxHalf}
}

// Build derives the regions around center, clamped to bounds.
func (m Manager) Build(center image.Point, bounds image.Rectangle) Regions {
	r := Regions{
		Center: center,
		Small:  Square(center, m.SmallHalf, bounds),
		Large:  Square(center, m.LargeHalf, bounds),
		Box:    Square(center, m.BoxHalf, bounds),
	}
	r.PercentArea = PercentArea(r.Box, bounds)
	return r
}

// Square returns the square of the given half extent around c intersected
// with bounds. The result may be empty when c lies far outside bounds.
func Square(c image.Point, half int, bounds image.Rectangle) image.Rectangle {
	if half < 0 {
		half = 0
	}
	return Clamp(image.Rect(c.X-half, c.Y-half, c.X+half, c.Y+half), bounds)
}

// Clamp saturates r to bounds.
func Clamp(r, bounds image.Rectangle) image.Rectangle {
	return r.Canon().Intersect(bounds)
}

// PercentArea returns area(r) / area(bounds) * 100.
func PercentArea(r, bounds image.Rectangle) float64 {
	total := bounds.Dx() * bounds.Dy()
	if total <= 0 {
		return 0
	}
	return float64(r.Dx()*r.Dy()) / float64(total) * 100
}

// Crop returns the part of frame covered by r, clamped to the frame and at
// least 1x1. The result shares pixels with frame.
func Crop(frame *image.RGBA, r image.Rectangle) (*image.RGBA, image.Rectangle, error) {
	if frame == nil {
		return nil, image.Rectangle{}, errors.New("nil frame")
	}
	b := frame.Bounds()
	if b.Empty() {
		return nil, image.Rectangle{}, errors.New("empty frame")
	}
	orig := r.Canon()
	r = Clamp(orig, b)
	if r.Empty() {
		// Keep a single pixel at the nearest corner.
		x := min(max(orig.Min.X, b.Min.X), b.Max.X-1)
		y := min(max(orig.Min.Y, b.Min.Y), b.Max.Y-1)
		r = image.Rect(x, y, x+1, y+1)
	}
	sub := frame.SubImage(r)
	if rgba, ok := sub.(*image.RGBA); ok {
		return rgba, r, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), sub, r.Min, draw.Src)
	return out, r, nil
}
