package segment

import (
	"image"
	"image/color"
)

// Classify builds a binary mask of frame, 255 where the pixel falls inside
// the named profile and 0 elsewhere. The mask is zero-origin and has the
// frame's size.
func Classify(frame *image.RGBA, profile string) (*image.Gray, error) {
	p, err := Lookup(profile)
	if err != nil {
		return nil, err
	}
	return ClassifyProfile(frame, p), nil
}

// ClassifyProfile is Classify with an already resolved profile.
func ClassifyProfile(frame *image.RGBA, p Profile) *image.Gray {
	if frame == nil {
		return image.NewGray(image.Rectangle{})
	}
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := frame.Pix[frame.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := mask.Pix[y*mask.Stride:]
		for x := 0; x < w; x++ {
			i := x * 4
			if inRange(src[i], src[i+1], src[i+2], p) {
				dst[x] = 255
			}
		}
	}
	return mask
}

// CheckColor reports whether an averaged sample lies within the named profile.
// Unknown profiles never accept.
func CheckColor(sample color.RGBA, profile string) bool {
	p, err := Lookup(profile)
	if err != nil {
		return false
	}
	return p.Contains(sample)
}

// AverageColor returns the mean color of frame within rect, clipped to the
// frame bounds. An empty intersection yields transparent black.
func AverageColor(frame *image.RGBA, rect image.Rectangle) color.RGBA {
	if frame == nil {
		return color.RGBA{}
	}
	r := rect.Intersect(frame.Bounds())
	if r.Empty() {
		return color.RGBA{}
	}
	var sr, sg, sb uint64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := frame.Pix[frame.PixOffset(r.Min.X, y):]
		for x := 0; x < r.Dx(); x++ {
			i := x * 4
			sr += uint64(row[i])
			sg += uint64(row[i+1])
			sb += uint64(row[i+2])
		}
	}
	n := uint64(r.Dx() * r.Dy())
	return color.RGBA{R: uint8(sr / n), G: uint8(sg / n), B: uint8(sb / n), A: 255}
}
