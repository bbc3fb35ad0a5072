package match

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// scaledDims returns the template size at scale, never below 1x1.
func scaledDims(w, h int, scale float64) (int, int) {
	sw := int(math.Round(float64(w) * scale))
	sh := int(math.Round(float64(h) * scale))
	return max(sw, 1), max(sh, 1)
}

// resizeGray scales src to w x h with bilinear interpolation into a new
// zero-origin image.
func resizeGray(src *image.Gray, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// padGray returns a zero-origin copy of src with px black columns on the
// left and right and py black rows on top and bottom.
func padGray(src *image.Gray, px, py int) *image.Gray {
	b := src.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx()+2*px, b.Dy()+2*py))
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		d := out.Pix[(y+py)*out.Stride+px:]
		copy(d[:b.Dx()], s[:b.Dx()])
	}
	return out
}

func ceilHalf(n int) int { return (n + 1) / 2 }
