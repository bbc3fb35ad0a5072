package capture

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Preprocessor resizes frames to the working size and applies a Gaussian
// blur before segmentation. Zero values disable each step.
type Preprocessor struct {
	Width, Height int
	Sigma         float64
}

// Enabled reports whether Apply changes frames at all.
func (p Preprocessor) Enabled() bool {
	return (p.Width > 0 && p.Height > 0) || p.Sigma > 0
}

// Apply returns the processed frame in a pooled buffer, or src itself when
// nothing is enabled or src already matches and no blur is requested.
func (p Preprocessor) Apply(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	resize := p.Width > 0 && p.Height > 0 && (b.Dx() != p.Width || b.Dy() != p.Height)
	if !resize && p.Sigma <= 0 {
		return src
	}
	var img image.Image = src
	if resize {
		img = imaging.Resize(img, p.Width, p.Height, imaging.Linear)
	}
	if p.Sigma > 0 {
		img = imaging.Blur(img, p.Sigma)
	}
	ib := img.Bounds()
	dst := acquireFrame(image.Rect(0, 0, ib.Dx(), ib.Dy()))
	draw.Draw(dst, dst.Bounds(), img, ib.Min, draw.Src)
	return dst
}
