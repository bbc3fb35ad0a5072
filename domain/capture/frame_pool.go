package capture

import (
	"image"
	"sync"
)

// Frames move through acquisition, preprocessing and the sinks one at a time,
// all at the same working size, so a small pool of RGBA backing slices covers
// the steady state. Sources and the preprocessor draw into pooled frames;
// the consumer hands each frame back with RecycleFrame once every sink is
// done with it. Frames that are never recycled are simply collected.

var framePool sync.Pool // stores *image.RGBA

// acquireFrame returns a reusable RGBA image sized to rect. The returned Pix
// length exactly matches rect area * 4, and Stride is width*4. Pixel contents
// are unspecified.
func acquireFrame(rect image.Rectangle) *image.RGBA {
	w, h := rect.Dx(), rect.Dy()
	if w <= 0 || h <= 0 {
		return &image.RGBA{Rect: rect}
	}
	needed := w * h * 4
	var img *image.RGBA
	if v := framePool.Get(); v != nil {
		img = v.(*image.RGBA)
	}
	if img == nil || cap(img.Pix) < needed {
		img = &image.RGBA{Pix: make([]byte, needed), Stride: w * 4, Rect: rect}
	} else {
		img.Stride = w * 4
		img.Rect = rect
		img.Pix = img.Pix[:needed]
	}
	return img
}

// RecycleFrame returns the frame to the pool for potential reuse. The frame
// must no longer be accessed by the caller after invoking RecycleFrame.
// Sub-images are ignored since they share another frame's pixels.
func RecycleFrame(img *image.RGBA) {
	if img == nil || img.Pix == nil {
		return
	}
	if len(img.Pix) != img.Rect.Dx()*img.Rect.Dy()*4 {
		return
	}
	framePool.Put(img)
}
