//go:build !windows

package capture

import (
	"image"

	"github.com/vova616/screenshot"
)

// grab returns a capture of the whole primary screen.
func grab() (*image.RGBA, error) {
	return screenshot.CaptureScreen()
}

// grabSelection captures sel clipped to the screen.
func grabSelection(sel image.Rectangle) (*image.RGBA, error) {
	screen, err := screenshot.ScreenRect()
	if err != nil {
		return nil, err
	}
	r := sel.Intersect(screen)
	if r.Empty() {
		return nil, errSelectionOutside(sel, screen)
	}
	return screenshot.CaptureRect(r)
}
