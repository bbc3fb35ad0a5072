package capture

import (
	"context"
	"fmt"
	"image"
	"strconv"
	"strings"
)

func init() {
	RegisterSource("screen", func(arg string) (FrameSource, error) {
		if arg == "" {
			return NewScreenSource(nil), nil
		}
		r, err := parseRect(arg)
		if err != nil {
			return nil, err
		}
		return NewScreenSource(&r), nil
	})
}

// ScreenSource captures the primary display, or a fixed selection of it.
// It never reaches end of stream.
type ScreenSource struct {
	sel *image.Rectangle
}

// NewScreenSource captures sel, or the whole screen when sel is nil.
func NewScreenSource(sel *image.Rectangle) *ScreenSource {
	return &ScreenSource{sel: sel}
}

// Next implements FrameSource.
func (s *ScreenSource) Next(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.sel != nil && !s.sel.Empty() {
		return grabSelection(*s.sel)
	}
	return grab()
}

// Close implements FrameSource.
func (s *ScreenSource) Close() error { return nil }

// parseRect reads "x0,y0,x1,y1".
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("selection %q: want x0,y0,x1,y1", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("selection %q: %w", s, err)
		}
		v[i] = n
	}
	r := image.Rect(v[0], v[1], v[2], v[3])
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("selection %q is empty", s)
	}
	return r, nil
}

func errSelectionOutside(sel, screen image.Rectangle) error {
	return fmt.Errorf("capture: selection out of bounds sel=%v screen=%v", sel, screen)
}
