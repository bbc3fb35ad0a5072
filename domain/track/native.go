package track

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/soocke/buoy-vision-go/domain/match"
)

// NativeName is the registry name of the pure-Go tracker.
const NativeName = "ncc"

func init() {
	Register(NativeName, func() (VisualTracker, error) { return NewNCCTracker(), nil })
}

const (
	// nccMaxSide bounds the template side after downsampling.
	nccMaxSide = 48
	// nccMinScore is the lowest correlation accepted as the same object.
	nccMinScore = 0.8
)

// NCCTracker follows the initial appearance by correlating it within a
// window of twice the box size around the last position.
type NCCTracker struct {
	engine *match.NCC
	tmpl   *image.Gray
	box    image.Rectangle
	factor float64
}

// NewNCCTracker returns an uninitialized tracker.
func NewNCCTracker() *NCCTracker { return &NCCTracker{engine: match.NewNCC(1)} }

// Init implements VisualTracker.
func (t *NCCTracker) Init(frame *image.RGBA, box image.Rectangle) bool {
	box = box.Intersect(frame.Bounds())
	if box.Empty() {
		return false
	}
	t.factor = 1
	if side := max(box.Dx(), box.Dy()); side > nccMaxSide {
		t.factor = float64(nccMaxSide) / float64(side)
	}
	t.tmpl = grayScaled(frame, box, t.factor)
	t.box = box
	return t.tmpl.Bounds().Dx() > 0 && t.tmpl.Bounds().Dy() > 0
}

// Update implements VisualTracker.
func (t *NCCTracker) Update(frame *image.RGBA) (image.Rectangle, bool) {
	if t.tmpl == nil {
		return image.Rectangle{}, false
	}
	w, h := t.box.Dx(), t.box.Dy()
	window := t.box.Inset(-max(w/2, 1)).Intersect(frame.Bounds())
	if window.Dx() < w || window.Dy() < h {
		return image.Rectangle{}, false
	}
	env := grayScaled(frame, window, t.factor)
	tb := t.tmpl.Bounds()
	if env.Bounds().Dx() < tb.Dx() || env.Bounds().Dy() < tb.Dy() {
		return image.Rectangle{}, false
	}
	surf, err := t.engine.MatchTemplate(env, t.tmpl)
	if err != nil {
		return image.Rectangle{}, false
	}
	score, at := surf.Argmax()
	if score < nccMinScore {
		return image.Rectangle{}, false
	}
	tl := image.Pt(int(float64(at.X)/t.factor+0.5), int(float64(at.Y)/t.factor+0.5)).Add(window.Min)
	t.box = image.Rectangle{Min: tl, Max: tl.Add(image.Pt(w, h))}.Intersect(frame.Bounds())
	return t.box, !t.box.Empty()
}

// Close implements VisualTracker.
func (t *NCCTracker) Close() error {
	t.tmpl = nil
	return nil
}

// grayScaled converts r of frame to grayscale, scaled by factor.
func grayScaled(frame *image.RGBA, r image.Rectangle, factor float64) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(g, g.Bounds(), frame, r.Min, draw.Src)
	if factor >= 1 {
		return g
	}
	sw := max(int(float64(r.Dx())*factor+0.5), 1)
	sh := max(int(float64(r.Dy())*factor+0.5), 1)
	out := image.NewGray(image.Rect(0, 0, sw, sh))
	xdraw.ApproxBiLinear.Scale(out, out.Bounds(), g, g.Bounds(), xdraw.Src, nil)
	return out
}
