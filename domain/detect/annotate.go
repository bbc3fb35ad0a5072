package detect

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Annotation colors.
var (
	TargetColor  = color.RGBA{R: 255, A: 255}
	BlobColor    = color.RGBA{G: 255, A: 255}
	TextColor    = color.RGBA{R: 50, G: 170, B: 50, A: 255}
	FailureColor = color.RGBA{R: 255, A: 255}
)

// Annotator draws boxes, identity labels and tracker diagnostics in place.
type Annotator struct {
	face      font.Face
	thickness int
}

// NewAnnotator returns an annotator using the built-in 7x13 bitmap face.
func NewAnnotator() *Annotator {
	return &Annotator{face: basicfont.Face7x13, thickness: 2}
}

// Draw renders rep onto frame.
func (a *Annotator) Draw(frame *image.RGBA, rep *FrameReport) {
	if frame == nil || rep == nil {
		return
	}
	b := frame.Bounds()
	for _, obj := range rep.Objects {
		c := BlobColor
		if obj.Target {
			c = TargetColor
		}
		a.rect(frame, obj.Box, c)
		a.text(frame, image.Pt(obj.Box.Min.X, obj.Box.Min.Y-4), fmt.Sprintf("buoy #%d", obj.ID), c)
	}
	if rep.Tracker.Tracker == "" {
		return
	}
	origin := b.Min
	a.text(frame, origin.Add(image.Pt(10, 20)), strings.ToUpper(rep.Tracker.Tracker)+" Tracker", TextColor)
	a.text(frame, origin.Add(image.Pt(10, 40)), fmt.Sprintf("FPS : %d", int(rep.Tracker.FPS)), TextColor)
	if !rep.Tracker.OK {
		a.text(frame, origin.Add(image.Pt(10, 60)), "Tracking failure detected", FailureColor)
	}
}

// rect draws an outline of r, clipped to the frame.
func (a *Annotator) rect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	t := min(a.thickness, r.Dx(), r.Dy())
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

// text draws s with its baseline at p. Glyphs outside the frame are clipped.
func (a *Annotator) text(dst *image.RGBA, p image.Point, s string, c color.RGBA) {
	if p.Y < dst.Bounds().Min.Y+a.face.Metrics().Ascent.Ceil() {
		p.Y = dst.Bounds().Min.Y + a.face.Metrics().Ascent.Ceil()
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: a.face,
		Dot:  fixed.P(p.X, p.Y),
	}
	d.DrawString(s)
}
