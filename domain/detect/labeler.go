package detect

import (
	"image"

	"github.com/soocke/buoy-vision-go/domain/blob"
	"github.com/soocke/buoy-vision-go/domain/identity"
	"github.com/soocke/buoy-vision-go/domain/roi"
	"github.com/soocke/buoy-vision-go/domain/segment"
)

// sampleHalf gives the 11x11 patch used to sample a blob's color.
const sampleHalf = 5

// Target is the tracked buoy handed to the Labeler.
type Target struct {
	Box        image.Rectangle
	Confidence float64
}

// Labeler assigns identities to the tracked target and to the largest
// colored blobs of a frame.
type Labeler struct {
	contours blob.ContourEngine
	ids      *identity.Tracker
	maxBlobs int
	minArea  float64
}

// NewLabeler returns a Labeler keeping up to maxBlobs blobs with area of at
// least minArea.
func NewLabeler(contours blob.ContourEngine, ids *identity.Tracker, maxBlobs int, minArea float64) *Labeler {
	if contours == nil {
		contours = blob.NewTracer()
	}
	if ids == nil {
		ids = identity.New(identity.DefaultMinIdentities, identity.DefaultColorDistance)
	}
	return &Labeler{contours: contours, ids: ids, maxBlobs: maxBlobs, minArea: minArea}
}

// Identities exposes the identity store.
func (l *Labeler) Identities() *identity.Tracker { return l.ids }

// Label returns the target (when present) followed by the blobs, largest
// first. mask is the zero-origin color mask of frame. Blobs centered inside
// the target box belong to the target and are skipped.
func (l *Labeler) Label(frame *image.RGBA, mask *image.Gray, target *Target) []Object {
	b := frame.Bounds()
	var out []Object
	if target != nil && !target.Box.Empty() {
		c := boxCenter(target.Box)
		id, _ := l.ids.Check(c, segment.AverageColor(frame, samplePatch(c)))
		out = append(out, Object{ID: id, Box: target.Box, Confidence: target.Confidence, Target: true})
	}
	if l.maxBlobs <= 0 || mask == nil {
		return out
	}
	polys := blob.Largest(l.contours.FindContours(mask), -1, l.minArea)
	kept := 0
	for _, p := range polys {
		if kept == l.maxBlobs {
			break
		}
		rect := roi.Clamp(p.BoundingRect().Add(b.Min), b)
		if rect.Empty() {
			continue
		}
		c := boxCenter(rect)
		if target != nil && c.In(target.Box) {
			continue
		}
		kept++
		id, _ := l.ids.Check(c, segment.AverageColor(frame, samplePatch(c)))
		conf := 0.0
		if area := rect.Dx() * rect.Dy(); area > 0 {
			conf = p.Area() / float64(area)
		}
		out = append(out, Object{ID: id, Box: rect, Confidence: conf})
	}
	return out
}

// samplePatch is the (2*sampleHalf+1)-pixel square centered on c.
func samplePatch(c image.Point) image.Rectangle {
	return image.Rect(c.X-sampleHalf, c.Y-sampleHalf, c.X+sampleHalf+1, c.Y+sampleHalf+1)
}

func boxCenter(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}
