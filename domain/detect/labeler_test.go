package detect

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/buoy-vision-go/domain/blob"
	"github.com/soocke/buoy-vision-go/domain/identity"
	"github.com/soocke/buoy-vision-go/domain/segment"
	"github.com/soocke/buoy-vision-go/domain/track"
)

func TestLabelerTargetAndLargestBlobs(t *testing.T) {
	frame := synthFrame(300, 200, color.RGBA{A: 255})
	fillRect(frame, image.Rect(10, 10, 50, 50), color.RGBA{R: 200, G: 90, B: 20, A: 255})      // A
	fillRect(frame, image.Rect(100, 20, 120, 40), color.RGBA{R: 230, G: 120, B: 40, A: 255})   // under target
	fillRect(frame, image.Rect(200, 100, 211, 111), color.RGBA{R: 250, G: 160, B: 80, A: 255}) // C
	fillRect(frame, image.Rect(250, 150, 255, 155), orange)                                    // too small
	mask, err := segment.Classify(frame, "orange")
	require.NoError(t, err)

	l := NewLabeler(blob.NewTracer(), identity.New(3, 250), 3, 50)
	target := &Target{Box: image.Rect(90, 10, 130, 50), Confidence: 0.8}
	objs := l.Label(frame, mask, target)
	require.Len(t, objs, 3)

	assert.True(t, objs[0].Target)
	assert.Equal(t, 0, objs[0].ID)
	assert.InDelta(t, 0.8, objs[0].Confidence, 1e-9)

	assert.Equal(t, image.Rect(10, 10, 50, 50), objs[1].Box)
	assert.Equal(t, 1, objs[1].ID)
	assert.InDelta(t, 39.0*39/(40*40), objs[1].Confidence, 1e-9)

	assert.Equal(t, image.Rect(200, 100, 211, 111), objs[2].Box)
	assert.Equal(t, 2, objs[2].ID)

	// Same scene again: every object keeps its identity.
	again := l.Label(frame, mask, target)
	require.Len(t, again, 3)
	for i := range objs {
		assert.Equal(t, objs[i].ID, again[i].ID)
	}
	assert.Equal(t, 3, l.Identities().Len())
}

func TestLabelerWithoutTarget(t *testing.T) {
	frame := synthFrame(100, 100, color.RGBA{A: 255})
	fillRect(frame, image.Rect(20, 20, 60, 60), orange)
	mask, err := segment.Classify(frame, "orange")
	require.NoError(t, err)
	objs := NewLabeler(nil, nil, 3, 10).Label(frame, mask, nil)
	require.Len(t, objs, 1)
	assert.False(t, objs[0].Target)

	assert.Empty(t, NewLabeler(nil, nil, 0, 10).Label(frame, mask, nil))
}

func countColor(img *image.RGBA, r image.Rectangle, c color.RGBA) int {
	n := 0
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestAnnotatorDrawsBoxesAndDiagnostics(t *testing.T) {
	frame := synthFrame(320, 240, color.RGBA{A: 255})
	rep := &FrameReport{
		Objects: []Object{{ID: 4, Box: image.Rect(250, 150, 300, 200), Target: true}},
		Tracker: track.Diagnostics{Tracker: "ncc", FPS: 42, OK: true},
	}
	a := NewAnnotator()
	a.Draw(frame, rep)
	assert.Equal(t, TargetColor, frame.RGBAAt(250, 150))
	assert.Equal(t, TargetColor, frame.RGBAAt(299, 199))
	assert.Equal(t, color.RGBA{A: 255}, frame.RGBAAt(275, 175))
	assert.Positive(t, countColor(frame, image.Rect(10, 5, 120, 45), TextColor))
	failureBand := image.Rect(10, 46, 200, 64)
	assert.Zero(t, countColor(frame, failureBand, FailureColor))

	rep.Tracker.OK = false
	a.Draw(frame, rep)
	assert.Positive(t, countColor(frame, failureBand, FailureColor))
}

func TestAnnotatorClipsOffFrameBoxes(t *testing.T) {
	frame := synthFrame(50, 50, color.RGBA{A: 255})
	a := NewAnnotator()
	assert.NotPanics(t, func() {
		a.Draw(frame, &FrameReport{Objects: []Object{
			{ID: 1, Box: image.Rect(40, 40, 90, 90)},
			{ID: 2, Box: image.Rect(100, 100, 120, 120)},
		}})
	})
	assert.Equal(t, BlobColor, frame.RGBAAt(40, 40))
}
