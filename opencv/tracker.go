//go:build opencv

package opencv

import (
	"image"

	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"

	"github.com/soocke/buoy-vision-go/domain/track"
)

var trackers = map[string]track.Factory{
	"kcf":  func() (track.VisualTracker, error) { return &cvTracker{t: contrib.NewTrackerKCF()}, nil },
	"csrt": func() (track.VisualTracker, error) { return &cvTracker{t: contrib.NewTrackerCSRT()}, nil },
	"mil":  func() (track.VisualTracker, error) { return &cvTracker{t: gocv.NewTrackerMIL()}, nil },
}

// cvTracker adapts a gocv tracker to RGBA frames.
type cvTracker struct {
	t gocv.Tracker
}

func (c *cvTracker) Init(frame *image.RGBA, box image.Rectangle) bool {
	m, err := bgrMat(frame)
	if err != nil {
		return false
	}
	defer m.Close()
	return c.t.Init(m, box.Sub(frame.Bounds().Min))
}

func (c *cvTracker) Update(frame *image.RGBA) (image.Rectangle, bool) {
	m, err := bgrMat(frame)
	if err != nil {
		return image.Rectangle{}, false
	}
	defer m.Close()
	r, ok := c.t.Update(m)
	return r.Add(frame.Bounds().Min), ok
}

func (c *cvTracker) Close() error { return c.t.Close() }
