//go:build opencv

package opencv

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/soocke/buoy-vision-go/domain/blob"
)

// Contours extracts external contours with cv::findContours.
type Contours struct{}

func (Contours) FindContours(mask *image.Gray) []blob.Polygon {
	b := mask.Bounds()
	if b.Empty() {
		return nil
	}
	m, err := gocv.ImageGrayToMatGray(compactGray(mask))
	if err != nil {
		return nil
	}
	defer m.Close()
	pv := gocv.FindContours(m, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer pv.Close()

	pts := pv.ToPoints()
	out := make([]blob.Polygon, 0, len(pts))
	for _, c := range pts {
		poly := make(blob.Polygon, len(c))
		for i, p := range c {
			poly[i] = p.Add(b.Min)
		}
		out = append(out, poly)
	}
	return out
}
