//go:build opencv

package opencv

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/soocke/buoy-vision-go/domain/match"
)

// Correlator runs cv::matchTemplate with TM_CCORR_NORMED.
type Correlator struct{}

func (Correlator) MatchTemplate(img, tmpl *image.Gray) (*match.Surface, error) {
	ib, tb := img.Bounds(), tmpl.Bounds()
	if ib.Empty() || tb.Empty() {
		return nil, match.ErrEmptyInput
	}
	if tb.Dx() > ib.Dx() || tb.Dy() > ib.Dy() {
		return nil, match.ErrTemplateTooLarge
	}
	src, err := gocv.ImageGrayToMatGray(compactGray(img))
	if err != nil {
		return nil, err
	}
	defer src.Close()
	tm, err := gocv.ImageGrayToMatGray(compactGray(tmpl))
	if err != nil {
		return nil, err
	}
	defer tm.Close()
	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(src, tm, &result, gocv.TmCcorrNormed, mask)

	surf := match.NewSurface(result.Cols(), result.Rows())
	for y := 0; y < surf.H; y++ {
		for x := 0; x < surf.W; x++ {
			surf.Set(x, y, result.GetFloatAt(y, x))
		}
	}
	return surf, nil
}
