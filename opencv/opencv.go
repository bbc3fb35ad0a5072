//go:build opencv

// Package opencv provides gocv implementations of the frame source,
// correlation, contour, tracker and video writer backends. Importing it
// registers them under the "opencv" backend name, the "file" and "device"
// source schemes, the "kcf", "mil" and "csrt" trackers and the "video" frame
// sink.
package opencv

import (
	"image"
	"image/draw"

	"gocv.io/x/gocv"

	"github.com/soocke/buoy-vision-go/domain/blob"
	"github.com/soocke/buoy-vision-go/domain/capture"
	"github.com/soocke/buoy-vision-go/domain/match"
	"github.com/soocke/buoy-vision-go/domain/track"
	"github.com/soocke/buoy-vision-go/sink"
)

// BackendName is the name the engines register under.
const BackendName = "opencv"

func init() {
	match.RegisterEngine(BackendName, func(int) match.CorrelationEngine { return Correlator{} })
	blob.RegisterEngine(BackendName, Contours{})
	capture.RegisterSource("file", func(arg string) (capture.FrameSource, error) { return OpenFile(arg) })
	capture.RegisterSource("device", func(arg string) (capture.FrameSource, error) { return OpenDevice(arg) })
	for name, f := range trackers {
		track.Register(name, f)
	}
	sink.RegisterFrame("video", func(arg string, every int) (sink.FrameSink, error) {
		return NewVideoWriter(arg, defaultFPS), nil
	})
}

// compactGray returns img with a zero origin and Stride == width.
func compactGray(img *image.Gray) *image.Gray {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == b.Dx() {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func compactRGBA(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == 4*b.Dx() {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// bgrMat converts an RGBA frame into a BGR Mat. The caller closes it.
func bgrMat(img *image.RGBA) (gocv.Mat, error) {
	return gocv.ImageToMatRGB(compactRGBA(img))
}

// toRGBA converts a BGR Mat back into an RGBA frame.
func toRGBA(m gocv.Mat) (*image.RGBA, error) {
	img, err := m.ToImage()
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out, nil
}
