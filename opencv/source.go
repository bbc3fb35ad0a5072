//go:build opencv

package opencv

import (
	"context"
	"fmt"
	"image"
	"io"
	"strconv"

	"gocv.io/x/gocv"
)

// VideoSource reads frames from a video file or capture device.
type VideoSource struct {
	cap *gocv.VideoCapture
	mat gocv.Mat
}

// OpenFile opens a video file.
func OpenFile(path string) (*VideoSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, err
	}
	return &VideoSource{cap: vc, mat: gocv.NewMat()}, nil
}

// OpenDevice opens a capture device by index; an empty argument means 0.
func OpenDevice(arg string) (*VideoSource, error) {
	id := 0
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", arg, err)
		}
		id = n
	}
	vc, err := gocv.VideoCaptureDevice(id)
	if err != nil {
		return nil, err
	}
	return &VideoSource{cap: vc, mat: gocv.NewMat()}, nil
}

// Next implements capture.FrameSource. A failed read ends the stream.
func (s *VideoSource) Next(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, io.EOF
	}
	return toRGBA(s.mat)
}

func (s *VideoSource) Close() error {
	s.mat.Close()
	return s.cap.Close()
}
