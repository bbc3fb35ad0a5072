//go:build opencv

package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

const (
	defaultFPS   = 30
	defaultCodec = "MJPG"
)

// VideoWriter appends annotated frames to a video file. The file is opened
// on the first frame, whose size fixes the output size.
type VideoWriter struct {
	path   string
	fps    float64
	w      *gocv.VideoWriter
	size   image.Point
	frames int
}

// NewVideoWriter prepares a writer for path.
func NewVideoWriter(path string, fps float64) *VideoWriter {
	return &VideoWriter{path: path, fps: fps}
}

// WriteFrame implements sink.FrameSink. Every frame is written.
func (v *VideoWriter) WriteFrame(seq uint64, img *image.RGBA) error {
	if img == nil {
		return nil
	}
	size := img.Bounds().Size()
	if v.w == nil {
		w, err := gocv.VideoWriterFile(v.path, defaultCodec, v.fps, size.X, size.Y, true)
		if err != nil {
			return fmt.Errorf("video %s: %w", v.path, err)
		}
		v.w, v.size = w, size
	}
	if size != v.size {
		return fmt.Errorf("video %s: frame %d is %v, want %v", v.path, seq, size, v.size)
	}
	m, err := bgrMat(img)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := v.w.Write(m); err != nil {
		return err
	}
	v.frames++
	return nil
}

// Frames returns the number of frames written.
func (v *VideoWriter) Frames() int { return v.frames }

func (v *VideoWriter) Close() error {
	if v.w == nil {
		return nil
	}
	return v.w.Close()
}
