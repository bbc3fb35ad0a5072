package sink

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// PNGDumper writes every Nth annotated frame as frame_<seq>.png.
type PNGDumper struct {
	dir   string
	every int
	count int
}

// NewPNGDumper creates dir if needed. every <= 1 writes every frame.
func NewPNGDumper(dir string, every int) (*PNGDumper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if every < 1 {
		every = 1
	}
	return &PNGDumper{dir: dir, every: every}, nil
}

// Count returns the number of files written.
func (d *PNGDumper) Count() int { return d.count }

func (d *PNGDumper) WriteFrame(seq uint64, img *image.RGBA) error {
	if img == nil || seq%uint64(d.every) != 0 {
		return nil
	}
	path := filepath.Join(d.dir, fmt.Sprintf("frame_%06d.png", seq))
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("dump %s: %w", filepath.Base(path), err)
	}
	d.count++
	return nil
}

func (d *PNGDumper) Close() error { return nil }
