package match

import (
	"errors"
	"image"
	"math"
)

var (
	// ErrEmptyInput is returned when the image or template has no pixels.
	ErrEmptyInput = errors.New("match: empty image or template")
	// ErrTemplateTooLarge is returned when the template does not fit the image.
	ErrTemplateTooLarge = errors.New("match: template larger than image")
)

// CorrelationEngine computes a normalized cross-correlation surface of tmpl
// slid over img. Implementations must be safe for concurrent use.
type CorrelationEngine interface {
	MatchTemplate(img, tmpl *image.Gray) (*Surface, error)
}

// Surface holds one correlation score per template placement. Cell (x, y)
// scores the window whose top-left corner sits at (x, y) of the image.
type Surface struct {
	W, H int
	Data []float32
}

// NewSurface allocates a zeroed w x h surface.
func NewSurface(w, h int) *Surface {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Surface{W: w, H: h, Data: make([]float32, w*h)}
}

// At returns the score at (x, y), or 0 outside the surface.
func (s *Surface) At(x, y int) float32 {
	if x < 0 || y < 0 || x >= s.W || y >= s.H {
		return 0
	}
	return s.Data[y*s.W+x]
}

// Set stores v at (x, y). Out of range writes are ignored.
func (s *Surface) Set(x, y int, v float32) {
	if x < 0 || y < 0 || x >= s.W || y >= s.H {
		return
	}
	s.Data[y*s.W+x] = v
}

// Argmax returns the global maximum and its position. Ties resolve to the
// first cell in row-major order. An empty surface yields (0, (0,0)).
func (s *Surface) Argmax() (float64, image.Point) {
	if s == nil || len(s.Data) == 0 {
		return 0, image.Point{}
	}
	best := float32(math.Inf(-1))
	at := 0
	for i, v := range s.Data {
		if v > best {
			best, at = v, i
		}
	}
	return float64(best), image.Pt(at%s.W, at/s.W)
}
