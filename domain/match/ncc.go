package match

import (
	"image"
	"math"
)

// NCC is a pure-Go CCORR_NORMED engine:
//
//	R(x,y) = Σ T(x',y')·I(x+x',y+y') / sqrt(Σ T² · Σ I²window)
//
// Window energy comes from an integral image of squared intensities so each
// placement costs one pass over the non-zero template pixels. With Stride > 1
// a coarse grid is scanned first and the neighbourhood of the coarse best is
// refined at stride 1; cells that were never evaluated stay 0. A coarse scan
// can miss an off-grid peak, so only Stride 1 guarantees the global maximum.
type NCC struct {
	Stride int
}

// NewNCC returns an engine scanning at the given coarse stride.
func NewNCC(stride int) *NCC {
	if stride <= 0 {
		stride = 1
	}
	return &NCC{Stride: stride}
}

// imagePrecomp stores intensities and an (W+1)x(H+1) summed-area table of
// squared intensities.
type imagePrecomp struct {
	val   []float64
	sumSq []float64
	W, H  int
}

// templateTap is one non-zero template pixel.
type templateTap struct {
	off int // dy*W + dx in image coordinates
	v   float64
}

type templatePrecomp struct {
	taps  []templateTap
	sumT2 float64
	W, H  int
}

func buildImagePrecomp(img *image.Gray) *imagePrecomp {
	b := img.Bounds()
	W, H := b.Dx(), b.Dy()
	p := &imagePrecomp{val: make([]float64, W*H), sumSq: make([]float64, (W+1)*(H+1)), W: W, H: H}
	stride := W + 1
	for y := 0; y < H; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		var rowSq float64
		for x := 0; x < W; x++ {
			v := float64(row[x])
			p.val[y*W+x] = v
			rowSq += v * v
			p.sumSq[(y+1)*stride+x+1] = p.sumSq[y*stride+x+1] + rowSq
		}
	}
	return p
}

// windowEnergy returns Σ I² over the w x h window at (x, y).
func (p *imagePrecomp) windowEnergy(x, y, w, h int) float64 {
	s := p.W + 1
	return p.sumSq[(y+h)*s+x+w] - p.sumSq[y*s+x+w] - p.sumSq[(y+h)*s+x] + p.sumSq[y*s+x]
}

func buildTemplatePrecomp(tmpl *image.Gray, imgW int) *templatePrecomp {
	b := tmpl.Bounds()
	w, h := b.Dx(), b.Dy()
	pc := &templatePrecomp{W: w, H: h}
	for y := 0; y < h; y++ {
		row := tmpl.Pix[tmpl.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < w; x++ {
			if row[x] == 0 {
				continue
			}
			v := float64(row[x])
			pc.taps = append(pc.taps, templateTap{off: y*imgW + x, v: v})
			pc.sumT2 += v * v
		}
	}
	return pc
}

func (e *NCC) score(p *imagePrecomp, t *templatePrecomp, x, y int) float32 {
	energy := p.windowEnergy(x, y, t.W, t.H)
	if energy <= 1e-9 {
		return 0
	}
	base := y*p.W + x
	var dot float64
	for _, tap := range t.taps {
		dot += tap.v * p.val[base+tap.off]
	}
	return float32(dot / math.Sqrt(t.sumT2*energy))
}

// MatchTemplate implements CorrelationEngine.
func (e *NCC) MatchTemplate(img, tmpl *image.Gray) (*Surface, error) {
	if img == nil || tmpl == nil || img.Bounds().Empty() || tmpl.Bounds().Empty() {
		return nil, ErrEmptyInput
	}
	ib, tb := img.Bounds(), tmpl.Bounds()
	if tb.Dx() > ib.Dx() || tb.Dy() > ib.Dy() {
		return nil, ErrTemplateTooLarge
	}
	pre := buildImagePrecomp(img)
	pc := buildTemplatePrecomp(tmpl, pre.W)
	surf := NewSurface(ib.Dx()-tb.Dx()+1, ib.Dy()-tb.Dy()+1)
	if pc.sumT2 <= 0 {
		return surf, nil
	}
	stride := e.Stride
	if stride <= 0 {
		stride = 1
	}
	bestX, bestY, bestScore := 0, 0, float32(-1)
	for y := 0; y < surf.H; y += stride {
		for x := 0; x < surf.W; x += stride {
			s := e.score(pre, pc, x, y)
			surf.Data[y*surf.W+x] = s
			if s > bestScore {
				bestScore, bestX, bestY = s, x, y
			}
		}
	}
	if stride > 1 {
		minY, maxY := max(0, bestY-stride), min(surf.H-1, bestY+stride)
		minX, maxX := max(0, bestX-stride), min(surf.W-1, bestX+stride)
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				if x%stride == 0 && y%stride == 0 {
					continue
				}
				surf.Data[y*surf.W+x] = e.score(pre, pc, x, y)
			}
		}
	}
	return surf, nil
}
