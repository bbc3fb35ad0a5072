package match

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
)

// Refinement constants.
const (
	// RefineIncrement is the scale added per refinement step, as a fraction
	// of the native template size.
	RefineIncrement = 0.002
	// minTrailingSteps is the number of steps refinement always runs before
	// the trailing-stop rule may end it.
	minTrailingSteps = 10
	trailingRatio    = 0.9
	trailingFloor    = 0.25
)

// Selection chooses which candidate provides the reported center.
type Selection int

const (
	// SelectMedian picks the candidate at index floor(N/2).
	SelectMedian Selection = iota
	// SelectBest picks the highest scoring candidate (first on ties).
	SelectBest
)

func (s Selection) String() string {
	switch s {
	case SelectMedian:
		return "median"
	case SelectBest:
		return "best"
	default:
		return "unknown"
	}
}

// ParseSelection maps a configuration keyword to a Selection.
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "", "median":
		return SelectMedian, nil
	case "best":
		return SelectBest, nil
	}
	return SelectMedian, fmt.Errorf("match: unknown selection %q", s)
}

// Options configures a Searcher.
type Options struct {
	Candidates int       // N, number of initial scales
	Range      float64   // R, maximum scale in percent of native size
	Threshold  float64   // T, minimum score counted as a detection
	Saturation float64   // stop refining once a candidate reaches this score; 0 disables
	Selection  Selection // center selection rule
	Workers    int       // concurrent candidates; <=0 means runtime.NumCPU()
}

// Candidate is the outcome of one scale hypothesis.
type Candidate struct {
	Index    int
	Scale    float64     // scale of the best match, fraction of native size
	Steps    int         // refinement steps taken
	Score    float64     // best correlation score
	Location image.Point // best object center in environment coordinates
	Extent   image.Point // template width/height at the best scale
	Err      error       `json:"-"`
}

// Result aggregates a search pass.
type Result struct {
	Candidates []Candidate
	Center     image.Point
	Score      float64
	Extent     image.Point
	Selected   int
	Found      bool
	Duration   time.Duration
}

// Locations returns the per-candidate best locations.
func (r Result) Locations() []image.Point {
	out := make([]image.Point, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Location
	}
	return out
}

// Scores returns the per-candidate best scores.
func (r Result) Scores() []float64 {
	out := make([]float64, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Score
	}
	return out
}

// Extents returns the per-candidate best extents.
func (r Result) Extents() []image.Point {
	out := make([]image.Point, len(r.Candidates))
	for i, c := range r.Candidates {
		out[i] = c.Extent
	}
	return out
}

// Searcher runs adaptive multi-scale template searches for one template.
// It is safe for concurrent use; scaled templates are cached by size.
type Searcher struct {
	tmpl   *image.Gray
	engine CorrelationEngine
	opts   Options
	scales []float64

	cacheMu sync.RWMutex
	cache   map[[2]int]*image.Gray
}

// NewSearcher validates opts and prepares the initial scale ladder.
func NewSearcher(tmpl *image.Gray, engine CorrelationEngine, opts Options) (*Searcher, error) {
	if tmpl == nil || tmpl.Bounds().Empty() {
		return nil, ErrEmptyInput
	}
	if engine == nil {
		return nil, errors.New("match: nil correlation engine")
	}
	if opts.Candidates < 1 {
		return nil, fmt.Errorf("match: candidates must be >= 1, got %d", opts.Candidates)
	}
	if opts.Range <= 0 {
		return nil, fmt.Errorf("match: range must be > 0, got %g", opts.Range)
	}
	s := &Searcher{tmpl: tmpl, engine: engine, opts: opts, cache: map[[2]int]*image.Gray{}}
	s.scales = InitialScales(opts.Candidates, opts.Range)
	return s, nil
}

// Options returns the searcher's configuration.
func (s *Searcher) Options() Options { return s.opts }

// InitialScales returns n scales evenly spaced over [r/n, r] percent, as
// fractions of native size.
func InitialScales(n int, r float64) []float64 {
	if n <= 0 {
		return nil
	}
	hi := r / 100
	if n == 1 {
		return []float64{hi}
	}
	return floats.Span(make([]float64, n), hi/float64(n), hi)
}

// MaxRefineSteps is the refinement ceiling: the number of increments between
// one candidate's starting scale and the next.
func MaxRefineSteps(n int, r float64) float64 {
	if n <= 0 {
		return 0
	}
	return (r / float64(n) / 100) / RefineIncrement
}

// shouldContinue is the trailing-stop rule evaluated after each step.
func shouldContinue(steps int, newScore, best float64) bool {
	return (newScore > trailingRatio*best || steps < minTrailingSteps) &&
		(steps < minTrailingSteps || best > trailingFloor)
}

// Search runs every candidate against env and aggregates the results.
func (s *Searcher) Search(env *image.Gray) (Result, error) {
	start := time.Now()
	if env == nil || env.Bounds().Empty() {
		return Result{}, ErrEmptyInput
	}
	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	cands := make([]Candidate, len(s.scales))
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	for i, scale := range s.scales {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, scale float64) {
			defer wg.Done()
			defer func() { <-sem }()
			cands[i] = s.searchCandidate(env, i, scale)
		}(i, scale)
	}
	wg.Wait()

	res := Result{Candidates: cands}
	var errs []error
	for _, c := range cands {
		if c.Err != nil {
			errs = append(errs, c.Err)
			continue
		}
		if c.Score >= s.opts.Threshold {
			res.Found = true
		}
	}
	if len(errs) == len(cands) {
		return res, fmt.Errorf("match: every candidate failed: %w", errors.Join(errs...))
	}
	res.Selected = s.selectIndex(cands)
	sel := cands[res.Selected]
	res.Center, res.Score, res.Extent = sel.Location, sel.Score, sel.Extent
	res.Duration = time.Since(start)
	return res, nil
}

func (s *Searcher) selectIndex(cands []Candidate) int {
	if s.opts.Selection == SelectBest {
		scores := make([]float64, len(cands))
		for i, c := range cands {
			scores[i] = c.Score
		}
		return floats.MaxIdx(scores)
	}
	return len(cands) / 2
}

// searchCandidate performs the full-frame pass and the local refinement for
// one starting scale.
func (s *Searcher) searchCandidate(env *image.Gray, idx int, scale float64) Candidate {
	c := Candidate{Index: idx, Scale: scale}
	tmpl := s.scaled(scale)
	score, loc, err := s.correlate(env, tmpl)
	if err != nil {
		c.Err = err
		return c
	}
	c.Score, c.Location, c.Extent = score, loc, tmpl.Bounds().Size()

	ceiling := MaxRefineSteps(s.opts.Candidates, s.opts.Range)
	eb := env.Bounds()
	for steps := 1; ; steps++ {
		if s.opts.Saturation > 0 && c.Score >= s.opts.Saturation {
			break
		}
		if float64(steps) > ceiling {
			break
		}
		c.Steps = steps
		next := scale + float64(steps)*RefineIncrement
		t := s.scaled(next)
		ext := t.Bounds().Size()
		at := c.Location.Add(eb.Min)
		crop := image.Rectangle{Min: at.Sub(ext), Max: at.Add(ext)}.Intersect(eb)
		if crop.Empty() {
			break
		}
		newScore, loc, err := s.correlate(env.SubImage(crop).(*image.Gray), t)
		if err != nil {
			break
		}
		if newScore > c.Score {
			c.Score, c.Scale, c.Extent = newScore, next, ext
			c.Location = loc.Add(crop.Min.Sub(eb.Min))
		}
		if !shouldContinue(steps, newScore, c.Score) {
			break
		}
	}
	return c
}

// correlate pads img by half the template extent, runs the engine and maps
// the surface argmax to the object center in img's zero-origin coordinates.
func (s *Searcher) correlate(img, tmpl *image.Gray) (float64, image.Point, error) {
	tw, th := tmpl.Bounds().Dx(), tmpl.Bounds().Dy()
	px, py := ceilHalf(tw), ceilHalf(th)
	padded := padGray(img, px, py)
	surf, err := s.engine.MatchTemplate(padded, tmpl)
	if err != nil {
		return 0, image.Point{}, err
	}
	score, at := surf.Argmax()
	b := img.Bounds()
	center := image.Pt(at.X-px+tw/2, at.Y-py+th/2)
	center.X = min(max(center.X, 0), b.Dx()-1)
	center.Y = min(max(center.Y, 0), b.Dy()-1)
	return score, center, nil
}

// scaled returns the template resized to scale, cached by resulting size.
func (s *Searcher) scaled(scale float64) *image.Gray {
	b := s.tmpl.Bounds()
	w, h := scaledDims(b.Dx(), b.Dy(), scale)
	if w == b.Dx() && h == b.Dy() {
		return s.tmpl
	}
	key := [2]int{w, h}
	s.cacheMu.RLock()
	t := s.cache[key]
	s.cacheMu.RUnlock()
	if t != nil {
		return t
	}
	t = resizeGray(s.tmpl, w, h)
	s.cacheMu.Lock()
	if existing := s.cache[key]; existing != nil {
		t = existing
	} else {
		s.cache[key] = t
	}
	s.cacheMu.Unlock()
	return t
}
