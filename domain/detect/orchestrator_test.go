package detect

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soocke/buoy-vision-go/domain/match"
	"github.com/soocke/buoy-vision-go/domain/roi"
	"github.com/soocke/buoy-vision-go/domain/track"
)

var orange = color.RGBA{R: 230, G: 120, B: 40, A: 255}

func synthFrame(w, h int, bg color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = bg.R, bg.G, bg.B, 255
	}
	return img
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// scriptSearcher returns a fixed result and records the mask sizes it saw.
type scriptSearcher struct {
	res   match.Result
	err   error
	seen  []image.Rectangle
	calls int
}

func (s *scriptSearcher) Search(env *image.Gray) (match.Result, error) {
	s.calls++
	s.seen = append(s.seen, env.Bounds())
	return s.res, s.err
}

func found(center image.Point) match.Result {
	return match.Result{Center: center, Score: 0.9, Extent: image.Pt(40, 40), Found: true}
}

// stubTracker reports the init box shifted by drift on each update.
type stubTracker struct {
	inits, updates, closes int
	fail                   bool
	box                    image.Rectangle
	drift                  image.Point
}

func (s *stubTracker) Init(_ *image.RGBA, box image.Rectangle) bool {
	s.inits++
	s.box = box
	return true
}

func (s *stubTracker) Update(*image.RGBA) (image.Rectangle, bool) {
	s.updates++
	if s.fail {
		return image.Rectangle{}, false
	}
	s.box = s.box.Add(s.drift)
	return s.box, true
}

func (s *stubTracker) Close() error { s.closes++; return nil }

func newTestOrchestrator(t *testing.T, name string, search Searcher, opts Options) (*Orchestrator, *stubTracker) {
	t.Helper()
	st := &stubTracker{}
	track.Register(name, func() (track.VisualTracker, error) { return st, nil })
	ad, err := track.NewAdapter(name, image.Point{}, nil)
	require.NoError(t, err)
	o, err := New(opts, search, ad, roi.NewManager(30, 150, 100), nil, nil, nil)
	require.NoError(t, err)
	return o, st
}

func TestCadenceOverHundredFrames(t *testing.T) {
	var full, redetect []int
	n := 0
	for i := 0; i < 100; i++ {
		switch Cadence(n, 30, 10) {
		case ModeFullSearch:
			full = append(full, n)
		case ModeRedetect:
			redetect = append(redetect, n)
		}
		n = (n + 1) % 900
	}
	assert.Equal(t, []int{0, 30, 60, 90}, full)
	assert.Equal(t, []int{10, 20, 40, 50, 70, 80}, redetect)
}

func TestNewRejectsMisalignedWrap(t *testing.T) {
	ad, err := track.NewAdapter(track.NativeName, image.Point{}, nil)
	require.NoError(t, err)
	_, err = New(DefaultOptions(), &scriptSearcher{}, ad, roi.NewManager(0, 0, 0), nil, nil, nil)
	require.NoError(t, err, "default options must pass their own wrap check")

	opts := DefaultOptions()
	opts.FrameWrap = 1000
	_, err = New(opts, &scriptSearcher{}, ad, roi.NewManager(0, 0, 0), nil, nil, nil)
	assert.Error(t, err)
	opts = DefaultOptions()
	opts.FrameWrap = 1010
	_, err = New(opts, &scriptSearcher{}, ad, roi.NewManager(0, 0, 0), nil, nil, nil)
	assert.Error(t, err)
	opts = DefaultOptions()
	opts.Color = "purple"
	_, err = New(opts, &scriptSearcher{}, ad, roi.NewManager(0, 0, 0), nil, nil, nil)
	assert.Error(t, err)
}

func TestAcceptedDetectionStartsTracking(t *testing.T) {
	frame := synthFrame(400, 300, color.RGBA{B: 90, A: 255})
	fillRect(frame, image.Rect(150, 100, 250, 200), orange)
	s := &scriptSearcher{res: found(image.Pt(200, 150))}
	o, st := newTestOrchestrator(t, "detect-accept", s, DefaultOptions())

	var changes [][2]State
	o.AddListener(func(prev, next State) { changes = append(changes, [2]State{prev, next}) })

	rep := o.Process(frame)
	require.NoError(t, rep.Err)
	assert.Equal(t, ModeFullSearch, rep.Mode)
	assert.Equal(t, StateTracking, rep.State)
	assert.Equal(t, []State{StateFullSearch, StateValidating, StateTrackInit, StateTracking, StateTracking}, rep.Path)
	require.NotNil(t, rep.Detection)
	assert.True(t, rep.Detection.Accepted)
	assert.Equal(t, orange, rep.Detection.Color)
	assert.Equal(t, image.Rect(100, 50, 300, 250), rep.Box)
	assert.InDelta(t, 200.0*200/(400*300)*100, rep.PercentArea, 1e-9)
	require.Len(t, rep.Objects, 1)
	assert.True(t, rep.Objects[0].Target)
	assert.Equal(t, 1, st.inits)
	assert.Equal(t, 1, st.updates)
	assert.Equal(t, "detect-accept", rep.Tracker.Tracker)
	assert.Equal(t, [][2]State{
		{StateLost, StateFullSearch}, {StateFullSearch, StateValidating},
		{StateValidating, StateTrackInit}, {StateTrackInit, StateTracking},
	}, changes)
	assert.Equal(t, 1, o.Counter())
}

func TestRejectedCandidateLeavesLostWithoutTrackerAction(t *testing.T) {
	frame := synthFrame(400, 300, color.RGBA{A: 255})
	s := &scriptSearcher{res: found(image.Pt(200, 150))}
	o, st := newTestOrchestrator(t, "detect-reject", s, DefaultOptions())

	rep := o.Process(frame)
	assert.True(t, errors.Is(rep.Err, ErrRejected))
	assert.Equal(t, StateLost, rep.State)
	require.NotNil(t, rep.Detection)
	assert.False(t, rep.Detection.Accepted)
	assert.Zero(t, st.inits)
	assert.Zero(t, st.updates)
	assert.Empty(t, rep.Objects)
	_, ok := o.Regions()
	assert.False(t, ok)
}

func TestMissReportsDetectionMiss(t *testing.T) {
	s := &scriptSearcher{res: match.Result{Center: image.Pt(5, 5), Score: 0.1}}
	o, st := newTestOrchestrator(t, "detect-miss", s, DefaultOptions())
	rep := o.Process(synthFrame(100, 100, orange))
	assert.True(t, errors.Is(rep.Err, ErrDetectionMiss))
	assert.Equal(t, StateLost, rep.State)
	assert.Zero(t, st.inits)

	// Frames between full searches do nothing without a track.
	for i := 1; i < 30; i++ {
		rep = o.Process(synthFrame(100, 100, orange))
		assert.NotEqual(t, ModeFullSearch, rep.Mode)
		assert.NoError(t, rep.Err)
		assert.Equal(t, StateLost, rep.State)
	}
	assert.Equal(t, 1, s.calls)
	o.Process(synthFrame(100, 100, orange))
	assert.Equal(t, 2, s.calls)
}

func TestSearchErrorIsRecoverable(t *testing.T) {
	s := &scriptSearcher{err: match.ErrEmptyInput}
	o, _ := newTestOrchestrator(t, "detect-err", s, DefaultOptions())
	rep := o.Process(synthFrame(50, 50, orange))
	assert.ErrorIs(t, rep.Err, match.ErrEmptyInput)
	assert.Equal(t, StateLost, rep.State)
}

func TestTrackLostKeepsFeedingUntilNextFullSearch(t *testing.T) {
	frame := synthFrame(400, 300, orange)
	s := &scriptSearcher{res: found(image.Pt(200, 150))}
	o, st := newTestOrchestrator(t, "detect-lost", s, DefaultOptions())
	require.NoError(t, o.Process(frame).Err)

	st.fail = true
	for i := 1; i < 30; i++ {
		rep := o.Process(frame)
		assert.ErrorIs(t, rep.Err, ErrTrackLost, "frame %d", i)
		assert.Equal(t, StateLost, rep.State)
		assert.False(t, rep.Tracker.OK)
		assert.True(t, rep.Box.Empty())
	}
	assert.Equal(t, 1, st.inits, "no re-initialization before the next full search")
	assert.Equal(t, 30, st.updates)
	// No re-detection while lost.
	assert.Equal(t, 1, s.calls)

	st.fail = false
	rep := o.Process(frame)
	assert.NoError(t, rep.Err)
	assert.Equal(t, ModeFullSearch, rep.Mode)
	assert.Equal(t, StateTracking, rep.State)
	assert.Equal(t, 2, st.inits)
	assert.Equal(t, 1, st.closes)
}

func TestRedetectSearchesLargeROIAndTranslates(t *testing.T) {
	frame := synthFrame(800, 600, orange)
	s := &scriptSearcher{res: found(image.Pt(400, 300))}
	o, _ := newTestOrchestrator(t, "detect-redetect", s, DefaultOptions())
	require.NoError(t, o.Process(frame).Err)
	regions, ok := o.Regions()
	require.True(t, ok)
	assert.Equal(t, image.Rect(250, 150, 550, 450), regions.Large)

	for i := 1; i < 10; i++ {
		rep := o.Process(frame)
		require.NoError(t, rep.Err)
	}
	s.res = found(image.Pt(20, 30))
	rep := o.Process(frame)
	require.NoError(t, rep.Err)
	assert.Equal(t, ModeRedetect, rep.Mode)
	assert.Equal(t, []State{StateROIRedetect, StateTracking, StateTracking}, rep.Path)
	assert.Equal(t, image.Rect(0, 0, 300, 300), s.seen[len(s.seen)-1], "search scoped to the large ROI")
	require.NotNil(t, rep.Detection)
	assert.Equal(t, image.Pt(270, 180), rep.Detection.Center)
	regions, _ = o.Regions()
	assert.Equal(t, image.Pt(270, 180), regions.Center)
	assert.Equal(t, image.Rect(170, 80, 370, 280), regions.Box)
}

func TestRedetectMissKeepsTracking(t *testing.T) {
	frame := synthFrame(800, 600, orange)
	s := &scriptSearcher{res: found(image.Pt(400, 300))}
	o, _ := newTestOrchestrator(t, "detect-redetect-miss", s, DefaultOptions())
	o.Process(frame)
	for i := 1; i < 10; i++ {
		o.Process(frame)
	}
	s.res = match.Result{}
	rep := o.Process(frame)
	assert.ErrorIs(t, rep.Err, ErrDetectionMiss)
	assert.Equal(t, StateTracking, rep.State)
	regions, _ := o.Regions()
	assert.Equal(t, image.Pt(400, 300), regions.Center)
}

func TestBoxesStayInsideFrame(t *testing.T) {
	w, h := 320, 240
	centers := []image.Point{{0, 0}, {319, 239}, {2, 200}, {310, 5}, {160, 120}}
	s := &scriptSearcher{}
	opts := Options{FullSearchInterval: 3, RedetectInterval: 1, FrameWrap: 30, Color: "orange"}
	o, st := newTestOrchestrator(t, "detect-bounds", s, opts)
	st.drift = image.Pt(37, -23)
	bounds := image.Rect(0, 0, w, h)
	for i := 0; i < 100; i++ {
		s.res = found(centers[i%len(centers)])
		rep := o.Process(synthFrame(w, h, orange))
		check := func(r image.Rectangle) {
			if r.Empty() {
				return
			}
			assert.True(t, r.In(bounds), "frame %d rect %v", i, r)
		}
		check(rep.Box)
		for _, obj := range rep.Objects {
			check(obj.Box)
		}
		regions, ok := o.Regions()
		if ok {
			check(regions.Small)
			check(regions.Large)
			check(regions.Box)
		}
	}
}

func TestCounterWraps(t *testing.T) {
	s := &scriptSearcher{res: match.Result{}}
	opts := Options{FullSearchInterval: 30, RedetectInterval: 10, FrameWrap: 60, Color: "orange"}
	o, _ := newTestOrchestrator(t, "detect-wrap", s, opts)
	frame := synthFrame(20, 20, orange)
	var fullAt []uint64
	for i := 0; i < 150; i++ {
		rep := o.Process(frame)
		if rep.Mode == ModeFullSearch {
			fullAt = append(fullAt, rep.Sequence)
		}
		assert.Less(t, rep.Frame, 60)
	}
	assert.Equal(t, []uint64{0, 30, 60, 90, 120}, fullAt)
}

func TestProcessNilFrame(t *testing.T) {
	o, _ := newTestOrchestrator(t, "detect-nil", &scriptSearcher{}, DefaultOptions())
	rep := o.Process(nil)
	assert.Error(t, rep.Err)
	assert.Equal(t, 1, o.Counter())
}
