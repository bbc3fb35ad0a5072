package detect

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/soocke/buoy-vision-go/domain/roi"
	"github.com/soocke/buoy-vision-go/domain/segment"
	"github.com/soocke/buoy-vision-go/domain/track"
)

// Options configures the cadence.
type Options struct {
	FullSearchInterval int
	RedetectInterval   int
	FrameWrap          int
	Color              string
}

// DefaultOptions returns the standard cadence: full search every 30 frames,
// re-detection every 10, counter wrapping at 900, orange targets.
func DefaultOptions() Options {
	return Options{FullSearchInterval: 30, RedetectInterval: 10, FrameWrap: 900, Color: "orange"}
}

// Orchestrator drives the per-frame search/track state machine. It is not
// safe for concurrent use; feed frames from one goroutine.
type Orchestrator struct {
	opts      Options
	profile   segment.Profile
	searcher  Searcher
	tracker   *track.Adapter
	rois      roi.Manager
	labeler   *Labeler
	annotator *Annotator
	logger    *slog.Logger

	state     State
	counter   int
	sequence  uint64
	session   *track.Session
	regions   roi.Regions
	haveROI   bool
	lastScore float64
	path      []State
	listeners []StateListener
}

// New validates opts and builds an orchestrator. labeler and annotator are
// optional.
func New(opts Options, searcher Searcher, tracker *track.Adapter, rois roi.Manager, labeler *Labeler, annotator *Annotator, logger *slog.Logger) (*Orchestrator, error) {
	if searcher == nil || tracker == nil {
		return nil, errors.New("detect: searcher and tracker are required")
	}
	if opts.FullSearchInterval <= 0 || opts.RedetectInterval <= 0 || opts.FrameWrap <= 0 {
		return nil, fmt.Errorf("detect: intervals must be positive: %+v", opts)
	}
	if opts.FrameWrap%opts.FullSearchInterval != 0 || opts.FrameWrap%opts.RedetectInterval != 0 {
		return nil, fmt.Errorf("detect: frame wrap %d must be a multiple of %d and %d", opts.FrameWrap, opts.FullSearchInterval, opts.RedetectInterval)
	}
	p, err := segment.Lookup(opts.Color)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{
		opts: opts, profile: p, searcher: searcher, tracker: tracker, rois: rois,
		labeler: labeler, annotator: annotator, logger: logger, state: StateLost,
	}, nil
}

// AddListener registers a state change callback.
func (o *Orchestrator) AddListener(l StateListener) {
	if l != nil {
		o.listeners = append(o.listeners, l)
	}
}

// State returns the state reached at the end of the last frame.
func (o *Orchestrator) State() State { return o.state }

// Counter returns the cadence counter of the next frame.
func (o *Orchestrator) Counter() int { return o.counter }

// Regions returns the stored regions and whether any were built yet.
func (o *Orchestrator) Regions() (roi.Regions, bool) { return o.regions, o.haveROI }

// Close releases the tracker session.
func (o *Orchestrator) Close() error {
	err := o.session.Close()
	o.session = nil
	return err
}

// Process runs one frame through the cadence and returns its report. Frame
// level failures are reported in FrameReport.Err and never stop the caller.
func (o *Orchestrator) Process(frame *image.RGBA) FrameReport {
	start := time.Now()
	rep := FrameReport{Frame: o.counter, Sequence: o.sequence, Image: frame}
	o.path = o.path[:0]
	defer func() {
		o.counter = (o.counter + 1) % o.opts.FrameWrap
		o.sequence++
	}()
	if frame == nil || frame.Bounds().Empty() {
		rep.Err = errors.New("detect: empty frame")
		rep.State = o.state
		return rep
	}

	var mask *image.Gray
	rep.Mode = Cadence(o.counter, o.opts.FullSearchInterval, o.opts.RedetectInterval)
	skipUpdate := false
	switch {
	case rep.Mode == ModeFullSearch:
		mask = segment.ClassifyProfile(frame, o.profile)
		skipUpdate = !o.fullSearch(frame, mask, &rep)
	case rep.Mode == ModeRedetect && o.state == StateTracking && o.session != nil && o.haveROI:
		o.redetect(frame, &rep)
	}

	if o.session != nil && !skipUpdate {
		o.update(frame, &rep)
	}
	if o.haveROI && o.state == StateTracking {
		rep.PercentArea = o.regions.PercentArea
	}

	if o.labeler != nil {
		if mask == nil {
			mask = segment.ClassifyProfile(frame, o.profile)
		}
		var target *Target
		if !rep.Box.Empty() {
			target = &Target{Box: rep.Box, Confidence: o.lastScore}
		}
		rep.Objects = o.labeler.Label(frame, mask, target)
	} else if !rep.Box.Empty() {
		rep.Objects = []Object{{ID: 0, Box: rep.Box, Confidence: o.lastScore, Target: true}}
	}

	if o.annotator != nil {
		o.annotator.Draw(frame, &rep)
	}
	rep.State = o.state
	rep.Path = append([]State(nil), o.path...)
	rep.Duration = time.Since(start)
	return rep
}

// fullSearch scans the whole frame. It returns false when the frame ended
// in LOST without a new track, in which case no tracker action follows.
func (o *Orchestrator) fullSearch(frame *image.RGBA, mask *image.Gray, rep *FrameReport) bool {
	o.transition(StateFullSearch)
	b := frame.Bounds()
	res, err := o.searcher.Search(mask)
	if err != nil {
		rep.Err = fmt.Errorf("full search: %w", err)
		o.transition(StateLost)
		return false
	}
	center := res.Center.Add(b.Min)
	det := &Detection{Center: center, Extent: res.Extent, Confidence: res.Score, ROI: b}
	rep.Detection = det
	if !res.Found {
		rep.Err = ErrDetectionMiss
		o.transition(StateLost)
		return false
	}

	o.transition(StateValidating)
	regions := o.rois.Build(center, b)
	det.Color = segment.AverageColor(frame, regions.Small)
	if !o.profile.Contains(det.Color) {
		rep.Err = fmt.Errorf("%w: sample %v", ErrRejected, det.Color)
		o.transition(StateLost)
		return false
	}
	det.Accepted = true
	o.regions, o.haveROI = regions, true
	o.lastScore = res.Score

	o.transition(StateTrackInit)
	if o.session != nil {
		_ = o.session.Close()
		o.session = nil
	}
	sess, ok := o.tracker.Init(frame, regions.Box)
	if !ok {
		rep.Err = ErrTrackInit
		o.transition(StateLost)
		return false
	}
	o.session = sess
	o.transition(StateTracking)
	return true
}

// redetect searches the stored large ROI only and rebuilds the regions
// around the translated result. The tracker keeps its session.
func (o *Orchestrator) redetect(frame *image.RGBA, rep *FrameReport) {
	o.transition(StateROIRedetect)
	defer o.transition(StateTracking)
	sub, r, err := roi.Crop(frame, o.regions.Large)
	if err != nil {
		rep.Err = fmt.Errorf("redetect: %w", err)
		return
	}
	res, err := o.searcher.Search(segment.ClassifyProfile(sub, o.profile))
	if err != nil {
		rep.Err = fmt.Errorf("redetect: %w", err)
		return
	}
	center := res.Center.Add(r.Min)
	det := &Detection{Center: center, Extent: res.Extent, Confidence: res.Score, ROI: r}
	rep.Detection = det
	if !res.Found {
		rep.Err = fmt.Errorf("redetect: %w", ErrDetectionMiss)
		return
	}
	o.regions = o.rois.Build(center, frame.Bounds())
	det.Color = segment.AverageColor(frame, o.regions.Small)
	det.Accepted = true
	o.lastScore = res.Score
}

func (o *Orchestrator) update(frame *image.RGBA, rep *FrameReport) {
	box, ok := o.tracker.Update(o.session, frame)
	rep.Tracker = o.session.Diagnostics()
	if !ok {
		if rep.Err == nil {
			rep.Err = ErrTrackLost
		}
		o.transition(StateLost)
		return
	}
	rep.Box = box
	o.transition(StateTracking)
}

func (o *Orchestrator) transition(next State) {
	o.path = append(o.path, next)
	prev := o.state
	if prev == next {
		return
	}
	o.state = next
	if o.logger != nil {
		o.logger.Debug("state transition", "from", prev.String(), "to", next.String(), "frame", o.counter)
	}
	for _, l := range o.listeners {
		l(prev, next)
	}
}
