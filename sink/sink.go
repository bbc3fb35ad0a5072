// Package sink delivers per-frame detection results to the navigation layer
// and annotated frames to disk.
package sink

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soocke/buoy-vision-go/domain/detect"
)

// Sink consumes frame reports. Implementations are used from one goroutine.
type Sink interface {
	Write(ctx context.Context, rep detect.FrameReport) error
	Close() error
}

// FrameSink consumes annotated frames.
type FrameSink interface {
	WriteFrame(seq uint64, img *image.RGBA) error
	Close() error
}

// ErrUnknownSink is returned for a scheme nobody registered.
var ErrUnknownSink = errors.New("unknown sink")

// Opener builds a sink from the argument following "scheme:".
type Opener func(arg, runID string) (Sink, error)

// FrameOpener builds a frame sink from the argument following "scheme:".
// every is the dump interval in frames.
type FrameOpener func(arg string, every int) (FrameSink, error)

var (
	mu           sync.RWMutex
	openers      = map[string]Opener{}
	frameOpeners = map[string]FrameOpener{}
)

func init() {
	Register("jsonl", func(arg, runID string) (Sink, error) { return NewJSONL(arg, runID) })
	Register("sqlite", func(arg, runID string) (Sink, error) { return NewSQLite(arg, runID) })
	RegisterFrame("png", func(arg string, every int) (FrameSink, error) { return NewPNGDumper(arg, every) })
}

// Register makes a report sink scheme available to Open.
func Register(scheme string, o Opener) {
	mu.Lock()
	defer mu.Unlock()
	openers[scheme] = o
}

// RegisterFrame makes a frame sink scheme available to OpenFrame.
func RegisterFrame(scheme string, o FrameOpener) {
	mu.Lock()
	defer mu.Unlock()
	frameOpeners[scheme] = o
}

func keys[V any](m map[string]V) string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return strings.Join(out, ", ")
}

// Open parses "scheme:arg" and opens the matching report sink.
func Open(spec, runID string) (Sink, error) {
	scheme, arg, _ := strings.Cut(spec, ":")
	mu.RLock()
	o, ok := openers[scheme]
	have := keys(openers)
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownSink, scheme, have)
	}
	if arg == "" {
		return nil, fmt.Errorf("sink %s: missing path", scheme)
	}
	s, err := o(arg, runID)
	if err != nil {
		return nil, fmt.Errorf("open sink %s: %w", spec, err)
	}
	return s, nil
}

// OpenFrame parses "scheme:arg" and opens the matching frame sink.
func OpenFrame(spec string, every int) (FrameSink, error) {
	scheme, arg, _ := strings.Cut(spec, ":")
	mu.RLock()
	o, ok := frameOpeners[scheme]
	have := keys(frameOpeners)
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (have %s)", ErrUnknownSink, scheme, have)
	}
	if arg == "" {
		return nil, fmt.Errorf("frame sink %s: missing path", scheme)
	}
	s, err := o(arg, every)
	if err != nil {
		return nil, fmt.Errorf("open frame sink %s: %w", spec, err)
	}
	return s, nil
}

// Multi fans a report out to several sinks. A failing sink does not stop
// the others.
type Multi []Sink

func (m Multi) Write(ctx context.Context, rep detect.FrameReport) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, rep); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Box is a rectangle in frame pixels.
type Box struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

func boxOf(r image.Rectangle) Box { return Box{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y} }

// ObjectRecord is one labelled buoy.
type ObjectRecord struct {
	ID         int     `json:"id"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
	Target     bool    `json:"target,omitempty"`
}

// DetectionRecord is the search outcome of a detection frame.
type DetectionRecord struct {
	CenterX    int     `json:"center_x"`
	CenterY    int     `json:"center_y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float64 `json:"confidence"`
	ROI        Box     `json:"roi"`
	Accepted   bool    `json:"accepted"`
}

// Record is the serialized form of a FrameReport.
type Record struct {
	RunID          string           `json:"run_id"`
	Time           time.Time        `json:"time"`
	Sequence       uint64           `json:"sequence"`
	Frame          int              `json:"frame"`
	Mode           string           `json:"mode"`
	State          string           `json:"state"`
	Path           []string         `json:"path"`
	Detection      *DetectionRecord `json:"detection,omitempty"`
	Box            *Box             `json:"box,omitempty"`
	Objects        []ObjectRecord   `json:"objects"`
	PercentArea    float64          `json:"percent_area"`
	Tracker        string           `json:"tracker,omitempty"`
	TrackerFPS     float64          `json:"tracker_fps"`
	TrackerOK      bool             `json:"tracker_ok"`
	Error          string           `json:"error,omitempty"`
	DurationMicros int64            `json:"duration_us"`
}

// NewRecord flattens rep.
func NewRecord(runID string, rep detect.FrameReport, at time.Time) Record {
	rec := Record{
		RunID:          runID,
		Time:           at.UTC(),
		Sequence:       rep.Sequence,
		Frame:          rep.Frame,
		Mode:           rep.Mode.String(),
		State:          rep.State.String(),
		Path:           make([]string, len(rep.Path)),
		Objects:        make([]ObjectRecord, 0, len(rep.Objects)),
		PercentArea:    rep.PercentArea,
		Tracker:        rep.Tracker.Tracker,
		TrackerFPS:     rep.Tracker.FPS,
		TrackerOK:      rep.Tracker.OK,
		DurationMicros: rep.Duration.Microseconds(),
	}
	for i, s := range rep.Path {
		rec.Path[i] = s.String()
	}
	if d := rep.Detection; d != nil {
		rec.Detection = &DetectionRecord{
			CenterX:    d.Center.X,
			CenterY:    d.Center.Y,
			Width:      d.Extent.X,
			Height:     d.Extent.Y,
			Confidence: d.Confidence,
			ROI:        boxOf(d.ROI),
			Accepted:   d.Accepted,
		}
	}
	if !rep.Box.Empty() {
		b := boxOf(rep.Box)
		rec.Box = &b
	}
	for _, o := range rep.Objects {
		rec.Objects = append(rec.Objects, ObjectRecord{ID: o.ID, Box: boxOf(o.Box), Confidence: o.Confidence, Target: o.Target})
	}
	if rep.Err != nil {
		rec.Error = rep.Err.Error()
	}
	return rec
}
