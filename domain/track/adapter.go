package track

import (
	"image"
	"log/slog"
	"time"
)

// Diagnostics describe the most recent update of a session.
type Diagnostics struct {
	Tracker string
	FPS     float64
	OK      bool
}

// Session is one initialized tracker following one object.
type Session struct {
	tracker VisualTracker
	name    string
	box     image.Rectangle
	diag    Diagnostics
	updates uint64
	fails   uint64
}

// Box returns the last reported box.
func (s *Session) Box() image.Rectangle { return s.box }

// Diagnostics returns the tracker name and the rate measured on the last update.
func (s *Session) Diagnostics() Diagnostics { return s.diag }

// Close releases the underlying tracker.
func (s *Session) Close() error {
	if s == nil || s.tracker == nil {
		return nil
	}
	err := s.tracker.Close()
	s.tracker = nil
	return err
}

// Adapter creates tracker sessions, shifting initializing boxes by a fixed
// offset that compensates the detector-to-tracker coordinate skew.
type Adapter struct {
	name    string
	factory Factory
	offset  image.Point
	logger  *slog.Logger
}

// NewAdapter resolves the named tracker.
func NewAdapter(name string, offset image.Point, logger *slog.Logger) (*Adapter, error) {
	f, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return &Adapter{name: name, factory: f, offset: offset, logger: logger}, nil
}

// Name returns the tracker name.
func (a *Adapter) Name() string { return a.name }

// Init starts a session on box. ok is false when the box is empty after
// offset and clamping, or when the tracker refuses it.
func (a *Adapter) Init(frame *image.RGBA, box image.Rectangle) (*Session, bool) {
	if frame == nil || box.Empty() {
		return nil, false
	}
	box = box.Add(a.offset).Intersect(frame.Bounds())
	if box.Empty() {
		return nil, false
	}
	t, err := a.factory()
	if err != nil {
		if a.logger != nil {
			a.logger.Error("tracker create", "tracker", a.name, "error", err)
		}
		return nil, false
	}
	if !t.Init(frame, box) {
		_ = t.Close()
		return nil, false
	}
	if a.logger != nil {
		a.logger.Debug("tracker init", "tracker", a.name, "box", box.String())
	}
	return &Session{tracker: t, name: a.name, box: box, diag: Diagnostics{Tracker: a.name, OK: true}}, true
}

// Update advances the session by one frame. The returned box is clamped to
// the frame; ok is false on tracking failure.
func (a *Adapter) Update(s *Session, frame *image.RGBA) (image.Rectangle, bool) {
	if s == nil || s.tracker == nil || frame == nil {
		return image.Rectangle{}, false
	}
	start := time.Now()
	box, ok := s.tracker.Update(frame)
	elapsed := time.Since(start)
	s.updates++
	fps := 0.0
	if elapsed > 0 {
		fps = 1 / elapsed.Seconds()
	}
	box = box.Canon().Intersect(frame.Bounds())
	if box.Empty() {
		ok = false
	}
	s.diag = Diagnostics{Tracker: s.name, FPS: fps, OK: ok}
	if !ok {
		s.fails++
		return image.Rectangle{}, false
	}
	s.box = box
	return box, true
}
