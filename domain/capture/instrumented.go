package capture

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync/atomic"
	"time"
)

const captureStatsLogInterval = 5 * time.Second

// Delivered is the most recent frame handed out by Next.
type Delivered struct {
	Frame *image.RGBA
	Seq   uint64
	At    time.Time
}

// Stats counts what an Instrumented source has delivered and dropped.
type Stats struct {
	Captures    uint64
	Skipped     uint64
	MeanLatency time.Duration
	Last        Delivered
}

// Age reports how long ago the last frame was delivered, or 0 if none was.
func (st Stats) Age(now time.Time) time.Duration {
	if st.Last.At.IsZero() {
		return 0
	}
	return now.Sub(st.Last.At)
}

// Instrumented wraps a FrameSource and records capture statistics. Stats and
// LatestFrame may be called from other goroutines while Next runs.
type Instrumented struct {
	src          FrameSource
	logger       *slog.Logger
	latest       atomic.Pointer[Delivered]
	captures     atomic.Uint64
	skipped      atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
	lastLog      time.Time
}

// NewInstrumented wraps src.
func NewInstrumented(src FrameSource, logger *slog.Logger) *Instrumented {
	return &Instrumented{src: src, logger: logger, lastLog: time.Now()}
}

// Next implements FrameSource.
func (s *Instrumented) Next(ctx context.Context) (*image.RGBA, error) {
	start := time.Now()
	img, err := s.src.Next(ctx)
	if err != nil {
		if !errors.Is(err, io.EOF) && ctx.Err() == nil {
			s.skipped.Add(1)
		}
		return nil, err
	}
	if img == nil {
		s.skipped.Add(1)
		return nil, errors.New("capture: source returned no frame")
	}
	elapsed := time.Since(start)
	s.captureNanos.Add(uint64(elapsed.Nanoseconds()))
	s.captures.Add(1)
	seq := s.sequence.Add(1)
	s.latest.Store(&Delivered{Frame: img, Seq: seq, At: time.Now()})
	if time.Since(s.lastLog) >= captureStatsLogInterval {
		s.lastLog = time.Now()
		s.logStats()
	}
	return img, nil
}

// Close implements FrameSource.
func (s *Instrumented) Close() error { return s.src.Close() }

// LatestFrame returns the last frame delivered by Next. Its pixels are only
// valid until the consumer recycles the frame.
func (s *Instrumented) LatestFrame() Delivered {
	if d := s.latest.Load(); d != nil {
		return *d
	}
	return Delivered{}
}

// Stats returns counters accumulated so far.
func (s *Instrumented) Stats() Stats {
	st := Stats{
		Captures: s.captures.Load(),
		Skipped:  s.skipped.Load(),
		Last:     s.LatestFrame(),
	}
	if total := s.captureNanos.Load(); st.Captures > 0 {
		st.MeanLatency = time.Duration(total / st.Captures)
	}
	return st
}

func (s *Instrumented) logStats() {
	if s.logger == nil {
		return
	}
	stats := s.Stats()
	s.logger.Debug("capture.stats",
		"captures", stats.Captures,
		"skipped", stats.Skipped,
		"mean_latency", stats.MeanLatency,
		"age", stats.Age(time.Now()),
	)
}
