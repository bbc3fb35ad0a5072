// Package app wires the detection pipeline and runs the frame loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/soocke/buoy-vision-go/domain/capture"
	"github.com/soocke/buoy-vision-go/domain/detect"
)

const summaryLogInterval = 10 * time.Second

// Summary counts what a run produced.
type Summary struct {
	Frames     uint64
	Detections uint64 // accepted detections, full search and re-detection
	Tracked    uint64 // frames ending in TRACKING
	Lost       uint64 // frames ending in LOST
	Errors     uint64 // frames that failed outright (panic, sink failure)
	Identities int
}

// App pulls frames from the container's source and feeds them through the
// orchestrator to the sinks. It is driven by a single goroutine.
type App struct {
	c       *Container
	logger  *slog.Logger
	retry   time.Duration
	summary Summary
	lastLog time.Time
}

// New returns an App over c.
func New(c *Container) *App {
	a := &App{c: c, logger: c.Logger, retry: time.Duration(c.Config.SourceRetry) * time.Millisecond}
	c.Orchestrator.AddListener(func(prev, next detect.State) {
		if a.logger != nil {
			a.logger.Info("state change", "from", prev.String(), "to", next.String())
		}
	})
	return a
}

// Summary returns the counters so far.
func (a *App) Summary() Summary {
	s := a.summary
	s.Identities = a.c.Labeler.Identities().Len()
	return s
}

// Run processes frames until the source is exhausted or ctx is canceled.
// Neither ends the run with an error. Source errors are logged and retried
// after the configured backoff.
func (a *App) Run(ctx context.Context) error {
	a.lastLog = time.Now()
	for {
		if ctx.Err() != nil {
			return nil
		}
		frame, err := a.c.Source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if a.logger != nil {
					a.logger.Info("source exhausted", "frames", a.summary.Frames)
				}
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			if a.logger != nil {
				a.logger.Warn("frame source error", "error", err)
			}
			if !sleep(ctx, a.retry) {
				return nil
			}
			continue
		}
		a.Step(ctx, frame)
		if a.logger != nil && time.Since(a.lastLog) >= summaryLogInterval {
			a.lastLog = time.Now()
			s := a.Summary()
			a.logger.Info("progress", "frames", s.Frames, "detections", s.Detections,
				"tracked", s.Tracked, "lost", s.Lost, "errors", s.Errors, "identities", s.Identities)
		}
	}
}

// Step preprocesses and processes one raw frame and hands the report to the
// sinks. The frame is recycled afterwards.
func (a *App) Step(ctx context.Context, raw *image.RGBA) {
	frame := a.c.Preprocess.Apply(raw)
	if frame != raw {
		capture.RecycleFrame(raw)
	}
	defer capture.RecycleFrame(frame)
	a.summary.Frames++

	rep, err := a.process(frame)
	if err != nil {
		a.summary.Errors++
		if a.logger != nil {
			a.logger.Error("frame processing failed", "error", err)
		}
		return
	}
	a.count(rep)
	if a.logger != nil {
		attrs := []any{"seq", rep.Sequence, "frame", rep.Frame, "mode", rep.Mode.String(),
			"state", rep.State.String(), "objects", len(rep.Objects), "took", rep.Duration}
		if rep.Err != nil {
			attrs = append(attrs, "reason", rep.Err.Error())
		}
		a.logger.Debug("frame", attrs...)
	}
	if len(a.c.Sinks) > 0 {
		if err := a.c.Sinks.Write(ctx, rep); err != nil {
			a.summary.Errors++
			if a.logger != nil {
				a.logger.Warn("sink write failed", "seq", rep.Sequence, "error", err)
			}
		}
	}
	if a.c.Frames != nil && rep.Image != nil {
		if err := a.c.Frames.WriteFrame(rep.Sequence, rep.Image); err != nil {
			a.summary.Errors++
			if a.logger != nil {
				a.logger.Warn("frame sink write failed", "seq", rep.Sequence, "error", err)
			}
		}
	}
}

// process runs the orchestrator and turns a panic into an error so one bad
// frame does not end the run.
func (a *App) process(frame *image.RGBA) (rep detect.FrameReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			if a.logger != nil {
				a.logger.Error("frame panic", "error", r, "stack", string(debug.Stack()))
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.c.Orchestrator.Process(frame), nil
}

func (a *App) count(rep detect.FrameReport) {
	if rep.Detection != nil && rep.Detection.Accepted {
		a.summary.Detections++
	}
	switch rep.State {
	case detect.StateTracking:
		a.summary.Tracked++
	case detect.StateLost:
		a.summary.Lost++
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
