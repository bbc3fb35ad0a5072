package app

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/buoy-vision-go/assets"
	"github.com/soocke/buoy-vision-go/config"
	"github.com/soocke/buoy-vision-go/domain/blob"
	"github.com/soocke/buoy-vision-go/domain/capture"
	"github.com/soocke/buoy-vision-go/domain/detect"
	"github.com/soocke/buoy-vision-go/domain/identity"
	"github.com/soocke/buoy-vision-go/domain/match"
	"github.com/soocke/buoy-vision-go/domain/roi"
	"github.com/soocke/buoy-vision-go/domain/segment"
	"github.com/soocke/buoy-vision-go/domain/track"
	"github.com/soocke/buoy-vision-go/sink"
)

// Container holds the assembled pipeline.
type Container struct {
	Config       *config.Config
	Logger       *slog.Logger
	RunID        string
	Template     *image.Gray
	Searcher     *match.Searcher
	Tracker      *track.Adapter
	Labeler      *detect.Labeler
	Orchestrator *detect.Orchestrator
	Source       *capture.Instrumented
	Preprocess   capture.Preprocessor
	Sinks        sink.Multi
	Frames       sink.FrameSink
}

// BuildContainer constructs all components from a validated config. Bad
// keywords come back as *config.ConfigError; failures to open sources or
// sinks are returned as is. Anything opened before a failure is closed.
func BuildContainer(cfg *config.Config, logger *slog.Logger, runID string) (_ *Container, err error) {
	c := &Container{Config: cfg, Logger: logger, RunID: runID}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if _, err := segment.Lookup(cfg.Color); err != nil {
		return nil, &config.ConfigError{Field: "Color", Value: cfg.Color, Err: err}
	}
	tmpl, err := assets.Template(cfg.Shape)
	if err != nil {
		return nil, &config.ConfigError{Field: "Shape", Value: cfg.Shape, Err: err}
	}
	c.Template = tmpl

	engine, err := match.NewEngine(cfg.Backend, cfg.Stride)
	if err != nil {
		return nil, &config.ConfigError{Field: "Backend", Value: cfg.Backend, Err: err}
	}
	contours, err := blob.Engine(cfg.Backend)
	if err != nil {
		return nil, &config.ConfigError{Field: "Backend", Value: cfg.Backend, Err: err}
	}
	sel, err := match.ParseSelection(cfg.Selection)
	if err != nil {
		return nil, &config.ConfigError{Field: "Selection", Value: cfg.Selection, Err: err}
	}
	c.Searcher, err = match.NewSearcher(tmpl, engine, match.Options{
		Candidates: cfg.Candidates,
		Range:      cfg.ScaleRange,
		Threshold:  cfg.Threshold,
		Saturation: cfg.SaturationScore,
		Selection:  sel,
		Workers:    cfg.Workers,
	})
	if err != nil {
		return nil, &config.ConfigError{Err: err}
	}

	c.Tracker, err = track.NewAdapter(cfg.Tracker, image.Pt(cfg.TrackerOffsetX, cfg.TrackerOffsetY), logger)
	if err != nil {
		return nil, &config.ConfigError{Field: "Tracker", Value: cfg.Tracker, Err: err}
	}
	c.Labeler = detect.NewLabeler(contours, identity.New(cfg.MinIdentities, cfg.ColorMatchDistance), cfg.MaxBlobs, cfg.MinBlobArea)
	var annotator *detect.Annotator
	if cfg.Annotate {
		annotator = detect.NewAnnotator()
	}
	c.Orchestrator, err = detect.New(detect.Options{
		FullSearchInterval: cfg.FullSearchInterval,
		RedetectInterval:   cfg.RedetectInterval,
		FrameWrap:          cfg.FrameWrap,
		Color:              cfg.Color,
	}, c.Searcher, c.Tracker, roi.NewManager(cfg.SmallROIHalf, cfg.LargeROIHalf, cfg.BoxHalf), c.Labeler, annotator, logger)
	if err != nil {
		return nil, &config.ConfigError{Err: err}
	}

	src, err := capture.Open(cfg.Source)
	if err != nil {
		if errors.Is(err, capture.ErrUnknownSource) {
			return nil, &config.ConfigError{Field: "Source", Value: cfg.Source, Err: err}
		}
		return nil, err
	}
	c.Source = capture.NewInstrumented(src, logger)
	c.Preprocess = capture.Preprocessor{Width: cfg.WorkWidth, Height: cfg.WorkHeight, Sigma: cfg.BlurSigma}

	for _, spec := range cfg.Sinks {
		s, err := sink.Open(spec, runID)
		if err != nil {
			return nil, fmt.Errorf("sink %q: %w", spec, err)
		}
		c.Sinks = append(c.Sinks, s)
	}
	if cfg.FrameSink != "" {
		c.Frames, err = sink.OpenFrame(cfg.FrameSink, cfg.DumpEvery)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close releases the tracker session, the source and every sink.
func (c *Container) Close() error {
	var errs []error
	if c.Orchestrator != nil {
		errs = append(errs, c.Orchestrator.Close())
	}
	if c.Source != nil {
		errs = append(errs, c.Source.Close())
	}
	if c.Sinks != nil {
		errs = append(errs, c.Sinks.Close())
	}
	if c.Frames != nil {
		errs = append(errs, c.Frames.Close())
	}
	return errors.Join(errs...)
}
