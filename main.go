package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/soocke/buoy-vision-go/app"
	"github.com/soocke/buoy-vision-go/config"
	"github.com/soocke/buoy-vision-go/debug"
)

var (
	configPath = flag.String("config", "buoy.json", "Path to the JSON config file")
	envFile    = flag.String("env", ".env", "Optional dotenv file with BUOY_* overrides")
	source     = flag.String("source", "", "Frame source: screen[:x0,y0,x1,y1], dir:<path>, file:<path>, device:<n>")
	shape      = flag.String("shape", "", "Template shape keyword")
	colorName  = flag.String("color", "", "Color profile keyword")
	tracker    = flag.String("tracker", "", "Visual tracker name")
	sinks      = flag.String("sinks", "", "Comma separated result sinks, e.g. jsonl:out.jsonl,sqlite:runs.db")
	frameSink  = flag.String("frames", "", "Annotated frame sink, e.g. png:dumps")
	logLevel   = flag.String("log-level", "", "debug, info, warn or error")
	debugMode  = flag.Bool("debug", false, "Log runtime goroutine and memory stats")
	saveConfig = flag.Bool("save-config", false, "Write the effective config back to -config and exit")
)

// defaultTracker is replaced by builds that register faster trackers.
var defaultTracker = "ncc"

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *saveConfig {
		return cfg.Save(*configPath)
	}

	runID := uuid.NewString()
	logger := NewLogger(parseLevel(cfg.LogLevel), cfg.LogFile).With("run_id", runID)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Debug {
		debug.StartGoroutineLogger(ctx, 5*time.Second, logger)
		debug.StartMemLogger(ctx, 5*time.Second, logger)
	}

	c, err := app.BuildContainer(cfg, logger, runID)
	if err != nil {
		var ce *config.ConfigError
		if errors.As(err, &ce) {
			logger.Error("invalid configuration", "field", ce.Field, "value", ce.Value, "error", ce.Err)
		} else {
			logger.Error("startup failed", "error", err)
		}
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	logger.Info("starting",
		"source", cfg.Source, "backend", cfg.Backend, "shape", cfg.Shape, "color", cfg.Color,
		"tracker", c.Tracker.Name(), "sinks", cfg.Sinks)
	a := app.New(c)
	err = a.Run(ctx)
	s := a.Summary()
	logger.Info("finished", "frames", s.Frames, "detections", s.Detections, "tracked", s.Tracked,
		"lost", s.Lost, "errors", s.Errors, "identities", s.Identities)
	return err
}

// loadConfig layers defaults, the config file, the environment and flags, in
// that order, and validates the result.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}
	if err := config.LoadDotEnv(*envFile); err != nil {
		return nil, err
	}
	if cfg.Tracker == config.DefaultConfig().Tracker {
		cfg.Tracker = defaultTracker
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "shape":
			cfg.Shape = *shape
		case "color":
			cfg.Color = *colorName
		case "tracker":
			cfg.Tracker = *tracker
		case "sinks":
			cfg.Sinks = splitList(*sinks)
		case "frames":
			cfg.FrameSink = *frameSink
		case "log-level":
			cfg.LogLevel = *logLevel
		case "debug":
			cfg.Debug = *debugMode
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
