package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime configuration for the detection pipeline.
// Fields may be loaded from a JSON file, overridden from the environment and
// finally by command-line flags.
type Config struct {
	Debug    bool   `json:"debug"`
	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFile  string `json:"log_file"`

	// Frame acquisition and preprocessing
	Source      string  `json:"source" validate:"required"`
	Backend     string  `json:"backend" validate:"oneof=native opencv"`
	WorkWidth   int     `json:"work_width" validate:"gte=0"`
	WorkHeight  int     `json:"work_height" validate:"gte=0"`
	BlurSigma   float64 `json:"blur_sigma" validate:"gte=0"`
	SourceRetry int     `json:"source_retry_ms" validate:"gte=0"`

	// Target selection
	Shape string `json:"shape" validate:"required"`
	Color string `json:"color" validate:"required"`

	// Scale search parameters
	Candidates      int     `json:"candidates" validate:"gte=1,lte=200"`
	ScaleRange      float64 `json:"scale_range" validate:"gt=0,lte=1000"`
	Threshold       float64 `json:"threshold" validate:"gt=0,lte=1"`
	SaturationScore float64 `json:"saturation_score" validate:"gte=0,lte=1"`
	Selection       string  `json:"selection" validate:"oneof=median best"`
	Stride          int     `json:"stride" validate:"gte=1"`
	Workers         int     `json:"workers" validate:"gte=0"`

	// Regions of interest
	SmallROIHalf int `json:"small_roi_half" validate:"gte=1"`
	LargeROIHalf int `json:"large_roi_half" validate:"gte=1"`
	BoxHalf      int `json:"box_half" validate:"gte=1"`

	// Cadence
	FullSearchInterval int `json:"full_search_interval" validate:"gte=1"`
	RedetectInterval   int `json:"redetect_interval" validate:"gte=1"`
	FrameWrap          int `json:"frame_wrap" validate:"gte=1"`

	// Tracking
	Tracker        string `json:"tracker" validate:"required"`
	TrackerOffsetX int    `json:"tracker_offset_x"`
	TrackerOffsetY int    `json:"tracker_offset_y"`

	// Identity association and labeling
	MaxBlobs           int     `json:"max_blobs" validate:"gte=0"`
	MinBlobArea        float64 `json:"min_blob_area" validate:"gte=0"`
	ColorMatchDistance int     `json:"color_match_distance" validate:"gte=1"`
	MinIdentities      int     `json:"min_identities" validate:"gte=0"`

	// Outputs
	Annotate  bool     `json:"annotate"`
	Sinks     []string `json:"sinks"`
	FrameSink string   `json:"frame_sink"`
	DumpEvery int      `json:"dump_every" validate:"gte=0"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:              false,
		LogLevel:           "info",
		Source:             "screen",
		Backend:            "native",
		WorkWidth:          1019,
		WorkHeight:         589,
		BlurSigma:          1.1,
		SourceRetry:        50,
		Shape:              "circle",
		Color:              "orange",
		Candidates:         20,
		ScaleRange:         200,
		Threshold:          0.40,
		SaturationScore:    0.95,
		Selection:          "median",
		Stride:             1,
		Workers:            0,
		SmallROIHalf:       30,
		LargeROIHalf:       150,
		BoxHalf:            100,
		FullSearchInterval: 30,
		RedetectInterval:   10,
		FrameWrap:          900,
		Tracker:            "ncc",
		TrackerOffsetX:     -10,
		TrackerOffsetY:     -10,
		MaxBlobs:           3,
		MinBlobArea:        50,
		ColorMatchDistance: 250,
		MinIdentities:      3,
		Annotate:           true,
		DumpEvery:          30,
	}
}

var validate = validator.New()

// Validate clamps/normalizes soft values to safe ranges and reports hard
// violations as a *ConfigError.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Backend == "" {
		c.Backend = "native"
	}
	if c.Selection == "" {
		c.Selection = "median"
	}
	if c.Stride <= 0 {
		c.Stride = 1
	}
	if c.ColorMatchDistance <= 0 {
		c.ColorMatchDistance = 250
	}
	if c.SmallROIHalf > c.LargeROIHalf && c.LargeROIHalf > 0 {
		c.SmallROIHalf = c.LargeROIHalf
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return &ConfigError{Field: first.Field(), Value: fmt.Sprint(first.Value()), Err: fmt.Errorf("failed %q constraint", first.Tag())}
		}
		return &ConfigError{Err: err}
	}
	// The wrap value must keep both cadences phase-aligned across the wrap.
	if c.FrameWrap%c.FullSearchInterval != 0 || c.FrameWrap%c.RedetectInterval != 0 {
		return &ConfigError{
			Field: "FrameWrap",
			Value: fmt.Sprint(c.FrameWrap),
			Err:   fmt.Errorf("must be a multiple of %d and %d", c.FullSearchInterval, c.RedetectInterval),
		}
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
