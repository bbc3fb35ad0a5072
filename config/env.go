package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BUOY_"

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the process environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides fields from BUOY_* environment variables. Unparseable
// numeric values are reported as a *ConfigError.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &ConfigError{Field: EnvPrefix + key, Value: v, Err: err}
		}
		*dst = n
		return nil
	}
	str("SOURCE", &c.Source)
	str("BACKEND", &c.Backend)
	str("SHAPE", &c.Shape)
	str("COLOR", &c.Color)
	str("TRACKER", &c.Tracker)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FILE", &c.LogFile)
	str("FRAME_SINK", &c.FrameSink)
	if v, ok := os.LookupEnv(EnvPrefix + "SINKS"); ok {
		c.Sinks = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Sinks = append(c.Sinks, s)
			}
		}
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: EnvPrefix + "DEBUG", Value: v, Err: err}
		}
		c.Debug = b
	}
	for key, dst := range map[string]*int{
		"CANDIDATES": &c.Candidates,
		"STRIDE":     &c.Stride,
		"WORKERS":    &c.Workers,
		"BOX_HALF":   &c.BoxHalf,
	} {
		if err := num(key, dst); err != nil {
			return err
		}
	}
	return nil
}
