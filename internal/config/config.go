package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SITE2VIDEO_"

// Config holds the tool-wide settings. Durations are in seconds.
type Config struct {
	Width            int     `yaml:"width" toml:"width"`
	Height           int     `yaml:"height" toml:"height"`
	Preset           string  `yaml:"preset" toml:"preset"`
	FPS              int     `yaml:"fps" toml:"fps"`
	ContentWidth     int     `yaml:"content_width" toml:"content_width"` // CSS px of the embedded page
	Duration         float64 `yaml:"duration" toml:"duration"`           // 0 = resolve from audio/metadata
	FallbackDuration float64 `yaml:"fallback_duration" toml:"fallback_duration"`
	AudioPath        string  `yaml:"audio" toml:"audio"`

	OutputDir  string `yaml:"output_dir" toml:"output_dir"`
	PlansDir   string `yaml:"plans_dir" toml:"plans_dir"`
	ContentDir string `yaml:"content_dir" toml:"content_dir"` // batch pool
	Workers    int    `yaml:"workers" toml:"workers"`

	VideoEncoder string `yaml:"encoder" toml:"encoder"` // empty = best available
	Quality      int    `yaml:"quality" toml:"quality"` // 0 = encoder default

	Detector      string  `yaml:"detector" toml:"detector"`
	ScrollMode    string  `yaml:"scroll_mode" toml:"scroll_mode"`
	Seed          int64   `yaml:"seed" toml:"seed"`
	LoadTimeout   float64 `yaml:"load_timeout" toml:"load_timeout"`
	SettleDelay   float64 `yaml:"settle_delay" toml:"settle_delay"`
	IntroDuration float64 `yaml:"intro" toml:"intro"`
	OutroDuration float64 `yaml:"outro" toml:"outro"`
	SafetyMargin  float64 `yaml:"safety_margin" toml:"safety_margin"`
	TimeoutMargin float64 `yaml:"timeout_margin" toml:"timeout_margin"`
	MinStops      int     `yaml:"min_stops" toml:"min_stops"`
	MaxTargets    int     `yaml:"max_targets" toml:"max_targets"`

	ChromePath string `yaml:"chrome_path" toml:"chrome_path"`
	Headless   bool   `yaml:"headless" toml:"headless"`
	Mobile     bool   `yaml:"mobile" toml:"mobile"` // phone user agent

	Debug     bool   `yaml:"debug" toml:"debug"` // timing overlay burned into the video
	ShowStats bool   `yaml:"show_stats" toml:"show_stats"`
	WritePlan bool   `yaml:"write_plan" toml:"write_plan"`
	LogLevel  string `yaml:"log_level" toml:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format"`

	Overlay Overlay `yaml:"overlay" toml:"overlay"`

	BuildVersion string `yaml:"-" toml:"-"`
}

// Default returns the built-in settings: a 1080x1920 portrait canvas at 30 FPS.
func Default() *Config {
	return &Config{
		Width:            1080,
		Height:           1920,
		FPS:              30,
		ContentWidth:     1024,
		FallbackDuration: 30,
		OutputDir:        "output",
		PlansDir:         "plans",
		ContentDir:       filepath.Join("input", "content"),
		Workers:          1,
		Detector:         "dom",
		ScrollMode:       "eased",
		Seed:             1,
		LoadTimeout:      15,
		SettleDelay:      1.5,
		IntroDuration:    4,
		OutroDuration:    4,
		SafetyMargin:     1,
		TimeoutMargin:    5,
		MinStops:         3,
		MaxTargets:       6,
		Headless:         true,
		LogLevel:         "info",
		LogFormat:        "text",
		Overlay:          DefaultOverlay(),
	}
}

// Load reads .env (if present), the optional config file and the
// SITE2VIDEO_* environment, in that order of increasing precedence.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile decodes a YAML or TOML file over the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// ApplyEnv overrides settings from SITE2VIDEO_* variables.
func ApplyEnv(cfg *Config) error {
	str := map[string]*string{
		"OUTPUT_DIR":  &cfg.OutputDir,
		"PLANS_DIR":   &cfg.PlansDir,
		"CONTENT_DIR": &cfg.ContentDir,
		"AUDIO":       &cfg.AudioPath,
		"ENCODER":     &cfg.VideoEncoder,
		"DETECTOR":    &cfg.Detector,
		"SCROLL_MODE": &cfg.ScrollMode,
		"CHROME_PATH": &cfg.ChromePath,
		"LOG_LEVEL":   &cfg.LogLevel,
		"LOG_FORMAT":  &cfg.LogFormat,
		"CTA_URL":     &cfg.Overlay.CTAURL,
	}
	for key, dst := range str {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"WIDTH":   &cfg.Width,
		"HEIGHT":  &cfg.Height,
		"FPS":     &cfg.FPS,
		"WORKERS": &cfg.Workers,
		"QUALITY": &cfg.Quality,
	}
	for key, dst := range ints {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, EnvPrefix, key, v)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"DURATION":     &cfg.Duration,
		"LOAD_TIMEOUT": &cfg.LoadTimeout,
	}
	for key, dst := range floats {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q", ErrInvalidConfig, EnvPrefix, key, v)
			}
			*dst = f
		}
	}

	if v := os.Getenv(EnvPrefix + "SEED"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSEED=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		cfg.Seed = n
	}
	if v := os.Getenv(EnvPrefix + "HEADLESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sHEADLESS=%q", ErrInvalidConfig, EnvPrefix, v)
		}
		cfg.Headless = b
	}
	if v := os.Getenv(EnvPrefix + "PRESET"); v != "" {
		return cfg.ApplyPreset(v)
	}
	return nil
}

// ApplyPreset sets the canvas size for a named aspect ratio.
func (c *Config) ApplyPreset(name string) error {
	switch name {
	case "9:16":
		c.Width, c.Height = 1080, 1920
	case "16:9":
		c.Width, c.Height = 1920, 1080
	case "4:5":
		c.Width, c.Height = 1080, 1350
	case "1:1":
		c.Width, c.Height = 1080, 1080
	default:
		return fmt.Errorf("%w: unknown preset %q (9:16, 16:9, 4:5, 1:1)", ErrInvalidConfig, name)
	}
	c.Preset = name
	return nil
}

// Validate checks ranges before anything is recorded.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Width > 0 && c.Height > 0, "canvas %dx%d must be positive", c.Width, c.Height)
	check(c.Width%2 == 0 && c.Height%2 == 0, "canvas %dx%d must have even sides", c.Width, c.Height)
	check(c.FPS >= 24 && c.FPS <= 60, "fps %d outside 24..60", c.FPS)
	check(c.ContentWidth >= 320, "content width %d below 320", c.ContentWidth)
	check(c.Duration >= 0, "duration %.2f is negative", c.Duration)
	check(c.FallbackDuration > 0, "fallback duration must be positive")
	check(c.Workers >= 1, "workers must be at least 1")
	check(c.Quality >= 0, "quality %d is negative", c.Quality)
	check(oneOf(c.Detector, "dom", "visual", "hybrid"), "unknown detector %q", c.Detector)
	check(oneOf(c.ScrollMode, "eased", "momentum"), "unknown scroll mode %q", c.ScrollMode)
	check(c.LoadTimeout > 0, "load timeout must be positive")
	check(c.SettleDelay >= 0, "settle delay is negative")
	check(c.IntroDuration >= 0 && c.OutroDuration >= 0, "intro/outro durations are negative")
	check(c.SafetyMargin >= 0 && c.TimeoutMargin >= 0, "margins are negative")
	check(c.MinStops >= 1, "min stops must be at least 1")
	check(c.MaxTargets >= 0, "max targets is negative")
	check(oneOf(c.LogFormat, "text", "json"), "unknown log format %q", c.LogFormat)
	check(oneOf(strings.ToLower(c.LogLevel), "debug", "info", "warn", "error"), "unknown log level %q", c.LogLevel)

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

// ResolveDuration picks the recording budget: an explicit duration wins,
// then the narration length, then the content's own override, then fallback.
func ResolveDuration(explicit, audio, override, fallback float64) float64 {
	for _, d := range []float64{explicit, audio, override} {
		if d > 0 {
			return d
		}
	}
	return fallback
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}
