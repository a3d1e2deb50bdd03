package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, 1920, cfg.Height)
	assert.Equal(t, 30.0, cfg.FallbackDuration)
}

func TestLoadFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site2video.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
fps: 60
scroll_mode: momentum
preset: "16:9"
overlay:
  header: Fresh Drops
`), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, "momentum", cfg.ScrollMode)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 1080, cfg.Height)
	assert.Equal(t, "Fresh Drops", cfg.Overlay.Header)
	// untouched fields keep their defaults
	assert.Equal(t, "THE POWER OF SIMPLICITY", cfg.Overlay.Title)
	assert.Equal(t, 15.0, cfg.LoadTimeout)
}

func TestLoadFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site2video.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
fps = 24
detector = "hybrid"
timeout_margin = 8.5

[overlay]
cta_url = "https://example.com/buy"
`), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.FPS)
	assert.Equal(t, "hybrid", cfg.Detector)
	assert.Equal(t, 8.5, cfg.TimeoutMargin)
	assert.Equal(t, "https://example.com/buy", cfg.Overlay.CTAURL)
}

func TestLoadFileRejectsUnknownFormat(t *testing.T) {
	_, err := LoadFile("config.ini")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SITE2VIDEO_FPS", "48")
	t.Setenv("SITE2VIDEO_OUTPUT_DIR", "/tmp/videos")
	t.Setenv("SITE2VIDEO_HEADLESS", "false")
	t.Setenv("SITE2VIDEO_SEED", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.FPS)
	assert.Equal(t, "/tmp/videos", cfg.OutputDir)
	assert.False(t, cfg.Headless)
	assert.Equal(t, int64(7), cfg.Seed)
}

func TestEnvOverrideRejectsGarbage(t *testing.T) {
	t.Setenv("SITE2VIDEO_FPS", "fast")
	_, err := Load("")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"odd width", func(c *Config) { c.Width = 1081 }},
		{"fps too low", func(c *Config) { c.FPS = 12 }},
		{"fps too high", func(c *Config) { c.FPS = 120 }},
		{"unknown detector", func(c *Config) { c.Detector = "ocr" }},
		{"unknown scroll mode", func(c *Config) { c.ScrollMode = "teleport" }},
		{"no load timeout", func(c *Config) { c.LoadTimeout = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestApplyPreset(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyPreset("4:5"))
	assert.Equal(t, 1080, cfg.Width)
	assert.Equal(t, 1350, cfg.Height)
	assert.Error(t, cfg.ApplyPreset("21:9"))
}

func TestResolveDuration(t *testing.T) {
	assert.Equal(t, 12.0, ResolveDuration(12, 40, 50, 30))
	assert.Equal(t, 40.0, ResolveDuration(0, 40, 50, 30))
	assert.Equal(t, 50.0, ResolveDuration(0, 0, 50, 30))
	assert.Equal(t, 30.0, ResolveDuration(0, 0, 0, 30))
}

func TestOverlay(t *testing.T) {
	o := Overlay{Title: "  big news ", CTAURL: "https://Example.com/A"}.Merge(DefaultOverlay()).Normalize()
	assert.Equal(t, "WEB DESIGN AWARDS", o.Header)
	assert.Equal(t, "BIG NEWS", o.Title)
	assert.Equal(t, "https://Example.com/A", o.CTAURL)

	assert.Equal(t, TemplateOverlay(3), TemplateOverlay(3))
	assert.NotEmpty(t, TemplateOverlay(3).CTA)
}

func TestJobValidate(t *testing.T) {
	job := NewJob("https://example.com", 30, DefaultOverlay(), "out/video.mp4", 1)
	require.NoError(t, job.Validate())
	assert.NotEmpty(t, job.ID)

	bad := job
	bad.Budget = 0
	assert.Error(t, bad.Validate())

	bad = job
	bad.Source = " "
	assert.Error(t, bad.Validate())

	bad = job
	bad.Output = "out/video.gif"
	assert.Error(t, bad.Validate())
}
