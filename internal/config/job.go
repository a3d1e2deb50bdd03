package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Job is one recording request. It is validated once and not mutated while
// recording.
type Job struct {
	ID      string
	Source  string  // URL, HTML file/directory, PDF or image folder
	Budget  float64 // seconds
	Overlay Overlay
	Output  string
	Audio   string // soundtrack, optional
	Seed    int64
}

// NewJob fills the ID and normalises the overlay.
func NewJob(source string, budget float64, overlay Overlay, output string, seed int64) Job {
	return Job{
		ID:      uuid.NewString(),
		Source:  source,
		Budget:  budget,
		Overlay: overlay.Normalize(),
		Output:  output,
		Seed:    seed,
	}
}

func (j Job) Validate() error {
	switch {
	case strings.TrimSpace(j.Source) == "":
		return fmt.Errorf("%w: job has no source", ErrInvalidConfig)
	case !(j.Budget > 0):
		return fmt.Errorf("%w: budget %.2fs must be positive", ErrInvalidConfig, j.Budget)
	case j.Output == "":
		return fmt.Errorf("%w: job has no output path", ErrInvalidConfig)
	}
	switch strings.ToLower(filepath.Ext(j.Output)) {
	case ".mp4", ".mov", ".mkv":
	default:
		return fmt.Errorf("%w: unsupported output container %q", ErrInvalidConfig, filepath.Ext(j.Output))
	}
	return nil
}

// EncodeParams carries what the encoder needs for one recording.
type EncodeParams struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
	Filter        string // -vf chain, may be empty
	Duration      float64
}
