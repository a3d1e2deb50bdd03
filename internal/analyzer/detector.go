package analyzer

import (
	"context"
	"image"
)

// Element is a raw candidate reported by a detector, in content CSS pixels.
// Top/Left are relative to the content viewport at detection time.
type Element struct {
	Tag     string  `json:"tag"`
	Role    string  `json:"role"`
	Class   string  `json:"cls"`
	Text    string  `json:"text"`
	Top     float64 `json:"top"`
	Left    float64 `json:"left"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	ScrollY float64 `json:"scrollY"`
	Filled  bool    `json:"filled"` // has its own background, typical for CTA buttons
}

// Page is the capability the detectors need from the rendering backend.
type Page interface {
	// Evaluate runs a script in the page and decodes its JSON result into out.
	Evaluate(ctx context.Context, script string, out any) error
}

// Snapshot describes a captured image of the content viewport.
type Snapshot struct {
	ScrollY       float64
	PixelsPerUnit float64 // image pixels per content CSS pixel
}

// Snapshotter is implemented by pages that can capture the content viewport.
type Snapshotter interface {
	SnapshotContent(ctx context.Context) (image.Image, Snapshot, error)
}

// Detector is the interface for target detection strategies
type Detector interface {
	Detect(ctx context.Context, page Page) ([]Element, error)
}
