package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned when measured layout geometry cannot be mapped.
var ErrInvalidGeometry = errors.New("invalid viewport geometry")

// boundsTolerance absorbs sub-pixel rounding from getBoundingClientRect.
const boundsTolerance = 1.0

type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type Size struct {
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// Rect is an axis-aligned rectangle in canvas pixels.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// ViewportGeometry is the realised presentation layout, measured once after
// the page is rendered.
type ViewportGeometry struct {
	CanvasWidth  float64
	CanvasHeight float64
	FrameOffset  Point   // top-left corner of the content frame on the canvas
	FrameScale   float64 // canvas pixels per content CSS pixel
	ContentSize  Size    // logical size of the content viewport
}

// Validate checks the invariants the mapper relies on.
func (g ViewportGeometry) Validate() error {
	if g.CanvasWidth <= 0 || g.CanvasHeight <= 0 {
		return fmt.Errorf("%w: canvas %.1fx%.1f", ErrInvalidGeometry, g.CanvasWidth, g.CanvasHeight)
	}
	if !(g.FrameScale > 0) || math.IsInf(g.FrameScale, 0) {
		return fmt.Errorf("%w: scale %v", ErrInvalidGeometry, g.FrameScale)
	}
	if g.ContentSize.W <= 0 || g.ContentSize.H <= 0 {
		return fmt.Errorf("%w: content %.1fx%.1f", ErrInvalidGeometry, g.ContentSize.W, g.ContentSize.H)
	}

	frame := g.FrameRect()
	if frame.X < -boundsTolerance || frame.Y < -boundsTolerance ||
		frame.X+frame.W > g.CanvasWidth+boundsTolerance ||
		frame.Y+frame.H > g.CanvasHeight+boundsTolerance {
		return fmt.Errorf("%w: frame %+v outside canvas %.0fx%.0f", ErrInvalidGeometry, frame, g.CanvasWidth, g.CanvasHeight)
	}
	return nil
}

// FrameRect returns the content frame in canvas coordinates.
func (g ViewportGeometry) FrameRect() Rect {
	return Rect{
		X: g.FrameOffset.X,
		Y: g.FrameOffset.Y,
		W: g.ContentSize.W * g.FrameScale,
		H: g.ContentSize.H * g.FrameScale,
	}
}

// CanvasRect returns the whole recording surface.
func (g ViewportGeometry) CanvasRect() Rect {
	return Rect{W: g.CanvasWidth, H: g.CanvasHeight}
}
