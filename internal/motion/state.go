package motion

import (
	"context"

	"github.com/ivlev/site2video/internal/geometry"
)

// Driver is what the primitives need from the rendering backend.
type Driver interface {
	// MovePointer places the pointer at a canvas position.
	MovePointer(ctx context.Context, p geometry.Point) error
	// ScrollTo sets the absolute scroll offset of the content document.
	ScrollTo(ctx context.Context, y float64) error
	// ScrollY reads the real scroll offset of the content document.
	ScrollY(ctx context.Context) (float64, error)
}

// PointerState is the simulated pointer in canvas coordinates.
type PointerState struct {
	X, Y         float64
	VelocityHint float64 // px/s of the last move
}

func (s *PointerState) Point() geometry.Point {
	return geometry.Point{X: s.X, Y: s.Y}
}

func (s *PointerState) set(p geometry.Point) {
	s.X, s.Y = p.X, p.Y
}

// ScrollState tracks the content scroll offset. 0 <= CurrentY <= MaxY.
type ScrollState struct {
	CurrentY float64
	TargetY  float64
	Velocity float64
	MaxY     float64
}

// NewScrollState derives MaxY from the document and viewport heights.
func NewScrollState(docHeight, viewportHeight float64) *ScrollState {
	max := docHeight - viewportHeight
	if max < 0 {
		max = 0
	}
	return &ScrollState{MaxY: max}
}

// Clamp limits y to the scrollable range.
func (s *ScrollState) Clamp(y float64) float64 {
	if y < 0 {
		return 0
	}
	if y > s.MaxY {
		return s.MaxY
	}
	return y
}

// Sync re-reads the real offset from the content.
func (s *ScrollState) Sync(ctx context.Context, d Driver) error {
	y, err := d.ScrollY(ctx)
	if err != nil {
		return err
	}
	s.CurrentY = s.Clamp(y)
	return nil
}
