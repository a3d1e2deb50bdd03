package geometry

// Mapper translates between content-local coordinates (CSS pixels inside the
// embedded frame, relative to its viewport) and canvas coordinates.
// The geometry is frozen at construction.
type Mapper struct {
	g ViewportGeometry
}

func NewMapper(g ViewportGeometry) (*Mapper, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Mapper{g: g}, nil
}

func (m *Mapper) Geometry() ViewportGeometry {
	return m.g
}

// ToCanvas maps a content-local point onto the canvas.
func (m *Mapper) ToCanvas(x, y float64) Point {
	return Point{
		X: m.g.FrameOffset.X + x*m.g.FrameScale,
		Y: m.g.FrameOffset.Y + y*m.g.FrameScale,
	}
}

// ToContent is the inverse of ToCanvas.
func (m *Mapper) ToContent(p Point) (float64, float64) {
	return (p.X - m.g.FrameOffset.X) / m.g.FrameScale,
		(p.Y - m.g.FrameOffset.Y) / m.g.FrameScale
}

// ClampContent clamps a content-local point into the content viewport.
func (m *Mapper) ClampContent(x, y float64) (float64, float64) {
	return clamp(x, 0, m.g.ContentSize.W), clamp(y, 0, m.g.ContentSize.H)
}

// ClampCanvas clamps a canvas point into the content frame, so the pointer
// never leaves the presentation window.
func (m *Mapper) ClampCanvas(p Point) Point {
	r := m.g.FrameRect()
	return Point{X: clamp(p.X, r.X, r.X+r.W), Y: clamp(p.Y, r.Y, r.Y+r.H)}
}

func (m *Mapper) FrameRect() Rect {
	return m.g.FrameRect()
}

// ContentCenter is the canvas position of the centre of the content viewport.
func (m *Mapper) ContentCenter() Point {
	return m.ToCanvas(m.g.ContentSize.W/2, m.g.ContentSize.H/2)
}

// ViewportHeight is the logical height of the content viewport.
func (m *Mapper) ViewportHeight() float64 {
	return m.g.ContentSize.H
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
