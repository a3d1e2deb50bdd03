package geometry

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func showcaseGeometry() ViewportGeometry {
	scale := 1000.0 / 1024.0
	return ViewportGeometry{
		CanvasWidth:  1080,
		CanvasHeight: 1920,
		FrameOffset:  Point{X: 40, Y: 360},
		FrameScale:   scale,
		ContentSize:  Size{W: 1024, H: 1200 / scale},
	}
}

func TestMapperRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		scale := 0.1 + r.Float64()*2
		g := ViewportGeometry{
			CanvasWidth:  4000,
			CanvasHeight: 4000,
			FrameOffset:  Point{X: r.Float64() * 100, Y: r.Float64() * 100},
			FrameScale:   scale,
			ContentSize:  Size{W: 500, H: 500},
		}
		m, err := NewMapper(g)
		require.NoError(t, err)

		x, y := r.Float64()*500, r.Float64()*500
		bx, by := m.ToContent(m.ToCanvas(x, y))
		assert.InDelta(t, x, bx, 1e-9)
		assert.InDelta(t, y, by, 1e-9)
	}
}

func TestMapperShowcaseFrame(t *testing.T) {
	m, err := NewMapper(showcaseGeometry())
	require.NoError(t, err)

	p := m.ToCanvas(512, 0)
	assert.GreaterOrEqual(t, p.X, 40.0)
	assert.LessOrEqual(t, p.X, 1040.0)
	assert.InDelta(t, 540.0, p.X, 1e-9)
	assert.InDelta(t, 360.0, p.Y, 1e-9)

	// Every point of the content viewport stays inside the canvas.
	for _, c := range [][2]float64{{0, 0}, {1024, 0}, {0, 1228.8}, {1024, 1228.8}} {
		q := m.ToCanvas(c[0], c[1])
		assert.True(t, m.Geometry().CanvasRect().Contains(q), "corner %v -> %v", c, q)
	}
}

func TestMapperRejectsInvalidGeometry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(g *ViewportGeometry)
	}{
		{"zero scale", func(g *ViewportGeometry) { g.FrameScale = 0 }},
		{"negative scale", func(g *ViewportGeometry) { g.FrameScale = -1 }},
		{"nan scale", func(g *ViewportGeometry) { g.FrameScale = math.NaN() }},
		{"empty canvas", func(g *ViewportGeometry) { g.CanvasWidth = 0 }},
		{"empty content", func(g *ViewportGeometry) { g.ContentSize.H = 0 }},
		{"frame overflows", func(g *ViewportGeometry) { g.FrameOffset.X = 200 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := showcaseGeometry()
			tt.mutate(&g)
			_, err := NewMapper(g)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidGeometry))
		})
	}
}

func TestMapperClamp(t *testing.T) {
	m, err := NewMapper(showcaseGeometry())
	require.NoError(t, err)

	x, y := m.ClampContent(-10, 5000)
	assert.Equal(t, 0.0, x)
	assert.InDelta(t, 1228.8, y, 1e-9)

	p := m.ClampCanvas(Point{X: 0, Y: 1900})
	assert.Equal(t, 40.0, p.X)
	assert.InDelta(t, 1560.0, p.Y, 1e-9)

	c := m.ContentCenter()
	assert.InDelta(t, 540.0, c.X, 1e-9)
	assert.InDelta(t, 960.0, c.Y, 1e-9)
}
