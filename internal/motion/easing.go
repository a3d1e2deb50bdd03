package motion

import (
	"math"

	"github.com/ivlev/site2video/internal/geometry"
)

// lerp performs linear interpolation between a and b
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// EaseInOutCubic is the time warp used by scroll glides.
func EaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// EaseOutQuad decelerates, used for pointer moves.
func EaseOutQuad(t float64) float64 {
	return 1 - (1-t)*(1-t)
}

// cubicBezier evaluates a cubic Bezier curve at t.
func cubicBezier(p0, p1, p2, p3 geometry.Point, t float64) geometry.Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return geometry.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

func distance(a, b geometry.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
