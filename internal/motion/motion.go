// Package motion produces time-sequenced pointer and scroll positions:
// Bezier pointer moves with overshoot-and-correct, eased and momentum scroll
// glides, and idle flourishes. All randomness comes from one seeded source so
// a fixed seed reproduces a run.
package motion

import (
	"math/rand"
	"time"

	"github.com/ivlev/site2video/internal/geometry"
)

// Params are the tunables of the primitives.
type Params struct {
	BaseMove      time.Duration // fixed part of a pointer move
	Speed         float64       // px/s, distance part of a pointer move
	FastFactor    float64       // duration multiplier for StyleFast
	MaxMove       time.Duration // upper bound for one pointer move
	Jitter        float64       // max per-tick offset in px
	CurveSpread   float64       // control point spread relative to distance
	Overshoot     float64       // overshoot ratio along the approach vector
	MinOvershoot  float64       // moves shorter than this never overshoot (px)
	ReactionMin   time.Duration
	ReactionMax   time.Duration
	Friction      float64 // per-tick velocity retention for Flick
	SnapEpsilon   float64 // px
	VelocityFloor float64 // px per tick
}

func DefaultParams() Params {
	return Params{
		BaseMove:      250 * time.Millisecond,
		Speed:         1800,
		FastFactor:    0.55,
		MaxMove:       1500 * time.Millisecond,
		Jitter:        1.5,
		CurveSpread:   0.2,
		Overshoot:     0.1,
		MinOvershoot:  60,
		ReactionMin:   80 * time.Millisecond,
		ReactionMax:   180 * time.Millisecond,
		Friction:      0.9,
		SnapEpsilon:   0.5,
		VelocityFloor: 0.2,
	}
}

// Motion owns the random source, the pacer and the driver for one session.
// It is not safe for concurrent use: exactly one primitive runs at a time.
type Motion struct {
	Params Params
	Pacer  *Pacer
	Driver Driver
	Bounds geometry.Rect // pointer targets are clamped into this canvas rectangle

	rng *rand.Rand
}

func New(driver Driver, pacer *Pacer, bounds geometry.Rect, seed int64) *Motion {
	return &Motion{
		Params: DefaultParams(),
		Pacer:  pacer,
		Driver: driver,
		Bounds: bounds,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Rand exposes the seeded source to callers that need correlated choices.
func (m *Motion) Rand() *rand.Rand {
	return m.rng
}

func (m *Motion) uniform(lo, hi float64) float64 {
	return lo + m.rng.Float64()*(hi-lo)
}

func (m *Motion) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(m.rng.Int63n(int64(hi-lo)))
}

func (m *Motion) clampPoint(p geometry.Point) geometry.Point {
	if m.Bounds.W <= 0 || m.Bounds.H <= 0 {
		return p
	}
	if p.X < m.Bounds.X {
		p.X = m.Bounds.X
	}
	if p.X > m.Bounds.X+m.Bounds.W {
		p.X = m.Bounds.X + m.Bounds.W
	}
	if p.Y < m.Bounds.Y {
		p.Y = m.Bounds.Y
	}
	if p.Y > m.Bounds.Y+m.Bounds.H {
		p.Y = m.Bounds.Y + m.Bounds.H
	}
	return p
}
