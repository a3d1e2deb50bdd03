package motion

import (
	"context"
	"math"
	"time"

	"github.com/ivlev/site2video/internal/geometry"
)

type Style int

const (
	StyleNatural Style = iota
	StyleFast
)

type MoveOptions struct {
	Style     Style
	Overshoot bool
	// Limit caps the total duration of the move, including the correction.
	// Zero means no cap beyond Params.MaxMove.
	Limit time.Duration
}

// MoveDuration is the Fitts-style duration for a move of the given distance.
func (m *Motion) MoveDuration(dist float64, style Style) time.Duration {
	d := m.Params.BaseMove + time.Duration(dist/m.Params.Speed*float64(time.Second))
	if style == StyleFast {
		d = time.Duration(float64(d) * m.Params.FastFactor)
	}
	if m.Params.MaxMove > 0 && d > m.Params.MaxMove {
		d = m.Params.MaxMove
	}
	return d
}

// MoveTo moves the pointer along a perturbed cubic Bezier curve to target.
// With Overshoot it first lands past the target, pauses for a reaction
// interval and corrects. The pointer always ends exactly on the (clamped)
// target unless the move is interrupted.
func (m *Motion) MoveTo(ctx context.Context, ptr *PointerState, target geometry.Point, opts MoveOptions) error {
	target = m.clampPoint(target)
	start := ptr.Point()
	dist := distance(start, target)
	if dist < 0.5 {
		return nil
	}

	total := m.MoveDuration(dist, opts.Style)
	if opts.Limit > 0 && total > opts.Limit {
		total = opts.Limit
	}

	if !opts.Overshoot || dist < m.Params.MinOvershoot {
		return m.curve(ctx, ptr, target, total)
	}

	over := geometry.Point{
		X: target.X + (target.X-start.X)*m.Params.Overshoot,
		Y: target.Y + (target.Y-start.Y)*m.Params.Overshoot,
	}
	over = m.clampPoint(over)

	reaction := m.between(m.Params.ReactionMin, m.Params.ReactionMax)
	approach := time.Duration(float64(total) * 0.8)
	correction := total - approach
	if opts.Limit > 0 && approach+reaction+correction > opts.Limit {
		reaction = opts.Limit - approach - correction
		if reaction < 0 {
			reaction = 0
		}
	}

	if err := m.curve(ctx, ptr, over, approach); err != nil {
		return err
	}
	if err := m.Pacer.Sleep(ctx, reaction); err != nil {
		return err
	}
	return m.curve(ctx, ptr, target, correction)
}

func (m *Motion) curve(ctx context.Context, ptr *PointerState, target geometry.Point, d time.Duration) error {
	start := ptr.Point()
	dist := distance(start, target)

	// Control points sit a third and two thirds along the chord, pushed off
	// it perpendicularly by a random amount.
	nx, ny := 0.0, 0.0
	if dist > 0 {
		nx, ny = -(target.Y-start.Y)/dist, (target.X-start.X)/dist
	}
	spread := dist * m.Params.CurveSpread
	o1 := m.uniform(-spread, spread)
	o2 := m.uniform(-spread, spread)
	c1 := geometry.Point{
		X: lerp(start.X, target.X, 1.0/3) + nx*o1,
		Y: lerp(start.Y, target.Y, 1.0/3) + ny*o1,
	}
	c2 := geometry.Point{
		X: lerp(start.X, target.X, 2.0/3) + nx*o2,
		Y: lerp(start.Y, target.Y, 2.0/3) + ny*o2,
	}

	span := m.Pacer.Span(d)
	last := time.Duration(0)
	for t := 0.0; t < 1; {
		var err error
		if t, err = span.Next(ctx); err != nil {
			return err
		}
		p := cubicBezier(start, c1, c2, target, EaseOutQuad(t))
		if t < 1 {
			p.X += m.uniform(-m.Params.Jitter, m.Params.Jitter)
			p.Y += m.uniform(-m.Params.Jitter, m.Params.Jitter)
			p = m.clampPoint(p)
		} else {
			p = target
		}

		if err := m.Driver.MovePointer(ctx, p); err != nil {
			return err
		}
		prev := ptr.Point()
		ptr.set(p)
		now := span.Elapsed()
		if dt := (now - last).Seconds(); dt > 0 {
			ptr.VelocityHint = distance(prev, p) / dt
		}
		last = now
	}
	ptr.VelocityHint = 0
	return nil
}

// Place puts the pointer at p immediately.
func (m *Motion) Place(ctx context.Context, ptr *PointerState, p geometry.Point) error {
	p = m.clampPoint(p)
	if err := m.Driver.MovePointer(ctx, p); err != nil {
		return err
	}
	ptr.set(p)
	ptr.VelocityHint = 0
	return nil
}

// Wiggle draws `turns` small circles around center, as a hover flourish.
func (m *Motion) Wiggle(ctx context.Context, ptr *PointerState, center geometry.Point, radius float64, turns float64, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	span := m.Pacer.Span(d)
	phase := m.uniform(0, 2*math.Pi)
	for t := 0.0; t < 1; {
		var err error
		if t, err = span.Next(ctx); err != nil {
			return err
		}
		a := phase + 2*math.Pi*turns*t
		// radius fades out so the flourish ends on the centre
		r := radius * (1 - t)
		p := m.clampPoint(geometry.Point{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
		if err := m.Driver.MovePointer(ctx, p); err != nil {
			return err
		}
		ptr.set(p)
	}
	return nil
}

// Sway drifts the pointer organically around its current position for d and
// returns it to where it started.
func (m *Motion) Sway(ctx context.Context, ptr *PointerState, amplitude float64, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	origin := ptr.Point()
	span := m.Pacer.Span(d)
	fx := m.uniform(0.6, 1.1)
	fy := m.uniform(0.9, 1.6)
	px := m.uniform(0, 2*math.Pi)
	for t := 0.0; t < 1; {
		var err error
		if t, err = span.Next(ctx); err != nil {
			return err
		}
		env := math.Sin(math.Pi * t) // 0 at both ends
		p := geometry.Point{
			X: origin.X + amplitude*env*math.Sin(2*math.Pi*fx*t+px),
			Y: origin.Y + amplitude*0.6*env*math.Sin(2*math.Pi*fy*t),
		}
		if t >= 1 {
			p = origin
		}
		p = m.clampPoint(p)
		if err := m.Driver.MovePointer(ctx, p); err != nil {
			return err
		}
		ptr.set(p)
	}
	return nil
}

// Hold keeps everything still for d.
func (m *Motion) Hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return m.Pacer.Sleep(ctx, d)
}
