package motion

import (
	"context"
	"math"
	"time"
)

// Glide scrolls to targetY over d with an ease-in-out cubic time warp. Every
// tick issues an absolute scroll so timing jitter never accumulates. The
// state is resynchronised from the content at the end, interrupted or not.
func (m *Motion) Glide(ctx context.Context, s *ScrollState, targetY float64, d time.Duration) (err error) {
	targetY = s.Clamp(targetY)
	s.TargetY = targetY
	start := s.CurrentY
	defer func() { err = m.finishScroll(ctx, s, err) }()

	if start == targetY {
		return m.Hold(ctx, d)
	}

	span := m.Pacer.Span(d)
	last := time.Duration(0)
	for t := 0.0; t < 1; {
		var err error
		if t, err = span.Next(ctx); err != nil {
			return err
		}
		y := lerp(start, targetY, EaseInOutCubic(t))
		if t >= 1 {
			y = targetY
		}
		if err := m.Driver.ScrollTo(ctx, y); err != nil {
			return err
		}
		now := span.Elapsed()
		if dt := (now - last).Seconds(); dt > 0 {
			s.Velocity = (y - s.CurrentY) / dt
		}
		last = now
		s.CurrentY = y
	}
	return nil
}

// Flick is the momentum alternative to Glide: the velocity ramps up over a
// few ticks, decays by Params.Friction every tick and the offset snaps onto
// the target once within SnapEpsilon, under VelocityFloor, or when d runs out.
func (m *Motion) Flick(ctx context.Context, s *ScrollState, targetY float64, d time.Duration) (err error) {
	targetY = s.Clamp(targetY)
	s.TargetY = targetY
	defer func() { err = m.finishScroll(ctx, s, err) }()

	dist := targetY - s.CurrentY
	if math.Abs(dist) <= m.Params.SnapEpsilon {
		return m.Hold(ctx, d)
	}

	const rampTicks = 4
	friction := m.Params.Friction
	if friction <= 0 || friction >= 1 {
		friction = 0.9
	}
	// Geometric series: the decaying phase alone covers ~dist.
	peak := dist * (1 - friction)

	// The momentum model advances in whole frames; frames missed while the
	// driver was busy are integrated at once so the motion keeps to the clock.
	span := m.Pacer.Span(d)
	frame := m.Pacer.Frame()
	var v float64
	tick := 0
	for t := 0.0; t < 1; {
		var err error
		if t, err = span.Next(ctx); err != nil {
			return err
		}
		if t >= 1 {
			break
		}
		due := int(span.Elapsed() / frame)
		y := s.CurrentY
		for ; tick < due; tick++ {
			if tick < rampTicks {
				v = peak * float64(tick+1) / rampTicks
			} else {
				v *= friction
			}
			// never step past the target
			if remaining := targetY - y; math.Abs(v) > math.Abs(remaining) {
				v = remaining
			}
			y = s.Clamp(y + v)
		}
		if err := m.Driver.ScrollTo(ctx, y); err != nil {
			return err
		}
		s.CurrentY = y
		s.Velocity = v * float64(m.Pacer.FPS)

		if math.Abs(targetY-s.CurrentY) <= m.Params.SnapEpsilon ||
			(tick > rampTicks && math.Abs(v) < m.Params.VelocityFloor) {
			break
		}
	}

	if err := m.Driver.ScrollTo(ctx, targetY); err != nil {
		return err
	}
	s.CurrentY = targetY
	return nil
}

// JumpTo scrolls to y with a single absolute command.
func (m *Motion) JumpTo(ctx context.Context, s *ScrollState, y float64) (err error) {
	y = s.Clamp(y)
	s.TargetY = y
	defer func() { err = m.finishScroll(ctx, s, err) }()
	if err := m.Driver.ScrollTo(ctx, y); err != nil {
		return err
	}
	s.CurrentY = y
	return nil
}

func (m *Motion) finishScroll(ctx context.Context, s *ScrollState, err error) error {
	s.Velocity = 0
	syncCtx := ctx
	if ctx.Err() != nil {
		// still resync when the glide was cancelled
		syncCtx = context.WithoutCancel(ctx)
	}
	if serr := s.Sync(syncCtx, m.Driver); serr != nil && err == nil {
		return serr
	}
	if err == nil && s.CurrentY != s.TargetY {
		// the content disagreed (e.g. it grew or clamped); trust it
		s.TargetY = s.CurrentY
	}
	return err
}
