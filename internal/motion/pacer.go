package motion

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrDeadline is returned by a Pacer once its hard deadline has been reached.
var ErrDeadline = errors.New("choreography deadline reached")

// Pacer sleeps in frame-sized steps on a Clock and refuses to sleep past a
// hard deadline.
type Pacer struct {
	Clock    Clock
	FPS      int
	deadline time.Time
}

func NewPacer(clock Clock, fps int) *Pacer {
	if clock == nil {
		clock = SystemClock{}
	}
	if fps <= 0 {
		fps = 30
	}
	return &Pacer{Clock: clock, FPS: fps}
}

// SetDeadline installs the hard deadline. A zero time disables it.
func (p *Pacer) SetDeadline(t time.Time) {
	p.deadline = t
}

func (p *Pacer) Deadline() time.Time {
	return p.deadline
}

// Frame is the duration of one simulation tick.
func (p *Pacer) Frame() time.Duration {
	return time.Second / time.Duration(p.FPS)
}

func (p *Pacer) Now() time.Time {
	return p.Clock.Now()
}

// Remaining is the time left before the deadline, or a very large value
// when no deadline is set.
func (p *Pacer) Remaining() time.Duration {
	if p.deadline.IsZero() {
		return time.Duration(math.MaxInt64)
	}
	return p.deadline.Sub(p.Clock.Now())
}

// Sleep waits for d, truncated to the deadline. Reaching the deadline
// yields ErrDeadline.
func (p *Pacer) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	left := p.Remaining()
	if left <= 0 {
		return ErrDeadline
	}
	if d > left {
		if err := p.Clock.Sleep(ctx, left); err != nil {
			return err
		}
		return ErrDeadline
	}
	return p.Clock.Sleep(ctx, d)
}

// Span is a stretch of d paced on an absolute frame grid anchored at its
// start. Time spent in the driver between ticks is absorbed by the next
// sleep, and grid points that have already passed are skipped, so a span
// lasts d however slow the driver is (plus at most the final call).
type Span struct {
	p     *Pacer
	start time.Time
	d     time.Duration
}

func (p *Pacer) Span(d time.Duration) *Span {
	if d < 0 {
		d = 0
	}
	return &Span{p: p, start: p.Clock.Now(), d: d}
}

// Next sleeps until the next frame boundary, never past the end of the span,
// and returns the progress through the span in (0, 1]. Progress is measured
// on the clock, not counted in ticks; 1 means this is the last tick.
func (s *Span) Next(ctx context.Context) (float64, error) {
	frame := s.p.Frame()
	elapsed := s.p.Clock.Now().Sub(s.start)
	next := (elapsed/frame + 1) * frame
	if next > s.d {
		next = s.d
	}
	if err := s.p.Sleep(ctx, next-elapsed); err != nil {
		return 0, err
	}
	return s.Progress(), nil
}

func (s *Span) Progress() float64 {
	if s.d <= 0 {
		return 1
	}
	return math.Min(1, float64(s.p.Clock.Now().Sub(s.start))/float64(s.d))
}

// Elapsed is the time since the span began.
func (s *Span) Elapsed() time.Duration {
	return s.p.Clock.Now().Sub(s.start)
}
