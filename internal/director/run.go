package director

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/ivlev/site2video/internal/analyzer"
	"github.com/ivlev/site2video/internal/geometry"
	"github.com/ivlev/site2video/internal/motion"
)

// Stage is everything a run acts upon.
type Stage struct {
	Driver motion.Driver
	Mapper *geometry.Mapper
	POIs   []analyzer.PointOfInterest
	Clock  motion.Clock // defaults to the system clock
	Logger *slog.Logger
}

// run is the mutable state of one performance.
type run struct {
	d      *Director
	plan   *Plan
	ctx    context.Context
	clock  motion.Clock
	m      *motion.Motion
	mapper *geometry.Mapper
	scroll *motion.ScrollState
	ptr    *motion.PointerState
	pois   []analyzer.PointOfInterest
	rng    *rand.Rand
	log    *slog.Logger
	start  time.Time
	report *Report
}

// Run performs the plan. Acts run strictly in order and each is bounded by
// its planned duration. A run that reaches start+budget+TimeoutMargin, or
// whose context ends, stops with ErrTimeout and a partial report.
func (d *Director) Run(ctx context.Context, plan *Plan, st Stage) (*Report, error) {
	if st.Driver == nil || st.Mapper == nil {
		return nil, errors.New("stage needs a driver and a mapper")
	}
	clock := st.Clock
	if clock == nil {
		clock = motion.SystemClock{}
	}
	logger := st.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pacer := motion.NewPacer(clock, d.FPS)
	start := clock.Now()
	pacer.SetDeadline(start.Add(seconds(plan.Budget) + d.TimeoutMargin))

	pois := make([]analyzer.PointOfInterest, len(st.POIs))
	copy(pois, st.POIs)

	r := &run{
		d:      d,
		plan:   plan,
		ctx:    ctx,
		clock:  clock,
		m:      motion.New(st.Driver, pacer, st.Mapper.FrameRect(), d.Seed),
		mapper: st.Mapper,
		scroll: &motion.ScrollState{MaxY: plan.MaxScroll},
		ptr:    &motion.PointerState{},
		pois:   pois,
		rng:    rand.New(rand.NewSource(d.Seed + 1)),
		log:    logger,
		start:  start,
		report: &Report{},
	}

	err := r.perform()
	r.report.Elapsed = clock.Now().Sub(start).Seconds()
	r.report.FinalScrollY = r.scroll.CurrentY
	if err == nil {
		return r.report, nil
	}
	if errors.Is(err, motion.ErrDeadline) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		r.report.TimedOut = true
		return r.report, fmt.Errorf("%w after %.1fs: %w", ErrTimeout, r.report.Elapsed, err)
	}
	return r.report, err
}

func (r *run) perform() error {
	if err := r.scroll.Sync(r.ctx, r.m.Driver); err != nil {
		return fmt.Errorf("read scroll offset: %w", err)
	}
	// The pointer enters from the lower part of the frame.
	fr := r.mapper.FrameRect()
	if err := r.m.Place(r.ctx, r.ptr, geometry.Point{X: fr.X + fr.W*0.7, Y: fr.Y + fr.H*0.85}); err != nil {
		return err
	}

	for _, act := range r.plan.Acts {
		var fn func(end time.Time) error
		switch act.Kind {
		case ActIntro:
			fn = r.intro
		case ActGlideWithStops:
			fn = r.glide
		case ActOutro:
			fn = r.outro
		default:
			return fmt.Errorf("unknown act kind %q", act.Kind)
		}
		if err := r.act(act, fn); err != nil {
			return err
		}
	}
	return nil
}

// act runs fn and then holds until the act's planned end. Act ends are
// anchored at the start of the run, not at the moment the act began, so an
// act that overruns shortens the next one instead of shifting the schedule.
func (r *run) act(a Act, fn func(end time.Time) error) error {
	began := r.clock.Now()
	end := r.start.Add(seconds(a.End()))
	if late := began.Sub(r.start.Add(seconds(a.Start))); late > 0 {
		r.log.Debug("act starts late", "name", a.Name, "late", late)
	} else {
		r.log.Debug("act", "name", a.Name, "planned", a.Duration)
	}

	err := fn(end)
	if err == nil {
		err = r.m.Hold(r.ctx, r.left(end))
	}
	r.report.Acts = append(r.report.Acts, ActTiming{
		Name:  a.Name,
		Start: began.Sub(r.start).Seconds(),
		End:   r.clock.Now().Sub(r.start).Seconds(),
	})
	return err
}

func (r *run) left(end time.Time) time.Duration {
	d := end.Sub(r.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

func (r *run) intro(end time.Time) error {
	center := r.mapper.ContentCenter()
	if total := r.left(end); total > 0 {
		if err := r.m.MoveTo(r.ctx, r.ptr, center, motion.MoveOptions{Limit: total * 4 / 10}); err != nil {
			return err
		}
	}
	wiggle := min(1200*time.Millisecond, r.left(end)/2)
	if err := r.m.Wiggle(r.ctx, r.ptr, center, 28, 1.5, wiggle); err != nil {
		return err
	}
	return r.m.Sway(r.ctx, r.ptr, 18, r.left(end))
}

func (r *run) glide(end time.Time) error {
	if len(r.plan.Stops) == 0 {
		// Nothing to scroll: read what the first screen offers.
		return r.read(end)
	}
	// Stops are scheduled back from the act's end; their segments add up to
	// the act's duration, so lag in one stop is absorbed by the next.
	var total float64
	for _, s := range r.plan.Stops {
		total += s.Glide + s.Pause
	}
	at := end.Add(-seconds(total))
	for _, s := range r.plan.Stops {
		at = at.Add(seconds(s.Glide))
		if err := r.scrollTo(s.ScrollY, r.left(at)); err != nil {
			return err
		}
		if s.Pause > 0 {
			at = at.Add(seconds(s.Pause))
			if err := r.read(at); err != nil {
				return err
			}
		}
	}
	if r.scroll.CurrentY != r.plan.MaxScroll {
		r.log.Debug("glide ended short of the bottom, jumping", "scroll_y", r.scroll.CurrentY, "max", r.plan.MaxScroll)
		if err := r.m.JumpTo(r.ctx, r.scroll, r.plan.MaxScroll); err != nil {
			return err
		}
	}
	r.report.ScrollAtGlideEnd = r.scroll.CurrentY
	return nil
}

func (r *run) scrollTo(y float64, d time.Duration) error {
	if r.d.ScrollMode == ScrollMomentum {
		return r.m.Flick(r.ctx, r.scroll, y, d)
	}
	return r.m.Glide(r.ctx, r.scroll, y, d)
}

// read visits up to ReadTargets visible targets, then sways until `until`.
func (r *run) read(until time.Time) error {
	vis := analyzer.Visible(r.pois, r.scroll.CurrentY, r.plan.ViewportHeight)
	if n := r.d.ReadTargets; n > 0 && len(vis) > 0 {
		count := 1 + r.rng.Intn(min(n, len(vis)))
		vis = vis[:count]
	} else {
		vis = nil
	}

	for i, idx := range vis {
		share := r.left(until) / time.Duration(len(vis)-i)
		if share <= 0 {
			break
		}
		if err := r.visit(idx, share); err != nil {
			return err
		}
	}
	return r.m.Sway(r.ctx, r.ptr, 10, r.left(until))
}

// visit moves onto a target with an overshoot and hovers on it.
func (r *run) visit(idx int, budget time.Duration) error {
	p := r.pois[idx]
	target := r.mapper.ClampCanvas(r.mapper.ToCanvas(p.X, p.Center()-r.scroll.CurrentY))

	style := motion.StyleNatural
	if budget < time.Second {
		style = motion.StyleFast
	}
	if err := r.m.MoveTo(r.ctx, r.ptr, target, motion.MoveOptions{
		Style:     style,
		Overshoot: true,
		Limit:     budget * 6 / 10,
	}); err != nil {
		return err
	}
	if err := r.m.Wiggle(r.ctx, r.ptr, target, 12, 1, min(700*time.Millisecond, budget*3/10)); err != nil {
		return err
	}
	r.pois[idx].Visited = true
	r.report.Visited++
	return nil
}

func (r *run) outro(end time.Time) error {
	if r.scroll.CurrentY != r.plan.MaxScroll {
		if err := r.m.JumpTo(r.ctx, r.scroll, r.plan.MaxScroll); err != nil {
			return err
		}
	}

	total := r.left(end)
	if cta, ok := r.finalCTA(); ok && total > 0 {
		target := r.mapper.ClampCanvas(r.mapper.ToCanvas(cta.X, cta.Center()-r.scroll.CurrentY))
		if err := r.m.MoveTo(r.ctx, r.ptr, target, motion.MoveOptions{Overshoot: true, Limit: total / 2}); err != nil {
			return err
		}
		if err := r.m.Wiggle(r.ctx, r.ptr, target, 14, 1.5, min(time.Second, r.left(end)/2)); err != nil {
			return err
		}
		r.report.Visited++
	}
	return r.m.Hold(r.ctx, r.left(end))
}

// finalCTA is the last button-like target on the final screen, visited or not.
func (r *run) finalCTA() (analyzer.PointOfInterest, bool) {
	top := r.scroll.CurrentY
	for i := len(r.pois) - 1; i >= 0; i-- {
		p := r.pois[i]
		if p.Kind == analyzer.KindButton && p.AbsoluteY >= top && p.AbsoluteY < top+r.plan.ViewportHeight {
			return p, true
		}
	}
	return analyzer.PointOfInterest{}, false
}
