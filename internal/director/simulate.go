package director

import (
	"context"
	"sync"
	"time"

	"github.com/ivlev/site2video/internal/analyzer"
	"github.com/ivlev/site2video/internal/geometry"
	"github.com/ivlev/site2video/internal/motion"
)

// SimulatedPage is an in-memory motion.Driver that samples the pointer and
// scroll offset on a virtual clock.
type SimulatedPage struct {
	MaxScroll float64
	Every     time.Duration // keyframe sampling interval

	mu        sync.Mutex
	clock     motion.Clock
	start     time.Time
	last      time.Time
	scroll    float64
	pointer   geometry.Point
	keyframes []Keyframe
}

func NewSimulatedPage(clock motion.Clock, maxScroll float64) *SimulatedPage {
	now := clock.Now()
	return &SimulatedPage{
		MaxScroll: maxScroll,
		Every:     200 * time.Millisecond,
		clock:     clock,
		start:     now,
		last:      now.Add(-time.Hour),
	}
}

func (p *SimulatedPage) MovePointer(_ context.Context, pt geometry.Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pointer = pt
	p.sample(false)
	return nil
}

func (p *SimulatedPage) ScrollTo(_ context.Context, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scroll = clamp(y, 0, p.MaxScroll)
	p.sample(false)
	return nil
}

func (p *SimulatedPage) ScrollY(context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scroll, nil
}

func (p *SimulatedPage) sample(force bool) {
	now := p.clock.Now()
	if !force && now.Sub(p.last) < p.Every {
		return
	}
	p.last = now
	p.keyframes = append(p.keyframes, Keyframe{
		Time:     now.Sub(p.start).Seconds(),
		PointerX: p.pointer.X,
		PointerY: p.pointer.Y,
		ScrollY:  p.scroll,
	})
}

// Keyframes returns the samples taken so far plus a final one.
func (p *SimulatedPage) Keyframes() []Keyframe {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sample(true)
	out := make([]Keyframe, len(p.keyframes))
	copy(out, p.keyframes)
	return out
}

// Simulate performs the plan on a SimulatedPage with a virtual clock and
// stores the sampled keyframes, labelled with their act, in plan.Keyframes.
// A full run completes in a few milliseconds.
func (d *Director) Simulate(ctx context.Context, plan *Plan, mapper *geometry.Mapper, pois []analyzer.PointOfInterest) (*Report, error) {
	clock := motion.NewManualClock(time.Unix(0, 0))
	page := NewSimulatedPage(clock, plan.MaxScroll)

	report, err := d.Run(ctx, plan, Stage{
		Driver: page,
		Mapper: mapper,
		POIs:   pois,
		Clock:  clock,
	})
	if report == nil {
		return nil, err
	}

	kfs := page.Keyframes()
	for i := range kfs {
		kfs[i].Focus = focusAt(report.Acts, kfs[i].Time)
	}
	plan.Keyframes = kfs
	return report, err
}

func focusAt(acts []ActTiming, t float64) string {
	for _, a := range acts {
		if t >= a.Start && t < a.End {
			return a.Name
		}
	}
	if len(acts) > 0 && t >= acts[len(acts)-1].End {
		return acts[len(acts)-1].Name
	}
	return "start"
}
