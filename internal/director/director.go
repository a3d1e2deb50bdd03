package director

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/ivlev/site2video/internal/analyzer"
)

// ErrTimeout is returned when a run hits its hard deadline before the outro
// completes.
var ErrTimeout = errors.New("choreography timed out")

const (
	ScrollEased    = "eased"
	ScrollMomentum = "momentum"
)

// Director turns a time budget and the scanned targets into a three-act plan
// and performs it.
type Director struct {
	FPS            int
	Intro          time.Duration
	Outro          time.Duration
	SafetyMargin   time.Duration // subtracted from the budget before planning
	TimeoutMargin  time.Duration // grace past the budget before a run is aborted
	ScrollFraction float64       // share of the glide act spent scrolling
	MinStops       int
	ReadTargets    int     // max targets read per pause
	StopAnchor     float64 // a stop puts its target this fraction below the viewport top
	MinStopGap     float64 // fraction of the viewport; closer stops merge
	Variation      float64 // ±relative jitter of segment durations
	ScrollMode     string
	Seed           int64
}

// NewDirector creates a new Director with default settings
func NewDirector() *Director {
	return &Director{
		FPS:            30,
		Intro:          4 * time.Second,
		Outro:          4 * time.Second,
		SafetyMargin:   time.Second,
		TimeoutMargin:  5 * time.Second,
		ScrollFraction: 0.6,
		MinStops:       3,
		ReadTargets:    2,
		StopAnchor:     0.3,
		MinStopGap:     0.25,
		Variation:      0.15,
		ScrollMode:     ScrollEased,
		Seed:           1,
	}
}

// Plan builds the choreography for a budget (seconds) over a document.
// Acts never exceed budget-SafetyMargin in total, the last stop is always
// the bottom of the document and a page without targets gets one scroll-only
// segment.
func (d *Director) Plan(budget float64, pois []analyzer.PointOfInterest, docHeight, viewportH float64) (*Plan, error) {
	if budget <= 0 {
		return nil, fmt.Errorf("budget must be positive, got %.2fs", budget)
	}
	if viewportH <= 0 {
		return nil, fmt.Errorf("viewport height must be positive, got %.1f", viewportH)
	}

	total := budget - d.SafetyMargin.Seconds()
	if total <= 0 {
		total = budget * 0.9
	}
	intro := math.Min(d.Intro.Seconds(), total*0.15)
	outro := math.Min(d.Outro.Seconds(), total*0.15)
	glide := total - intro - outro

	maxScroll := math.Max(0, docHeight-viewportH)
	plan := &Plan{
		Version:        "1.0",
		Budget:         budget,
		DocHeight:      docHeight,
		ViewportHeight: viewportH,
		MaxScroll:      maxScroll,
		Acts: []Act{
			{Name: "intro", Kind: ActIntro, Start: 0, Duration: intro},
			{Name: "glide", Kind: ActGlideWithStops, Start: intro, Duration: glide},
			{Name: "outro", Kind: ActOutro, Start: intro + glide, Duration: outro},
		},
	}

	plan.Stops = d.stops(pois, maxScroll, viewportH)
	d.schedule(plan.Stops, glide, len(pois) == 0)
	return plan, nil
}

// stops derives the scroll milestones from the targets.
func (d *Director) stops(pois []analyzer.PointOfInterest, maxScroll, viewportH float64) []Stop {
	if maxScroll <= 0 {
		return nil
	}
	bottom := Stop{ScrollY: maxScroll, Kind: "bottom", Synthetic: true}
	if len(pois) == 0 {
		return []Stop{bottom}
	}

	gap := d.MinStopGap * viewportH
	var out []Stop
	last := 0.0
	for _, p := range pois {
		y := clamp(p.AbsoluteY-d.StopAnchor*viewportH, 0, maxScroll)
		if y-last < gap {
			continue
		}
		out = append(out, Stop{ScrollY: y, Kind: p.Kind.String(), Label: p.Label})
		last = y
	}

	if n := len(out); n > 0 && maxScroll-out[n-1].ScrollY < gap {
		out[n-1].ScrollY = maxScroll
	} else {
		out = append(out, bottom)
	}

	// Pad sparse pages by splitting the widest gap.
	for len(out) < d.MinStops {
		at, width := 0, 0.0
		prev := 0.0
		for i, s := range out {
			if s.ScrollY-prev > width {
				at, width = i, s.ScrollY-prev
			}
			prev = s.ScrollY
		}
		if width < 2 {
			break
		}
		lo := 0.0
		if at > 0 {
			lo = out[at-1].ScrollY
		}
		mid := Stop{ScrollY: math.Round(lo + width/2), Kind: "scroll", Synthetic: true}
		out = append(out[:at], append([]Stop{mid}, out[at:]...)...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ScrollY < out[j].ScrollY })
	return out
}

// schedule splits the glide act over the stops: ScrollFraction of it for
// the N scroll segments and the rest for the N-1 pauses between them.
func (d *Director) schedule(stops []Stop, glide float64, scrollOnly bool) {
	n := len(stops)
	if n == 0 {
		return
	}
	if n == 1 || scrollOnly {
		for i := range stops {
			stops[i].Glide = glide / float64(n)
			stops[i].Pause = 0
		}
		return
	}

	r := rand.New(rand.NewSource(d.Seed))
	scrollTotal := glide * d.ScrollFraction
	glides := vary(r, scrollTotal, n, d.Variation)
	pauses := vary(r, glide-scrollTotal, n-1, d.Variation)
	for i := range stops {
		stops[i].Glide = glides[i]
		if i < n-1 {
			stops[i].Pause = pauses[i]
		}
	}
}

// vary splits total into n durations that drift by up to ±v from one to the
// next, then rescales them to sum to total exactly.
func vary(r *rand.Rand, total float64, n int, v float64) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	base := total / float64(n)
	out[0] = base * (1 + (r.Float64()*2-1)*v)
	for i := 1; i < n; i++ {
		out[i] = out[i-1] * (1 + (r.Float64()*2-1)*v)
	}

	sum := 0.0
	for _, d := range out {
		sum += d
	}
	if sum <= 0 {
		for i := range out {
			out[i] = base
		}
		return out
	}
	scale := total / sum
	for i := range out {
		out[i] *= scale
	}
	return out
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

func seconds(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
