package director

// ActKind identifies the three choreography phases.
type ActKind string

const (
	ActIntro          ActKind = "intro"
	ActGlideWithStops ActKind = "glideWithStops"
	ActOutro          ActKind = "outro"
)

// Plan is the timed choreography for one recording
type Plan struct {
	Version        string     `yaml:"version"`
	Budget         float64    `yaml:"budget"` // seconds
	DocHeight      float64    `yaml:"doc_height"`
	ViewportHeight float64    `yaml:"viewport_height"`
	MaxScroll      float64    `yaml:"max_scroll"`
	Acts           []Act      `yaml:"acts"`
	Stops          []Stop     `yaml:"stops"`
	Keyframes      []Keyframe `yaml:"keyframes,omitempty"`
}

// Act is a time-bounded phase; acts partition the budget minus the safety margin.
type Act struct {
	Name     string  `yaml:"name"`
	Kind     ActKind `yaml:"kind"`
	Start    float64 `yaml:"start"`    // offset in seconds
	Duration float64 `yaml:"duration"` // seconds
}

func (a Act) End() float64 {
	return a.Start + a.Duration
}

// Stop is a scroll milestone of the glide act, followed by a reading pause.
type Stop struct {
	ScrollY   float64 `yaml:"scroll_y"`
	Kind      string  `yaml:"kind"`
	Label     string  `yaml:"label,omitempty"`
	Synthetic bool    `yaml:"synthetic,omitempty"`
	Glide     float64 `yaml:"glide"` // seconds of scrolling towards ScrollY
	Pause     float64 `yaml:"pause"` // seconds of reading once there
}

// Keyframe is a sampled pointer/scroll position of a simulated run
type Keyframe struct {
	Time     float64 `yaml:"time"`  // offset in seconds
	Focus    string  `yaml:"focus"` // act name
	PointerX float64 `yaml:"pointer_x"`
	PointerY float64 `yaml:"pointer_y"`
	ScrollY  float64 `yaml:"scroll_y"`
}

// Act looks up an act by kind.
func (p *Plan) Act(kind ActKind) (Act, bool) {
	for _, a := range p.Acts {
		if a.Kind == kind {
			return a, true
		}
	}
	return Act{}, false
}

// Total is the scheduled choreography time, without the safety margin.
func (p *Plan) Total() float64 {
	if len(p.Acts) == 0 {
		return 0
	}
	return p.Acts[len(p.Acts)-1].End()
}

// ActTiming is the realised start/end of an act, in seconds since the run began.
type ActTiming struct {
	Name  string  `yaml:"name"`
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
}

// Report describes a finished (or aborted) run.
type Report struct {
	Acts             []ActTiming `yaml:"acts"`
	ScrollAtGlideEnd float64     `yaml:"scroll_at_glide_end"`
	FinalScrollY     float64     `yaml:"final_scroll_y"`
	Visited          int         `yaml:"visited"`
	TimedOut         bool        `yaml:"timed_out"`
	Elapsed          float64     `yaml:"elapsed"`
}
