package effects

import (
	"fmt"
	"strings"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/director"
	"github.com/ivlev/site2video/internal/system"
)

// ActLabels overlays the name of the running act, taken from the timings of
// a finished choreography. Offset is where the choreography started in the
// recorded video, in seconds.
type ActLabels struct {
	Acts   []director.ActTiming
	Offset float64
}

func NewActLabels(report *director.Report, offset float64) *ActLabels {
	if report == nil {
		return &ActLabels{Offset: offset}
	}
	return &ActLabels{Acts: report.Acts, Offset: offset}
}

func (e *ActLabels) GenerateFilter(p config.EncodeParams) string {
	if len(e.Acts) == 0 || !system.CheckFilterSupport("drawtext") {
		return ""
	}
	return e.filter(p)
}

func (e *ActLabels) filter(p config.EncodeParams) string {
	y := fmt.Sprintf("%d", p.Height-48)
	var parts []string
	for _, a := range e.Acts {
		start, end := a.Start+e.Offset, a.End+e.Offset
		if end <= start {
			continue
		}
		label := escapeText(fmt.Sprintf("%s %.1fs", a.Name, a.End-a.Start))
		parts = append(parts, drawText(label, "10", y, fmt.Sprintf("between(t,%.3f,%.3f)", start, end)))
	}
	return strings.Join(parts, ",")
}
