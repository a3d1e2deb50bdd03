package effects

import (
	"fmt"
	"strings"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/system"
)

// Effect builds an ffmpeg -vf chain for a recording.
type Effect interface {
	GenerateFilter(params config.EncodeParams) string
}

// DefaultEffect keeps the canvas size and converts to yuv420p. With Debug it
// burns the running timestamp into the corner.
type DefaultEffect struct {
	Debug bool
}

func (e *DefaultEffect) GenerateFilter(p config.EncodeParams) string {
	chain := []string{
		fmt.Sprintf("scale=%d:%d:flags=bicubic", p.Width, p.Height),
		"format=yuv420p",
	}
	if e.Debug && system.CheckFilterSupport("drawtext") {
		chain = append(chain, drawText("%{pts\\:hms}", "10", "10", ""))
	}
	return strings.Join(chain, ",")
}

// Chain joins the filters of several effects in order.
type Chain []Effect

func (c Chain) GenerateFilter(p config.EncodeParams) string {
	var parts []string
	for _, e := range c {
		if f := e.GenerateFilter(p); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, ",")
}

func drawText(text, x, y, enable string) string {
	f := fmt.Sprintf("drawtext=text='%s':x=%s:y=%s:fontsize=24:fontcolor=yellow:box=1:boxcolor=black@0.5", text, x, y)
	if enable != "" {
		f += fmt.Sprintf(":enable='%s'", enable)
	}
	return f
}

// escapeText quotes a literal for drawtext inside a single-quoted filter arg.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\\\`, `'`, `'\\\''`, `:`, `\:`, `%`, `\%`, `,`, `\,`)
	return r.Replace(s)
}
