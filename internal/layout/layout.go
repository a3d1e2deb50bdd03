// Package layout renders the presentation page that frames the recorded
// content: header and title above a scaled content frame, the call to action
// below it and a synthetic cursor on top.
package layout

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"math"

	"github.com/skip2/go-qrcode"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/geometry"
)

// Options describe one presentation.
type Options struct {
	Width, Height int // canvas
	ContentWidth  int // CSS px of the embedded page
	ContentURL    string
	Overlay       config.Overlay
	Debug         bool // outline the frame
}

// MinFrameSide is the smallest frame, in canvas pixels, worth recording.
const MinFrameSide = 64

// Layout is the computed arrangement of the canvas.
type Layout struct {
	Options
	Margin float64 // horizontal gap around the frame
	Header float64 // height reserved above the frame
	Footer float64 // height reserved below the frame
}

// New lays out the canvas. Header and footer each take 3/16 of the height;
// the frame spans the width minus the margins.
func New(opts Options) (*Layout, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("canvas %dx%d must be positive", opts.Width, opts.Height)
	}
	if opts.ContentWidth <= 0 {
		opts.ContentWidth = 1024
	}
	l := &Layout{
		Options: opts,
		Margin:  math.Round(float64(opts.Width) * 40 / 1080),
		Header:  math.Round(float64(opts.Height) * 3 / 16),
		Footer:  math.Round(float64(opts.Height) * 3 / 16),
	}
	if l.frameWidth() < MinFrameSide || l.frameHeight() < MinFrameSide {
		return nil, fmt.Errorf("canvas %dx%d leaves a %.0fx%.0f frame, below %dpx",
			opts.Width, opts.Height, l.frameWidth(), l.frameHeight(), MinFrameSide)
	}
	return l, nil
}

func (l *Layout) frameWidth() float64  { return float64(l.Width) - 2*l.Margin }
func (l *Layout) frameHeight() float64 { return float64(l.Height) - l.Header - l.Footer }

// Scale is canvas pixels per content CSS pixel.
func (l *Layout) Scale() float64 {
	return l.frameWidth() / float64(l.ContentWidth)
}

// Geometry is the geometry the page is designed to realise. The engine
// measures the real one after rendering.
func (l *Layout) Geometry() geometry.ViewportGeometry {
	s := l.Scale()
	return geometry.ViewportGeometry{
		CanvasWidth:  float64(l.Width),
		CanvasHeight: float64(l.Height),
		FrameOffset:  geometry.Point{X: l.Margin, Y: l.Header},
		FrameScale:   s,
		ContentSize:  geometry.Size{W: float64(l.ContentWidth), H: l.frameHeight() / s},
	}
}

type view struct {
	*Layout
	Overlay     config.Overlay
	QR          template.URL
	ContentH    float64
	FrameW      float64
	FrameH      float64
	FrameScale  float64
	FontHeader  float64
	FontTitle   float64
	FontCTA     float64
	FontSubtext float64
	CursorSize  float64
	QRSize      float64
}

// Render writes the presentation HTML.
func (l *Layout) Render(w io.Writer) error {
	v := view{
		Layout:      l,
		Overlay:     l.Overlay.Merge(config.DefaultOverlay()).Normalize(),
		ContentH:    l.Geometry().ContentSize.H,
		FrameW:      l.frameWidth(),
		FrameH:      l.frameHeight(),
		FrameScale:  l.Scale(),
		FontHeader:  math.Round(float64(l.Width) * 0.035),
		FontTitle:   math.Round(float64(l.Width) * 0.06),
		FontCTA:     math.Round(float64(l.Width) * 0.05),
		FontSubtext: math.Round(float64(l.Width) * 0.03),
		CursorSize:  math.Round(float64(l.Width) * 0.035),
		QRSize:      math.Round(l.Footer * 0.6),
	}
	if v.Overlay.CTAURL != "" {
		uri, err := QRDataURI(v.Overlay.CTAURL, int(v.QRSize))
		if err != nil {
			return err
		}
		v.QR = uri
	}
	return page.Execute(w, v)
}

// HTML renders into memory.
func (l *Layout) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := l.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// QRDataURI encodes url as a PNG QR code data URI.
func QRDataURI(url string, size int) (template.URL, error) {
	if size < 64 {
		size = 64
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("qr code: %w", err)
	}
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), nil
}
