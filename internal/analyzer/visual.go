package analyzer

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
)

// ErrNoSnapshot is returned when the page cannot capture its content.
var ErrNoSnapshot = errors.New("page does not support content snapshots")

// VisualDetector finds content bands in a screenshot of the content viewport:
// Sobel edges, then rows grouped into horizontal bands by edge density. It
// serves pages whose DOM says little (canvas apps, rasterised documents).
type VisualDetector struct {
	EdgeThreshold float64 // gradient magnitude threshold
	MinCoverage   float64 // fraction of a row that must be edges
	GapTolerance  int     // quiet rows allowed inside one band (image px)
	MinBandHeight int     // image px
}

// NewVisualDetector creates a visual detector with default settings
func NewVisualDetector() *VisualDetector {
	return &VisualDetector{
		EdgeThreshold: 30.0,
		MinCoverage:   0.01,
		GapTolerance:  24,
		MinBandHeight: 16,
	}
}

func (d *VisualDetector) Detect(ctx context.Context, page Page) ([]Element, error) {
	snap, ok := page.(Snapshotter)
	if !ok {
		return nil, ErrNoSnapshot
	}
	img, meta, err := snap.SnapshotContent(ctx)
	if err != nil {
		return nil, err
	}
	ppu := meta.PixelsPerUnit
	if ppu <= 0 {
		ppu = 1
	}

	var elems []Element
	for _, r := range d.bands(img) {
		elems = append(elems, Element{
			Tag:     "region",
			Top:     float64(r.Min.Y-img.Bounds().Min.Y) / ppu,
			Left:    float64(r.Min.X-img.Bounds().Min.X) / ppu,
			Width:   float64(r.Dx()) / ppu,
			Height:  float64(r.Dy()) / ppu,
			ScrollY: meta.ScrollY,
		})
	}
	return elems, nil
}

// bands returns the bounding boxes of edge-dense horizontal bands.
func (d *VisualDetector) bands(img image.Image) []image.Rectangle {
	gray := toGray(img)
	b := gray.Bounds()
	w := b.Dx()
	if w < 3 || b.Dy() < 3 {
		return nil
	}

	type row struct {
		count      int
		minX, maxX int
	}
	rows := make([]row, b.Dy())
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		r := row{minX: b.Max.X, maxX: b.Min.X}
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			if sobel(gray, x, y) > d.EdgeThreshold {
				r.count++
				if x < r.minX {
					r.minX = x
				}
				if x > r.maxX {
					r.maxX = x
				}
			}
		}
		rows[y-b.Min.Y] = r
	}

	minCount := int(math.Ceil(d.MinCoverage * float64(w)))
	if minCount < 1 {
		minCount = 1
	}

	var out []image.Rectangle
	var cur image.Rectangle
	open, quiet := false, 0
	flush := func() {
		if open && cur.Dy() >= d.MinBandHeight {
			out = append(out, cur)
		}
		open, quiet = false, 0
	}

	for i, r := range rows {
		y := b.Min.Y + i
		if r.count < minCount {
			if open {
				quiet++
				if quiet > d.GapTolerance {
					flush()
				}
			}
			continue
		}
		if !open {
			cur = image.Rect(r.minX, y, r.maxX+1, y+1)
			open = true
		} else {
			cur = cur.Union(image.Rect(r.minX, y, r.maxX+1, y+1))
		}
		quiet = 0
	}
	flush()
	return out
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(img.At(x, y)))
		}
	}
	return gray
}

// sobel returns the gradient magnitude at (x, y).
func sobel(g *image.Gray, x, y int) float64 {
	p := func(dx, dy int) float64 { return float64(g.GrayAt(x+dx, y+dy).Y) }
	gx := -p(-1, -1) + p(1, -1) - 2*p(-1, 0) + 2*p(1, 0) - p(-1, 1) + p(1, 1)
	gy := -p(-1, -1) - 2*p(0, -1) - p(1, -1) + p(-1, 1) + 2*p(0, 1) + p(1, 1)
	return math.Sqrt(gx*gx + gy*gy)
}
