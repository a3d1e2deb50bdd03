package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage answers Evaluate with canned elements and optionally snapshots.
type fakePage struct {
	elems  []Element
	err    error
	script string
}

func (p *fakePage) Evaluate(_ context.Context, script string, out any) error {
	p.script = script
	if p.err != nil {
		return p.err
	}
	data, err := json.Marshal(p.elems)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

type snapPage struct {
	fakePage
	img  image.Image
	meta Snapshot
}

func (p *snapPage) SnapshotContent(context.Context) (image.Image, Snapshot, error) {
	return p.img, p.meta, nil
}

func TestVisualDetector(t *testing.T) {
	// Light page with two dark blocks far apart.
	img := image.NewGray(image.Rect(0, 0, 200, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 200; x++ {
			img.SetGray(x, y, color.Gray{Y: 240})
		}
	}
	drawRect(img, 20, 30, 180, 90, color.Gray{Y: 40})
	drawRect(img, 50, 250, 150, 350, color.Gray{Y: 60})

	page := &snapPage{img: img, meta: Snapshot{ScrollY: 1000, PixelsPerUnit: 2}}
	elems, err := NewVisualDetector().Detect(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, elems, 2)

	assert.InDelta(t, 15, elems[0].Top, 1.5)
	assert.InDelta(t, 10, elems[0].Left, 1.5)
	assert.Equal(t, 1000.0, elems[0].ScrollY)
	assert.InDelta(t, 125, elems[1].Top, 1.5)

	for i, e := range elems {
		t.Logf("Band %d: top=%.1f left=%.1f %.1fx%.1f", i, e.Top, e.Left, e.Width, e.Height)
	}
}

func TestVisualDetectorNeedsSnapshots(t *testing.T) {
	_, err := NewVisualDetector().Detect(context.Background(), &fakePage{})
	assert.True(t, errors.Is(err, ErrNoSnapshot))
}

func TestDetectorRegistry(t *testing.T) {
	tests := []struct {
		variant string
		wantErr bool
	}{
		{"dom", false},
		{"", false}, // default
		{"visual", false},
		{"hybrid", false},
		{"ocr", true},
		{"invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			detector, err := NewDetector(tt.variant)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, detector)
		})
	}
}

func TestDOMDetectorPassesSelector(t *testing.T) {
	page := &fakePage{elems: []Element{{Tag: "h1", Width: 300, Height: 40}}}
	elems, err := NewDOMDetector().Detect(context.Background(), page)
	require.NoError(t, err)
	assert.Len(t, elems, 1)
	assert.True(t, strings.Contains(page.script, "h1, h2, h3"))
	assert.True(t, strings.Contains(page.script, "__s2v"))
}

func TestFallbackDetector(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	drawRect(img, 10, 10, 90, 60, color.Gray{Y: 255})
	page := &snapPage{img: img, meta: Snapshot{PixelsPerUnit: 1}}

	det, err := NewDetector("hybrid")
	require.NoError(t, err)
	elems, err := det.Detect(context.Background(), page)
	require.NoError(t, err)
	require.NotEmpty(t, elems)
	assert.Equal(t, "region", elems[0].Tag)
}

func TestScannerDedup(t *testing.T) {
	s := NewScanner(NewDOMDetector())

	// Two targets 150px apart collapse into one; the third survives.
	pois := s.Select([]Element{
		{Tag: "h2", Top: 100, Width: 400, Height: 40},
		{Tag: "h2", Top: 250, Width: 400, Height: 40},
		{Tag: "h2", Top: 900, Width: 400, Height: 40},
	})
	require.Len(t, pois, 2)
	assert.Equal(t, 100.0, pois[0].AbsoluteY)
	assert.Equal(t, 900.0, pois[1].AbsoluteY)
}

func TestScannerDedupPrefersImportantTargets(t *testing.T) {
	s := NewScanner(NewDOMDetector())

	pois := s.Select([]Element{
		{Tag: "a", Text: "Menu", Top: 60, Left: 20, Width: 120, Height: 30},
		{Tag: "h1", Text: "Hero", Top: 180, Left: 100, Width: 600, Height: 80},
		{Tag: "a", Text: "Pricing", Top: 5550, Left: 20, Width: 140, Height: 30},
		{Tag: "a", Class: "btn", Text: "Start", Top: 5600, Left: 400, Width: 240, Height: 60},
		{Tag: "a", Text: "Terms", Top: 5700, Left: 20, Width: 100, Height: 30},
	})
	require.Len(t, pois, 2)
	assert.Equal(t, KindHeading, pois[0].Kind)
	assert.Equal(t, 180.0, pois[0].AbsoluteY)
	assert.Equal(t, KindButton, pois[1].Kind)
	assert.Equal(t, 5600.0, pois[1].AbsoluteY)

	// every pair of survivors stays a tolerance apart
	for i := 1; i < len(pois); i++ {
		assert.GreaterOrEqual(t, pois[i].AbsoluteY-pois[i-1].AbsoluteY, s.DedupTolerance)
	}
}

func TestScannerAbsoluteYAndOrdering(t *testing.T) {
	s := NewScanner(NewDOMDetector())
	pois := s.Select([]Element{
		{Tag: "img", Top: 100, Left: 0, Width: 500, Height: 300, ScrollY: 2000},
		{Tag: "h1", Top: 50, Left: 100, Width: 600, Height: 60, ScrollY: 0},
	})
	require.Len(t, pois, 2)
	assert.Equal(t, 50.0, pois[0].AbsoluteY)
	assert.Equal(t, 400.0, pois[0].X)
	assert.Equal(t, KindHeading, pois[0].Kind)
	assert.Equal(t, 2100.0, pois[1].AbsoluteY)
	assert.Equal(t, KindMedia, pois[1].Kind)
}

func TestScannerDropsSmallElements(t *testing.T) {
	s := NewScanner(NewDOMDetector())
	pois := s.Select([]Element{
		{Tag: "svg", Top: 10, Width: 24, Height: 24},
		{Tag: "a", Top: 600, Width: 300, Height: 12},
	})
	assert.Empty(t, pois)
}

func TestScannerCapKeepsImportantTargets(t *testing.T) {
	s := NewScanner(NewDOMDetector())
	s.MaxTargets = 3

	var elems []Element
	for i := 0; i < 8; i++ {
		tag := "a"
		if i%3 == 0 {
			tag = "button"
		}
		elems = append(elems, Element{Tag: tag, Top: float64(i * 500), Width: 200, Height: 40})
	}
	pois := s.Select(elems)
	require.Len(t, pois, 3)
	for i, p := range pois {
		assert.Equal(t, KindButton, p.Kind)
		if i > 0 {
			assert.Greater(t, p.AbsoluteY, pois[i-1].AbsoluteY)
		}
	}
}

func TestScanPropagatesDetectorErrors(t *testing.T) {
	s := NewScanner(NewDOMDetector())
	_, err := s.Scan(context.Background(), &fakePage{err: errors.New("boom")})
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		elem Element
		want Kind
	}{
		{Element{Tag: "h2"}, KindHeading},
		{Element{Tag: "button"}, KindButton},
		{Element{Tag: "a", Class: "nav-link"}, KindGeneric},
		{Element{Tag: "a", Class: "Btn-primary"}, KindButton},
		{Element{Tag: "a", Filled: true}, KindButton},
		{Element{Tag: "div", Role: "button"}, KindButton},
		{Element{Tag: "div", Class: "pricing-card"}, KindCard},
		{Element{Tag: "article"}, KindCard},
		{Element{Tag: "video"}, KindMedia},
		{Element{Tag: "region", Height: 300}, KindMedia},
		{Element{Tag: "region", Height: 40}, KindGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.elem), "%+v", tt.elem)
	}
}

func TestVisible(t *testing.T) {
	pois := []PointOfInterest{
		{AbsoluteY: 100},
		{AbsoluteY: 1500, Visited: true},
		{AbsoluteY: 1900},
		{AbsoluteY: 3000},
	}
	assert.Equal(t, []int{2}, Visible(pois, 1000, 1200))
	assert.Equal(t, []int{0}, Visible(pois, 0, 1200))
	assert.Empty(t, Visible(pois, 5000, 1200))
}

func drawRect(img *image.Gray, x1, y1, x2, y2 int, c color.Gray) {
	for y := y1; y < y2; y++ {
		for x := x1; x < x2; x++ {
			img.SetGray(x, y, c)
		}
	}
}
