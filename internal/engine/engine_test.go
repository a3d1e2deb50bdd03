package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/site2video/internal/analyzer"
	"github.com/ivlev/site2video/internal/browser"
	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/director"
	"github.com/ivlev/site2video/internal/geometry"
	"github.com/ivlev/site2video/internal/logging"
	"github.com/ivlev/site2video/internal/motion"
	"github.com/ivlev/site2video/internal/source"
	"github.com/ivlev/site2video/internal/system"
	"github.com/ivlev/site2video/internal/video"
)

// portrait is the measured layout of a 1080x1920 canvas with a 1024px
// content frame and a 6000px document.
var portrait = browser.Metrics{
	CanvasWidth:    1080,
	CanvasHeight:   1920,
	FrameX:         40,
	FrameY:         360,
	FrameWidth:     1000,
	FrameHeight:    1200,
	ContentWidth:   1024,
	ContentHeight:  1228.8,
	ViewportHeight: 1228.8,
	DocHeight:      6000,
}

type fakePage struct {
	*director.SimulatedPage
	clock     *motion.ManualClock
	moveCost  time.Duration
	navErr    error
	loadErr   error
	scanErr   error
	elements  []analyzer.Element
	navigated []string
	sink      browser.FrameSink
	closed    bool
}

func newFakePage(clock *motion.ManualClock) *fakePage {
	return &fakePage{
		SimulatedPage: director.NewSimulatedPage(clock, portrait.DocHeight-portrait.ViewportHeight),
		clock:         clock,
		elements: []analyzer.Element{
			{Tag: "h1", Text: "Hero", Top: 300, Left: 212, Width: 600, Height: 80},
			{Tag: "section", Class: "card", Top: 2000, Left: 100, Width: 400, Height: 300},
			{Tag: "a", Class: "btn", Text: "Start", Top: 5600, Left: 400, Width: 240, Height: 60, Filled: true},
		},
	}
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return p.navErr
}

func (p *fakePage) WaitContent(context.Context, time.Duration, time.Duration) error { return p.loadErr }

func (p *fakePage) Metrics(context.Context) (browser.Metrics, error) { return portrait, nil }

func (p *fakePage) StartScreencast(_ context.Context, sink browser.FrameSink) error {
	p.sink = sink
	return nil
}

func (p *fakePage) StopScreencast(context.Context) error { return nil }

func (p *fakePage) MovePointer(ctx context.Context, pt geometry.Point) error {
	p.clock.Advance(p.moveCost)
	return p.SimulatedPage.MovePointer(ctx, pt)
}

func (p *fakePage) Evaluate(_ context.Context, _ string, out any) error {
	if p.scanErr != nil {
		return p.scanErr
	}
	if elems, ok := out.(*[]analyzer.Element); ok {
		*elems = append([]analyzer.Element(nil), p.elements...)
	}
	return nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeBackend struct{ page *fakePage }

func (b fakeBackend) Open(context.Context) (Page, error) { return b.page, nil }

func (b fakeBackend) Close() error { return nil }

type fakeCapture struct {
	mu        sync.Mutex
	started   bool
	stopped   bool
	discarded bool
	post      video.Post
	missing   bool
}

func (c *fakeCapture) Start(context.Context) error {
	c.started = true
	return nil
}

func (c *fakeCapture) Submit([]byte, time.Time) {}

func (c *fakeCapture) Elapsed() time.Duration { return 1500 * time.Millisecond }

func (c *fakeCapture) Discard() { c.discarded = true }

func (c *fakeCapture) Stop() (video.Stats, error) {
	c.stopped = true
	return video.Stats{Frames: 900}, nil
}

func (c *fakeCapture) Finalize(dst string, post video.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.post = post
	if c.missing {
		return fmt.Errorf("%w: encoder produced nothing", video.ErrArtifactMissing)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("video"), 0644)
}

type harness struct {
	engine   *Engine
	page     *fakePage
	capture  *fakeCapture
	launched []browser.Options
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := config.Default()
	cfg.SettleDelay = 0.5
	cfg.LoadTimeout = 1

	clock := motion.NewManualClock(time.Unix(0, 0))
	h := &harness{page: newFakePage(clock), capture: &fakeCapture{}}
	h.engine = &Engine{
		Config:   cfg,
		Resolver: source.NewResolver(t.TempDir()),
		Launch: func(_ context.Context, opts browser.Options) (Backend, error) {
			h.launched = append(h.launched, opts)
			return fakeBackend{h.page}, nil
		},
		NewCapture: func(config.EncodeParams, string, *slog.Logger) Capture { return h.capture },
		Clock:      clock,
		Log:        logging.Discard(),
		Out:        &strings.Builder{},
	}
	return h
}

func siteDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	html := `<html><head><title>Acme</title></head><body><h1>Acme</h1><div style="height:6000px"></div></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(html), 0644))
	return dir
}

func testJob(t *testing.T, src string) config.Job {
	return config.NewJob(src, 30, config.DefaultOverlay(), filepath.Join(t.TempDir(), "out", "video.mp4"), 1)
}

func TestRecordScrollsWholePage(t *testing.T) {
	h := newHarness(t)
	job := testJob(t, siteDir(t))

	res, err := h.engine.Record(context.Background(), job)
	require.NoError(t, err)

	assert.FileExists(t, job.Output)
	assert.False(t, res.LoadFailed)
	assert.False(t, res.TimedOut)
	assert.Equal(t, 3, res.Targets)
	require.NotNil(t, res.Report)
	assert.InDelta(t, 4771.2, res.Report.ScrollAtGlideEnd, 1e-6)
	assert.LessOrEqual(t, res.Report.Elapsed, job.Budget+h.engine.Config.TimeoutMargin)

	require.Len(t, h.launched, 1)
	assert.False(t, h.launched[0].CrossOrigin)
	require.Len(t, h.page.navigated, 1)
	assert.True(t, strings.HasPrefix(h.page.navigated[0], "http://127.0.0.1:"))
	assert.NotNil(t, h.page.sink)
	assert.True(t, h.page.closed)
	assert.True(t, h.capture.stopped)
	assert.False(t, h.capture.discarded)
	assert.Empty(t, h.capture.post.Filter)
}

func TestRecordWhenLoadNeverFinishes(t *testing.T) {
	h := newHarness(t)
	h.page.loadErr = fmt.Errorf("%w after 1s", browser.ErrNotLoaded)
	job := testJob(t, siteDir(t))

	res, err := h.engine.Record(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, res.LoadFailed)
	assert.FileExists(t, job.Output)
	assert.InDelta(t, 4771.2, res.Report.FinalScrollY, 1e-6)
}

func TestRecordFailsWhenPageCannotOpen(t *testing.T) {
	h := newHarness(t)
	h.page.navErr = errors.New("net::ERR_CONNECTION_REFUSED")
	job := testJob(t, siteDir(t))

	res, err := h.engine.Record(context.Background(), job)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrContentUnavailable))
	assert.True(t, h.capture.discarded)
	assert.NoFileExists(t, job.Output)
}

func TestRecordWithoutTargets(t *testing.T) {
	h := newHarness(t)
	h.page.scanErr = errors.New("script threw")
	job := testJob(t, siteDir(t))

	res, err := h.engine.Record(context.Background(), job)
	require.NoError(t, err)
	assert.Zero(t, res.Targets)
	assert.Zero(t, res.Report.Visited)
	assert.InDelta(t, 4771.2, res.Report.ScrollAtGlideEnd, 1e-6)
}

func TestRecordTimeoutStillPublishes(t *testing.T) {
	h := newHarness(t)
	h.page.moveCost = 5 * time.Second
	job := testJob(t, siteDir(t))

	res, err := h.engine.Record(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.True(t, res.Report.TimedOut)
	assert.FileExists(t, job.Output)
}

func TestRecordArtifactMissing(t *testing.T) {
	h := newHarness(t)
	h.capture.missing = true
	job := testJob(t, siteDir(t))

	_, err := h.engine.Record(context.Background(), job)
	assert.True(t, errors.Is(err, video.ErrArtifactMissing))
	assert.NoFileExists(t, job.Output)
}

func TestRecordUnresolvableContent(t *testing.T) {
	h := newHarness(t)
	job := testJob(t, filepath.Join(t.TempDir(), "missing"))

	_, err := h.engine.Record(context.Background(), job)
	assert.True(t, errors.Is(err, ErrContentUnavailable))
	assert.True(t, errors.Is(err, source.ErrUnresolvable))
	assert.Empty(t, h.launched)
}

func TestRecordDebugAddsActLabels(t *testing.T) {
	if !system.CheckFilterSupport("drawtext") {
		t.Skip("ffmpeg without drawtext")
	}
	h := newHarness(t)
	h.engine.Config.Debug = true

	_, err := h.engine.Record(context.Background(), testJob(t, siteDir(t)))
	require.NoError(t, err)
	assert.Contains(t, h.capture.post.Filter, "between(t,1.500,")
}

func TestRecordRejectsInvalidJob(t *testing.T) {
	h := newHarness(t)
	job := testJob(t, siteDir(t))
	job.Budget = 0
	_, err := h.engine.Record(context.Background(), job)
	assert.True(t, errors.Is(err, config.ErrInvalidConfig))
}

func TestRunBatchContinuesAfterFailure(t *testing.T) {
	h := newHarness(t)
	good := testJob(t, siteDir(t))
	bad := testJob(t, filepath.Join(t.TempDir(), "missing"))
	done := testJob(t, siteDir(t))
	require.NoError(t, os.MkdirAll(filepath.Dir(done.Output), 0755))
	require.NoError(t, os.WriteFile(done.Output, []byte("old"), 0644))

	results := h.engine.RunBatch(context.Background(), []config.Job{bad, good, done}, 1, true)
	require.Len(t, results, 3)

	assert.True(t, errors.Is(results[0].Err, ErrContentUnavailable))
	assert.NoError(t, results[1].Err)
	assert.FileExists(t, good.Output)
	assert.True(t, results[2].Skipped)
	assert.Nil(t, results[2].Result)
}

func TestPerformanceReport(t *testing.T) {
	job := config.Job{Source: "https://acme.example", Budget: 30}
	res := &Result{
		Output:   "output/acme.mp4",
		Elapsed:  42 * time.Second,
		Targets:  4,
		TimedOut: true,
		Plan:     &director.Plan{MaxScroll: 4080},
		Report:   &director.Report{Elapsed: 29.5, Visited: 3, FinalScrollY: 4080},
		Stats:    video.Stats{Frames: 900, Updates: 600},
	}
	out := PerformanceReport("dev", job, res, system.HostStats{Platform: "linux", CPUs: 8})
	for _, want := range []string{"PERFORMANCE REPORT", "acme.mp4", "42.00s", "900 (600 updates, 0 dropped)", "4080px of 4080px", "deadline"} {
		assert.Contains(t, out, want)
	}
}
