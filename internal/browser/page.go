package browser

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/ivlev/site2video/internal/analyzer"
	"github.com/ivlev/site2video/internal/geometry"
)

// ErrNotLoaded is returned by WaitContent when the content never signalled
// readiness within the timeout. Callers may carry on.
var ErrNotLoaded = errors.New("content did not finish loading")

// FrameSink receives encoded screencast frames.
type FrameSink func(jpeg []byte, at time.Time)

type screencastFrame struct {
	data string // base64 JPEG as sent by the browser
	at   time.Time
}

// Metrics is the live layout reported by the presentation helper.
type Metrics struct {
	CanvasWidth    float64 `json:"canvasWidth"`
	CanvasHeight   float64 `json:"canvasHeight"`
	FrameX         float64 `json:"frameX"`
	FrameY         float64 `json:"frameY"`
	FrameWidth     float64 `json:"frameWidth"`
	FrameHeight    float64 `json:"frameHeight"`
	ContentWidth   float64 `json:"contentWidth"`
	ContentHeight  float64 `json:"contentHeight"`
	ViewportHeight float64 `json:"viewportHeight"`
	DocHeight      float64 `json:"docHeight"`
}

// Geometry derives the viewport geometry from the measured frame.
func (m Metrics) Geometry() geometry.ViewportGeometry {
	scale := 0.0
	if m.ContentWidth > 0 {
		scale = m.FrameWidth / m.ContentWidth
	}
	h := m.ViewportHeight
	if h <= 0 {
		h = m.ContentHeight
	}
	return geometry.ViewportGeometry{
		CanvasWidth:  m.CanvasWidth,
		CanvasHeight: m.CanvasHeight,
		FrameOffset:  geometry.Point{X: m.FrameX, Y: m.FrameY},
		FrameScale:   scale,
		ContentSize:  geometry.Size{W: m.ContentWidth, H: h},
	}
}

// Page is one tab showing the presentation.
type Page struct {
	ctx    context.Context // chromedp tab context
	cancel context.CancelFunc
	opts   Options
	log    *slog.Logger

	mu       sync.Mutex
	inflight map[network.RequestID]bool
	lastNet  time.Time
	frames   chan screencastFrame // newest undelivered frame; nil when not casting
	drained  chan struct{}
}

func newPage(ctx context.Context, cancel context.CancelFunc, opts Options, log *slog.Logger) *Page {
	return &Page{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		log:      log,
		inflight: make(map[network.RequestID]bool),
		lastNet:  time.Now(),
	}
}

func (p *Page) init(ctx context.Context) error {
	chromedp.ListenTarget(p.ctx, p.onEvent)

	actions := []chromedp.Action{
		network.Enable(),
		chromedp.EmulateViewport(int64(p.opts.Width), int64(p.opts.Height)),
	}
	if p.opts.CrossOrigin {
		actions = append(actions, fetch.Enable().WithPatterns([]*fetch.RequestPattern{{
			URLPattern:   "*",
			ResourceType: network.ResourceTypeDocument,
			RequestStage: fetch.RequestStageResponse,
		}}))
	}
	return p.run(ctx, actions...)
}

// run executes actions on the tab, aborting them when ctx ends.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(rctx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *Page) onEvent(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		p.mu.Lock()
		p.inflight[e.RequestID] = true
		p.lastNet = time.Now()
		p.mu.Unlock()
	case *network.EventLoadingFinished:
		p.settle(e.RequestID)
	case *network.EventLoadingFailed:
		p.settle(e.RequestID)
	case *fetch.EventRequestPaused:
		go p.unblockFrame(e)
	case *page.EventScreencastFrame:
		// Command responses share this goroutine, so nothing here may block.
		go func() {
			if err := chromedp.Run(p.ctx, page.ScreencastFrameAck(e.SessionID)); err != nil {
				p.log.Debug("screencast ack failed", "err", err)
			}
		}()
		at := time.Now()
		if e.Metadata != nil && e.Metadata.Timestamp != nil {
			at = e.Metadata.Timestamp.Time()
		}
		p.offer(screencastFrame{data: e.Data, at: at})
	}
}

// offer hands f to the decoder, replacing a frame it has not picked up yet.
func (p *Page) offer(f screencastFrame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frames == nil {
		return
	}
	for {
		select {
		case p.frames <- f:
			return
		default:
		}
		select {
		case <-p.frames:
		default:
		}
	}
}

func (p *Page) startFrames(sink FrameSink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frames != nil {
		return
	}
	frames := make(chan screencastFrame, 1)
	drained := make(chan struct{})
	p.frames, p.drained = frames, drained

	go func() {
		defer close(drained)
		for f := range frames {
			data, err := base64.StdEncoding.DecodeString(f.data)
			if err != nil {
				p.log.Debug("bad screencast frame", "err", err)
				continue
			}
			sink(data, f.at)
		}
	}()
}

// stopFrames delivers the pending frame, if any, and returns once the sink
// will not be called again.
func (p *Page) stopFrames() {
	p.mu.Lock()
	frames, drained := p.frames, p.drained
	p.frames, p.drained = nil, nil
	p.mu.Unlock()
	if frames == nil {
		return
	}
	close(frames)
	<-drained
}

func (p *Page) settle(id network.RequestID) {
	p.mu.Lock()
	delete(p.inflight, id)
	p.lastNet = time.Now()
	p.mu.Unlock()
}

// unblockFrame drops the headers that forbid framing a remote document.
func (p *Page) unblockFrame(e *fetch.EventRequestPaused) {
	var headers []*fetch.HeaderEntry
	for _, h := range e.ResponseHeaders {
		switch strings.ToLower(h.Name) {
		case "x-frame-options", "content-security-policy", "content-security-policy-report-only":
			continue
		}
		headers = append(headers, h)
	}
	action := fetch.ContinueResponse(e.RequestID)
	if e.ResponseStatusCode != 0 {
		action = action.WithResponseHeaders(headers)
	}
	if err := chromedp.Run(p.ctx, action); err != nil {
		p.log.Debug("continue response failed", "url", e.Request.URL, "err", err)
	}
}

// Navigate loads url and waits for the top document's load event.
func (p *Page) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

// WaitContent waits until the framed content reports complete and the
// network has been quiet for idle. It gives up after timeout with ErrNotLoaded.
func (p *Page) WaitContent(ctx context.Context, timeout, idle time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	loaded := false
	for {
		if !loaded {
			var ok bool
			if err := p.Evaluate(ctx, "window.__s2v ? window.__s2v.loaded() : document.readyState === 'complete'", &ok); err == nil {
				loaded = ok
			}
		}
		if loaded && p.networkIdle(idle) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w after %s", ErrNotLoaded, timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Page) networkIdle(quiet time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight) == 0 && time.Since(p.lastNet) >= quiet
}

// Evaluate runs a script and decodes its JSON result into out (nil ignores it).
func (p *Page) Evaluate(ctx context.Context, script string, out any) error {
	return p.run(ctx, chromedp.Evaluate(script, out))
}

// MovePointer dispatches a real mouse move and moves the drawn cursor.
func (p *Page) MovePointer(ctx context.Context, pt geometry.Point) error {
	return p.run(ctx,
		chromedp.MouseEvent(input.MouseMoved, pt.X, pt.Y),
		chromedp.Evaluate(fmt.Sprintf("window.__s2v.cursor(%.2f,%.2f)", pt.X, pt.Y), nil),
	)
}

func (p *Page) ScrollTo(ctx context.Context, y float64) error {
	return p.Evaluate(ctx, fmt.Sprintf("window.__s2v.scrollTo(%.2f)", y), nil)
}

func (p *Page) ScrollY(ctx context.Context) (float64, error) {
	var y float64
	err := p.Evaluate(ctx, "window.__s2v.scrollY()", &y)
	return y, err
}

// Metrics measures the presentation and the content document.
func (p *Page) Metrics(ctx context.Context) (Metrics, error) {
	var m Metrics
	if err := p.Evaluate(ctx, "window.__s2v.metrics()", &m); err != nil {
		return m, fmt.Errorf("measure layout: %w", err)
	}
	return m, nil
}

// SnapshotContent captures the content frame as it appears on the canvas.
func (p *Page) SnapshotContent(ctx context.Context) (image.Image, analyzer.Snapshot, error) {
	m, err := p.Metrics(ctx)
	if err != nil {
		return nil, analyzer.Snapshot{}, err
	}
	y, err := p.ScrollY(ctx)
	if err != nil {
		return nil, analyzer.Snapshot{}, err
	}

	var buf []byte
	err = p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(&page.Viewport{X: m.FrameX, Y: m.FrameY, Width: m.FrameWidth, Height: m.FrameHeight, Scale: 1}).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, analyzer.Snapshot{}, fmt.Errorf("capture content: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, analyzer.Snapshot{}, err
	}
	return img, analyzer.Snapshot{ScrollY: y, PixelsPerUnit: m.Geometry().FrameScale}, nil
}

// StartScreencast streams JPEG frames of the canvas into sink.
func (p *Page) StartScreencast(ctx context.Context, sink FrameSink) error {
	p.startFrames(sink)
	return p.run(ctx, page.StartScreencast().
		WithFormat(page.ScreencastFormatJpeg).
		WithQuality(92).
		WithMaxWidth(int64(p.opts.Width)).
		WithMaxHeight(int64(p.opts.Height)).
		WithEveryNthFrame(1))
}

func (p *Page) StopScreencast(ctx context.Context) error {
	err := p.run(ctx, page.StopScreencast())
	p.stopFrames()
	return err
}

// Close closes the tab.
func (p *Page) Close() error {
	p.stopFrames()
	p.cancel()
	return nil
}
