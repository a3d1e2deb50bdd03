package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/ivlev/site2video/internal/browser"
	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/geometry"
	"github.com/ivlev/site2video/internal/video"
)

// Page is what a recording needs from a browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitContent(ctx context.Context, timeout, idle time.Duration) error
	Metrics(ctx context.Context) (browser.Metrics, error)
	StartScreencast(ctx context.Context, sink browser.FrameSink) error
	StopScreencast(ctx context.Context) error

	// motion.Driver
	MovePointer(ctx context.Context, p geometry.Point) error
	ScrollTo(ctx context.Context, y float64) error
	ScrollY(ctx context.Context) (float64, error)

	// analyzer.Page
	Evaluate(ctx context.Context, script string, out any) error

	Close() error
}

// Backend is one isolated browser session.
type Backend interface {
	Open(ctx context.Context) (Page, error)
	Close() error
}

// Launcher starts a backend for a canvas.
type Launcher func(ctx context.Context, opts browser.Options) (Backend, error)

// Capture turns screencast frames into a published video file.
type Capture interface {
	Start(ctx context.Context) error
	Submit(jpeg []byte, at time.Time)
	Elapsed() time.Duration
	Stop() (video.Stats, error)
	Finalize(dst string, post video.Post) error
	Discard()
}

// CaptureFactory creates the capture for one job. dir holds its temporary file.
type CaptureFactory func(params config.EncodeParams, dir string, log *slog.Logger) Capture

// LaunchChrome is the chromedp-backed Launcher.
func LaunchChrome(ctx context.Context, opts browser.Options) (Backend, error) {
	b, err := browser.Launch(ctx, opts)
	if err != nil {
		return nil, err
	}
	return chromeBackend{b}, nil
}

type chromeBackend struct{ *browser.Browser }

func (c chromeBackend) Open(ctx context.Context) (Page, error) {
	p, err := c.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewFFmpegCapture is the ffmpeg-backed CaptureFactory.
func NewFFmpegCapture(params config.EncodeParams, dir string, log *slog.Logger) Capture {
	return video.NewRecorder(params, dir, log)
}
