// Package browser drives Chrome through the DevTools protocol: it opens the
// presentation page, moves the pointer, scrolls the framed content and
// streams screencast frames for the recorder.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chromedp/chromedp"
)

// MobileUserAgent is sent when content is recorded as a phone would see it.
const MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 " +
	"(KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

// Options configure a browser instance.
type Options struct {
	Width, Height int // canvas, equals the window size
	ChromePath    string
	Headless      bool
	// CrossOrigin relaxes same-origin checks and strips frame-blocking
	// headers so remote sites can be framed and scripted.
	CrossOrigin bool
	UserAgent   string
	Logger      *slog.Logger
}

// Browser is one Chrome process.
type Browser struct {
	opts        Options
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
	log         *slog.Logger
}

// Launch starts Chrome. The process lives until Close or until ctx ends.
func Launch(ctx context.Context, opts Options) (*Browser, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("window %dx%d must be positive", opts.Width, opts.Height)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	flags := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
		chromedp.Flag("force-device-scale-factor", "1"),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ChromePath != "" {
		flags = append(flags, chromedp.ExecPath(opts.ChromePath))
	}
	if opts.UserAgent != "" {
		flags = append(flags, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.CrossOrigin {
		flags = append(flags,
			chromedp.Flag("disable-web-security", true),
			chromedp.Flag("disable-site-isolation-trials", true),
			chromedp.Flag("disable-features", "IsolateOrigins,site-per-process"),
		)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, flags...)
	bctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...), "source", "cdp")
		}),
	)
	// The first Run starts the process.
	if err := chromedp.Run(bctx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &Browser{
		opts:        opts,
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		ctx:         bctx,
		cancel:      cancel,
		log:         logger,
	}, nil
}

// NewPage opens a tab sized to the canvas.
func (b *Browser) NewPage(ctx context.Context) (*Page, error) {
	tctx, cancel := chromedp.NewContext(b.ctx)
	p := newPage(tctx, cancel, b.opts, b.log)
	if err := p.init(ctx); err != nil {
		cancel()
		return nil, err
	}
	return p, nil
}

// Close stops Chrome.
func (b *Browser) Close() error {
	b.cancel()
	b.cancelAlloc()
	if err := b.ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
