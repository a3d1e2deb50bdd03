package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ivlev/site2video/internal/analyzer"
	"github.com/ivlev/site2video/internal/browser"
	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/director"
	"github.com/ivlev/site2video/internal/effects"
	"github.com/ivlev/site2video/internal/geometry"
	"github.com/ivlev/site2video/internal/layout"
	"github.com/ivlev/site2video/internal/logging"
	"github.com/ivlev/site2video/internal/motion"
	"github.com/ivlev/site2video/internal/source"
	"github.com/ivlev/site2video/internal/system"
	"github.com/ivlev/site2video/internal/video"
)

// ErrContentUnavailable is returned when a job's input cannot be resolved
// or the page showing it cannot be opened.
var ErrContentUnavailable = errors.New("content unavailable")

// networkIdle is how long the network must stay quiet after the load signal.
const networkIdle = 500 * time.Millisecond

// Result describes one finished recording.
type Result struct {
	JobID      string
	Output     string
	Plan       *director.Plan
	Report     *director.Report
	Stats      video.Stats
	Targets    int
	LoadFailed bool // content never signalled readiness
	TimedOut   bool // choreography was cut at its deadline
	PlanPath   string
	Elapsed    time.Duration
}

// Engine records jobs. One Engine may run several jobs concurrently; every
// job gets its own server, browser and encoder.
type Engine struct {
	Config     *config.Config
	Resolver   *source.Resolver
	Launch     Launcher
	NewCapture CaptureFactory
	Clock      motion.Clock
	Log        *slog.Logger
	Out        io.Writer // progress lines
}

// New wires the engine with Chrome and ffmpeg.
func New(cfg *config.Config, log *slog.Logger, out io.Writer) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		Config:     cfg,
		Resolver:   source.NewResolver(filepath.Join(os.TempDir(), "site2video")),
		Launch:     LaunchChrome,
		NewCapture: NewFFmpegCapture,
		Clock:      motion.SystemClock{},
		Log:        log,
		Out:        out,
	}
}

func (e *Engine) printf(format string, args ...any) {
	fmt.Fprintf(e.Out, format, args...)
}

// Record performs one job end to end: resolve and serve the content, frame
// it, capture the canvas while the choreography runs, then publish the video
// at job.Output. Load failures, an empty scan and a choreography timeout are
// logged and tolerated; anything that prevents a valid video is an error.
func (e *Engine) Record(ctx context.Context, job config.Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	cfg := e.Config
	log := logging.Job(e.Log, job.ID, job.Source)
	started := time.Now()
	res := &Result{JobID: job.ID, Output: job.Output}

	content, err := e.Resolver.Resolve(ctx, job.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	}
	e.printf("[*] Source: %s | %s\n", job.Source, content.Kind)

	srv := source.NewServer(content)
	if err := srv.Start(); err != nil {
		return nil, fmt.Errorf("start content server: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Close(sctx)
	}()

	overlay := content.Metadata.Overlay.Merge(job.Overlay).Normalize()
	lay, err := layout.New(layout.Options{
		Width:        cfg.Width,
		Height:       cfg.Height,
		ContentWidth: cfg.ContentWidth,
		ContentURL:   content.FrameURL(),
		Overlay:      overlay,
		Debug:        cfg.Debug,
	})
	if err != nil {
		return nil, err
	}
	html, err := lay.HTML()
	if err != nil {
		return nil, fmt.Errorf("render presentation: %w", err)
	}
	srv.SetPage(html)

	userAgent := ""
	if cfg.Mobile {
		userAgent = browser.MobileUserAgent
	}
	backend, err := e.Launch(ctx, browser.Options{
		Width:       cfg.Width,
		Height:      cfg.Height,
		ChromePath:  cfg.ChromePath,
		Headless:    cfg.Headless,
		CrossOrigin: content.Remote(),
		UserAgent:   userAgent,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	defer backend.Close()

	page, err := backend.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	params := config.EncodeParams{
		Width:   cfg.Width,
		Height:  cfg.Height,
		FPS:     cfg.FPS,
		Encoder: cfg.VideoEncoder,
		Quality: cfg.Quality,
	}
	params.Filter = (&effects.DefaultEffect{Debug: cfg.Debug}).GenerateFilter(params)
	capture := e.NewCapture(params, filepath.Dir(job.Output), log)
	if err := capture.Start(ctx); err != nil {
		return nil, fmt.Errorf("start capture: %w", err)
	}
	stopped := false
	defer func() {
		if !stopped {
			capture.Stop()
			capture.Discard()
		}
	}()
	if err := page.StartScreencast(ctx, capture.Submit); err != nil {
		return nil, fmt.Errorf("start screencast: %w", err)
	}

	if res.LoadFailed, err = e.load(ctx, page, srv.PageURL(), log); err != nil {
		return nil, err
	}
	if err := e.Clock.Sleep(ctx, seconds(cfg.SettleDelay)); err != nil {
		return nil, err
	}

	mapper, docHeight, err := e.measure(ctx, page, lay, log)
	if err != nil {
		return nil, err
	}
	pois := e.scan(ctx, page, log)
	res.Targets = len(pois)
	e.printf("[*] Page %.0fpx, viewport %.0fpx, %d targets\n", docHeight, mapper.ViewportHeight(), len(pois))

	d := NewDirector(cfg, job.Seed)
	plan, err := d.Plan(job.Budget, pois, docHeight, mapper.ViewportHeight())
	if err != nil {
		return nil, fmt.Errorf("plan choreography: %w", err)
	}
	res.Plan = plan

	offset := capture.Elapsed().Seconds()
	dctx, cancel := context.WithTimeout(ctx, seconds(job.Budget)+d.TimeoutMargin)
	report, err := d.Run(dctx, plan, director.Stage{
		Driver: page,
		Mapper: mapper,
		POIs:   pois,
		Clock:  e.Clock,
		Logger: log,
	})
	cancel()
	res.Report = report
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, director.ErrTimeout):
		res.TimedOut = true
		log.Warn("choreography timed out, keeping partial recording", "err", err)
		e.printf("[!] Choreography cut at its deadline\n")
	case err != nil:
		return nil, fmt.Errorf("choreography: %w", err)
	}

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := page.StopScreencast(sctx); err != nil {
		log.Debug("stop screencast", "err", err)
	}
	scancel()

	stopped = true
	res.Stats, err = capture.Stop()
	if err != nil {
		log.Warn("encoder reported an error", "err", err)
	}
	post := video.Post{Audio: job.Audio}
	if cfg.Debug {
		post.Filter = effects.NewActLabels(report, offset).GenerateFilter(params)
	}
	if err := capture.Finalize(job.Output, post); err != nil {
		return nil, err
	}

	if cfg.WritePlan {
		res.PlanPath = e.writePlan(plan, log)
	}
	res.Elapsed = time.Since(started)
	if cfg.ShowStats {
		e.printf("%s\n", PerformanceReport(cfg.BuildVersion, job, res, system.CollectHostStats(200*time.Millisecond)))
		appendBenchmark("benchmark.log", cfg.BuildVersion, job, res, log)
	}
	e.printf("[+++] Done: %s\n", job.Output)
	return res, nil
}

// load navigates and waits for the content. A page that never signals
// readiness is tolerated and reported; a page that cannot be opened at all
// fails the job.
func (e *Engine) load(ctx context.Context, page Page, url string, log *slog.Logger) (bool, error) {
	if err := page.Navigate(ctx, url); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, fmt.Errorf("%w: open %s: %w", ErrContentUnavailable, url, err)
	}
	if err := page.WaitContent(ctx, seconds(e.Config.LoadTimeout), networkIdle); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		log.Warn("content load failure, proceeding", "err", err)
		e.printf("[!] Content did not finish loading in %.0fs, recording anyway\n", e.Config.LoadTimeout)
		return true, nil
	}
	return false, nil
}

// measure reads the live geometry, falling back to the layout's own numbers
// and an unscrollable document when the page cannot report it.
func (e *Engine) measure(ctx context.Context, page Page, lay *layout.Layout, log *slog.Logger) (*geometry.Mapper, float64, error) {
	m, err := page.Metrics(ctx)
	if err == nil {
		var mapper *geometry.Mapper
		if mapper, err = geometry.NewMapper(m.Geometry()); err == nil {
			return mapper, m.DocHeight, nil
		}
	}
	log.Warn("cannot measure the page, using the designed layout", "err", err)
	mapper, err := geometry.NewMapper(lay.Geometry())
	if err != nil {
		return nil, 0, err
	}
	return mapper, mapper.ViewportHeight(), nil
}

func (e *Engine) scan(ctx context.Context, page Page, log *slog.Logger) []analyzer.PointOfInterest {
	det, err := analyzer.NewDetector(e.Config.Detector)
	if err != nil {
		log.Warn("bad detector, scrolling only", "err", err)
		return nil
	}
	scanner := analyzer.NewScanner(det)
	scanner.MaxTargets = e.Config.MaxTargets
	pois, err := scanner.Scan(ctx, page)
	if err != nil {
		log.Warn("target scan failed, scrolling only", "err", err)
		return nil
	}
	if len(pois) == 0 {
		log.Info("no targets found, scrolling only")
	}
	return pois
}

// NewDirector configures a director from the settings.
func NewDirector(cfg *config.Config, seed int64) *director.Director {
	d := director.NewDirector()
	d.FPS = cfg.FPS
	d.Intro = seconds(cfg.IntroDuration)
	d.Outro = seconds(cfg.OutroDuration)
	d.SafetyMargin = seconds(cfg.SafetyMargin)
	d.TimeoutMargin = seconds(cfg.TimeoutMargin)
	d.MinStops = cfg.MinStops
	d.ScrollMode = cfg.ScrollMode
	d.Seed = seed
	return d
}

func (e *Engine) writePlan(plan *director.Plan, log *slog.Logger) string {
	path := director.GeneratePlanPath(e.Config.PlansDir, time.Now())
	if err := director.WritePlan(plan, path); err != nil {
		log.Warn("cannot write plan", "path", path, "err", err)
		return ""
	}
	e.printf("[*] Plan saved: %s\n", path)
	return path
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
