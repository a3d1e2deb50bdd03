package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/system"
)

// ErrArtifactMissing means the encoder produced no playable file.
var ErrArtifactMissing = errors.New("video artifact missing")

// Stats describes a finished capture.
type Stats struct {
	Frames    int     // frames written to the encoder
	Updates   int     // screencast frames received
	Dropped   int     // screencast frames that failed to decode
	Duration  float64 // seconds of video
	Temporary string
}

// Recorder feeds a constant-rate raw RGBA stream to an ffmpeg child. Incoming
// screencast frames replace the current picture; every tick repeats the
// newest one, so the video keeps wall-clock time however often the browser
// paints.
type Recorder struct {
	params config.EncodeParams
	tmp    string
	log    *slog.Logger
	bin    string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer

	mu      sync.Mutex
	latest  *image.RGBA
	updates int
	dropped int

	start    time.Time
	frames   int
	stop     chan struct{}
	done     chan struct{}
	writeErr error
	stopped  bool
}

// NewRecorder prepares a recording whose temporary file lives in dir.
func NewRecorder(params config.EncodeParams, dir string, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	if params.Encoder == "" {
		params.Encoder = "libx264"
	}
	if params.Quality <= 0 {
		params.Quality = system.DefaultQuality(params.Encoder)
	}
	return &Recorder{
		params: params,
		tmp:    filepath.Join(dir, fmt.Sprintf(".s2v-%s.mp4", uuid.NewString())),
		log:    log,
		bin:    "ffmpeg",
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Temporary is the path ffmpeg writes to.
func (r *Recorder) Temporary() string { return r.tmp }

func (r *Recorder) canvas() image.Rectangle {
	return image.Rect(0, 0, r.params.Width, r.params.Height)
}

func (r *Recorder) buildFFmpegArgs() []string {
	p := r.params
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}
	if p.Filter != "" {
		args = append(args, "-vf", p.Filter)
	}
	if p.Duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%f", p.Duration))
	}
	args = append(args,
		"-r", fmt.Sprintf("%d", p.FPS),
		"-pix_fmt", "yuv420p",
		"-c:v", p.Encoder,
	)
	args = append(args, QualityArgs(p.Encoder, p.Quality)...)
	args = append(args, "-movflags", "+faststart", r.tmp)
	return args
}

// QualityArgs maps the quality knob to the encoder's own setting.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores -crf; quality is kbit/s in hundreds.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// Start launches ffmpeg and the frame ticker. ctx bounds the child process.
func (r *Recorder) Start(ctx context.Context) error {
	if r.params.Width <= 0 || r.params.Height <= 0 || r.params.FPS <= 0 {
		return fmt.Errorf("bad encode params %dx%d@%d", r.params.Width, r.params.Height, r.params.FPS)
	}
	if err := os.MkdirAll(filepath.Dir(r.tmp), 0755); err != nil {
		return err
	}

	r.cmd = exec.CommandContext(ctx, r.bin, r.buildFFmpegArgs()...)
	r.cmd.Stderr = &r.stderr
	stdin, err := r.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe error: %w", err)
	}
	r.stdin = stdin
	if err := r.cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start error: %w", err)
	}

	blank := system.GetFrame(r.canvas())
	draw.Draw(blank, blank.Rect, image.White, image.Point{}, draw.Src)
	r.latest = blank

	r.start = time.Now()
	go r.loop()
	r.log.Debug("recorder started", "tmp", r.tmp, "encoder", r.params.Encoder, "fps", r.params.FPS)
	return nil
}

func (r *Recorder) loop() {
	defer close(r.done)

	frame := time.Second / time.Duration(r.params.FPS)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()
	out := image.NewRGBA(r.canvas())

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			// Catch up after slow writes so the frame count tracks wall time.
			want := int(now.Sub(r.start)/frame) + 1
			for r.frames < want {
				if err := r.writeFrame(out); err != nil {
					r.writeErr = err
					return
				}
			}
		}
	}
}

func (r *Recorder) writeFrame(out *image.RGBA) error {
	r.mu.Lock()
	copy(out.Pix, r.latest.Pix)
	r.mu.Unlock()

	if _, err := r.stdin.Write(out.Pix); err != nil {
		return fmt.Errorf("write raw error: %w", err)
	}
	r.frames++
	return nil
}

// Submit decodes a JPEG screencast frame and makes it the current picture.
// It matches browser.FrameSink and is safe to call from any goroutine.
func (r *Recorder) Submit(data []byte, _ time.Time) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		r.mu.Lock()
		r.dropped++
		r.mu.Unlock()
		r.log.Debug("screencast frame dropped", "err", err)
		return
	}

	next := system.GetFrame(r.canvas())
	fit(next, src)

	r.mu.Lock()
	old := r.latest
	r.latest = next
	r.updates++
	r.mu.Unlock()
	system.PutFrame(old)
}

// fit draws src over the whole of dst, scaling when the sizes differ.
func fit(dst *image.RGBA, src image.Image) {
	if src.Bounds().Size() == dst.Rect.Size() {
		draw.Draw(dst, dst.Rect, src, src.Bounds().Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
}

// Stop ends the stream and waits for ffmpeg to flush the file.
func (r *Recorder) Stop() (Stats, error) {
	if r.cmd == nil {
		return Stats{}, errors.New("recorder not started")
	}
	if r.stopped {
		return r.stats(), nil
	}
	r.stopped = true

	close(r.stop)
	<-r.done
	r.stdin.Close()
	waitErr := r.cmd.Wait()

	stats := r.stats()
	r.log.Debug("recorder stopped", "frames", stats.Frames, "updates", stats.Updates, "dropped", stats.Dropped)
	switch {
	case r.writeErr != nil:
		return stats, fmt.Errorf("%w: %s", r.writeErr, strings.TrimSpace(r.stderr.String()))
	case waitErr != nil:
		return stats, fmt.Errorf("ffmpeg wait error: %w: %s", waitErr, strings.TrimSpace(r.stderr.String()))
	}
	return stats, nil
}

func (r *Recorder) stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		Frames:    r.frames,
		Updates:   r.updates,
		Dropped:   r.dropped,
		Duration:  float64(r.frames) / float64(r.params.FPS),
		Temporary: r.tmp,
	}
}

// Elapsed is the video time recorded so far.
func (r *Recorder) Elapsed() time.Duration {
	if r.start.IsZero() {
		return 0
	}
	return time.Since(r.start)
}

// Discard removes the temporary file.
func (r *Recorder) Discard() {
	os.Remove(r.tmp)
}
