package video

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/ivlev/site2video/internal/system"
)

// probe is replaced in tests.
var probe = system.ProbeMedia

// Post is optional work done on the raw capture before it is published.
type Post struct {
	Filter string // second-pass -vf chain, e.g. act labels
	Audio  string // soundtrack muxed over the video, cut to the shorter stream
}

func (p Post) empty() bool { return p.Filter == "" && p.Audio == "" }

// Finalize publishes the capture at dst. The temporary file must exist, be
// non-empty and contain a video stream; otherwise ErrArtifactMissing is
// returned and dst is left as it was. A failed post-processing pass falls
// back to the raw capture.
func (r *Recorder) Finalize(dst string, post Post) error {
	defer r.Discard()

	if err := checkArtifact(r.tmp); err != nil {
		return err
	}

	src := r.tmp
	if !post.empty() {
		out := strings.TrimSuffix(r.tmp, filepath.Ext(r.tmp)) + "-post" + filepath.Ext(dst)
		defer os.Remove(out)
		if err := r.postProcess(r.tmp, out, post); err != nil {
			r.log.Warn("post-processing failed, publishing raw capture", "err", err)
		} else if err := checkArtifact(out); err != nil {
			r.log.Warn("post-processed file unusable, publishing raw capture", "err", err)
		} else {
			src = out
		}
	}

	if err := replace(src, dst); err != nil {
		return fmt.Errorf("publish %s: %w", dst, err)
	}
	r.log.Info("video written", "path", dst)
	return nil
}

func checkArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactMissing, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrArtifactMissing, path)
	}
	media, err := probe(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrArtifactMissing, err)
	}
	if !media.Video {
		return fmt.Errorf("%w: %s has no video stream", ErrArtifactMissing, path)
	}
	return nil
}

func (r *Recorder) postProcess(src, dst string, post Post) error {
	in := ffmpeg.Input(src)
	streams := []*ffmpeg.Stream{in.Video()}
	args := ffmpeg.KwArgs{"movflags": "+faststart"}

	if post.Filter != "" {
		args["vf"] = post.Filter
		args["c:v"] = r.params.Encoder
		args["pix_fmt"] = "yuv420p"
		for k, v := range kwArgs(QualityArgs(r.params.Encoder, r.params.Quality)) {
			args[k] = v
		}
	} else {
		args["c:v"] = "copy"
	}
	if post.Audio != "" {
		streams = append(streams, ffmpeg.Input(post.Audio).Audio())
		args["c:a"] = "aac"
		args["b:a"] = "192k"
		args["shortest"] = ""
	}

	var stderr bytes.Buffer
	err := ffmpeg.Output(streams, dst, args).
		GlobalArgs("-hide_banner", "-loglevel", "error").
		OverWriteOutput().
		WithErrorOutput(&stderr).
		Run()
	if err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// kwArgs turns "-flag value" pairs into ffmpeg-go keyword args.
func kwArgs(args []string) ffmpeg.KwArgs {
	kw := ffmpeg.KwArgs{}
	for i := 0; i+1 < len(args); i += 2 {
		kw[strings.TrimPrefix(args[i], "-")] = args[i+1]
	}
	return kw
}

// replace moves src over dst. A stale dst is only touched once src is known
// to be good.
func replace(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// Different filesystems: copy next to dst, then rename.
	part := dst + ".part"
	if err := copyFile(src, part); err != nil {
		os.Remove(part)
		return err
	}
	return os.Rename(part, dst)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
