package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/engine"
	"github.com/ivlev/site2video/internal/source"
	"github.com/ivlev/site2video/internal/system"
)

func NewRecordCmd(deps *Dependencies) *cobra.Command {
	var flags recordFlags
	var output string
	var template bool

	cmd := &cobra.Command{
		Use:   "record <url|html|dir|pdf|images>",
		Short: "Record one showcase video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			if err := flags.apply(cmd.Flags(), cfg); err != nil {
				return err
			}
			src := args[0]
			if output == "" {
				output = outputPath(cfg.OutputDir, src, time.Now())
			}

			job, err := deps.newJob(src, output, cfg.AudioPath, template)
			if err != nil {
				return err
			}
			printSettings(deps, job)

			_, err = engine.New(cfg, deps.Log, deps.Out).Record(cmd.Context(), job)
			return err
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&output, "output", "o", "", "video path (default: output/<name>_<timestamp>.mp4)")
	cmd.Flags().BoolVar(&template, "template", false, "pick header, title and CTA from the built-in templates")
	return cmd
}

// newJob resolves the budget: explicit duration, then the soundtrack, then
// the content's script.json override, then the fallback.
func (d *Dependencies) newJob(src, output, audio string, template bool) (config.Job, error) {
	cfg := d.Config

	audioDur := 0.0
	if audio != "" {
		dur, err := system.GetAudioDuration(audio)
		if err != nil {
			d.Log.Warn("cannot read soundtrack length", "audio", audio, "err", err)
		} else {
			audioDur = dur
		}
	}

	override := 0.0
	if dir := localDir(src); dir != "" {
		if meta, err := source.LoadMetadata(dir, ""); err == nil {
			override = meta.DurationOverride
		} else {
			d.Log.Warn("bad script.json", "dir", dir, "err", err)
		}
	}

	overlay := cfg.Overlay
	if template {
		overlay = config.TemplateOverlay(cfg.Seed)
		overlay.CTAURL = cfg.Overlay.CTAURL
	}

	budget := config.ResolveDuration(cfg.Duration, audioDur, override, cfg.FallbackDuration)
	job := config.NewJob(src, budget, overlay, output, cfg.Seed)
	job.Audio = audio
	return job, job.Validate()
}

func localDir(src string) string {
	if u, err := url.Parse(src); err == nil && u.Host != "" {
		return ""
	}
	fi, err := os.Stat(src)
	if err != nil {
		return ""
	}
	if fi.IsDir() {
		return src
	}
	return filepath.Dir(src)
}

// outputPath names a video after its source: output/<name>_<timestamp>.mp4.
func outputPath(dir, src string, now time.Time) string {
	name := src
	if u, err := url.Parse(src); err == nil && u.Host != "" {
		name = u.Host + strings.ReplaceAll(strings.TrimSuffix(u.Path, "/"), "/", "_")
	} else {
		name = filepath.Base(strings.TrimSuffix(src, string(filepath.Separator)))
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	name = strings.NewReplacer(" ", "_", ":", "_").Replace(name)
	return filepath.Join(dir, fmt.Sprintf("%s_%s.mp4", name, now.Format("2006-01-02_15-04-05")))
}

func printSettings(deps *Dependencies, job config.Job) {
	cfg := deps.Config
	deps.printf("--- [SITE2VIDEO] ---\n")
	deps.printf("[*] Canvas: %dx%d @ %d FPS | Encoder: %s (q %d)\n", cfg.Width, cfg.Height, cfg.FPS, cfg.VideoEncoder, cfg.Quality)
	deps.printf("[*] Duration: %.2fs | Scroll: %s | Detector: %s | Seed: %d\n", job.Budget, cfg.ScrollMode, cfg.Detector, job.Seed)
	if job.Audio != "" {
		deps.printf("[*] Soundtrack: %s\n", job.Audio)
	}
	deps.printf("--------------------\n")
}
