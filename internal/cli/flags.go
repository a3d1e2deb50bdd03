package cli

import (
	"runtime"

	"github.com/spf13/pflag"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/system"
)

// recordFlags are the settings shared by record and batch. Only flags the
// user set override the loaded config.
type recordFlags struct {
	width, height int
	preset        string
	fps           int
	duration      float64
	audio         string
	encoder       string
	quality       int
	detector      string
	scrollMode    string
	seed          int64
	chromePath    string
	headless      bool
	mobile        bool
	showStats     bool
	writePlan     bool
	workers       int
}

func (f *recordFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.width, "width", 1080, "canvas width")
	fs.IntVar(&f.height, "height", 1920, "canvas height")
	fs.StringVar(&f.preset, "preset", "", "canvas preset: 9:16, 16:9, 4:5, 1:1")
	fs.IntVar(&f.fps, "fps", 30, "frames per second")
	fs.Float64VarP(&f.duration, "duration", "d", 0, "video length in seconds (0: audio, script.json, then fallback)")
	fs.StringVarP(&f.audio, "audio", "a", "", "soundtrack; its length sets the duration")
	fs.StringVar(&f.encoder, "encoder", "", "H.264 encoder (default: best available)")
	fs.IntVar(&f.quality, "quality", 0, "0 = auto; x264/nvenc: CRF/CQ, VideoToolbox: bitrate = Q*100kbit/s")
	fs.StringVar(&f.detector, "detector", "dom", "target detector: dom, visual, hybrid")
	fs.StringVar(&f.scrollMode, "scroll-mode", "eased", "eased or momentum")
	fs.Int64Var(&f.seed, "seed", 1, "seed for all choreography randomness")
	fs.StringVar(&f.chromePath, "chrome", "", "Chrome/Chromium executable")
	fs.BoolVar(&f.headless, "headless", true, "run Chrome headless")
	fs.BoolVar(&f.mobile, "mobile", false, "identify as a phone browser")
	fs.BoolVar(&f.showStats, "stats", false, "print a performance report per video")
	fs.BoolVar(&f.writePlan, "write-plan", false, "save each choreography plan as YAML")
	fs.IntVarP(&f.workers, "workers", "w", 1, "parallel recordings (batch)")
}

func (f *recordFlags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	set := fs.Changed
	if set("preset") {
		if err := cfg.ApplyPreset(f.preset); err != nil {
			return err
		}
	}
	if set("width") {
		cfg.Width = f.width
	}
	if set("height") {
		cfg.Height = f.height
	}
	if set("fps") {
		cfg.FPS = f.fps
	}
	if set("duration") {
		cfg.Duration = f.duration
	}
	if set("audio") {
		cfg.AudioPath = f.audio
	}
	if set("encoder") {
		cfg.VideoEncoder = f.encoder
	}
	if set("quality") {
		cfg.Quality = f.quality
	}
	if set("detector") {
		cfg.Detector = f.detector
	}
	if set("scroll-mode") {
		cfg.ScrollMode = f.scrollMode
	}
	if set("seed") {
		cfg.Seed = f.seed
	}
	if set("chrome") {
		cfg.ChromePath = f.chromePath
	}
	if set("headless") {
		cfg.Headless = f.headless
	}
	if set("mobile") {
		cfg.Mobile = f.mobile
	}
	if set("stats") {
		cfg.ShowStats = f.showStats
	}
	if set("write-plan") {
		cfg.WritePlan = f.writePlan
	}
	if set("workers") {
		cfg.Workers = f.workers
	}
	if cfg.Workers > runtime.NumCPU() {
		cfg.Workers = runtime.NumCPU()
	}

	if cfg.VideoEncoder == "" {
		cfg.VideoEncoder, _ = system.GetBestH264Encoder()
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}
	return cfg.Validate()
}
