package cli

import (
	"fmt"
	"os/exec"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/site2video/internal/system"
)

var chromeNames = []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"}

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check ffmpeg, encoders and Chrome",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := deps.Config
			ok := true
			check := func(name string, good bool, detail string) {
				mark := "[+]"
				if !good {
					mark = "[-]"
					ok = false
				}
				deps.printf("%s %-16s %s\n", mark, name, detail)
			}

			check("ffmpeg", system.HasBinary("ffmpeg"), "required for encoding")
			check("ffprobe", system.HasBinary("ffprobe"), "required to verify videos and read audio length")
			encoder, _ := system.GetBestH264Encoder()
			deps.printf("[*] %-16s %s (quality %d)\n", "encoder", encoder, system.DefaultQuality(encoder))
			deps.printf("[*] %-16s %t\n", "drawtext", system.CheckFilterSupport("drawtext"))

			chrome := cfg.ChromePath
			if chrome == "" {
				chrome = findChrome()
			}
			check("chrome", chrome != "", chrome)

			host := system.CollectHostStats(300 * time.Millisecond)
			deps.printf("[*] %-16s %s, %d CPU, %.0f%% busy, %s RAM (%.0f%% used)\n", "host",
				host.Platform, host.CPUs, host.CPUPercent, gigabytes(host.MemTotal), host.MemUsedPct)
			deps.printf("[*] %-16s %s\n", "output", cfg.OutputDir)

			if !ok {
				return fmt.Errorf("some prerequisites are missing")
			}
			deps.printf("[+++] Ready to record\n")
			return nil
		},
	}
}

func findChrome() string {
	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func gigabytes(b uint64) string {
	return fmt.Sprintf("%.1fGB", float64(b)/(1<<30))
}
