package system

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

var (
	audioExts = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	imageExts = []string{".jpg", ".jpeg", ".png", ".webp"}
)

// InitResourceLimits raises the open file limit. Chrome and ffmpeg together
// hold many descriptors per recording.
func InitResourceLimits(log *slog.Logger) {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn("cannot read open file limit", "err", err)
		return
	}

	rLimit.Cur = 4096
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn("cannot raise open file limit", "err", err)
		return
	}
	log.Debug("open file limit raised", "limit", rLimit.Cur)
}

var (
	encodersOnce sync.Once
	encodersOut  string
	filtersOnce  sync.Once
	filtersOut   string
)

func ffmpegList(flag string) string {
	out, err := exec.Command("ffmpeg", "-hide_banner", flag).CombinedOutput()
	if err != nil {
		return ""
	}
	return string(out)
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg offers one:
// VideoToolbox on macOS, then NVENC, then libx264.
func GetBestH264Encoder() (string, string) {
	encodersOnce.Do(func() { encodersOut = ffmpegList("-encoders") })

	encoders := []struct {
		name string
		args string
	}{
		{"h264_videotoolbox", ""},
		{"h264_nvenc", ""},
	}
	for _, enc := range encoders {
		if strings.Contains(encodersOut, enc.name) {
			return enc.name, enc.args
		}
	}
	return "libx264", ""
}

// DefaultQuality is the quality setting used when none is configured.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75 // bitrate = Q*100 kbit/s
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}

// CheckFilterSupport reports whether the local ffmpeg has the named filter.
// drawtext is missing from builds without libfreetype.
func CheckFilterSupport(name string) bool {
	filtersOnce.Do(func() { filtersOut = ffmpegList("-filters") })
	for _, line := range strings.Split(filtersOut, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}

// HasBinary reports whether name is on PATH.
func HasBinary(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// FindLatestAudio returns the newest audio file in dir.
func FindLatestAudio(dir string) (string, error) {
	return findLatest(dir, audioExts)
}

func findLatest(dir string, exts []string) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time
	for _, f := range files {
		if f.IsDir() || !hasExt(f.Name(), exts) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no %s files in %s", strings.Join(exts, "/"), dir)
	}
	return latestFile, nil
}

// FindContentFolders lists the subdirectories of pool that hold recordable
// content: an index.html, a PDF or images. Names are sorted.
func FindContentFolders(pool string) ([]string, error) {
	entries, err := os.ReadDir(pool)
	if err != nil {
		return nil, err
	}

	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(pool, e.Name())
		if isContentDir(dir) {
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func isContentDir(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err == nil {
		return true
	}
	files, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, f := range files {
		if !f.IsDir() && hasExt(f.Name(), append([]string{".pdf"}, imageExts...)) {
			return true
		}
	}
	return false
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
