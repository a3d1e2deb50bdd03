package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/system"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Width(14)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB000"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)
)

// PerformanceReport renders the per-job summary box.
func PerformanceReport(build string, job config.Job, res *Result, host system.HostStats) string {
	row := func(label, value string) string {
		return labelStyle.Render(label) + value
	}

	lines := []string{
		titleStyle.Render("PERFORMANCE REPORT"),
		row("Build", build),
		row("Source", job.Source),
		row("Output", filepath.Base(res.Output)),
		row("Total time", fmt.Sprintf("%.2fs", res.Elapsed.Seconds())),
		row("Budget", fmt.Sprintf("%.2fs", job.Budget)),
		row("Targets", fmt.Sprintf("%d", res.Targets)),
		row("Frames", fmt.Sprintf("%d (%d updates, %d dropped)", res.Stats.Frames, res.Stats.Updates, res.Stats.Dropped)),
	}
	if r := res.Report; r != nil {
		lines = append(lines,
			row("Choreography", fmt.Sprintf("%.2fs, %d visited", r.Elapsed, r.Visited)),
			row("Scroll", fmt.Sprintf("%.0fpx of %.0fpx", r.FinalScrollY, res.Plan.MaxScroll)),
		)
	}
	lines = append(lines,
		row("Host", fmt.Sprintf("%s, %d CPU @ %.0f%%", host.Platform, host.CPUs, host.CPUPercent)),
		row("Memory", fmt.Sprintf("RSS %s, system %.0f%% used", megabytes(host.ProcessRSS), host.MemUsedPct)),
	)
	if res.LoadFailed {
		lines = append(lines, warnStyle.Render("content never finished loading"))
	}
	if res.TimedOut {
		lines = append(lines, warnStyle.Render("choreography cut at its deadline"))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func megabytes(b uint64) string {
	return fmt.Sprintf("%.0fMB", float64(b)/(1<<20))
}

// appendBenchmark adds a one-line record to path.
func appendBenchmark(path, build string, job config.Job, res *Result, log *slog.Logger) {
	visited := 0
	if res.Report != nil {
		visited = res.Report.Visited
	}
	entry := fmt.Sprintf("[%s] Build: %s | Input: %s | Budget: %.2fs | Total: %.2fs | Frames: %d | Targets: %d | Visited: %d | TimedOut: %t\n",
		time.Now().Format("2006-01-02 15:04:05"),
		build,
		filepath.Base(job.Source),
		job.Budget,
		res.Elapsed.Seconds(),
		res.Stats.Frames,
		res.Targets,
		visited,
		res.TimedOut,
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Warn("cannot write benchmark log", "path", path, "err", err)
		return
	}
	defer f.Close()
	f.WriteString(entry)
}
