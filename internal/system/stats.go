package system

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats is a snapshot of the machine, shown by doctor and in the
// performance report.
type HostStats struct {
	Platform    string
	CPUs        int
	CPUPercent  float64
	MemTotal    uint64
	MemUsedPct  float64
	ProcessRSS  uint64
	ProcessCPU  float64
	Goroutines  int
	CollectedAt time.Time
}

// CollectHostStats samples CPU over interval. Missing values stay zero.
func CollectHostStats(interval time.Duration) HostStats {
	s := HostStats{
		Platform:    runtime.GOOS + "/" + runtime.GOARCH,
		CPUs:        runtime.NumCPU(),
		Goroutines:  runtime.NumGoroutine(),
		CollectedAt: time.Now(),
	}
	if info, err := host.Info(); err == nil {
		s.Platform = info.Platform + " " + info.PlatformVersion + " " + info.KernelArch
	}
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		s.CPUs = n
	}
	if pct, err := cpu.Percent(interval, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotal = vm.Total
		s.MemUsedPct = vm.UsedPercent
	}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			s.ProcessRSS = mi.RSS
		}
		if c, err := p.CPUPercent(); err == nil {
			s.ProcessCPU = c
		}
	}
	return s
}
