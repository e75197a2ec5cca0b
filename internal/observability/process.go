package observability

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessReport - сводка потребления ресурсов за прогон симуляции
type ProcessReport struct {
	Uptime     time.Duration
	CPUPercent float64
	RSSMB      float64
	HeapMB     float64
	NumGC      uint32
}

// String форматирует сводку для лога
func (r ProcessReport) String() string {
	return fmt.Sprintf("время=%s cpu=%.1f%% rss=%.1fMB heap=%.1fMB gc=%d",
		r.Uptime.Round(time.Millisecond), r.CPUPercent, r.RSSMB, r.HeapMB, r.NumGC)
}

// CollectProcessReport собирает сводку по текущему процессу.
// Если метрики процесса недоступны, CPU берётся из системной статистики.
func CollectProcessReport(started time.Time) (ProcessReport, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	report := ProcessReport{
		Uptime: time.Since(started),
		HeapMB: float64(m.HeapAlloc) / 1024 / 1024,
		NumGC:  m.NumGC,
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return report, err
	}

	if mem, err := proc.MemoryInfo(); err == nil {
		report.RSSMB = float64(mem.RSS) / 1024 / 1024
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return report, err
		}
		cpuPercent = cpuPercents[0]
	}
	report.CPUPercent = cpuPercent

	return report, nil
}
