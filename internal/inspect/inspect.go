package inspect

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/hexar-io/hexarctl/internal/logtail"
	"github.com/hexar-io/hexarctl/internal/marker"
	"github.com/hexar-io/hexarctl/internal/probe"
)

// Unknown is the placeholder for process metadata the OS would not give us.
// Missing metadata degrades the report, never fails it.
const Unknown = "unknown"

// tailLines is how much recent log output a status report includes.
const tailLines = 10

// Report describes the current instance as observed right now.
type Report struct {
	Running bool
	PID     int

	// Detailed fields, best effort.
	StartedAt string
	Uptime    string
	MemoryRSS string
	CPU       string

	LogTail []string
}

// Inspector derives status reports from the marker store and the OS process
// table.
type Inspector struct {
	store   marker.Store
	alive   func(pid int) bool
	logPath string
}

// New creates an inspector over the given marker store and radar log sink.
func New(store marker.Store, logPath string) *Inspector {
	return &Inspector{
		store:   store,
		alive:   probe.Alive,
		logPath: logPath,
	}
}

// NewWithProbe creates an inspector with a custom liveness probe, for tests.
func NewWithProbe(store marker.Store, logPath string, alive func(pid int) bool) *Inspector {
	return &Inspector{store: store, alive: alive, logPath: logPath}
}

// Status reports on the current instance. A stale marker is cleared as a
// side effect. This never fails: optional metadata degrades to "unknown".
func (i *Inspector) Status(detailed bool) *Report {
	report := &Report{
		StartedAt: Unknown,
		Uptime:    Unknown,
		MemoryRSS: Unknown,
		CPU:       Unknown,
	}

	pid, err := i.store.Read()
	if err == nil {
		if i.alive(pid) {
			report.Running = true
			report.PID = pid
			if detailed {
				i.fillProcessDetails(report, pid)
			}
		} else {
			// Self-heal: the controller died without clearing its marker.
			i.store.Clear()
		}
	}

	report.LogTail = i.tail()
	return report
}

// fillProcessDetails pulls start time, memory and CPU from OS accounting.
func (i *Inspector) fillProcessDetails(report *Report, pid int) {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return
	}

	if createMs, err := proc.CreateTime(); err == nil {
		started := time.UnixMilli(createMs)
		report.StartedAt = started.Format("2006-01-02 15:04:05")
		report.Uptime = formatUptime(time.Since(started))
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		report.MemoryRSS = fmt.Sprintf("%.1f MB", float64(mem.RSS)/(1024*1024))
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		report.CPU = fmt.Sprintf("%.1f%%", cpu)
	}
}

// tail returns the last few log lines, or nothing if the sink is absent.
func (i *Inspector) tail() []string {
	var buf bytes.Buffer
	if err := logtail.Tail(&buf, i.logPath, tailLines); err != nil {
		return nil
	}
	out := strings.TrimRight(buf.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

func formatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	if d < 0 {
		return Unknown
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	if hours > 0 {
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
