// Package system is the assistant's view of the local machine: resource
// usage, the clipboard, files, applications and power state.
package system

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

type Usage struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
	Disk   float64 `json:"disk"`
}

func (u Usage) String() string {
	return fmt.Sprintf("System status: CPU at %.1f%%. Memory at %.1f%%. Disk at %.1f%%.", u.CPU, u.Memory, u.Disk)
}

// Monitor samples CPU, memory and disk usage.
type Monitor struct {
	// Mount is the filesystem whose usage is reported.
	Mount    string
	Interval time.Duration
}

func NewMonitor() *Monitor {
	return &Monitor{Mount: "/", Interval: time.Second}
}

func (m *Monitor) Usage(ctx context.Context) (Usage, error) {
	pct, err := cpu.PercentWithContext(ctx, m.Interval, false)
	if err != nil {
		return Usage{}, fmt.Errorf("cpu usage: %w", err)
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Usage{}, fmt.Errorf("memory usage: %w", err)
	}
	du, err := disk.UsageWithContext(ctx, m.Mount)
	if err != nil {
		return Usage{}, fmt.Errorf("disk usage: %w", err)
	}

	u := Usage{Memory: vm.UsedPercent, Disk: du.UsedPercent}
	if len(pct) > 0 {
		u.CPU = pct[0]
	}
	return u, nil
}

func (m *Monitor) Performance(ctx context.Context) (string, error) {
	u, err := m.Usage(ctx)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
