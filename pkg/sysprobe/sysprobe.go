// Package sysprobe implements SystemProbe: a single
// best-effort host-metrics sample combining CPU, memory, disk and
// network counters. A metric that cannot be read surfaces as "unknown"
// (recorded in PartialMetrics) rather than failing the whole sample.
//
// Grounded on pkg/metrics/collector.go's polling shape
// (one synchronous collect() call per tick, independent per-resource
// sub-collectors that fail without aborting the others), generalized
// here from cluster-manager counters to host-level gopsutil samples.
package sysprobe

import (
	"context"
	"path/filepath"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/docxology/nockchain/pkg/types"
)

// Probe samples host metrics. prevNet caches the last network counter
// reading so NetRx/TxBytes can be reported as monotone cumulative
// totals across a run rather than resetting between samples.
type Probe struct {
	configDir string
	lastCPU   time.Time
}

// New returns a Probe that reports disk usage for the filesystem
// containing configDir.
func New(configDir string) *Probe {
	return &Probe{configDir: configDir}
}

// Sample returns one synchronous, best-effort SystemSample (spec
// §4.6). The first CPU reading in a Probe's lifetime is instantaneous;
// subsequent readings average over the time since the previous sample.
func (p *Probe) Sample(ctx context.Context) types.SystemSample {
	sample := types.SystemSample{Timestamp: time.Now().UTC()}

	interval := 200 * time.Millisecond
	if !p.lastCPU.IsZero() {
		if elapsed := time.Since(p.lastCPU); elapsed > 0 && elapsed < 10*time.Second {
			interval = elapsed
		}
	}
	p.lastCPU = time.Now()

	if pct, err := cpu.PercentWithContext(ctx, interval, false); err == nil && len(pct) > 0 {
		sample.CPUPercent = pct[0]
	} else {
		sample.PartialMetrics = append(sample.PartialMetrics, "cpu")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		sample.MemoryPercent = vm.UsedPercent
	} else {
		sample.PartialMetrics = append(sample.PartialMetrics, "memory")
	}

	diskPath := p.configDir
	if diskPath == "" {
		diskPath = "/"
	}
	if du, err := disk.UsageWithContext(ctx, filepath.Clean(diskPath)); err == nil {
		sample.DiskPercent = du.UsedPercent
	} else {
		sample.PartialMetrics = append(sample.PartialMetrics, "disk")
	}

	if counters, err := net.IOCountersWithContext(ctx, true); err == nil {
		var rx, tx uint64
		for _, c := range counters {
			if c.Name == "lo" || c.Name == "lo0" {
				continue
			}
			rx += c.BytesRecv
			tx += c.BytesSent
		}
		sample.NetRxBytes = rx
		sample.NetTxBytes = tx
	} else {
		sample.PartialMetrics = append(sample.PartialMetrics, "network")
	}

	if pids, err := process.PidsWithContext(ctx); err == nil {
		sample.ProcessCount = uint64(len(pids))
	} else {
		sample.PartialMetrics = append(sample.PartialMetrics, "process_count")
	}

	return sample
}
