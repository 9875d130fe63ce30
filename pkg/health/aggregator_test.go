package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/docxology/nockchain/pkg/supervisor"
	"github.com/docxology/nockchain/pkg/types"
)

func TestClassifyHealthyBaseline(t *testing.T) {
	agg := NewAggregator(true)
	sample := types.SystemSample{Timestamp: time.Now(), CPUPercent: 10, MemoryPercent: 20, DiskPercent: 30}
	snap := supervisor.Snapshot{State: supervisor.Running}

	report := agg.Classify(sample, snap, 10, 0)
	assert.Equal(t, types.NodeHealthy, report.Overall)
	assert.True(t, report.Nockchain.Running)
}

func TestClassifyDegradesToWarningOnHighMemory(t *testing.T) {
	agg := NewAggregator(true)
	sample := types.SystemSample{Timestamp: time.Now(), MemoryPercent: 85}
	snap := supervisor.Snapshot{State: supervisor.Running}

	report := agg.Classify(sample, snap, 10, 0)
	assert.Equal(t, types.NodeWarning, report.Overall)
}

func TestClassifyDegradesToWarningOnLowPeerCount(t *testing.T) {
	agg := NewAggregator(true)
	sample := types.SystemSample{Timestamp: time.Now()}
	snap := supervisor.Snapshot{State: supervisor.Running}

	report := agg.Classify(sample, snap, 1, 0)
	assert.Equal(t, types.NodeWarning, report.Overall)
}

func TestClassifyEscalatesToCriticalWhenExpectedRunningButNot(t *testing.T) {
	agg := NewAggregator(true)
	sample := types.SystemSample{Timestamp: time.Now()}
	snap := supervisor.Snapshot{State: supervisor.Crashed}

	report := agg.Classify(sample, snap, 10, 0)
	assert.Equal(t, types.NodeCritical, report.Overall)
}

func TestClassifyEscalatesOnHighErrorRate(t *testing.T) {
	agg := NewAggregator(true)
	sample := types.SystemSample{Timestamp: time.Now()}
	snap := supervisor.Snapshot{State: supervisor.Running}

	report := agg.Classify(sample, snap, 10, 150)
	assert.Equal(t, types.NodeCritical, report.Overall)
}

func TestClassifyUnknownWhenSampleMostlyUnusable(t *testing.T) {
	agg := NewAggregator(false)
	sample := types.SystemSample{
		Timestamp:      time.Now(),
		PartialMetrics: []string{"cpu", "memory", "disk", "network"},
	}
	snap := supervisor.Snapshot{State: supervisor.Running}

	report := agg.Classify(sample, snap, 10, 0)
	assert.Equal(t, types.NodeUnknown, report.Overall)
}
