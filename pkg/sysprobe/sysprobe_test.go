package sysprobe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSamplePopulatesPercentagesWithinRange(t *testing.T) {
	p := New(t.TempDir())
	s := p.Sample(context.Background())

	assert.GreaterOrEqual(t, s.CPUPercent, 0.0)
	assert.GreaterOrEqual(t, s.MemoryPercent, 0.0)
	assert.LessOrEqual(t, s.MemoryPercent, 100.0)
	assert.False(t, s.Timestamp.IsZero())
}

func TestSampleSecondCallUsesElapsedInterval(t *testing.T) {
	p := New(t.TempDir())
	_ = p.Sample(context.Background())
	second := p.Sample(context.Background())
	assert.False(t, second.Timestamp.IsZero())
}

func TestSampleDefaultsDiskPathWhenConfigDirEmpty(t *testing.T) {
	p := New("")
	s := p.Sample(context.Background())
	assert.GreaterOrEqual(t, s.DiskPercent, 0.0)
}
