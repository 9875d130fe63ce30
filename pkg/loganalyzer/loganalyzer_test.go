package loganalyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docxology/nockchain/pkg/types"
)

func TestAnalyzeIsDeterministic(t *testing.T) {
	records := sampleRecords()

	a := Analyze(records, time.Minute)
	b := Analyze(records, time.Minute)

	assert.Equal(t, a.Levels, b.Levels)
	assert.Equal(t, a.Components, b.Components)
	assert.Equal(t, a.Errors, b.Errors)
	assert.Equal(t, len(a.Series), len(b.Series))
}

func TestAnalyzeLevelAndComponentHistograms(t *testing.T) {
	sum := Analyze(sampleRecords(), time.Minute)

	assert.Equal(t, 2, sum.Levels[types.LevelInfo])
	assert.Equal(t, 2, sum.Levels[types.LevelError])

	assert.Equal(t, 1, sum.Components["mining"])
	assert.Equal(t, 1, sum.Components["network"])
}

func TestAnalyzeErrorDigestNormalizesNumbersAndTimestamps(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []types.LogRecord{
		{Timestamp: base, Level: types.LevelError, Component: "network", Message: "dial failed after 3 attempts at 2026-01-01T00:00:00Z"},
		{Timestamp: base.Add(time.Minute), Level: types.LevelError, Component: "network", Message: "dial failed after 7 attempts at 2026-01-01T00:05:00Z"},
	}
	sum := Analyze(records, time.Minute)
	require.Len(t, sum.Errors, 1)
	for k, count := range sum.Errors {
		assert.Equal(t, 2, count)
		assert.NotContains(t, k, "2026-01-01")
		assert.Contains(t, k, "<n>")
	}
}

func TestAnalyzeExtractsMetricSeries(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	records := []types.LogRecord{
		{Timestamp: base, Level: types.LevelInfo, Message: "hash rate 120.5 H/s"},
		{Timestamp: base.Add(30 * time.Second), Level: types.LevelInfo, Message: "hash rate 130 H/s"},
		{Timestamp: base.Add(90 * time.Second), Level: types.LevelInfo, Message: "hash rate 140 H/s"},
	}
	sum := Analyze(records, time.Minute)
	series, ok := sum.Series["hash_rate_hps"]
	require.True(t, ok)
	require.Len(t, series.Points, 2)
	assert.Equal(t, 130.0, series.Points[0].Value)
	assert.Equal(t, 140.0, series.Points[1].Value)
}

func TestTopErrorsOrdersByCountThenKey(t *testing.T) {
	d := ErrorPatternDigest{"b err": 2, "a err": 2, "c err": 5}
	top := d.TopErrors(2)
	assert.Equal(t, []string{"c err", "a err"}, top)
}

func sampleRecords() []types.LogRecord {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []types.LogRecord{
		{Timestamp: base, Level: types.LevelInfo, Message: "mining-on started warming up"},
		{Timestamp: base.Add(time.Second), Level: types.LevelInfo, Message: "peer connected 12 total"},
		{Timestamp: base.Add(2 * time.Second), Level: types.LevelError, Message: "dial failed after 1 attempts"},
		{Timestamp: base.Add(3 * time.Second), Level: types.LevelError, Message: "dial failed after 2 attempts"},
	}
}
