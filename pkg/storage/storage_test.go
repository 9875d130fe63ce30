package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docxology/nockchain/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLatestMiningStatsEmptyReturnsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, ok, err := store.LatestMiningStats()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordMiningStatsUpdatesLatest(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.RecordMiningStats(types.MiningStats{BlocksMined: 1}))
	require.NoError(t, store.RecordMiningStats(types.MiningStats{BlocksMined: 2}))

	latest, ok, err := store.LatestMiningStats()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(2), latest.BlocksMined)
}

func TestMiningStatsSinceReturnsOnlyRecentSnapshots(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.RecordMiningStats(types.MiningStats{BlocksMined: 1}))

	cutoff := time.Now()
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.RecordMiningStats(types.MiningStats{BlocksMined: 2}))

	recent, err := store.MiningStatsSince(cutoff)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, uint64(2), recent[0].BlocksMined)
}

func TestRecordAndListBenchmarkRuns(t *testing.T) {
	store := newTestStore(t)

	first := types.BenchmarkSuite{RunID: "run-1", StartedAt: time.Now().Add(-time.Hour)}
	second := types.BenchmarkSuite{RunID: "run-2", StartedAt: time.Now()}

	require.NoError(t, store.RecordBenchmarkRun(first, "/tmp/run-1.json"))
	require.NoError(t, store.RecordBenchmarkRun(second, "/tmp/run-2.json"))

	runs, err := store.ListBenchmarkRuns()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].RunID, "most recent run should sort first")
	assert.Equal(t, "run-1", runs[1].RunID)
}

func TestCloseIsIdempotentSafe(t *testing.T) {
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
