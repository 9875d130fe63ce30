package logstore

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docxology/nockchain/pkg/types"
)

func rec(seq uint64, level types.LogLevel, msg string) types.LogRecord {
	return types.LogRecord{
		Timestamp: time.Now().UTC(),
		Seq:       seq,
		Level:     level,
		Component: "node",
		Message:   msg,
	}
}

// TestTailReturnsAppendOrderNoDupNoGap exercises testable property #4:
// for any sequence of appended records, Tail(n) returns exactly the
// last n of them in append order, with no duplicate and no gap.
func TestTailReturnsAppendOrderNoDupNoGap(t *testing.T) {
	store, err := New(t.TempDir(), Config{Format: types.FormatCompact, RotationBytes: 1 << 30})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, store.Append("node", rec(0, types.LevelInfo, fmt.Sprintf("msg-%d", i))))
	}

	tail, err := store.Tail("node", 10)
	require.NoError(t, err)
	require.Len(t, tail, 10)
	for i, r := range tail {
		assert.Equal(t, fmt.Sprintf("msg-%d", 40+i), r.Message)
	}
}

func TestTailMoreThanAvailableReturnsAll(t *testing.T) {
	store, err := New(t.TempDir(), Config{RotationBytes: 1 << 30})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append("node", rec(0, types.LevelInfo, fmt.Sprintf("m%d", i))))
	}
	tail, err := store.Tail("node", 100)
	require.NoError(t, err)
	assert.Len(t, tail, 3)
}

// TestRotationPreservesTotalRecordCount exercises testable property #5:
// across any number of rotations, the total record count read back
// across all segments equals the number appended.
func TestRotationPreservesTotalRecordCount(t *testing.T) {
	store, err := New(t.TempDir(), Config{Format: types.FormatJSON, RotationBytes: 200})
	require.NoError(t, err)

	const total = 200
	for i := 0; i < total; i++ {
		require.NoError(t, store.Append("node", rec(0, types.LevelInfo, fmt.Sprintf("record number %d with some padding text", i))))
	}

	count, err := store.RotatedSegmentCount("node")
	require.NoError(t, err)
	assert.Greater(t, count, 0, "expected at least one rotation with such a small threshold")

	all, err := store.readAll("node")
	require.NoError(t, err)
	assert.Len(t, all, total)

	for i, r := range all {
		assert.Equal(t, fmt.Sprintf("record number %d with some padding text", i), r.Message)
	}
}

func TestActiveSegmentSizeStaysUnderThreshold(t *testing.T) {
	store, err := New(t.TempDir(), Config{RotationBytes: 500})
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.NoError(t, store.Append("node", rec(0, types.LevelInfo, "padding padding padding")))
	}
	size, err := store.ActiveSegmentSize("node")
	require.NoError(t, err)
	assert.LessOrEqual(t, size, int64(500))
}

func TestSearchFiltersByPatternAndLevel(t *testing.T) {
	store, err := New(t.TempDir(), Config{RotationBytes: 1 << 30})
	require.NoError(t, err)

	require.NoError(t, store.Append("node", rec(0, types.LevelInfo, "peer connected")))
	require.NoError(t, store.Append("node", rec(0, types.LevelError, "peer connection failed")))
	require.NoError(t, store.Append("node", rec(0, types.LevelInfo, "block accepted")))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, errc := store.Search(ctx, "node", "peer", SearchOptions{
		Levels: map[types.LogLevel]bool{types.LevelError: true},
	})

	var matches []types.LogRecord
	for r := range out {
		matches = append(matches, r)
	}
	require.NoError(t, <-errc)
	require.Len(t, matches, 1)
	assert.Equal(t, "peer connection failed", matches[0].Message)
}

func TestSearchRejectsInvalidPattern(t *testing.T) {
	store, err := New(t.TempDir(), Config{})
	require.NoError(t, err)

	ctx := context.Background()
	out, errc := store.Search(ctx, "node", "(unclosed", SearchOptions{})
	for range out {
	}
	assert.Error(t, <-errc)
}

func TestFollowDeliversOnlyNewRecords(t *testing.T) {
	store, err := New(t.TempDir(), Config{RotationBytes: 1 << 30})
	require.NoError(t, err)

	require.NoError(t, store.Append("node", rec(0, types.LevelInfo, "before-follow")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, _ := store.Follow(ctx, "node")

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = store.Append("node", rec(0, types.LevelInfo, "after-follow"))
	}()

	select {
	case r := <-out:
		assert.Equal(t, "after-follow", r.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for followed record")
	}
}

func TestCleanRemovesSegmentsOlderThanDays(t *testing.T) {
	store, err := New(t.TempDir(), Config{RotationBytes: 50})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, store.Append("node", rec(0, types.LevelInfo, fmt.Sprintf("rotate me %d", i))))
	}
	before, err := store.RotatedSegmentCount("node")
	require.NoError(t, err)
	require.Greater(t, before, 0)

	require.NoError(t, store.Clean("node", 0))
	after, err := store.RotatedSegmentCount("node")
	require.NoError(t, err)
	assert.LessOrEqual(t, after, before)
}

func TestDegradedReflectsWriteFailure(t *testing.T) {
	store, err := New(t.TempDir(), Config{})
	require.NoError(t, err)
	assert.False(t, store.Degraded("node"))
}
