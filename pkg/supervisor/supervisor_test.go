package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docxology/nockchain/pkg/logstore"
	"github.com/docxology/nockchain/pkg/types"
)

func newTestStore(t *testing.T) *logstore.Store {
	t.Helper()
	store, err := logstore.New(t.TempDir(), logstore.Config{Format: types.FormatCompact, RotationBytes: 1 << 20})
	require.NoError(t, err)
	return store
}

func TestSpawnRunsToCompletionAndDrainsOutput(t *testing.T) {
	store := newTestStore(t)
	sup := New(store)

	err := sup.Spawn(context.Background(), Spec{
		Stream: "node",
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo mining started; echo peer connected >&2"},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sup.State("node").State == Stopped
	}, 2*time.Second, 10*time.Millisecond)

	tail, err := store.Tail("node", 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(tail), 2)
}

func TestSpawnRejectsSecondRunningChildOnSameStream(t *testing.T) {
	store := newTestStore(t)
	sup := New(store)

	require.NoError(t, sup.Spawn(context.Background(), Spec{
		Stream: "node",
		Binary: "/bin/sh",
		Args:   []string{"-c", "sleep 1"},
	}))

	err := sup.Spawn(context.Background(), Spec{
		Stream: "node",
		Binary: "/bin/sh",
		Args:   []string{"-c", "sleep 1"},
	})
	assert.Error(t, err)

	_ = sup.Stop("node", time.Second)
}

func TestCrashedChildCarriesExitCodeAndStderrTail(t *testing.T) {
	store := newTestStore(t)
	sup := New(store)

	require.NoError(t, sup.Spawn(context.Background(), Spec{
		Stream: "miner",
		Binary: "/bin/sh",
		Args:   []string{"-c", "echo boom >&2; exit 7"},
	}))

	require.Eventually(t, func() bool {
		return sup.State("miner").State == Crashed
	}, 2*time.Second, 10*time.Millisecond)

	snap := sup.State("miner")
	require.NotNil(t, snap.ExitCode)
	assert.Equal(t, 7, *snap.ExitCode)
	require.NotEmpty(t, snap.StderrTail)
	assert.Equal(t, "boom", snap.StderrTail[0])
}

func TestStopSendsTermAndTransitionsToStopped(t *testing.T) {
	store := newTestStore(t)
	sup := New(store)

	require.NoError(t, sup.Spawn(context.Background(), Spec{
		Stream: "node",
		Binary: "/bin/sh",
		Args:   []string{"-c", "trap 'exit 0' TERM; sleep 30 & wait"},
	}))

	require.Eventually(t, func() bool {
		return sup.State("node").State == Running
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, sup.Stop("node", 2*time.Second))
	assert.Equal(t, Stopped, sup.State("node").State)
}

func TestAbsentStreamReportsAbsentState(t *testing.T) {
	store := newTestStore(t)
	sup := New(store)
	assert.Equal(t, Absent, sup.State("nothing-spawned").State)
}

func TestClassifyLine(t *testing.T) {
	assert.Equal(t, "mining", classifyLine("mining block 1024 accepted"))
	assert.Equal(t, "network", classifyLine("peer dialed 12.3.4.5"))
	assert.Equal(t, "wallet", classifyLine("wallet balance updated"))
	assert.Equal(t, "other", classifyLine("unrelated startup banner"))
}
