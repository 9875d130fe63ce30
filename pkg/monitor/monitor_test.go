package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docxology/nockchain/pkg/health"
	"github.com/docxology/nockchain/pkg/logstore"
	"github.com/docxology/nockchain/pkg/supervisor"
	"github.com/docxology/nockchain/pkg/types"
)

// fakeSampler lets tests drive Loop.tick deterministically without
// touching real host metrics or a real child process.
type fakeSampler struct {
	mu      sync.Mutex
	sample  types.SystemSample
	state   supervisor.Snapshot
	peers   uint64
	errs    uint64
	calls   int
}

func (f *fakeSampler) Sample(ctx context.Context) types.SystemSample {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.sample
}
func (f *fakeSampler) State(stream string) supervisor.Snapshot { return f.state }
func (f *fakeSampler) PeerCount() uint64                       { return f.peers }
func (f *fakeSampler) ErrorsLastHour() uint64                  { return f.errs }

func newTestStore(t *testing.T) *logstore.Store {
	t.Helper()
	st, err := logstore.New(t.TempDir(), logstore.Config{})
	require.NoError(t, err)
	return st
}

// capturingRenderer records every report it is handed and can be told
// to stop the loop after a fixed number of ticks, the way the tui
// renderer stops it after "q".
type capturingRenderer struct {
	mu      sync.Mutex
	reports []types.HealthReport
	stopAt  int
	done    chan struct{}
}

func newCapturingRenderer(stopAt int) *capturingRenderer {
	return &capturingRenderer{stopAt: stopAt, done: make(chan struct{})}
}

func (r *capturingRenderer) Render(report types.HealthReport) error {
	r.mu.Lock()
	r.reports = append(r.reports, report)
	n := len(r.reports)
	r.mu.Unlock()
	if r.stopAt > 0 && n >= r.stopAt {
		close(r.done)
	}
	return nil
}
func (r *capturingRenderer) Done() <-chan struct{} { return r.done }
func (r *capturingRenderer) Close() error          { return nil }
func (r *capturingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reports)
}

func TestCollectRunsExactlyOneTick(t *testing.T) {
	store := newTestStore(t)
	sampler := &fakeSampler{
		sample: types.SystemSample{Timestamp: time.Now(), CPUPercent: 5, MemoryPercent: 10, DiskPercent: 15},
		state:  supervisor.Snapshot{State: supervisor.Running},
		peers:  5,
	}
	loop := &Loop{Sampler: sampler, Aggregator: health.NewAggregator(true), Logs: store, NodeStream: "node", Interval: time.Second}
	renderer := newCapturingRenderer(0)

	require.NoError(t, loop.Collect(context.Background(), renderer))
	assert.Equal(t, 1, renderer.count())
	assert.Equal(t, types.NodeHealthy, renderer.reports[0].Overall)
}

func TestRunAppendsToMonitorStream(t *testing.T) {
	store := newTestStore(t)
	sampler := &fakeSampler{
		sample: types.SystemSample{Timestamp: time.Now()},
		state:  supervisor.Snapshot{State: supervisor.Stopped},
	}
	loop := &Loop{Sampler: sampler, Aggregator: health.NewAggregator(false), Logs: store, NodeStream: "node", Interval: 10 * time.Millisecond}
	renderer := newCapturingRenderer(3)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, loop.Run(ctx, renderer))

	require.GreaterOrEqual(t, renderer.count(), 3)

	recs, err := store.Tail(Stream, 100)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(recs), 3)
}

func TestRunStopsWhenContextCancelled(t *testing.T) {
	store := newTestStore(t)
	sampler := &fakeSampler{sample: types.SystemSample{Timestamp: time.Now()}, state: supervisor.Snapshot{State: supervisor.Absent}}
	loop := &Loop{Sampler: sampler, Aggregator: health.NewAggregator(false), Logs: store, NodeStream: "node", Interval: 10 * time.Millisecond}
	renderer := newCapturingRenderer(0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, loop.Run(ctx, renderer))
	assert.Greater(t, renderer.count(), 0)
}

func TestJSONRendererEncodesOneReportPerLine(t *testing.T) {
	var buf bytes.Buffer
	r := &JSONRenderer{W: &buf}
	report := types.HealthReport{Overall: types.NodeHealthy, Timestamp: time.Now()}
	require.NoError(t, r.Render(report))
	require.NoError(t, r.Render(report))

	dec := json.NewDecoder(&buf)
	var count int
	for {
		var got types.HealthReport
		if err := dec.Decode(&got); err != nil {
			break
		}
		count++
	}
	assert.Equal(t, 2, count)
}

func TestCompactRendererWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	r := &CompactRenderer{W: &buf}
	report := types.HealthReport{Overall: types.NodeWarning, Timestamp: time.Now(), Nockchain: types.NockchainState{Running: true, PeerCount: 4}}
	require.NoError(t, r.Render(report))
	assert.Contains(t, buf.String(), "Warning")
	assert.Contains(t, buf.String(), "peers=4")
}

func TestTableRendererRendersWithoutError(t *testing.T) {
	var buf bytes.Buffer
	r := &TableRenderer{W: &buf}
	require.NoError(t, r.Render(types.HealthReport{Overall: types.NodeCritical, Timestamp: time.Now()}))
	assert.Contains(t, buf.String(), "Overall")
}

func TestRingSparklineBoundedAtCapacity(t *testing.T) {
	var r ring
	for i := 0; i < ringSize+50; i++ {
		r.push(float64(i % 100))
	}
	assert.Len(t, r.buf, ringSize)
	assert.NotEmpty(t, r.sparkline())
}

func TestOverallToLevelMapsCriticalToError(t *testing.T) {
	assert.Equal(t, types.LevelError, overallToLevel(types.NodeCritical))
	assert.Equal(t, types.LevelWarn, overallToLevel(types.NodeWarning))
	assert.Equal(t, types.LevelInfo, overallToLevel(types.NodeHealthy))
}
