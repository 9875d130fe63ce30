package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/docxology/nockchain/pkg/logstore"
	"github.com/docxology/nockchain/pkg/supervisor"
	"github.com/docxology/nockchain/pkg/types"
)

func TestCollectUpdatesLogGauges(t *testing.T) {
	store, err := logstore.New(t.TempDir(), logstore.Config{RotationBytes: 64})
	require.NoError(t, err)
	require.NoError(t, store.Append("node", types.LogRecord{Message: "hello"}))

	sup := supervisor.New(store)
	c := NewCollector(store, []string{"node"}, sup, "node")
	c.collect()

	size, err := store.ActiveSegmentSize("node")
	require.NoError(t, err)
	require.Equal(t, float64(size), testutil.ToFloat64(LogActiveSegmentBytes.WithLabelValues("node")))
}

func TestCollectReportsSupervisorState(t *testing.T) {
	store, err := logstore.New(t.TempDir(), logstore.Config{})
	require.NoError(t, err)
	sup := supervisor.New(store)

	c := NewCollector(store, nil, sup, "node")
	c.collect()

	require.Equal(t, 1.0, testutil.ToFloat64(SupervisorState.WithLabelValues("node", string(supervisor.Absent))))
}

func TestObserveHealthReportSetsOverallGauge(t *testing.T) {
	ObserveHealthReport(types.HealthReport{Overall: types.NodeWarning, Timestamp: time.Now()})
	require.Equal(t, 1.0, testutil.ToFloat64(HealthOverallStatus.WithLabelValues(string(types.NodeWarning))))
	require.Equal(t, 0.0, testutil.ToFloat64(HealthOverallStatus.WithLabelValues(string(types.NodeHealthy))))
}
