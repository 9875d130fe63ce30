package bench

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunComputesPercentilesInOrder(t *testing.T) {
	result := Run(Spec{Name: "noop", Warmup: 2, Iterations: 20, Fn: func() error { return nil }})
	assert.Equal(t, 20, result.Iterations)
	assert.Equal(t, 100.0, result.SuccessRatePct)
	assert.LessOrEqual(t, result.MedianNS, result.P95NS)
	assert.LessOrEqual(t, result.P95NS, result.P99NS)
	assert.Greater(t, result.ThroughputOpsPerSec, 0.0)
}

func TestRunCountsErrorsWithoutAbortingSuite(t *testing.T) {
	calls := 0
	result := Run(Spec{Name: "flaky", Iterations: 10, Fn: func() error {
		calls++
		if calls%2 == 0 {
			return errors.New("boom")
		}
		return nil
	}})
	assert.Equal(t, 10, result.Iterations)
	assert.Equal(t, 5, result.ErrorCount)
	assert.Equal(t, 50.0, result.SuccessRatePct)
}

func TestRunDefaultsWarmupAndIterations(t *testing.T) {
	calls := 0
	result := Run(Spec{Name: "defaults", Iterations: -1, Fn: func() error { calls++; return nil }})
	assert.Equal(t, 100, result.Iterations)
	assert.Equal(t, 110, calls) // 10 warmup + 100 timed
}

func TestRunZeroIterationsReturnsEmptyResultWithoutCallingFn(t *testing.T) {
	calls := 0
	result := Run(Spec{Name: "zero", Iterations: 0, Fn: func() error { calls++; return nil }})
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, result.Iterations)
	assert.Equal(t, 0.0, result.MeanNS)
	assert.Equal(t, 0, result.ErrorCount)
}

func TestCollectSystemInfoPopulatesFields(t *testing.T) {
	info := CollectSystemInfo()
	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
	assert.Greater(t, info.CPUCount, 0)
}

func TestSuiteRunsEveryNamedBenchmark(t *testing.T) {
	dir := t.TempDir()
	suite, err := Suite(context.Background(), dir, 5, 2)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, r := range suite.Results {
		names[r.Name] = true
		assert.GreaterOrEqual(t, r.SuccessRatePct, 0.0)
	}
	for _, want := range []string{
		"keygen_ed25519", "sign_ed25519", "verify_ed25519",
		"blake3_1kb", "blake3_10kb", "base58_encode_100b",
		"io_write_read_roundtrip", "net_loopback_roundtrip",
	} {
		assert.True(t, names[want], "missing benchmark %s", want)
	}
}

func TestSaveReportWritesValidJSONAndNoTempFileSurvives(t *testing.T) {
	dir := t.TempDir()
	suite, err := Suite(context.Background(), dir, 5, 2)
	require.NoError(t, err)

	path, err := SaveReport(dir, suite)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got struct {
		RunID string `json:"RunID"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, suite.RunID, got.RunID)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestIORoundTripSucceeds(t *testing.T) {
	fn := ioRoundTrip(t.TempDir())
	assert.NoError(t, fn())
}

func TestNetRoundTripSucceeds(t *testing.T) {
	fn := netRoundTrip(context.Background())
	assert.NoError(t, fn())
	assert.NoError(t, fn())
}
