// Package bench implements Benchmarker: warmup-then-timed
// micro-benchmark runs over Nockit's own crypto, I/O and network
// primitives, reported as percentile stats alongside a host SystemInfo
// snapshot.
//
// SaveReport uses a write-temp-then-rename discipline so a crash
// mid-write never leaves a partial report file in place.
package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/docxology/nockchain/pkg/errs"
	"github.com/docxology/nockchain/pkg/keystore"
	"github.com/docxology/nockchain/pkg/types"
)

// Func is one timed operation. It returns an error on a failed
// iteration; Run counts these without aborting the suite. Success
// rate is a reported field, not a fatal condition.
type Func func() error

// Spec names one benchmark and how many times to run it.
type Spec struct {
	Name       string
	Warmup     int
	Iterations int
	Fn         Func
}

// Run executes spec.Warmup untimed iterations followed by
// spec.Iterations timed ones, returning percentile stats. A spec
// requesting exactly zero iterations returns an empty result without
// running Fn at all, rather than dividing by zero computing stats.
func Run(spec Spec) types.BenchmarkResult {
	if spec.Iterations == 0 {
		return types.BenchmarkResult{Name: spec.Name, Warmup: spec.Warmup}
	}

	warmup := spec.Warmup
	if warmup <= 0 {
		warmup = 10
	}
	iterations := spec.Iterations
	if iterations <= 0 {
		iterations = 100
	}

	for i := 0; i < warmup; i++ {
		_ = spec.Fn()
	}

	durations := make([]time.Duration, 0, iterations)
	var errCount int
	var memBefore, memAfter runtime.MemStats
	runtime.ReadMemStats(&memBefore)

	total := time.Duration(0)
	for i := 0; i < iterations; i++ {
		start := time.Now()
		err := spec.Fn()
		elapsed := time.Since(start)
		durations = append(durations, elapsed)
		total += elapsed
		if err != nil {
			errCount++
		}
	}
	runtime.ReadMemStats(&memAfter)

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	result := types.BenchmarkResult{
		Name:             spec.Name,
		Iterations:       iterations,
		Warmup:           warmup,
		TotalDurationNS:  int64(total),
		MeanNS:           meanNS(durations),
		MedianNS:         percentileNS(durations, 0.50),
		P95NS:            percentileNS(durations, 0.95),
		P99NS:            percentileNS(durations, 0.99),
		MemoryDeltaBytes: int64(memAfter.TotalAlloc) - int64(memBefore.TotalAlloc),
		SuccessRatePct:   100 * float64(iterations-errCount) / float64(iterations),
		ErrorCount:       errCount,
	}
	if total > 0 {
		result.ThroughputOpsPerSec = float64(iterations) / total.Seconds()
	}
	return result
}

func meanNS(durations []time.Duration) float64 {
	if len(durations) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	return float64(sum) / float64(len(durations))
}

func percentileNS(sorted []time.Duration, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return float64(sorted[idx])
}

// CollectSystemInfo snapshots the host's OS/arch/CPU count and total
// memory for inclusion in a BenchmarkSuite.
func CollectSystemInfo() types.SystemInfo {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return types.SystemInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		CPUCount:    runtime.NumCPU(),
		TotalMemory: mem.Sys,
	}
}

// Suite runs the fixed set of Nockit micro-benchmarks: key generation,
// signing, verification, 1KB/10KB Blake3 hashing,
// 100-byte base58 encode/decode, a temp-file write-then-read round
// trip, and a loopback TCP round trip. iterations/warmup of 0 fall
// back to Run's own defaults (100/10).
func Suite(ctx context.Context, dir string, iterations, warmup int) (types.BenchmarkSuite, error) {
	started := time.Now()

	payload1KB := make([]byte, 1024)
	payload10KB := make([]byte, 10*1024)
	base58Payload := make([]byte, 100)

	pair, err := keystore.Generate()
	if err != nil {
		return types.BenchmarkSuite{}, errs.Wrap(errs.Cryptographic, "generate benchmark keypair", err)
	}
	msg := []byte("nockit benchmark payload")
	sig := keystore.Sign(pair.Private, msg)

	specs := []Spec{
		{Name: "keygen_ed25519", Fn: func() error {
			_, err := keystore.Generate()
			return err
		}},
		{Name: "sign_ed25519", Fn: func() error {
			keystore.Sign(pair.Private, msg)
			return nil
		}},
		{Name: "verify_ed25519", Fn: func() error {
			if !keystore.Verify(pair.Public, msg, sig) {
				return errs.New(errs.Cryptographic, "verification failed")
			}
			return nil
		}},
		{Name: "blake3_1kb", Fn: func() error {
			keystore.Hash(payload1KB)
			return nil
		}},
		{Name: "blake3_10kb", Fn: func() error {
			keystore.Hash(payload10KB)
			return nil
		}},
		{Name: "base58_encode_100b", Fn: func() error {
			keystore.HashToBase58(base58Payload)
			return nil
		}},
		{Name: "io_write_read_roundtrip", Fn: ioRoundTrip(dir)},
		{Name: "net_loopback_roundtrip", Fn: netRoundTrip(ctx)},
	}
	for i := range specs {
		specs[i].Iterations = iterations
		specs[i].Warmup = warmup
	}

	results := make([]types.BenchmarkResult, 0, len(specs))
	for _, s := range specs {
		results = append(results, Run(s))
	}

	return types.BenchmarkSuite{
		RunID:      uuid.NewString(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		System:     CollectSystemInfo(),
		Results:    results,
	}, nil
}

// ioRoundTrip writes then reads back a small file under dir, exercising
// the filesystem path Nockit's other components write through.
func ioRoundTrip(dir string) Func {
	payload := []byte("nockit io benchmark payload")
	return func() error {
		f, err := os.CreateTemp(dir, "bench-io-*.tmp")
		if err != nil {
			return err
		}
		path := f.Name()
		defer os.Remove(path)

		if _, err := f.Write(payload); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}

		got, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if len(got) != len(payload) {
			return fmt.Errorf("short read: got %d want %d", len(got), len(payload))
		}
		return nil
	}
}

// netRoundTrip measures a connect+echo round trip against a loopback
// listener started once and reused across iterations.
func netRoundTrip(ctx context.Context) Func {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return func() error { return err }
	}
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go func(c net.Conn) {
				defer c.Close()
				buf := make([]byte, 64)
				n, err := c.Read(buf)
				if err != nil {
					return
				}
				_, _ = c.Write(buf[:n])
			}(conn)
		}
	}()

	addr := listener.Addr().String()
	payload := []byte("ping")

	return func() error {
		d := net.Dialer{}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return err
		}
		defer conn.Close()

		if _, err := conn.Write(payload); err != nil {
			return err
		}
		buf := make([]byte, len(payload))
		if _, err := conn.Read(buf); err != nil {
			return err
		}
		if string(buf) != string(payload) {
			return fmt.Errorf("echo mismatch: got %q", buf)
		}
		return nil
	}
}

// SaveReport writes suite as JSON to dir/<run-id>.json using a
// write-temp-then-rename so a crash mid-write never leaves a partial
// report in place.
func SaveReport(dir string, suite types.BenchmarkSuite) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Wrap(errs.IO, "create benchmark report directory", err)
	}

	data, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		return "", errs.Wrap(errs.IO, "marshal benchmark report", err)
	}

	finalPath := filepath.Join(dir, suite.RunID+".json")
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", errs.Wrap(errs.IO, "write benchmark report", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", errs.Wrap(errs.IO, "finalize benchmark report", err)
	}
	return finalPath, nil
}
