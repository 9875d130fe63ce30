package storage

import (
	"time"

	"github.com/docxology/nockchain/pkg/types"
)

// Store persists MiningStats history and a benchmark-run index across
// process restarts. It is the only component that owns nockit.db.
type Store interface {
	// RecordMiningStats appends one MiningStats snapshot, keyed by its
	// timestamp, so `mining stats --history` can chart a trend.
	RecordMiningStats(stats types.MiningStats) error

	// LatestMiningStats returns the most recently recorded snapshot.
	// ok is false if no snapshot has ever been recorded.
	LatestMiningStats() (stats types.MiningStats, ok bool, err error)

	// MiningStatsSince returns every snapshot recorded at or after since,
	// oldest first.
	MiningStatsSince(since time.Time) ([]types.MiningStats, error)

	// RecordBenchmarkRun indexes a completed benchmark suite by its run
	// ID so `bench history` can list past runs without re-reading every
	// report file.
	RecordBenchmarkRun(suite types.BenchmarkSuite, reportPath string) error

	// ListBenchmarkRuns returns every indexed run, most recent first.
	ListBenchmarkRuns() ([]BenchmarkRunIndexEntry, error)

	Close() error
}

// BenchmarkRunIndexEntry is one ListBenchmarkRuns row.
type BenchmarkRunIndexEntry struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	ReportPath string
}
