// Package storage persists MiningStats history and a benchmark-run
// index in a single bbolt file, nockit.db. Two buckets: mining_stats
// (one JSON record per RecordMiningStats call, plus a "latest"
// pointer) and bench_runs (one JSON index entry per completed
// Benchmarker suite, keyed by run ID). All state Nockit keeps across
// restarts beyond the TOML config, key files, and LogStore segments
// lives here.
package storage
